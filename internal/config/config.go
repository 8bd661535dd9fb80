package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dart-platform/dart-cli/internal/constants"
)

// Auth types accepted in profiles.
const (
	AuthNone  = "none"
	AuthBasic = "basic"
	AuthToken = "token"
)

// Proxy modes accepted in profiles.
const (
	ProxyNone   = "no-proxy"
	ProxySystem = "system"
	ProxyBasic  = "basic"
	ProxyNTLM   = "ntlm"
)

// AuthConfig describes how requests to the ingest service authenticate.
type AuthConfig struct {
	Type     string `json:"type"` // "none", "basic", "token"
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
}

// ProxyConfig holds outbound proxy settings.
type ProxyConfig struct {
	Mode     string `json:"mode"` // "no-proxy", "system", "basic", "ntlm"
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	NoProxy  string `json:"no_proxy,omitempty"` // Comma-separated list of hosts to bypass proxy
}

// UploadConfig holds worker pool defaults.
type UploadConfig struct {
	Workers       int `json:"workers"`
	RetryAttempts int `json:"retry_attempts"`
	RetryDelayMS  int `json:"retry_delay_ms"`
}

// Config represents a DART profile.
type Config struct {
	Host        string       `json:"host"`
	ForkliftURL string       `json:"forklift_url,omitempty"`
	Auth        AuthConfig   `json:"auth"`
	Tenants     []string     `json:"tenants,omitempty"`
	Proxy       ProxyConfig  `json:"proxy"`
	Upload      UploadConfig `json:"upload"`
}

// DefaultConfig returns the settings used when no profile file exists.
func DefaultConfig() *Config {
	return &Config{
		Host: constants.DefaultHost,
		Auth: AuthConfig{Type: AuthNone},
		Proxy: ProxyConfig{
			Mode: ProxyNone,
		},
		Upload: UploadConfig{
			Workers:       constants.DefaultWorkers,
			RetryAttempts: constants.DefaultRetryAttempts,
			RetryDelayMS:  int(constants.DefaultRetryDelay / time.Millisecond),
		},
	}
}

// LoadConfig loads a profile from a JSON file.
// A missing file yields the defaults; a malformed one is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	cfg.Auth.Type = strings.ToLower(strings.TrimSpace(cfg.Auth.Type))
	if cfg.Auth.Type == "" {
		cfg.Auth.Type = AuthNone
	}
	cfg.Proxy.Mode = strings.ToLower(strings.TrimSpace(cfg.Proxy.Mode))
	if cfg.Proxy.Mode == "" {
		cfg.Proxy.Mode = ProxyNone
	}

	return cfg, nil
}

// SaveConfig writes a profile as indented JSON readable only by the owner.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// MergeWithEnv applies DART_* environment overrides on top of the profile.
// Priority: flags > environment > profile file > defaults. Flags are applied
// afterwards by MergeWithFlags.
func (c *Config) MergeWithEnv() {
	if v := os.Getenv("DART_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("DART_FORKLIFT_URL"); v != "" {
		c.ForkliftURL = v
	}
	if v := os.Getenv("DART_TOKEN"); v != "" {
		c.Auth.Token = v
		c.Auth.Type = AuthToken
	}
	if v := os.Getenv("DART_USERNAME"); v != "" {
		c.Auth.Username = v
		if c.Auth.Type == AuthNone {
			c.Auth.Type = AuthBasic
		}
	}
	if v := os.Getenv("DART_PASSWORD"); v != "" {
		c.Auth.Password = v
	}
	if v := os.Getenv("DART_TENANTS"); v != "" {
		c.Tenants = SplitList(v, ",")
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" && c.Proxy.Host == "" {
		c.parseProxyURL(v)
	}
}

// FlagOverrides carries command-line values that take precedence over the
// profile and environment. Zero values mean "not set".
type FlagOverrides struct {
	Host          string
	ForkliftURL   string
	Tenants       []string
	Workers       int
	RetryAttempts int
	RetryDelay    time.Duration
	RetryDelaySet bool
}

// MergeWithFlags applies command-line overrides (highest priority).
func (c *Config) MergeWithFlags(f FlagOverrides) {
	if f.Host != "" {
		c.Host = f.Host
	}
	if f.ForkliftURL != "" {
		c.ForkliftURL = f.ForkliftURL
	}
	if len(f.Tenants) > 0 {
		c.Tenants = appendUnique(c.Tenants, f.Tenants...)
	}
	if f.Workers > 0 {
		c.Upload.Workers = f.Workers
	}
	if f.RetryAttempts > 0 {
		c.Upload.RetryAttempts = f.RetryAttempts
	}
	if f.RetryDelaySet {
		c.Upload.RetryDelayMS = int(f.RetryDelay / time.Millisecond)
	}
}

// RetryDelay returns the configured delay between upload attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Upload.RetryDelayMS) * time.Millisecond
}

// ForkliftBaseURL returns the forklift API root for this profile.
func (c *Config) ForkliftBaseURL() string {
	if c.ForkliftURL != "" {
		return strings.TrimSuffix(c.ForkliftURL, "/")
	}
	host := c.Host
	if host == "" {
		host = constants.DefaultHost
	}
	return fmt.Sprintf("http://%s:%d%s", host, constants.DefaultForkliftPort, constants.ForkliftBasePath)
}

// UploadURL returns the document ingest endpoint.
func (c *Config) UploadURL() string {
	return c.ForkliftBaseURL() + constants.ForkliftUploadPath
}

// Validate checks that the profile can drive an upload run.
func (c *Config) Validate() error {
	if c.Upload.Workers < constants.MinWorkers || c.Upload.Workers > constants.MaxWorkers {
		return fmt.Errorf("workers must be between %d and %d, got %d",
			constants.MinWorkers, constants.MaxWorkers, c.Upload.Workers)
	}
	if c.Upload.RetryAttempts < 1 || c.Upload.RetryAttempts > constants.MaxRetryAttempts {
		return fmt.Errorf("retry attempts must be between 1 and %d, got %d",
			constants.MaxRetryAttempts, c.Upload.RetryAttempts)
	}
	if c.Upload.RetryDelayMS < 0 {
		return fmt.Errorf("retry delay must not be negative")
	}

	switch c.Auth.Type {
	case AuthNone:
	case AuthBasic:
		if c.Auth.Username == "" {
			return fmt.Errorf("basic auth requires a username")
		}
	case AuthToken:
		if c.Auth.Token == "" {
			return fmt.Errorf("token auth requires a token")
		}
	default:
		return fmt.Errorf("unsupported auth type: %s", c.Auth.Type)
	}

	switch c.Proxy.Mode {
	case ProxyNone, ProxySystem, ProxyBasic, ProxyNTLM:
	default:
		return fmt.Errorf("unsupported proxy mode: %s", c.Proxy.Mode)
	}
	return nil
}

// Masked returns a copy with secrets replaced, for display.
func (c *Config) Masked() *Config {
	out := *c
	out.Tenants = append([]string(nil), c.Tenants...)
	if out.Auth.Password != "" {
		out.Auth.Password = "********"
	}
	if out.Auth.Token != "" {
		out.Auth.Token = maskToken(out.Auth.Token)
	}
	if out.Proxy.Password != "" {
		out.Proxy.Password = "********"
	}
	return &out
}

func maskToken(tok string) string {
	if len(tok) <= 8 {
		return "********"
	}
	return tok[:4] + "..." + tok[len(tok)-4:]
}

// parseProxyURL parses a proxy URL from environment variable
func (c *Config) parseProxyURL(proxyURL string) {
	proxyURL = strings.TrimPrefix(proxyURL, "http://")
	proxyURL = strings.TrimPrefix(proxyURL, "https://")
	proxyURL = strings.TrimSuffix(proxyURL, "/")

	parts := strings.Split(proxyURL, ":")
	if len(parts) >= 1 {
		c.Proxy.Host = parts[0]
	}
	if len(parts) >= 2 {
		if port, err := strconv.Atoi(parts[1]); err == nil {
			c.Proxy.Port = port
		}
	}
	if c.Proxy.Host != "" && c.Proxy.Mode == ProxyNone {
		c.Proxy.Mode = ProxySystem
	}
}

// SplitList splits sep-separated values, trimming blanks.
func SplitList(value, sep string) []string {
	var out []string
	for _, part := range strings.Split(value, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[v] = true
	}
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			dst = append(dst, v)
		}
	}
	return dst
}
