// Package cli provides configuration management commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dart-platform/dart-cli/internal/config"
	dhttp "github.com/dart-platform/dart-cli/internal/http"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dart profiles",
		Long: `Profile management commands for dart.

Commands:
  init  - Write a profile from flags
  show  - Display the effective profile (secrets masked)
  test  - Check that the forklift service is reachable
  path  - Show the profile file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var (
		force     bool
		cfg       = config.DefaultConfig()
		tenants   []string
		retryWait time.Duration
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a profile from flags",
		Long: `Write a profile file from command-line flags.

The profile is saved to ~/.dart/<profile>.conf (or the --config path) with
owner-only permissions. Unset flags keep their defaults.

Examples:
  dart config init --host dart.example.org --auth-type token --token $TOKEN
  dart -p staging config init --host staging.local --tenant acme --workers 12

Use --force to overwrite an existing profile.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			out := cmd.OutOrStdout()
			path := profilePath()

			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Profile already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'dart config show' to view it.")
					return nil
				}
			}

			for _, v := range tenants {
				cfg.Tenants = append(cfg.Tenants, config.SplitList(v, ",")...)
			}
			if cmd.Flags().Changed("retry-delay") {
				cfg.Upload.RetryDelayMS = int(retryWait / time.Millisecond)
			}
			if cfg.Proxy.Host != "" && cfg.Proxy.Mode == config.ProxyNone && !cmd.Flags().Changed("proxy-mode") {
				cfg.Proxy.Mode = config.ProxyBasic
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.SaveConfig(cfg, path); err != nil {
				return fmt.Errorf("failed to save profile: %w", err)
			}

			logger.Debug().Str("path", path).Msg("Profile saved")
			fmt.Fprintf(out, "✓ Profile saved to: %s\n", path)
			fmt.Fprintf(out, "  Upload URL: %s\n", cfg.UploadURL())
			fmt.Fprintln(out, "Test it with: dart config test")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing profile")
	cmd.Flags().StringVar(&cfg.Host, "host", cfg.Host, "Service host")
	cmd.Flags().StringVar(&cfg.ForkliftURL, "forklift-url", "", "Forklift API base URL (overrides --host)")
	cmd.Flags().StringVar(&cfg.Auth.Type, "auth-type", cfg.Auth.Type, "Auth type: none, basic or token")
	cmd.Flags().StringVar(&cfg.Auth.Username, "username", "", "Basic auth username")
	cmd.Flags().StringVar(&cfg.Auth.Password, "password", "", "Basic auth password")
	cmd.Flags().StringVar(&cfg.Auth.Token, "token", "", "Bearer token")
	cmd.Flags().StringArrayVar(&tenants, "tenant", nil, "Tenant added to every upload; repeatable or comma-separated")
	cmd.Flags().StringVar(&cfg.Proxy.Mode, "proxy-mode", cfg.Proxy.Mode, "Proxy mode: no-proxy, system, basic or ntlm")
	cmd.Flags().StringVar(&cfg.Proxy.Host, "proxy-host", "", "Proxy host")
	cmd.Flags().IntVar(&cfg.Proxy.Port, "proxy-port", 0, "Proxy port (default 8080)")
	cmd.Flags().StringVar(&cfg.Proxy.User, "proxy-user", "", "Proxy username (basic and ntlm modes)")
	cmd.Flags().StringVar(&cfg.Proxy.Password, "proxy-password", "", "Proxy password")
	cmd.Flags().StringVar(&cfg.Proxy.NoProxy, "no-proxy", "", "Comma-separated hosts that bypass the proxy")
	cmd.Flags().IntVar(&cfg.Upload.Workers, "workers", cfg.Upload.Workers, "Default concurrent uploads")
	cmd.Flags().IntVar(&cfg.Upload.RetryAttempts, "retry-attempts", cfg.Upload.RetryAttempts, "Default attempts per file")
	cmd.Flags().DurationVar(&retryWait, "retry-delay", cfg.RetryDelay(), "Default pause between attempts")

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the effective profile",
		Long: `Display the effective profile with secrets masked.

The profile file is merged with the environment:
  DART_HOST, DART_FORKLIFT_URL, DART_USERNAME, DART_PASSWORD, DART_TOKEN,
  DART_TENANTS, HTTPS_PROXY

Priority: flags > environment > profile file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := profilePath()

			cfg, err := config.LoadConfig(path)
			if err != nil {
				return fmt.Errorf("failed to load profile %s: %w", path, err)
			}
			cfg.MergeWithEnv()

			data, err := json.MarshalIndent(cfg.Masked(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode profile: %w", err)
			}

			fmt.Fprintln(out, "Current Profile")
			fmt.Fprintln(out, "===============")
			fmt.Fprintln(out, string(data))
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Upload URL: %s\n", cfg.UploadURL())
			fmt.Fprintf(out, "Profile file: %s\n", path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(out, "  (file does not exist - using defaults)")
			}
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(out, "Warning: %v\n", err)
			}
			return nil
		},
	}

	return cmd
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Check that the forklift service is reachable",
		Long: `Send one GET request to the forklift API root with the profile's auth
and proxy settings. Any HTTP response means the service is reachable; 401
and 403 point at the credentials.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			out := cmd.OutOrStdout()

			cfg, err := loadConfig(config.FlagOverrides{})
			if err != nil {
				return err
			}
			headers, err := cfg.Auth.Headers()
			if err != nil {
				return fmt.Errorf("invalid auth configuration: %w", err)
			}
			client, err := dhttp.NewClient(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create HTTP client: %w", err)
			}

			ctx, cancel := context.WithTimeout(GetContext(), 10*time.Second)
			defer cancel()

			url := cfg.ForkliftBaseURL()
			fmt.Fprintf(out, "Testing %s ...\n", url)

			status, err := probe(ctx, client, url, headers)
			if err != nil {
				logger.Error().Err(err).Msg("Connection test failed")
				fmt.Fprintln(out, "✗ Connection FAILED")
				return fmt.Errorf("connection test failed: %w", err)
			}

			switch status {
			case nethttp.StatusUnauthorized, nethttp.StatusForbidden:
				fmt.Fprintf(out, "✗ Reachable, but credentials were rejected (status %d)\n", status)
				return fmt.Errorf("authentication failed with status %d", status)
			default:
				fmt.Fprintf(out, "✓ Reachable (status %d)\n", status)
			}
			return nil
		},
	}

	return cmd
}

func probe(ctx context.Context, client *nethttp.Client, url string, headers nethttp.Header) (int, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	for k, vs := range headers {
		req.Header[k] = append([]string(nil), vs...)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show profile file path",
		Long:  `Display the path to the active profile file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := profilePath()
			fmt.Fprintln(out, path)

			if info, err := os.Stat(path); err == nil {
				fmt.Fprintf(out, "Status:   ✓ File exists (%d bytes)\n", info.Size())
				fmt.Fprintf(out, "Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintln(out, "Status:   File does not exist")
				fmt.Fprintln(out, "Create it with: dart config init")
			}
			return nil
		},
	}

	return cmd
}
