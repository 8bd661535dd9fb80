package config

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// Headers returns the request headers for this auth configuration.
// The result is computed once per run and shared read-only by all workers.
func (a AuthConfig) Headers() (http.Header, error) {
	h := make(http.Header)

	switch strings.ToLower(a.Type) {
	case AuthNone, "":
	case AuthBasic:
		if a.Username == "" {
			return nil, fmt.Errorf("basic auth requires a username")
		}
		cred := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
		h.Set("Authorization", "Basic "+cred)
	case AuthToken:
		if a.Token == "" {
			return nil, fmt.Errorf("token auth requires a token")
		}
		h.Set("Authorization", "Bearer "+a.Token)
	default:
		return nil, fmt.Errorf("unsupported auth type: %s", a.Type)
	}

	return h, nil
}

// ParseBasicAuth parses a "user:pass" credential string.
// The password may itself contain colons.
func ParseBasicAuth(s string) (AuthConfig, error) {
	user, pass, ok := strings.Cut(s, ":")
	if !ok || user == "" {
		return AuthConfig{}, fmt.Errorf("credentials must be in the form user:password")
	}
	return AuthConfig{Type: AuthBasic, Username: user, Password: pass}, nil
}
