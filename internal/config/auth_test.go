package config

import (
	"testing"
)

func TestAuthHeaders(t *testing.T) {
	tests := []struct {
		name    string
		auth    AuthConfig
		want    string
		wantErr bool
	}{
		{name: "none", auth: AuthConfig{Type: AuthNone}, want: ""},
		{name: "empty type", auth: AuthConfig{}, want: ""},
		{
			name: "basic",
			auth: AuthConfig{Type: AuthBasic, Username: "user", Password: "pass"},
			want: "Basic dXNlcjpwYXNz",
		},
		{name: "token", auth: AuthConfig{Type: AuthToken, Token: "abc"}, want: "Bearer abc"},
		{name: "basic missing user", auth: AuthConfig{Type: AuthBasic}, wantErr: true},
		{name: "unknown", auth: AuthConfig{Type: "digest"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := tt.auth.Headers()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Headers() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := h.Get("Authorization"); got != tt.want {
				t.Errorf("Authorization = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseBasicAuth(t *testing.T) {
	a, err := ParseBasicAuth("alice:pa:ss")
	if err != nil {
		t.Fatalf("ParseBasicAuth: %v", err)
	}
	if a.Username != "alice" || a.Password != "pa:ss" || a.Type != AuthBasic {
		t.Errorf("got %+v", a)
	}

	for _, bad := range []string{"", "nocolon", ":pass"} {
		if _, err := ParseBasicAuth(bad); err == nil {
			t.Errorf("ParseBasicAuth(%q) expected error", bad)
		}
	}
}
