package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveAbsolutePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/docs", filepath.Join(home, "docs")},
		{"rel/dir", filepath.Join(cwd, "rel", "dir")},
		{"~user/x", filepath.Join(cwd, "~user", "x")},
	}

	for _, tt := range tests {
		got, err := ResolveAbsolutePath(tt.in)
		if err != nil {
			t.Fatalf("ResolveAbsolutePath(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ResolveAbsolutePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveAll(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	a, b := "~/in", ""
	if err := ResolveAll(&a, &b); err != nil {
		t.Fatal(err)
	}
	if a != filepath.Join(home, "in") || b != "" {
		t.Errorf("got %q, %q", a, b)
	}
}
