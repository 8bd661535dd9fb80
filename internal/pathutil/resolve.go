// Package pathutil resolves user-supplied paths.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveAbsolutePath expands a leading ~ to the home directory and makes
// the path absolute. An empty path stays empty so optional flags remain
// unset.
func ResolveAbsolutePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}

	return filepath.Abs(path)
}

// ResolveAll resolves each non-empty *string in place.
func ResolveAll(paths ...*string) error {
	for _, p := range paths {
		resolved, err := ResolveAbsolutePath(*p)
		if err != nil {
			return err
		}
		*p = resolved
	}
	return nil
}
