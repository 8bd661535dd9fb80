// Package config provides profile and environment configuration for the DART CLI.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/dart-platform/dart-cli/internal/constants"
)

// ConfigDirName is the directory under the user's home that holds profiles.
const ConfigDirName = ".dart"

// ConfigDirectory returns the directory holding profile files (~/.dart).
// DART_CONFIG_DIR overrides it.
func ConfigDirectory() string {
	if dir := os.Getenv("DART_CONFIG_DIR"); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ConfigDirName)
	}
	return filepath.Join(homeDir, ConfigDirName)
}

// ResolveProfileName returns the active profile name.
// Priority: flag > DART_PROFILE > "default".
func ResolveProfileName(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("DART_PROFILE"); env != "" {
		return env
	}
	return constants.DefaultProfile
}

// ProfilePath returns the file backing the named profile.
func ProfilePath(name string) string {
	return filepath.Join(ConfigDirectory(), name+constants.ProfileExtension)
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set are not overwritten. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
