// Package cli provides the command-line interface for dart.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dart-platform/dart-cli/internal/config"
	"github.com/dart-platform/dart-cli/internal/forklift"
	"github.com/dart-platform/dart-cli/internal/logging"
	"github.com/dart-platform/dart-cli/internal/version"
)

var (
	// Global flags
	profileName string
	cfgFile     string
	verbose     bool
	debug       bool
	timeout     time.Duration

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dart",
		Short: "DART command-line client",
		Long: `DART ` + version.Version + ` - Built: ` + version.BuildTime + `
Command-line client for the DART document platform.

Bulk-uploads documents to the forklift ingest service with per-file
metadata, moving each file to a succeeded or failed directory when done.

Profiles live in ~/.dart/<name>.conf (see 'dart config').`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger = logging.NewDefaultCLILogger()
			if verbose || debug {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				logging.SetGlobalLevel(zerolog.InfoLevel)
			}
			if timeout < 0 {
				return fmt.Errorf("--timeout must not be negative")
			}
			if err := config.LoadDotEnv(""); err != nil {
				logger.Warn().Err(err).Msg("Failed to load .env file")
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "Profile name in ~/.dart (default \"default\", or $DART_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Explicit profile file path (overrides --profile)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Abort the run after this long, e.g. 30m (0 = no limit)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Repeated signals are harmless; the first one cancels.
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling uploads...\n", sig)
				fmt.Fprintf(os.Stderr, "Files not yet posted are left in place.\n\n")
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// Exit codes returned by ExitCode.
const (
	ExitOK      = 0
	ExitFailed  = 1 // usage errors and runs with failed or cancelled files
	ExitStartup = 2 // the run was aborted before any file was posted
)

// ExitCode maps an Execute error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case forklift.IsFatal(err):
		return ExitStartup
	default:
		return ExitFailed
	}
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newForkliftCmd())
	rootCmd.AddCommand(newPostCmd())
	rootCmd.AddCommand(newConfigCmd())

	AddShortcuts(rootCmd)
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// runContext returns the context for one run, bounded by --timeout.
func runContext() (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(GetContext(), timeout)
	}
	return context.WithCancel(GetContext())
}

// profilePath returns the profile file selected by --config or --profile.
func profilePath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.ProfilePath(config.ResolveProfileName(profileName))
}

// loadConfig loads the active profile and applies the environment and
// flag overrides. Priority: flags > environment > profile > defaults.
func loadConfig(overrides config.FlagOverrides) (*config.Config, error) {
	path := profilePath()
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", path, err)
	}
	cfg.MergeWithEnv()
	cfg.MergeWithFlags(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
