// Package cli provides command shortcuts for common operations.
package cli

import (
	"github.com/spf13/cobra"
)

// AddShortcuts adds shortcut commands to the root command.
func AddShortcuts(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newSubmitShortcut())
}

// newSubmitShortcut creates the 'submit' shortcut command.
// Shortcut for: forklift submit
func newSubmitShortcut() *cobra.Command {
	cmd := newSubmitCmd("submit [files...]")
	cmd.Short = "Upload documents (shortcut for 'forklift submit')"
	return cmd
}
