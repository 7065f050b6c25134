// Package cli wires configuration, storage and transport into the lms-service commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree. Running the binary without a
// subcommand starts the HTTP server.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "lms-service",
		Short:         "Course and learning-management backend",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newCreateAdminCommand(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
