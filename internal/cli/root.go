// Package cli defines the ctxlab command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// Build information, injected via ldflags:
//
//	-X github.com/fyrsmithlabs/ctxlab/internal/cli.version=...
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// NewRootCmd builds the root command and its subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ctxlab",
		Short: "Workspace lab runner for agent development environments",
		Long: `ctxlab snapshots the workspace environment, restores context by scanning
local memory databases, and runs the baseline validation gates, persisting
every artifact under a timestamped run directory.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().String("config", "", "config file (default <root>/.ctxlab.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: trace|debug|info|warn|error")
	root.PersistentFlags().String("log-format", "", "log format: console|json")

	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the CLI. Callers map a non-nil error to exit status 1.
func Execute() error {
	return NewRootCmd().Execute()
}
