// Package cmd defines and implements the CLI commands for the specsync
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "specsync",
		Short: "A resumable bulk downloader for specification archives.",
		Long: `specsync discovers specification archives published under a tree of
series directory listings, diffs them against a durable progress record, and
downloads the missing ones with a bounded pool of concurrent workers.
Interrupted runs resume where they left off.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	cmd.AddCommand(newSyncCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
