// Package cli is the idxtool command tree, grounded on GoStore's
// internal/cli: a cobra root command with subcommands registered in
// init(), Execute() wrapping rootCmd.Execute() with a plain os.Exit(1) on
// error.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"btreeidx/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "idxtool",
	Short: "Build, query, and inspect disk-resident B+-tree indexes",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetLevel(logLevel)
	},
}

// Execute runs the command tree; on error it prints the error and exits
// with status 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(insertCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(inspectCmd)
}
