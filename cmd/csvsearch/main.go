// Command csvsearch loads a CSV file and searches or prints it from the
// command line, using the same parser and query rules as the HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/csvsearch/internal/core"
	"github.com/spf13/cobra"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	encoding string
	sanitize bool
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var g globalOptions

	rootCmd := &cobra.Command{
		Use:           "csvsearch",
		Short:         "Search CSV files by column name, column index or any column",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.encoding, "encoding", "", "source character encoding (e.g. windows-1252, latin1, cp850)")
	rootCmd.PersistentFlags().BoolVar(&g.sanitize, "sanitize", false, "replace invalid UTF-8 bytes with '?'")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level written to stderr (debug, info, warn, error)")

	rootCmd.AddCommand(newSearchCmd(&g))
	rootCmd.AddCommand(newViewCmd(&g))

	return rootCmd
}
