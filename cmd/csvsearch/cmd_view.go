package main

import (
	"io"

	"github.com/JonMunkholm/csvsearch/internal/csv"
	"github.com/JonMunkholm/csvsearch/internal/logging"
	"github.com/spf13/cobra"
)

func newViewCmd(g *globalOptions) *cobra.Command {
	var (
		headers bool
		render  string
	)

	cmd := &cobra.Command{
		Use:   "view <file>",
		Short: "Print every data row of a CSV file",
		Long: `Print every data row of a CSV file. With --headers the first row is
used for JSON keys and left out of the output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd.OutOrStdout(), cmd.ErrOrStderr(), g, args[0], headers, render)
		},
	}

	cmd.Flags().BoolVar(&headers, "headers", false, "treat the first row as a header row")
	cmd.Flags().StringVar(&render, "render", renderJSON, "output rendering: raw or json")

	return cmd
}

func runView(stdout, stderr io.Writer, g *globalOptions, path string, headers bool, render string) error {
	logger := logging.New(stderr, g.logLevel, "text").With("file", path)

	table, n, err := openTable(g, path, csv.Identity())
	if err != nil {
		return err
	}
	rows, err := table.Objects(headers)
	if err != nil {
		return err
	}

	logger.Debug("file parsed", "bytes", n, "rows", table.Len())
	return writeRows(stdout, rows, headerOf(table, headers), render)
}
