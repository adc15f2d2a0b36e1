package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/csvsearch/internal/core"
	"github.com/JonMunkholm/csvsearch/internal/csv"
	"github.com/JonMunkholm/csvsearch/internal/logging"
	"github.com/spf13/cobra"
)

// Output renderings for matched rows.
const (
	renderRaw    = "raw"
	renderString = "string"
	renderJSON   = "json"
)

type searchOptions struct {
	headers bool
	mode    string
	column  string
	render  string
}

func newSearchCmd(g *globalOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <file> <value>",
		Short: "Print the rows of a CSV file that contain a value",
		Long: `Print the rows of a CSV file whose field equals value, ignoring case.

Modes:
  name   match the column whose header equals --column (needs --headers)
  index  match column number --column, counting from 0
  all    match any column

Renderings:
  raw     fields joined with commas
  string  fields formatted as [a, b, c]
  json    rows keyed object1..N, fields keyed by header or field1..N`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.OutOrStdout(), cmd.ErrOrStderr(), g, args[0], args[1], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.headers, "headers", false, "treat the first row as a header row")
	cmd.Flags().StringVar(&opts.mode, "mode", "all", "search mode: name, index or all")
	cmd.Flags().StringVar(&opts.column, "column", "", "column name (mode name) or number (mode index)")
	cmd.Flags().StringVar(&opts.render, "render", renderRaw, "output rendering: raw, string or json")

	return cmd
}

func runSearch(stdout, stderr io.Writer, g *globalOptions, path, value string, opts searchOptions) error {
	logger := logging.New(stderr, g.logLevel, "text").With("file", path)

	q, err := core.NewQuery(opts.mode, value, opts.column)
	if err != nil {
		return err
	}

	switch strings.ToLower(opts.render) {
	case renderString:
		table, n, err := openTable(g, path, csv.Render())
		if err != nil {
			return err
		}
		matches, err := core.RunQuery(csv.NewSearcher(table, opts.headers), q)
		if err != nil {
			return err
		}
		logger.Debug("search complete", "bytes", n, "rows", table.Len(), "matches", len(matches))
		for _, m := range matches {
			fmt.Fprintln(stdout, m)
		}
		return nil

	case renderRaw, renderJSON:
		table, n, err := openTable(g, path, csv.Identity())
		if err != nil {
			return err
		}
		matches, err := core.RunQuery(csv.NewSearcher(table, opts.headers), q)
		if err != nil {
			return err
		}
		logger.Debug("search complete", "bytes", n, "rows", table.Len(), "matches", len(matches))
		return writeRows(stdout, matches, headerOf(table, opts.headers), opts.render)
	}

	return &csv.InvalidQueryError{Reason: fmt.Sprintf("render must be raw, string or json, got %q", opts.render)}
}

// headerOf returns the header row when the table has one.
func headerOf(table *csv.Table[[]string], hasHeaders bool) []string {
	if !hasHeaders {
		return nil
	}
	header, _ := table.Header()
	return header
}

func writeRows(w io.Writer, rows [][]string, header []string, render string) error {
	if strings.EqualFold(render, renderJSON) {
		b, err := json.MarshalIndent(core.RenderRecords(rows, header), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, ",")); err != nil {
			return err
		}
	}
	return nil
}
