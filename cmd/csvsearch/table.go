package main

import (
	"github.com/JonMunkholm/csvsearch/internal/csv"
	"github.com/JonMunkholm/csvsearch/internal/source"
)

// openTable parses path through the decode chain selected by g.
// csv.Parse closes the file.
func openTable[T any](g *globalOptions, path string, factory csv.RowFactory[T]) (*csv.Table[T], int64, error) {
	f, err := source.Open(path, source.Options{
		Encoding: g.encoding,
		Sanitize: g.sanitize,
	})
	if err != nil {
		return nil, 0, err
	}

	table, err := csv.Parse(f, factory)
	if err != nil {
		return nil, 0, err
	}
	return table, f.BytesRead(), nil
}
