package csv

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// Table is the immutable result of tokenizing every line of a source.
// It keeps the factory used to convert rows into objects of type T.
//
// A Table is safe for concurrent readers: nothing mutates it after Parse
// returns.
type Table[T any] struct {
	rows    [][]string
	factory RowFactory[T]
}

// Parse reads r to completion and tokenizes every line into a row.
//
// If r implements io.Closer it is closed before Parse returns, whether or not
// reading succeeded. Parse fails only when the source cannot be read or
// closed; ragged or empty lines never cause an error.
func Parse[T any](r io.Reader, factory RowFactory[T]) (t *Table[T], err error) {
	if c, ok := r.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil && err == nil {
				t, err = nil, &SourceError{Op: "close", Path: sourceName(r), Err: cerr}
			}
		}()
	}

	rows, err := readRows(r)
	if err != nil {
		return nil, &SourceError{Op: "read", Path: sourceName(r), Err: err}
	}
	return &Table[T]{rows: rows, factory: factory}, nil
}

// ParseFile opens path, parses it and closes it.
func ParseFile[T any](path string, factory RowFactory[T]) (*Table[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceError{Op: "open", Path: path, Err: err}
	}
	return Parse(f, factory)
}

// FromRows builds a table from rows that are already tokenized. The rows are
// copied.
func FromRows[T any](rows [][]string, factory RowFactory[T]) *Table[T] {
	return &Table[T]{rows: copyRows(rows), factory: factory}
}

// readRows splits the source on "\n", dropping a trailing "\r" from each
// line. A final line without a newline still counts as a row.
func readRows(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	var rows [][]string
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			rows = append(rows, SplitLine(line))
		}
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// sourceName returns the file name behind r, if any.
func sourceName(r io.Reader) string {
	if n, ok := r.(interface{ Name() string }); ok {
		return n.Name()
	}
	return ""
}

// Len returns the number of rows, including a header row if there is one.
func (t *Table[T]) Len() int {
	return len(t.rows)
}

// Rows returns a copy of the raw table.
func (t *Table[T]) Rows() [][]string {
	return copyRows(t.rows)
}

// Header returns a copy of row 0. The table has no notion of headers itself;
// callers decide whether row 0 is one.
func (t *Table[T]) Header() ([]string, bool) {
	if len(t.rows) == 0 {
		return nil, false
	}
	return append([]string(nil), t.rows[0]...), true
}

// Objects converts every row, or every row after row 0 when skipFirstRow is
// set, through the table's factory. The result is computed on each call.
//
// The first row the factory rejects aborts the conversion with a
// *ConversionError; no partial result is returned.
func (t *Table[T]) Objects(skipFirstRow bool) ([]T, error) {
	return t.convert(t.dataRows(skipFirstRow))
}

func (t *Table[T]) dataRows(skipFirstRow bool) [][]string {
	if skipFirstRow {
		if len(t.rows) == 0 {
			return nil
		}
		return t.rows[1:]
	}
	return t.rows
}

func (t *Table[T]) convert(rows [][]string) ([]T, error) {
	objects := make([]T, 0, len(rows))
	for _, row := range rows {
		obj, err := t.factory.Create(row)
		if err != nil {
			return nil, newConversionError(row, err)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
