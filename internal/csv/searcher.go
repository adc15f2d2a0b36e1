package csv

import "strings"

// Searcher answers column queries against one table.
//
// When hasHeaders is set, row 0 is treated as column names and excluded from
// the scan. Every query converts the scanned rows through the table's factory
// first and returns the objects aligned with the matching rows, in row order.
// A Searcher holds no mutable state and may be shared between goroutines.
type Searcher[T any] struct {
	table      *Table[T]
	hasHeaders bool
}

// NewSearcher returns a searcher over table.
func NewSearcher[T any](table *Table[T], hasHeaders bool) *Searcher[T] {
	return &Searcher[T]{table: table, hasHeaders: hasHeaders}
}

// HasHeaders reports whether row 0 is treated as a header row.
func (s *Searcher[T]) HasHeaders() bool {
	return s.hasHeaders
}

// ByColumnName returns the objects of rows whose cell in the named column
// equals value, ignoring case.
//
// The name is matched case-insensitively against the header row and the first
// match wins. A headerless table yields *InvalidQueryError; an unknown name
// yields *IndexOutOfRangeError without scanning any rows.
func (s *Searcher[T]) ByColumnName(value, name string) ([]T, error) {
	if !s.hasHeaders {
		return nil, &InvalidQueryError{Reason: ReasonHeadersRequired}
	}

	objects, rows, err := s.convert()
	if err != nil {
		return nil, err
	}

	index := s.columnIndex(name)
	if index < 0 {
		return nil, &IndexOutOfRangeError{Index: index, Column: name}
	}
	return matchColumn(objects, rows, value, index)
}

// ByColumnIndex returns the objects of rows whose cell at index equals value,
// ignoring case. An index outside any scanned row yields
// *IndexOutOfRangeError.
func (s *Searcher[T]) ByColumnIndex(value string, index int) ([]T, error) {
	objects, rows, err := s.convert()
	if err != nil {
		return nil, err
	}
	return matchColumn(objects, rows, value, index)
}

// AllColumns returns the objects of rows that have at least one field equal
// to value, ignoring case. Each row contributes at most once.
func (s *Searcher[T]) AllColumns(value string) ([]T, error) {
	objects, rows, err := s.convert()
	if err != nil {
		return nil, err
	}

	results := make([]T, 0)
	for i, row := range rows {
		for _, field := range row {
			if strings.EqualFold(value, field) {
				results = append(results, objects[i])
				break
			}
		}
	}
	return results, nil
}

// convert returns the data rows and their objects, aligned by position.
func (s *Searcher[T]) convert() ([]T, [][]string, error) {
	rows := s.table.dataRows(s.hasHeaders)
	objects, err := s.table.convert(rows)
	if err != nil {
		return nil, nil, err
	}
	return objects, rows, nil
}

// columnIndex resolves a header name, or returns -1.
func (s *Searcher[T]) columnIndex(name string) int {
	if len(s.table.rows) == 0 {
		return -1
	}
	for i, h := range s.table.rows[0] {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

func matchColumn[T any](objects []T, rows [][]string, value string, index int) ([]T, error) {
	results := make([]T, 0)
	for i, row := range rows {
		if index < 0 || index >= len(row) {
			return nil, &IndexOutOfRangeError{Index: index}
		}
		if strings.EqualFold(value, row[index]) {
			results = append(results, objects[i])
		}
	}
	return results, nil
}
