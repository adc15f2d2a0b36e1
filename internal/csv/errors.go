package csv

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrSourceAccess    = errors.New("source access error")
	ErrConversion      = errors.New("conversion error")
	ErrInvalidQuery    = errors.New("invalid query")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// msgIndexOutOfRange replaces the raw bounds-check failure.
const msgIndexOutOfRange = "column index input is not a valid row index"

// SourceError reports that a source could not be opened or fully read.
type SourceError struct {
	Op   string // "open", "read" or "close"
	Path string // empty for plain readers
	Err  error
}

func (e *SourceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("csv source %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("csv source %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrSourceAccess }

// ConversionError reports that a RowFactory rejected a row. Row always holds
// the raw content of the rejected row.
//
// The message is generic on purpose: callers identify the bad input by Row,
// not by the factory's internal reason. The original failure is still
// reachable through errors.Unwrap for logging.
type ConversionError struct {
	Row   []string
	cause error
}

func newConversionError(row []string, cause error) *ConversionError {
	return &ConversionError{Row: append([]string(nil), row...), cause: cause}
}

func (e *ConversionError) Error() string {
	return "could not parse row into object: " + formatRow(e.Row)
}

func (e *ConversionError) Unwrap() error { return e.cause }

func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

// InvalidQueryError reports a query that cannot be answered for the table's
// configuration, such as a column-name search on a headerless table.
type InvalidQueryError struct {
	Reason string
}

// ReasonHeadersRequired is the Reason given for a column-name search on a
// table loaded without a header row.
const ReasonHeadersRequired = "column name search requires a header row"

func (e *InvalidQueryError) Error() string { return "invalid query: " + e.Reason }

func (e *InvalidQueryError) Is(target error) bool { return target == ErrInvalidQuery }

// IndexOutOfRangeError reports a column that does not exist. Column is set
// when the lookup was by header name.
type IndexOutOfRangeError struct {
	Index  int
	Column string
}

func (e *IndexOutOfRangeError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("no such column %q: %s", e.Column, msgIndexOutOfRange)
	}
	return msgIndexOutOfRange
}

func (e *IndexOutOfRangeError) Is(target error) bool { return target == ErrIndexOutOfRange }

// formatRow renders a row as [a, b, c].
func formatRow(row []string) string {
	return "[" + strings.Join(row, ", ") + "]"
}
