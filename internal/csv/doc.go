// Package csv provides a quote-aware CSV tokenizer, an immutable in-memory
// table, and a column searcher over that table.
//
// The package has no transport or storage dependencies. It is used by the
// dataset service, the HTTP API and the command line tool alike.
//
// # Parsing
//
// [Parse] reads an entire source into a [Table]. Every source line becomes
// one row; fields are split on commas that are not inside a double-quoted
// span and trimmed of surrounding whitespace. Quote characters are kept
// verbatim:
//
//	a,b,"c,d"   ->   [a] [b] ["c,d"]
//
// An embedded, undoubled quote inside a quoted field ("he said "hi"") is not
// un-escaped. Only fields wrapped once in quotes are protected.
//
// # Conversion
//
// A [RowFactory] turns a raw row into a value of type T. [Identity] returns
// the row itself and [Render] returns a display string. Conversion happens on
// every call to [Table.Objects]; nothing is cached inside the table.
//
// # Searching
//
// A [Searcher] answers three query shapes over the data rows of a table:
//
//   - [Searcher.ByColumnName]: requires a header row
//   - [Searcher.ByColumnIndex]: zero-based column index
//   - [Searcher.AllColumns]: any field in the row
//
// Matching is exact and case-insensitive. Results preserve row order and
// never contain the same row twice.
//
// # Errors
//
// Failures are typed: [*SourceError], [*ConversionError],
// [*InvalidQueryError] and [*IndexOutOfRangeError]. Each also matches a
// sentinel through errors.Is.
package csv
