// Package core provides the dataset service behind the HTTP API.
//
// This package holds the domain logic independent of any transport layer.
// It can be used by web handlers, CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around a few key concepts:
//
//   - Service: The main entry point. It loads CSV files from a data root,
//     keeps them in memory, answers views and searches, and looks up
//     census broadband data.
//   - Datasets: Each load produces an immutable table registered under a
//     fresh ID. The most recent load becomes the active dataset, which is
//     what requests without an explicit dataset ID operate on.
//   - Queries: A [Query] selects one of the three search modes of
//     [csv.Searcher] and is shared by the server and the command line tool.
//   - History: Every load attempt, successful or not, is recorded in a
//     [HistoryStore], either in memory or in PostgreSQL. Records past the
//     retention window are removed by [Service.StartHistoryPruner].
//
// # Loading
//
// Loads are throttled by a [LoadLimiter]. The flow is:
//
//  1. Client calls [Service.Load] with a path relative to the data root
//  2. The path is confined to the root and the file is opened and decoded
//  3. Every line is tokenized into a row and the table is registered
//  4. A [LoadRecord] is written to the history store
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - CSV001-CSV004: Parsing and conversion errors
//   - SRC001-SRC004: File and data root errors
//   - QRY001-QRY003: Query errors (bad mode, bad column, no dataset)
//   - CEN001-CEN003: Census datasource errors
//   - LOAD001-LOAD003: Load throttling and cancellation
package core
