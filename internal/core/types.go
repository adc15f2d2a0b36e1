package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// DateTimeLayout is the timestamp format used in broadband responses.
const DateTimeLayout = "02-01-2006 15:04:05"

// DatasetInfo describes a loaded dataset.
type DatasetInfo struct {
	ID         string    `json:"id"`
	Path       string    `json:"filepath"`
	HasHeaders bool      `json:"has_headers"`
	Header     []string  `json:"header,omitempty"`
	Rows       int       `json:"rows"`
	Bytes      int64     `json:"bytes"`
	Encoding   string    `json:"encoding"`
	LoadedAt   time.Time `json:"loaded_at"`
	Active     bool      `json:"active"`
}

// DataRows is the number of rows excluding the header.
func (d DatasetInfo) DataRows() int {
	if d.HasHeaders && d.Rows > 0 {
		return d.Rows - 1
	}
	return d.Rows
}

// LoadRequest asks the service to load a file from the data root.
type LoadRequest struct {
	Path       string
	HasHeaders bool
	Encoding   string // empty uses the configured default
}

// SearchRequest asks the service to search a dataset.
type SearchRequest struct {
	DatasetID string // empty uses the active dataset
	Mode      string
	Value     string
	Column    string
}

// View is the rendered content of a dataset.
type View struct {
	Dataset DatasetInfo `json:"dataset"`
	Records RecordSet   `json:"data"`
}

// SearchResult holds the rows that matched a search.
type SearchResult struct {
	Dataset DatasetInfo `json:"dataset"`
	Query   Query       `json:"query"`
	Matches int         `json:"matches"`
	Records RecordSet   `json:"data"`
}

// BroadbandResult is the census answer for one county.
type BroadbandResult struct {
	State     string     `json:"state"`
	County    string     `json:"county"`
	Data      [][]string `json:"data"`
	Retrieved time.Time  `json:"-"`
}

// DateTime formats Retrieved with DateTimeLayout.
func (b BroadbandResult) DateTime() string {
	return b.Retrieved.Format(DateTimeLayout)
}
