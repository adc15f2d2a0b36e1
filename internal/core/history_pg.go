package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS csv_loads (
    id          UUID PRIMARY KEY,
    dataset_id  UUID,
    path        TEXT NOT NULL,
    has_headers BOOLEAN NOT NULL DEFAULT FALSE,
    row_count   INTEGER NOT NULL DEFAULT 0,
    byte_count  BIGINT NOT NULL DEFAULT 0,
    error       TEXT,
    ip_address  TEXT,
    user_agent  TEXT,
    loaded_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    duration_ms BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS csv_loads_loaded_at_idx ON csv_loads (loaded_at DESC);
`

const insertLoadSQL = `
INSERT INTO csv_loads (
    id, dataset_id, path, has_headers, row_count, byte_count,
    error, ip_address, user_agent, loaded_at, duration_ms
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

const recentLoadsSQL = `
SELECT id, dataset_id, path, has_headers, row_count, byte_count,
       error, ip_address, user_agent, loaded_at, duration_ms
FROM csv_loads
ORDER BY loaded_at DESC
LIMIT $1`

const pruneLoadsSQL = `DELETE FROM csv_loads WHERE loaded_at < $1`

// PGHistory stores load records in the csv_loads table.
type PGHistory struct {
	db DBTX
}

// NewPGHistory wraps db, typically a *pgxpool.Pool.
func NewPGHistory(db DBTX) *PGHistory {
	return &PGHistory{db: db}
}

// EnsureSchema creates the csv_loads table if it does not exist.
func (h *PGHistory) EnsureSchema(ctx context.Context) error {
	if _, err := h.db.Exec(ctx, historySchema); err != nil {
		return fmt.Errorf("create csv_loads: %w", err)
	}
	return nil
}

// Record inserts rec.
func (h *PGHistory) Record(ctx context.Context, rec LoadRecord) error {
	_, err := h.db.Exec(ctx, insertLoadSQL,
		nullableUUID(rec.ID),
		nullableUUID(rec.DatasetID),
		rec.Path,
		rec.HasHeaders,
		int32(rec.Rows),
		rec.Bytes,
		nullableText(rec.Error),
		nullableText(rec.IPAddress),
		nullableText(rec.UserAgent),
		pgtype.Timestamptz{Time: rec.LoadedAt, Valid: true},
		rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert load record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. limit <= 0 means
// DefaultHistorySize.
func (h *PGHistory) Recent(ctx context.Context, limit int) ([]LoadRecord, error) {
	if limit <= 0 {
		limit = DefaultHistorySize
	}

	rows, err := h.db.Query(ctx, recentLoadsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query load records: %w", err)
	}
	defer rows.Close()

	out := make([]LoadRecord, 0, limit)
	for rows.Next() {
		var (
			id, datasetID      pgtype.UUID
			rec                LoadRecord
			rowCount           int32
			errText, ip, agent pgtype.Text
			loadedAt           pgtype.Timestamptz
			durationMS         int64
		)
		if err := rows.Scan(&id, &datasetID, &rec.Path, &rec.HasHeaders, &rowCount, &rec.Bytes,
			&errText, &ip, &agent, &loadedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scan load record: %w", err)
		}
		rec.ID = uuidString(id)
		rec.DatasetID = uuidString(datasetID)
		rec.Rows = int(rowCount)
		rec.Error = errText.String
		rec.IPAddress = ip.String
		rec.UserAgent = agent.String
		rec.LoadedAt = loadedAt.Time
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read load records: %w", err)
	}
	return out, nil
}

// Prune deletes records loaded before cutoff.
func (h *PGHistory) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := h.db.Exec(ctx, pruneLoadsSQL, pgtype.Timestamptz{Time: cutoff, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("prune load records: %w", err)
	}
	return tag.RowsAffected(), nil
}

// nullableText maps "" to NULL.
func nullableText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

// nullableUUID maps an empty or malformed id to NULL. Failed loads have no
// dataset id.
func nullableUUID(id string) pgtype.UUID {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func uuidString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
