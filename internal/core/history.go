package core

import (
	"context"
	"sync"
	"time"
)

// DefaultHistorySize is how many records MemoryHistory keeps.
const DefaultHistorySize = 200

// LoadRecord describes one load attempt. Error is empty on success.
type LoadRecord struct {
	ID         string        `json:"id"`
	DatasetID  string        `json:"dataset_id,omitempty"`
	Path       string        `json:"filepath"`
	HasHeaders bool          `json:"has_headers"`
	Rows       int           `json:"rows"`
	Bytes      int64         `json:"bytes"`
	Error      string        `json:"error,omitempty"`
	IPAddress  string        `json:"ip_address,omitempty"`
	UserAgent  string        `json:"user_agent,omitempty"`
	LoadedAt   time.Time     `json:"loaded_at"`
	Duration   time.Duration `json:"duration_ns"`
}

// Succeeded reports whether the load produced a dataset.
func (r LoadRecord) Succeeded() bool { return r.Error == "" }

// HistoryStore persists load records.
type HistoryStore interface {
	Record(ctx context.Context, rec LoadRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]LoadRecord, error)
}

// HistoryPruner is implemented by stores that can drop old records.
type HistoryPruner interface {
	// Prune deletes records loaded before cutoff and returns how many.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// MemoryHistory is a fixed-size ring of load records.
type MemoryHistory struct {
	mu    sync.Mutex
	buf   []LoadRecord
	next  int
	count int
}

// NewMemoryHistory keeps the last size records (DefaultHistorySize if size <= 0).
func NewMemoryHistory(size int) *MemoryHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &MemoryHistory{buf: make([]LoadRecord, size)}
}

// Record stores rec, overwriting the oldest record when full.
func (h *MemoryHistory) Record(_ context.Context, rec LoadRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf[h.next] = rec
	h.next = (h.next + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
	return nil
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (h *MemoryHistory) Recent(_ context.Context, limit int) ([]LoadRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if limit <= 0 || limit > h.count {
		limit = h.count
	}
	out := make([]LoadRecord, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (h.next - i + len(h.buf)) % len(h.buf)
		out = append(out, h.buf[idx])
	}
	return out, nil
}

// Prune drops records loaded before cutoff, keeping the rest in order.
func (h *MemoryHistory) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	kept := make([]LoadRecord, 0, h.count)
	for i := h.count; i >= 1; i-- {
		rec := h.buf[(h.next-i+len(h.buf))%len(h.buf)]
		if !rec.LoadedAt.Before(cutoff) {
			kept = append(kept, rec)
		}
	}

	removed := int64(h.count - len(kept))
	clear(h.buf)
	copy(h.buf, kept)
	h.count = len(kept)
	h.next = len(kept) % len(h.buf)
	return removed, nil
}
