package core

// load_limiter.go bounds how many files are read and tokenized at once.
//
// Loading holds a whole table in memory, so parallel loads are limited to a
// configurable maximum. When all slots are occupied, new requests wait up to
// maxWait before failing with ErrTooManyLoads. WaitForDrain lets shutdown
// block until in-flight loads finish.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyLoads is returned when all load slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManyLoads = errors.New("too many concurrent loads, please try again later")

// DefaultMaxConcurrentLoads is the default limit for parallel loads.
const DefaultMaxConcurrentLoads = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// LoadLimiter is a counting semaphore for dataset loads.
type LoadLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
	total  int64
}

// NewLoadLimiter creates a limiter that allows at most maxConcurrent
// simultaneous loads. Non-positive arguments select the defaults.
func NewLoadLimiter(maxConcurrent int, maxWait time.Duration) *LoadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentLoads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &LoadLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a load slot. It returns ErrTooManyLoads once maxWait
// passes, or ctx.Err() if ctx ends first.
// The caller MUST call Release() when the load completes.
func (l *LoadLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.total++
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyLoads
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *LoadLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.total++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *LoadLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.slots
}

// ActiveCount returns the number of loads in progress.
func (l *LoadLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Available returns the number of free slots.
func (l *LoadLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no loads are active or ctx is done.
func (l *LoadLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LoadLimiterStatus is a snapshot of the limiter.
type LoadLimiterStatus struct {
	Active        int   `json:"active"`
	Available     int   `json:"available"`
	MaxConcurrent int   `json:"max_concurrent"`
	Total         int64 `json:"total"`
}

// Status returns the current limiter state for the health endpoint.
func (l *LoadLimiter) Status() LoadLimiterStatus {
	l.mu.RLock()
	active, total := l.active, l.total
	l.mu.RUnlock()

	return LoadLimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
		Total:         total,
	}
}
