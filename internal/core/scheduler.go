package core

// scheduler.go runs background maintenance for the service.
//
// Currently this is load history retention: records older than the
// retention window are deleted from stores that implement HistoryPruner.
// The job is long-running and stops with its context. A failed run is
// logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// Defaults applied by StartHistoryPruner for zero values.
const (
	DefaultHistoryRetention = 30 * 24 * time.Hour
	DefaultPruneInterval    = time.Hour
)

// PruneConfig holds configuration for the history pruner.
type PruneConfig struct {
	Retention     time.Duration // Age after which records are deleted (default: 30 days)
	CheckInterval time.Duration // How often to run (default: 1h)
}

// StartHistoryPruner periodically deletes load records older than
// cfg.Retention. It runs immediately on start, then every CheckInterval,
// and returns when ctx is cancelled. Stores that cannot prune are left
// alone and the call returns at once.
func (s *Service) StartHistoryPruner(ctx context.Context, cfg PruneConfig) {
	pruner, ok := s.history.(HistoryPruner)
	if !ok {
		slog.Info("history store does not support pruning")
		return
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultHistoryRetention
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultPruneInterval
	}

	slog.Info("history pruner started",
		"retention", cfg.Retention,
		"interval", cfg.CheckInterval,
	)

	s.runPruneJob(ctx, pruner, cfg.Retention)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history pruner stopped")
			return
		case <-ticker.C:
			s.runPruneJob(ctx, pruner, cfg.Retention)
		}
	}
}

// runPruneJob performs one prune cycle.
func (s *Service) runPruneJob(ctx context.Context, pruner HistoryPruner, retention time.Duration) int64 {
	start := time.Now()
	cutoff := s.now().Add(-retention)

	removed, err := pruner.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return 0
	}

	slog.Info("pruned load history",
		"records_removed", removed,
		"cutoff", cutoff,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return removed
}
