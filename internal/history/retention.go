package history

// retention.go runs periodic pruning of old batch reports.
//
// The pruner is long-running and context-aware for graceful shutdown. A
// failed pass is logged and retried on the next tick; it never stops the
// application.

import (
	"context"
	"log/slog"
	"time"
)

// Pruner deletes reports started before a cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionConfig controls the pruning loop.
type RetentionConfig struct {
	MaxAge        time.Duration // Reports older than this are deleted
	CheckInterval time.Duration // How often to run (default: 1h)
}

// StartRetention prunes reports older than cfg.MaxAge immediately and then
// every cfg.CheckInterval until ctx is cancelled. A non-positive MaxAge
// disables pruning and returns at once.
func StartRetention(ctx context.Context, p Pruner, cfg RetentionConfig) {
	if cfg.MaxAge <= 0 {
		slog.Info("history retention disabled")
		return
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Hour
	}

	slog.Info("history retention started",
		"max_age", cfg.MaxAge,
		"check_interval", cfg.CheckInterval,
	)

	runPrune(ctx, p, cfg.MaxAge, time.Now)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history retention stopped")
			return
		case <-ticker.C:
			runPrune(ctx, p, cfg.MaxAge, time.Now)
		}
	}
}

// runPrune performs one pruning pass.
func runPrune(ctx context.Context, p Pruner, maxAge time.Duration, now func() time.Time) int64 {
	start := time.Now()
	removed, err := p.Prune(ctx, now().Add(-maxAge))
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return 0
	}
	slog.Debug("history pruned",
		"removed", removed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return removed
}
