// Package progress maintains reader state hygiene in the background.
package progress

import (
	"context"
	"log/slog"
	"time"

	"stepwise/internal/shared"
	"stepwise/internal/store"
)

// PurgeCallback is called when a reader's state is purged by the sweeper.
type PurgeCallback func(readerID string)

// StartSweeper runs a background goroutine that periodically removes state
// for readers idle longer than ttl.
func StartSweeper(ctx context.Context, repo store.Repository, ttl, interval time.Duration, onPurge PurgeCallback) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("State sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweepOnce(ctx, repo, ttl, onPurge)
			case <-ctx.Done():
				slog.Info("State sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepOnce(ctx context.Context, repo store.Repository, ttl time.Duration, onPurge PurgeCallback) {
	stale, err := repo.GetStaleReaders(ctx, ttl)
	if err != nil {
		slog.Error("Sweeper failed to list stale readers", "error", err)
		return
	}

	if len(stale) == 0 {
		return
	}

	slog.Info("Sweeper found stale readers", "count", len(stale))

	for _, reader := range stale {
		readerID := reader.ReaderID

		var purged int64
		err := shared.RetrySQLite(ctx, 3, 100*time.Millisecond, func() error {
			var purgeErr error
			purged, purgeErr = repo.PurgeReaderState(ctx, readerID)
			return purgeErr
		})
		if err != nil {
			slog.Warn("Sweeper failed to purge reader state after retries",
				"error", err,
				"reader_id", readerID)
			continue
		}

		slog.Info("Sweeper purged reader state", "reader_id", readerID, "rows", purged)

		if onPurge != nil {
			onPurge(readerID)
		}
	}
}
