package workers

import (
	"context"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// StorageGCWorker triggers Badger value log garbage collection periodically.
// Badger never reclaims value log space on its own; ErrNoRewrite just means
// there was nothing worth rewriting this round.
type StorageGCWorker struct {
	log      *slog.Logger
	db       *badger.DB
	interval time.Duration
}

func NewStorageGCWorker(log *slog.Logger, db *badger.DB, interval time.Duration) *StorageGCWorker {
	return &StorageGCWorker{log: log, db: db, interval: interval}
}

func (w *StorageGCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// each call rewrites at most one value log file, loop until clean
			for {
				err := w.db.RunValueLogGC(0.5)
				if err == badger.ErrNoRewrite {
					break
				}
				if err != nil {
					w.log.Warn("Value log GC failed", "err", err)
					break
				}
				w.log.Debug("Value log file reclaimed")
			}
		}
	}
}
