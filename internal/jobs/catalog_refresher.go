package jobs

import (
	"context"
	"log/slog"
	"time"
)

// Loader reloads a data set. *catalog.Store satisfies it.
type Loader interface {
	Load(ctx context.Context) error
}

// CatalogRefresher periodically reloads the catalog so edits to a remote CSV
// reach the dropdowns without a restart.
type CatalogRefresher struct {
	loader   Loader
	interval time.Duration
	timeout  time.Duration
}

// NewCatalogRefresher creates a new refresher. Each reload is bounded by timeout.
func NewCatalogRefresher(loader Loader, interval, timeout time.Duration) *CatalogRefresher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CatalogRefresher{
		loader:   loader,
		interval: interval,
		timeout:  timeout,
	}
}

// Start runs the refresh loop until ctx is done. The initial load is the
// caller's job; the first refresh happens one interval after Start.
func (r *CatalogRefresher) Start(ctx context.Context) {
	slog.Info("catalog refresher started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("catalog refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *CatalogRefresher) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Failures keep the previous catalog; the store logs them.
	if err := r.loader.Load(ctx); err != nil {
		slog.Warn("catalog refresh failed", "error", err)
	}
}
