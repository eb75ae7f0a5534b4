package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/triiJU/linkedin-insights/internal/domain"
)

// Resolver re-syncs a page; a non-forced resolve refetches when the
// stored data is already past the freshness window.
type Resolver interface {
	Resolve(ctx context.Context, pageID string, forceRefresh bool) (*domain.PageSnapshot, error)
}

// StaleLister reports page identifiers whose last sync predates a cutoff.
type StaleLister interface {
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
}

// Refresher opportunistically re-syncs stale pages in the background.
// The sync contract stays lazy; this only warms data that requests
// would refetch anyway.
type Refresher struct {
	resolver Resolver
	pages    StaleLister
	interval time.Duration
	window   time.Duration
	batch    int
	logger   *slog.Logger
}

func NewRefresher(resolver Resolver, pages StaleLister, interval, window time.Duration, batch int, logger *slog.Logger) *Refresher {
	return &Refresher{
		resolver: resolver,
		pages:    pages,
		interval: interval,
		window:   window,
		batch:    batch,
		logger:   logger.With("component", "refresher"),
	}
}

func (r *Refresher) Start(ctx context.Context) error {
	r.logger.Info("refresher started", "interval", r.interval, "batch", r.batch)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return ctx.Err()
		case <-ticker.C:
			r.RefreshStale(ctx)
		}
	}
}

// RefreshStale runs one refresh pass. Failures are logged per page and
// never abort the pass; the retain-last-good policy applies as usual.
func (r *Refresher) RefreshStale(ctx context.Context) {
	cutoff := time.Now().Add(-r.window)

	ids, err := r.pages.ListStale(ctx, cutoff, r.batch)
	if err != nil {
		r.logger.Error("list stale pages failed", "error", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	r.logger.Info("refreshing stale pages", "count", len(ids))

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if _, err := r.resolver.Resolve(ctx, id, false); err != nil {
			r.logger.Warn("background refresh failed", "page_id", id, "error", err)
		}
	}
}
