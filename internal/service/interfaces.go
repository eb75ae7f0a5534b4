package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"github.com/triiJU/linkedin-insights/internal/domain"
)

// Fetcher retrieves raw page markup from the source. One attempt per
// call; retry policy belongs to the caller.
type Fetcher interface {
	Fetch(ctx context.Context, pageID string) (*domain.Markup, error)
	PageURL(pageID string) string
}

// Extractor turns raw markup into structured page data or fails with
// domain.ErrMissingRequiredField when the markup lacks expected fields.
type Extractor interface {
	Extract(pageID string, markup *domain.Markup) (*domain.PageData, error)
}

type PageStore interface {
	Get(ctx context.Context, pageID string) (*domain.Page, error)
	Upsert(ctx context.Context, page *domain.Page) (int64, error)
	MarkSyncState(ctx context.Context, pageID string, state domain.SyncState) error
	Delete(ctx context.Context, pageID string) error
	List(ctx context.Context, filter domain.PageFilter) ([]domain.Page, int64, error)
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
}

type EmployeeStore interface {
	ReplaceForPage(ctx context.Context, pageID string, employees []domain.Employee) error
	ListByPage(ctx context.Context, pageID string) ([]domain.Employee, error)
}

type PostStore interface {
	ReplaceForPage(ctx context.Context, pageID string, posts []domain.Post) error
	ListByPage(ctx context.Context, pageID string) ([]domain.Post, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Invalidator drops cached reads after a write. A nil Invalidator
// disables caching without changing observable results.
type Invalidator interface {
	InvalidatePage(ctx context.Context, pageID string) error
	InvalidateLists(ctx context.Context) error
}

type Publisher interface {
	Publish(ctx context.Context, action, pageID string, page *domain.Page) error
	Close() error
}
