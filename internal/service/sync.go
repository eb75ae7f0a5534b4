package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/triiJU/linkedin-insights/internal/config"
	"github.com/triiJU/linkedin-insights/internal/domain"
)

// SyncService owns the write path for page records: it decides when
// stored data is served as-is, when a fetch+extract cycle runs, and how
// failures fall back to last-good data.
type SyncService struct {
	fetcher   Fetcher
	extractor Extractor
	pages     PageStore
	employees EmployeeStore
	posts     PostStore
	txManager TransactionManager
	cache     Invalidator
	publisher Publisher
	logger    *slog.Logger
	config    config.SyncConfig

	// flight coalesces concurrent syncs per page identifier so N
	// callers share one fetch. Independent identifiers proceed in
	// parallel.
	flight singleflight.Group
}

func NewSyncService(
	fetcher Fetcher,
	extractor Extractor,
	pages PageStore,
	employees EmployeeStore,
	posts PostStore,
	txManager TransactionManager,
	cache Invalidator,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		fetcher:   fetcher,
		extractor: extractor,
		pages:     pages,
		employees: employees,
		posts:     posts,
		txManager: txManager,
		cache:     cache,
		publisher: publisher,
		logger:    logger.With("component", "sync"),
		config:    cfg,
	}
}

// Resolve returns the page triple for pageID, fetching from the source
// when no record exists, the caller forces a refresh, or stored data
// has aged past the freshness window. A failed cycle retains last-good
// data (marked failed) when prior data exists; otherwise the error kind
// propagates. Exactly one fetch attempt is made per resolve call.
func (s *SyncService) Resolve(ctx context.Context, pageID string, forceRefresh bool) (*domain.PageSnapshot, error) {
	stored, err := s.pages.Get(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}

	if stored != nil && !forceRefresh && !s.isStale(stored) {
		return s.snapshot(ctx, *stored)
	}

	v, err, shared := s.flight.Do(pageID, func() (interface{}, error) {
		return s.refresh(ctx, pageID)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("coalesced concurrent resolve", "page_id", pageID)
	}
	return v.(*domain.PageSnapshot), nil
}

// Delete removes a page and its children, invalidates cached reads and
// emits a deletion event. Returns domain.ErrPageNotFound for unknown
// identifiers.
func (s *SyncService) Delete(ctx context.Context, pageID string) error {
	if err := s.pages.Delete(ctx, pageID); err != nil {
		return err
	}

	s.invalidate(ctx, pageID)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, domain.EventActionDeleted, pageID, nil); err != nil {
			s.logger.Warn("publish delete event failed", "page_id", pageID, "error", err)
		}
	}

	s.logger.Info("page deleted", "page_id", pageID)
	return nil
}

func (s *SyncService) refresh(ctx context.Context, pageID string) (*domain.PageSnapshot, error) {
	stored, err := s.pages.Get(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}

	started := time.Now()
	markup, err := s.fetcher.Fetch(ctx, pageID)
	if err != nil {
		return s.retainLastGood(ctx, pageID, stored, classifyFetchError(err))
	}

	data, err := s.extractor.Extract(pageID, markup)
	if err != nil {
		return s.retainLastGood(ctx, pageID, stored, fmt.Errorf("%w: %v", domain.ErrParseFailure, err))
	}

	now := time.Now().UTC()
	page := s.buildPage(pageID, data, now)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.pages.Upsert(txCtx, page); err != nil {
			return fmt.Errorf("upsert page: %w", err)
		}
		if err := s.employees.ReplaceForPage(txCtx, pageID, data.Employees); err != nil {
			return fmt.Errorf("replace employees: %w", err)
		}
		if err := s.posts.ReplaceForPage(txCtx, pageID, data.Posts); err != nil {
			return fmt.Errorf("replace posts: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply sync result: %w", err)
	}

	s.invalidate(ctx, pageID)

	if s.publisher != nil {
		action := domain.EventActionUpdated
		if stored == nil {
			action = domain.EventActionCreated
		}
		if err := s.publisher.Publish(ctx, action, pageID, page); err != nil {
			s.logger.Warn("publish page event failed", "page_id", pageID, "error", err)
		}
	}

	s.logger.Info("page synced",
		"page_id", pageID,
		"employees", len(data.Employees),
		"posts", len(data.Posts),
		"duration", time.Since(started),
	)

	return &domain.PageSnapshot{
		Page:      *page,
		Employees: data.Employees,
		Posts:     data.Posts,
	}, nil
}

// retainLastGood resolves a failed cycle: prior data is served marked
// failed, an absent record propagates the error kind to the caller.
func (s *SyncService) retainLastGood(ctx context.Context, pageID string, stored *domain.Page, cause error) (*domain.PageSnapshot, error) {
	if stored == nil {
		return nil, cause
	}

	s.logger.Warn("resync failed, retaining last-good data",
		"page_id", pageID,
		"error", cause,
	)

	if err := s.pages.MarkSyncState(ctx, pageID, domain.SyncStateFailed); err != nil {
		s.logger.Error("mark sync state failed", "page_id", pageID, "error", err)
	}
	if s.cache != nil {
		if err := s.cache.InvalidatePage(ctx, pageID); err != nil {
			s.logger.Warn("cache invalidation failed", "page_id", pageID, "error", err)
		}
	}

	stored.SyncState = domain.SyncStateFailed
	return s.snapshot(ctx, *stored)
}

func (s *SyncService) snapshot(ctx context.Context, page domain.Page) (*domain.PageSnapshot, error) {
	employees, err := s.employees.ListByPage(ctx, page.PageID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	posts, err := s.posts.ListByPage(ctx, page.PageID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return &domain.PageSnapshot{Page: page, Employees: employees, Posts: posts}, nil
}

func (s *SyncService) buildPage(pageID string, data *domain.PageData, now time.Time) *domain.Page {
	return &domain.Page{
		PageID:            pageID,
		Name:              data.Name,
		URL:               s.fetcher.PageURL(pageID),
		ProfilePictureURL: data.ProfilePictureURL,
		Description:       data.Description,
		Website:           data.Website,
		Industry:          data.Industry,
		FollowerCount:     data.FollowerCount,
		HeadCount:         data.HeadCount,
		Specialties:       data.Specialties,
		Location:          data.Location,
		SyncState:         domain.SyncStateFresh,
		LastSyncedAt:      &now,
	}
}

func (s *SyncService) isStale(page *domain.Page) bool {
	if page.LastSyncedAt == nil {
		return true
	}
	return time.Since(*page.LastSyncedAt) > s.config.FreshnessWindow
}

func (s *SyncService) invalidate(ctx context.Context, pageID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePage(ctx, pageID); err != nil {
		s.logger.Warn("cache invalidation failed", "page_id", pageID, "error", err)
	}
	if err := s.cache.InvalidateLists(ctx); err != nil {
		s.logger.Warn("list cache invalidation failed", "error", err)
	}
}

func classifyFetchError(err error) error {
	if errors.Is(err, domain.ErrPageNotFound) {
		return domain.ErrPageNotFound
	}
	return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
}
