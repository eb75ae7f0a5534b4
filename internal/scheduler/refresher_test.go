package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/triiJU/linkedin-insights/internal/domain"
)

type stubLister struct {
	ids        []string
	err        error
	lastCutoff time.Time
	lastLimit  int
}

func (s *stubLister) ListStale(_ context.Context, cutoff time.Time, limit int) ([]string, error) {
	s.lastCutoff = cutoff
	s.lastLimit = limit
	return s.ids, s.err
}

type stubResolver struct {
	resolved []string
	forced   []bool
	errFor   map[string]error
}

func (s *stubResolver) Resolve(_ context.Context, pageID string, force bool) (*domain.PageSnapshot, error) {
	s.resolved = append(s.resolved, pageID)
	s.forced = append(s.forced, force)
	if err, ok := s.errFor[pageID]; ok {
		return nil, err
	}
	return &domain.PageSnapshot{Page: domain.Page{PageID: pageID}}, nil
}

func newTestRefresher(resolver *stubResolver, lister *stubLister) *Refresher {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRefresher(resolver, lister, time.Hour, 24*time.Hour, 20, logger)
}

func TestRefreshStale(t *testing.T) {
	lister := &stubLister{ids: []string{"acme", "globex"}}
	resolver := &stubResolver{}
	r := newTestRefresher(resolver, lister)

	r.RefreshStale(context.Background())

	assert.Equal(t, []string{"acme", "globex"}, resolver.resolved)
	assert.Equal(t, []bool{false, false}, resolver.forced)
	assert.Equal(t, 20, lister.lastLimit)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), lister.lastCutoff, time.Minute)
}

func TestRefreshStale_FailuresDontAbortPass(t *testing.T) {
	lister := &stubLister{ids: []string{"acme", "ghost", "globex"}}
	resolver := &stubResolver{errFor: map[string]error{"ghost": domain.ErrUnavailable}}
	r := newTestRefresher(resolver, lister)

	r.RefreshStale(context.Background())

	assert.Equal(t, []string{"acme", "ghost", "globex"}, resolver.resolved)
}

func TestRefreshStale_ListError(t *testing.T) {
	lister := &stubLister{err: errors.New("db down")}
	resolver := &stubResolver{}
	r := newTestRefresher(resolver, lister)

	r.RefreshStale(context.Background())

	assert.Empty(t, resolver.resolved)
}

func TestRefreshStale_CancelledContextStopsPass(t *testing.T) {
	lister := &stubLister{ids: []string{"acme", "globex"}}
	resolver := &stubResolver{}
	r := newTestRefresher(resolver, lister)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r.RefreshStale(ctx)

	assert.Empty(t, resolver.resolved)
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	lister := &stubLister{}
	resolver := &stubResolver{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	r := NewRefresher(resolver, lister, 10*time.Millisecond, 24*time.Hour, 20, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
