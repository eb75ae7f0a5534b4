package linkedin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/triiJU/linkedin-insights/internal/config"
	"github.com/triiJU/linkedin-insights/internal/domain"
)

// Page sections scraped per company. Overview is required; the posts
// and people documents are best-effort since LinkedIn gates them more
// aggressively.
const (
	overviewPath = "/company/%s/"
	postsPath    = "/company/%s/posts/"
	peoplePath   = "/company/%s/people/"
)

type Fetcher struct {
	client  *resty.Client
	baseURL string
	logger  *slog.Logger
}

func New(cfg config.ScraperConfig, logger *slog.Logger) *Fetcher {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &Fetcher{
		client:  client,
		baseURL: cfg.BaseURL,
		logger:  logger.With("component", "fetcher"),
	}
}

// Fetch retrieves the raw markup for a company page. The overview
// document must load; a failure there fails the whole fetch. Posts and
// people documents degrade to empty markup on error.
func (f *Fetcher) Fetch(ctx context.Context, pageID string) (*domain.Markup, error) {
	overview, err := f.get(ctx, fmt.Sprintf(overviewPath, pageID))
	if err != nil {
		return nil, fmt.Errorf("fetch overview for %q: %w", pageID, err)
	}

	markup := &domain.Markup{Overview: overview}

	if posts, err := f.get(ctx, fmt.Sprintf(postsPath, pageID)); err != nil {
		f.logger.Warn("posts document unavailable", "page_id", pageID, "error", err)
	} else {
		markup.Posts = posts
	}

	if people, err := f.get(ctx, fmt.Sprintf(peoplePath, pageID)); err != nil {
		f.logger.Warn("people document unavailable", "page_id", pageID, "error", err)
	} else {
		markup.People = people
	}

	return markup, nil
}

// PageURL returns the canonical URL for a company page identifier.
func (f *Fetcher) PageURL(pageID string) string {
	return f.baseURL + fmt.Sprintf(overviewPath, pageID)
}

func (f *Fetcher) get(ctx context.Context, path string) (string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(path)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrFetchTimeout, err)
		}
		return "", fmt.Errorf("execute request: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return string(resp.Body()), nil
	case http.StatusNotFound, http.StatusGone:
		return "", domain.ErrPageNotFound
	case http.StatusForbidden, http.StatusTooManyRequests, 999:
		// 999 is LinkedIn's bot-challenge status.
		return "", fmt.Errorf("%w: status %d", domain.ErrFetchBlocked, resp.StatusCode())
	default:
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode())
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
