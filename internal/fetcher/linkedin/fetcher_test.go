package linkedin

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triiJU/linkedin-insights/internal/config"
	"github.com/triiJU/linkedin-insights/internal/domain"
)

func newTestFetcher(baseURL string) *Fetcher {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(config.ScraperConfig{
		BaseURL:   baseURL,
		Timeout:   2 * time.Second,
		UserAgent: "test-agent",
	}, logger)
}

func TestFetch_AllSections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/company/acme/":
			w.Write([]byte("<html>overview</html>"))
		case "/company/acme/posts/":
			w.Write([]byte("<html>posts</html>"))
		case "/company/acme/people/":
			w.Write([]byte("<html>people</html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	f := newTestFetcher(server.URL)

	markup, err := f.Fetch(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "<html>overview</html>", markup.Overview)
	assert.Equal(t, "<html>posts</html>", markup.Posts)
	assert.Equal(t, "<html>people</html>", markup.People)
}

func TestFetch_SecondarySectionsDegrade(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/company/acme/" {
			w.Write([]byte("<html>overview</html>"))
			return
		}
		w.WriteHeader(999)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL)

	markup, err := f.Fetch(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "<html>overview</html>", markup.Overview)
	assert.Empty(t, markup.Posts)
	assert.Empty(t, markup.People)
}

func TestFetch_OverviewNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL)

	_, err := f.Fetch(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrPageNotFound)
}

func TestFetch_OverviewGone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL)

	_, err := f.Fetch(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrPageNotFound)
}

func TestFetch_BlockedStatuses(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusTooManyRequests, 999} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		f := newTestFetcher(server.URL)

		_, err := f.Fetch(context.Background(), "acme")
		assert.ErrorIs(t, err, domain.ErrFetchBlocked, "status %d", status)
		server.Close()
	}
}

func TestFetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("too late"))
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	f := New(config.ScraperConfig{
		BaseURL:   server.URL,
		Timeout:   20 * time.Millisecond,
		UserAgent: "test-agent",
	}, logger)

	_, err := f.Fetch(context.Background(), "acme")
	assert.ErrorIs(t, err, domain.ErrFetchTimeout)
}

func TestPageURL(t *testing.T) {
	f := newTestFetcher("https://www.linkedin.com")
	assert.Equal(t, "https://www.linkedin.com/company/acme/", f.PageURL("acme"))
}
