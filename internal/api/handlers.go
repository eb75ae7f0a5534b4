package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/triiJU/linkedin-insights/internal/cache"
	"github.com/triiJU/linkedin-insights/internal/config"
	"github.com/triiJU/linkedin-insights/internal/domain"
	"github.com/triiJU/linkedin-insights/internal/insights"
)

// Resolver is the synchronization core as the API layer sees it.
type Resolver interface {
	Resolve(ctx context.Context, pageID string, forceRefresh bool) (*domain.PageSnapshot, error)
	Delete(ctx context.Context, pageID string) error
}

type PageReader interface {
	Get(ctx context.Context, pageID string) (*domain.Page, error)
	List(ctx context.Context, filter domain.PageFilter) ([]domain.Page, int64, error)
}

type EmployeeReader interface {
	ListByPage(ctx context.Context, pageID string) ([]domain.Employee, error)
	CountByPage(ctx context.Context, pageID string) (int64, error)
}

type PostReader interface {
	ListByPage(ctx context.Context, pageID string) ([]domain.Post, error)
	CountByPage(ctx context.Context, pageID string) (int64, error)
}

type Summarizer interface {
	GeneratePageSummary(ctx context.Context, page *domain.Page, employeeCount, postCount int64) (string, error)
}

type PageHandler struct {
	resolver   Resolver
	pages      PageReader
	employees  EmployeeReader
	posts      PostReader
	summarizer Summarizer
	cache      *cache.Cache
	pagination config.PaginationConfig
	logger     *slog.Logger
}

func NewPageHandler(
	resolver Resolver,
	pages PageReader,
	employees EmployeeReader,
	posts PostReader,
	summarizer Summarizer,
	c *cache.Cache,
	pagination config.PaginationConfig,
	logger *slog.Logger,
) *PageHandler {
	return &PageHandler{
		resolver:   resolver,
		pages:      pages,
		employees:  employees,
		posts:      posts,
		summarizer: summarizer,
		cache:      c,
		pagination: pagination,
		logger:     logger.With("component", "api"),
	}
}

type pageListResponse struct {
	Pages      []domain.Page `json:"pages"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int64         `json:"total_pages"`
}

// GetPage resolves a single page, scraping on demand when stored data
// is absent or stale. The cache is consulted only for non-forced reads.
func (h *PageHandler) GetPage(c *gin.Context) {
	pageID := c.Param("page_id")
	force := c.Query("force_refresh") == "true"
	ctx := c.Request.Context()

	key := cache.PageKey(pageID, "")
	if !force {
		var cached domain.PageSnapshot
		if h.cache.Get(ctx, key, &cached) {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	snapshot, err := h.resolver.Resolve(ctx, pageID, force)
	if err != nil {
		h.renderSyncError(c, pageID, err)
		return
	}

	h.cache.Set(ctx, key, snapshot)
	c.JSON(http.StatusOK, snapshot)
}

func (h *PageHandler) ListPages(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	shape := filterShape(filter)
	key := h.cache.ListKey(ctx, shape)

	var cached pageListResponse
	if h.cache.Get(ctx, key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	pages, total, err := h.pages.List(ctx, filter)
	if err != nil {
		h.logger.Error("list pages failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pages"})
		return
	}
	if pages == nil {
		pages = []domain.Page{}
	}

	resp := pageListResponse{
		Pages:      pages,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: (total + int64(filter.PageSize) - 1) / int64(filter.PageSize),
	}

	h.cache.Set(ctx, key, resp)
	c.JSON(http.StatusOK, resp)
}

func (h *PageHandler) ListPosts(c *gin.Context) {
	pageID := c.Param("page_id")
	ctx := c.Request.Context()

	key := cache.PageKey(pageID, "posts")
	var cached gin.H
	if h.cache.Get(ctx, key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	if !h.requirePage(c, pageID) {
		return
	}

	posts, err := h.posts.ListByPage(ctx, pageID)
	if err != nil {
		h.logger.Error("list posts failed", "page_id", pageID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list posts"})
		return
	}
	if posts == nil {
		posts = []domain.Post{}
	}

	resp := gin.H{"page_id": pageID, "posts": posts, "count": len(posts)}
	h.cache.Set(ctx, key, resp)
	c.JSON(http.StatusOK, resp)
}

func (h *PageHandler) ListEmployees(c *gin.Context) {
	pageID := c.Param("page_id")
	ctx := c.Request.Context()

	key := cache.PageKey(pageID, "employees")
	var cached gin.H
	if h.cache.Get(ctx, key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	if !h.requirePage(c, pageID) {
		return
	}

	employees, err := h.employees.ListByPage(ctx, pageID)
	if err != nil {
		h.logger.Error("list employees failed", "page_id", pageID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list employees"})
		return
	}
	if employees == nil {
		employees = []domain.Employee{}
	}

	resp := gin.H{"page_id": pageID, "employees": employees, "count": len(employees)}
	h.cache.Set(ctx, key, resp)
	c.JSON(http.StatusOK, resp)
}

func (h *PageHandler) DeletePage(c *gin.Context) {
	pageID := c.Param("page_id")

	if err := h.resolver.Delete(c.Request.Context(), pageID); err != nil {
		if errors.Is(err, domain.ErrPageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
			return
		}
		h.logger.Error("delete page failed", "page_id", pageID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete page"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "page deleted", "page_id": pageID})
}

func (h *PageHandler) GetSummary(c *gin.Context) {
	pageID := c.Param("page_id")
	ctx := c.Request.Context()

	key := cache.PageKey(pageID, "summary")
	var cached gin.H
	if h.cache.Get(ctx, key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	page, err := h.pages.Get(ctx, pageID)
	if err != nil {
		h.logger.Error("get page failed", "page_id", pageID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load page"})
		return
	}
	if page == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
		return
	}

	employeeCount, err := h.employees.CountByPage(ctx, pageID)
	if err != nil {
		h.logger.Error("count employees failed", "page_id", pageID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load page stats"})
		return
	}
	postCount, err := h.posts.CountByPage(ctx, pageID)
	if err != nil {
		h.logger.Error("count posts failed", "page_id", pageID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load page stats"})
		return
	}

	summary, err := h.summarizer.GeneratePageSummary(ctx, page, employeeCount, postCount)
	if err != nil {
		if errors.Is(err, insights.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "summary generation not configured"})
			return
		}
		h.logger.Error("generate summary failed", "page_id", pageID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "summary generation failed"})
		return
	}

	resp := gin.H{
		"page_id":   pageID,
		"page_name": page.Name,
		"summary":   summary,
		"stats": gin.H{
			"followers": page.FollowerCount,
			"employees": employeeCount,
			"posts":     postCount,
		},
	}
	h.cache.Set(ctx, key, resp)
	c.JSON(http.StatusOK, resp)
}

// requirePage renders a 404 and returns false when the page id is not
// stored. It never triggers a scrape.
func (h *PageHandler) requirePage(c *gin.Context, pageID string) bool {
	page, err := h.pages.Get(c.Request.Context(), pageID)
	if err != nil {
		h.logger.Error("get page failed", "page_id", pageID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load page"})
		return false
	}
	if page == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
		return false
	}
	return true
}

func (h *PageHandler) parseFilter(c *gin.Context) (domain.PageFilter, error) {
	filter := domain.PageFilter{
		Name:     c.Query("name"),
		Industry: c.Query("industry"),
		Page:     1,
		PageSize: h.pagination.DefaultPageSize,
	}

	if raw := c.Query("min_followers"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("invalid min_followers %q", raw)
		}
		filter.MinFollowers = &n
	}
	if raw := c.Query("max_followers"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("invalid max_followers %q", raw)
		}
		filter.MaxFollowers = &n
	}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return filter, fmt.Errorf("invalid page %q", raw)
		}
		filter.Page = n
	}
	if raw := c.Query("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > h.pagination.MaxPageSize {
			return filter, fmt.Errorf("page_size must be between 1 and %d", h.pagination.MaxPageSize)
		}
		filter.PageSize = n
	}

	return filter, nil
}

// filterShape serializes the resolved filter/pagination shape for use
// as a cache key.
func filterShape(f domain.PageFilter) string {
	min, max := "", ""
	if f.MinFollowers != nil {
		min = strconv.FormatInt(*f.MinFollowers, 10)
	}
	if f.MaxFollowers != nil {
		max = strconv.FormatInt(*f.MaxFollowers, 10)
	}
	return fmt.Sprintf("name=%s&industry=%s&min=%s&max=%s&page=%d&size=%d",
		f.Name, f.Industry, min, max, f.Page, f.PageSize)
}

func (h *PageHandler) renderSyncError(c *gin.Context, pageID string, err error) {
	switch {
	case errors.Is(err, domain.ErrPageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
	case errors.Is(err, domain.ErrUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "page source unavailable"})
	case errors.Is(err, domain.ErrParseFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": "page markup could not be parsed"})
	default:
		h.logger.Error("resolve failed", "page_id", pageID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
