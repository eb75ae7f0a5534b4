package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/triiJU/linkedin-insights/internal/config"
	"github.com/triiJU/linkedin-insights/internal/domain"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("insights api key not configured")

// Service generates natural-language page summaries through an
// OpenAI-compatible chat completions API.
type Service struct {
	client *resty.Client
	apiURL string
	apiKey string
	model  string
	logger *slog.Logger
}

func New(cfg config.InsightsConfig, logger *slog.Logger) *Service {
	return &Service{
		client: resty.New(),
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		logger: logger.With("component", "insights"),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GeneratePageSummary asks the model for a short analysis of the page's
// profile, follower base and activity.
func (s *Service) GeneratePageSummary(ctx context.Context, page *domain.Page, employeeCount, postCount int64) (string, error) {
	if s.apiKey == "" {
		return "", ErrNotConfigured
	}

	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a LinkedIn insights analyst."},
			{Role: "user", Content: buildPrompt(page, employeeCount, postCount)},
		},
		MaxTokens:   300,
		Temperature: 0.7,
	}

	var result chatResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&result).
		Post(s.apiURL)
	if err != nil {
		return "", fmt.Errorf("call insights api: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("insights api status %d", resp.StatusCode())
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("insights api returned no choices")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

func buildPrompt(page *domain.Page, employeeCount, postCount int64) string {
	var sb strings.Builder
	sb.WriteString("Analyze this LinkedIn company page and provide a concise summary:\n")
	fmt.Fprintf(&sb, "Company: %s\n", page.Name)
	if page.Industry != nil {
		fmt.Fprintf(&sb, "Industry: %s\n", *page.Industry)
	}
	if page.FollowerCount != nil {
		fmt.Fprintf(&sb, "Followers: %d\n", *page.FollowerCount)
	}
	if page.Description != nil {
		fmt.Fprintf(&sb, "Description: %s\n", *page.Description)
	}
	fmt.Fprintf(&sb, "Tracked employees: %d\nRecent posts: %d\n", employeeCount, postCount)
	sb.WriteString("Cover company profile, audience size and posting activity.")
	return sb.String()
}
