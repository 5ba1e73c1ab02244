package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sengokudaikon/opendeepsearch-mcp/internal/config"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/models"
	"github.com/sengokudaikon/opendeepsearch-mcp/pkg/logger"
)

// searxngResponse models the relevant portion of the SearXNG JSON response.
type searxngResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
		Engine  string `json:"engine"`
	} `json:"results"`
}

// SearXNGProvider searches the web via a SearXNG instance.
type SearXNGProvider struct {
	instanceURL string
	apiKey      string
	client      *http.Client
}

// NewSearXNGProvider creates a provider backed by the SearXNG instance at instanceURL.
// The instance URL comes from the credential slots, cfg.BaseURL is only a fallback.
func NewSearXNGProvider(instanceURL, apiKey string, cfg config.ProviderConfig) *SearXNGProvider {
	if instanceURL == "" {
		instanceURL = cfg.BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30
	}

	return &SearXNGProvider{
		instanceURL: strings.TrimRight(instanceURL, "/"),
		apiKey:      apiKey,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

func (p *SearXNGProvider) Name() string { return "searxng" }

// IsAvailable returns true when an instance URL is known
func (p *SearXNGProvider) IsAvailable() bool {
	return p.instanceURL != ""
}

func (p *SearXNGProvider) Search(ctx context.Context, query string, limit int) (*models.SearchProviderResult, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("searxng provider not configured: missing instance URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.instanceURL+"/search", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("pageno", strconv.Itoa(1))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searxng search failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var searxResp searxngResponse
	if err := json.Unmarshal(body, &searxResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	result := &models.SearchProviderResult{
		Query:   query,
		Results: make([]models.SearchResult, 0, len(searxResp.Results)),
	}
	for _, r := range searxResp.Results {
		if limit > 0 && len(result.Results) >= limit {
			break
		}
		result.Results = append(result.Results, models.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
		})
	}

	logger.Debug("searxng search completed",
		zap.String("query", query),
		zap.Int("result_count", len(result.Results)),
	)
	return result, nil
}
