package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sengokudaikon/opendeepsearch-mcp/internal/config"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/models"
	"github.com/sengokudaikon/opendeepsearch-mcp/pkg/logger"
)

const maxResponseBytes = 2 << 20

// SerperProvider implements the Provider interface using the Serper API
type SerperProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewSerperProvider creates a new Serper provider
func NewSerperProvider(apiKey string, cfg config.ProviderConfig) *SerperProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://google.serper.dev"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30
	}

	return &SerperProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// Name returns the provider name
func (p *SerperProvider) Name() string {
	return "serper"
}

// IsAvailable returns true if the provider is properly configured
func (p *SerperProvider) IsAvailable() bool {
	return p.apiKey != ""
}

type serperSearchRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num,omitempty"`
}

type serperSearchResponse struct {
	Organic []serperOrganicResult `json:"organic"`
	Message string                `json:"message,omitempty"`
}

type serperOrganicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// Search performs a search query using Serper
func (p *SerperProvider) Search(ctx context.Context, query string, limit int) (*models.SearchProviderResult, error) {
	log := logger.L()

	if !p.IsAvailable() {
		return nil, fmt.Errorf("serper provider not configured: missing API key")
	}

	bodyBytes, err := json.Marshal(serperSearchRequest{Query: query, Num: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	log.Debug("serper response",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
	)

	var searchResp serperSearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("serper search failed (HTTP %d): %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		errMsg := searchResp.Message
		if errMsg == "" {
			errMsg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("serper search failed (HTTP %d): %s", resp.StatusCode, errMsg)
	}

	result := &models.SearchProviderResult{
		Query:   query,
		Results: make([]models.SearchResult, 0, len(searchResp.Organic)),
	}
	for _, item := range searchResp.Organic {
		if limit > 0 && len(result.Results) >= limit {
			break
		}
		result.Results = append(result.Results, models.SearchResult{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
		})
	}

	log.Info("serper search completed",
		zap.String("query", query),
		zap.Int("result_count", len(result.Results)),
	)

	return result, nil
}
