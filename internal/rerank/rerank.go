package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sengokudaikon/opendeepsearch-mcp/internal/config"
	"github.com/sengokudaikon/opendeepsearch-mcp/pkg/logger"
)

// Reranker orders documents by relevance to a query
type Reranker interface {
	Name() string
	// Rerank returns document indices, most relevant first, at most topN of them
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]int, error)
}

// New resolves a reranker by name. An empty name picks jina when a key is
// available and none otherwise.
func New(name string, cfg config.RerankConfig, jinaAPIKey string) (Reranker, error) {
	switch strings.ToLower(name) {
	case "":
		if jinaAPIKey != "" {
			return NewHTTPReranker("jina", "/v1/rerank", jinaAPIKey, cfg.Jina), nil
		}
		return None{}, nil
	case "jina":
		if jinaAPIKey == "" {
			return nil, fmt.Errorf("jina reranker not configured: missing API key")
		}
		return NewHTTPReranker("jina", "/v1/rerank", jinaAPIKey, cfg.Jina), nil
	case "infinity":
		return NewHTTPReranker("infinity", "/rerank", "", cfg.Infinity), nil
	case "none":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown reranker %q (choose from jina, infinity, none)", name)
	}
}

// None keeps the original order
type None struct{}

func (None) Name() string { return "none" }

func (None) Rerank(_ context.Context, _ string, documents []string, topN int) ([]int, error) {
	n := len(documents)
	if topN > 0 && topN < n {
		n = topN
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order, nil
}

// HTTPReranker calls a Jina-compatible rerank endpoint. Jina and Infinity
// share the same request and response shape.
type HTTPReranker struct {
	name   string
	url    string
	apiKey string
	model  string
	client *http.Client
}

// NewHTTPReranker creates a reranker posting to cfg.BaseURL + path
func NewHTTPReranker(name, path, apiKey string, cfg config.RerankerConfig) *HTTPReranker {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30
	}
	return &HTTPReranker{
		name:   name,
		url:    strings.TrimRight(cfg.BaseURL, "/") + path,
		apiKey: apiKey,
		model:  cfg.Model,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

func (r *HTTPReranker) Name() string { return r.name }

type rerankRequest struct {
	Model           string   `json:"model,omitempty"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n,omitempty"`
	ReturnDocuments bool     `json:"return_documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

func (r *HTTPReranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]int, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	bodyBytes, err := json.Marshal(rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s rerank request: %w", r.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s rerank failed (HTTP %d): %s", r.name, resp.StatusCode, string(body))
	}

	var rr rerankResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	sort.SliceStable(rr.Results, func(i, j int) bool {
		return rr.Results[i].RelevanceScore > rr.Results[j].RelevanceScore
	})

	order := make([]int, 0, len(rr.Results))
	seen := make(map[int]bool, len(rr.Results))
	for _, res := range rr.Results {
		if res.Index < 0 || res.Index >= len(documents) || seen[res.Index] {
			continue
		}
		seen[res.Index] = true
		if topN > 0 && len(order) >= topN {
			break
		}
		order = append(order, res.Index)
	}

	logger.Debug("rerank completed",
		zap.String("reranker", r.name),
		zap.Int("documents", len(documents)),
		zap.Int("kept", len(order)),
	)
	return order, nil
}
