package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/sengokudaikon/opendeepsearch-mcp/internal/config"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/models"
	"github.com/sengokudaikon/opendeepsearch-mcp/pkg/logger"
)

// MCPProvider searches through a remote MCP server's search tool over
// streamable HTTP. Any MCP search service works as long as the tool returns
// a JSON array of {title, link|url, content, snippet} as text content.
type MCPProvider struct {
	baseURL    string
	apiKey     string
	toolName   string // e.g. "webSearchPrime", "search"
	queryParam string // e.g. "search_query", "query"
	timeout    time.Duration
}

// NewMCPProvider creates a new generic MCP provider
func NewMCPProvider(cfg config.ProviderConfig) *MCPProvider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30
	}
	if cfg.ToolName == "" {
		cfg.ToolName = "search"
	}
	if cfg.QueryParam == "" {
		cfg.QueryParam = "query"
	}

	return &MCPProvider{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		toolName:   cfg.ToolName,
		queryParam: cfg.QueryParam,
		timeout:    time.Duration(cfg.Timeout) * time.Second,
	}
}

// Name returns the provider name
func (p *MCPProvider) Name() string {
	return "mcp"
}

// IsAvailable returns true if the provider has an endpoint
func (p *MCPProvider) IsAvailable() bool {
	return p.baseURL != ""
}

// mcpSearchResult represents a generic search result from MCP
type mcpSearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Snippet string `json:"snippet,omitempty"`
}

// Search opens a session, calls the configured tool and closes the session.
func (p *MCPProvider) Search(ctx context.Context, query string, limit int) (*models.SearchProviderResult, error) {
	log := logger.L()
	if !p.IsAvailable() {
		return nil, fmt.Errorf("mcp provider not configured: missing base URL")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var opts []transport.StreamableHTTPCOption
	if p.apiKey != "" {
		opts = append(opts, transport.WithHTTPHeaders(map[string]string{
			"Authorization": "Bearer " + p.apiKey,
		}))
	}

	cli, err := mcpclient.NewStreamableHttpClient(p.baseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}
	defer cli.Close()

	if err := cli.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "opendeepsearch", Version: "0.1.0"}
	if _, err := cli.Initialize(ctx, initReq); err != nil {
		return nil, fmt.Errorf("failed to establish MCP session: %w", err)
	}

	callReq := mcp.CallToolRequest{}
	callReq.Params.Name = p.toolName
	callReq.Params.Arguments = map[string]any{p.queryParam: query}

	res, err := cli.CallTool(ctx, callReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call search tool: %w", err)
	}

	text := contentText(res.Content)
	if res.IsError {
		if text == "" {
			text = "unknown error"
		}
		return nil, fmt.Errorf("MCP error: %s", text)
	}
	if text == "" {
		return nil, fmt.Errorf("no content in response")
	}

	log.Debug("MCP content text",
		zap.String("tool", p.toolName),
		zap.Int("bytes", len(text)),
	)
	return p.parseResults(query, text, limit)
}

func contentText(contents []mcp.Content) string {
	var parts []string
	for _, c := range contents {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// parseResults parses the JSON response (handles both single and double encoding)
func (p *MCPProvider) parseResults(query, text string, limit int) (*models.SearchProviderResult, error) {
	var firstParse interface{}
	if err := json.Unmarshal([]byte(text), &firstParse); err != nil {
		return nil, fmt.Errorf("failed to parse first JSON: %w", err)
	}

	// Check if it's a string (needs second parse) or already an array
	var rawResults []mcpSearchResult
	switch v := firstParse.(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &rawResults); err != nil {
			return nil, fmt.Errorf("failed to parse second JSON: %w", err)
		}
	case []interface{}:
		if err := json.Unmarshal([]byte(text), &rawResults); err != nil {
			return nil, fmt.Errorf("failed to convert results: %w", err)
		}
	default:
		return nil, fmt.Errorf("unexpected result type: %T", firstParse)
	}

	result := &models.SearchProviderResult{
		Query:   query,
		Results: make([]models.SearchResult, 0, len(rawResults)),
	}

	for _, item := range rawResults {
		if limit > 0 && len(result.Results) >= limit {
			break
		}
		// Handle both Link and URL fields
		url := item.Link
		if url == "" {
			url = item.URL
		}
		result.Results = append(result.Results, models.SearchResult{
			Title:   item.Title,
			URL:     url,
			Content: item.Content,
			Snippet: item.Snippet,
		})
	}

	logger.Info("MCP search completed",
		zap.String("query", query),
		zap.Int("result_count", len(result.Results)),
	)

	return result, nil
}
