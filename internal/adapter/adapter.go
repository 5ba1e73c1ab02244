// Package adapter turns perform_search tool calls into agent invocations and
// the agent's answers into text.
package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/sengokudaikon/opendeepsearch-mcp/internal/agent"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/credentials"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/models"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/tools"
	"github.com/sengokudaikon/opendeepsearch-mcp/pkg/logger"
)

// Agent answers a question with a list of sources.
type Agent interface {
	Ask(ctx context.Context, query string, maxSources int, proMode bool) (*models.AnswerResult, error)
}

// Factory builds an Agent for one call. output receives the agent's
// diagnostic text and must be the only place it writes it.
type Factory func(cfg agent.Config, output io.Writer) (Agent, error)

// Adapter executes perform_search calls.
type Adapter struct {
	factory Factory
	stager  *credentials.Stager
	format  func(*models.AnswerResult) string
}

// New creates an adapter. stager guards the process-wide credential slots
// and must be shared by every adapter in the process.
func New(factory Factory, stager *credentials.Stager) *Adapter {
	return &Adapter{
		factory: factory,
		stager:  stager,
		format:  FormatResult,
	}
}

// Register adds every tool to s.
func (a *Adapter) Register(s *server.MCPServer) {
	for _, tool := range tools.ListTools() {
		s.AddTool(tool, a.handleMCP)
	}
}

func (a *Adapter) handleMCP(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items := a.HandleToolCall(ctx, req.Params.Name, req.GetArguments())
	content := make([]mcp.Content, 0, len(items))
	for _, item := range items {
		content = append(content, item)
	}
	return &mcp.CallToolResult{Content: content}, nil
}

// HandleToolCall runs one tool call and always returns exactly one text item.
func (a *Adapter) HandleToolCall(ctx context.Context, name string, arguments map[string]any) (result []mcp.TextContent) {
	traceID := uuid.New().String()
	ctx = logger.ContextWithTraceID(ctx, traceID)
	log := logger.WithTraceID(traceID)

	log.Info("received tool call", zap.String("tool", name))

	defer func() {
		if r := recover(); r != nil {
			err := panicError(r)
			log.Error("tool call failed", zap.String("tool", name), zap.Error(err), zap.Stack("stack"))
			result = textResult(fmt.Sprintf("Error executing tool '%s': %v", name, err))
		}
	}()

	// Only reachable from direct Go callers: the MCP server rejects
	// unregistered tool names before the handler runs.
	if name != tools.PerformSearch {
		log.Error("unknown tool called", zap.String("tool", name))
		return textResult("Error: Unknown tool: " + name)
	}

	return textResult(a.PerformSearch(ctx, arguments))
}

// PerformSearch runs a search and renders the outcome as text. Failures are
// rendered as "Error performing search: ..." rather than returned.
func (a *Adapter) PerformSearch(ctx context.Context, arguments map[string]any) string {
	text, err := a.Search(ctx, arguments)
	if err != nil {
		var searchErr *Error
		if errors.As(err, &searchErr) {
			return searchErr.Text()
		}
		return newError(KindInternal, err, "").Text()
	}
	return text
}

// Search runs a search and returns the formatted answer. Every failure is an
// *Error.
func (a *Adapter) Search(ctx context.Context, arguments map[string]any) (string, error) {
	log := logger.FromContext(ctx)

	params, err := ParseParams(arguments)
	if err != nil {
		log.Warn("invalid perform_search arguments", zap.Error(err))
		return "", newError(KindInvalidInput, err, "")
	}

	log.Info("performing search", zap.Any("args", params.logFields()))

	result, debug, err := a.invoke(ctx, params)
	if debug != "" {
		log.Debug("captured agent output", zap.String("output", debug))
	}
	if err != nil {
		log.Error("perform_search failed", zap.String("query", params.Query), zap.Error(err))
		return "", err
	}

	log.Info("search completed", zap.String("query", params.Query), zap.Int("sources", len(result.Sources)))
	return a.format(result), nil
}

// invoke stages the call's credentials, runs the agent with its output
// captured, and restores the slots on every path.
func (a *Adapter) invoke(ctx context.Context, params Params) (result *models.AnswerResult, debug string, err error) {
	log := logger.FromContext(ctx)
	captured := &syncBuffer{}

	restore, err := a.stager.Stage(params.Overrides())
	if err != nil {
		return nil, "", newError(KindCollaborator, fmt.Errorf("apply credential overrides: %w", err), "")
	}
	defer func() {
		if rerr := restore(); rerr != nil {
			log.Error("failed to restore credentials", zap.Error(rerr))
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			err = newError(KindCollaborator, panicError(r), captured.String())
			result = nil
		}
		debug = captured.String()
	}()

	ag, err := a.factory(params.AgentConfig(), captured)
	if err != nil {
		return nil, "", newError(KindCollaborator, err, captured.String())
	}

	result, err = ag.Ask(ctx, params.Query, params.MaxSources, params.ProMode)
	if err != nil {
		return nil, "", newError(KindCollaborator, err, captured.String())
	}
	if result == nil {
		return nil, "", newError(KindInternal, errors.New("agent returned no result"), captured.String())
	}
	return result, "", nil
}

func textResult(text string) []mcp.TextContent {
	return []mcp.TextContent{mcp.NewTextContent(text)}
}

// syncBuffer collects agent output that may be written from several goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
