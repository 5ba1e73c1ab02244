// Package agent implements the search-and-answer workflow behind the
// perform_search tool: web search, reranking, optional page fetching and an
// LLM answer grounded in the collected sources.
package agent

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sengokudaikon/opendeepsearch-mcp/internal/config"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/credentials"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/llm"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/models"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/rerank"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/search"
	"github.com/sengokudaikon/opendeepsearch-mcp/pkg/logger"
)

// DefaultSystemPrompt is used when neither the call nor the config sets one.
const DefaultSystemPrompt = `You are an AI-powered search agent that takes in a user's search query, retrieves relevant search results, and provides an accurate and concise answer based on the provided context.
Answer only from the numbered search results. Cite sources inline as [n]. If the results do not contain the answer, say so.`

const maxContextChars = 2000

// Config carries per-call overrides. Empty fields fall back to the loaded
// defaults, and credentials fall back to the process-wide slots.
type Config struct {
	Model              string
	SearchProvider     string
	Reranker           string
	SystemPrompt       string
	SerperAPIKey       string
	SearXNGInstanceURL string
	SearXNGAPIKey      string
}

// Deps are the long-lived collaborators shared by every agent.
type Deps struct {
	Defaults *config.Config
	Slots    credentials.Store
	// Output receives progress messages. Nil discards them.
	Output io.Writer
}

type completer interface {
	Complete(ctx context.Context, model string, messages []models.ChatMessage) (string, error)
}

type pageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Agent answers one question at a time
type Agent struct {
	model        string
	systemPrompt string
	provider     search.Provider
	reranker     rerank.Reranker
	llm          completer
	fetcher      pageFetcher
	out          io.Writer
	log          *zap.Logger
}

// New builds an agent for cfg. It fails when the selected search provider or
// reranker is unknown or lacks credentials.
func New(cfg Config, deps Deps) (*Agent, error) {
	defaults := deps.Defaults
	if defaults == nil {
		defaults = &config.Config{}
	}
	slots := deps.Slots
	if slots == nil {
		slots = credentials.EnvStore{}
	}

	keys := search.Keys{
		SerperAPIKey:       firstNonEmpty(cfg.SerperAPIKey, credentials.Get(slots, credentials.SerperAPIKey)),
		SearXNGInstanceURL: firstNonEmpty(cfg.SearXNGInstanceURL, credentials.Get(slots, credentials.SearXNGInstanceURL)),
		SearXNGAPIKey:      firstNonEmpty(cfg.SearXNGAPIKey, credentials.Get(slots, credentials.SearXNGAPIKey)),
	}

	providerName := firstNonEmpty(cfg.SearchProvider, defaults.Agent.SearchProvider, "serper")
	provider, err := search.NewManager(defaults.Search, keys).Get(providerName)
	if err != nil {
		return nil, err
	}

	reranker, err := rerank.New(
		firstNonEmpty(cfg.Reranker, defaults.Agent.Reranker),
		defaults.Rerank,
		credentials.Get(slots, credentials.JinaAPIKey),
	)
	if err != nil {
		return nil, err
	}

	out := deps.Output
	if out == nil {
		out = io.Discard
	}

	return &Agent{
		model:        firstNonEmpty(cfg.Model, defaults.Agent.Model),
		systemPrompt: firstNonEmpty(cfg.SystemPrompt, defaults.Agent.SystemPrompt, DefaultSystemPrompt),
		provider:     provider,
		reranker:     reranker,
		llm:          llm.NewClient(defaults.LLM),
		fetcher:      NewFetcher(time.Duration(defaults.Agent.PageTimeout)*time.Second, defaults.Agent.MaxPageBytes),
		out:          out,
		log:          logger.Named("agent"),
	}, nil
}

// Ask searches the web for query, keeps the maxSources most relevant results
// and asks the LLM for an answer grounded in them. In pro mode the kept pages
// are fetched and their text replaces the snippet as context.
func (a *Agent) Ask(ctx context.Context, query string, maxSources int, proMode bool) (*models.AnswerResult, error) {
	if maxSources < 1 {
		maxSources = 1
	}
	log := a.log.With(zap.String("trace_id", logger.TraceIDFromContext(ctx)))

	limit := maxSources
	if _, ok := a.reranker.(rerank.None); !ok {
		limit = maxSources * 2
	}

	fmt.Fprintf(a.out, "Searching %s for %q (limit %d)\n", a.provider.Name(), query, limit)
	found, err := a.provider.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	sources := make([]models.Source, 0, len(found.Results))
	docs := make([]string, 0, len(found.Results))
	for _, r := range found.Results {
		sources = append(sources, models.Source{
			Title:   models.StringPtr(r.Title),
			Link:    models.StringPtr(r.URL),
			Snippet: models.StringPtr(r.Snippet),
			HTML:    models.StringPtr(r.Content),
		})
		docs = append(docs, strings.TrimSpace(r.Title+"\n"+r.Snippet+"\n"+r.Content))
	}

	if len(sources) > 0 {
		fmt.Fprintf(a.out, "Reranking %d results with %s\n", len(sources), a.reranker.Name())
		order, err := a.reranker.Rerank(ctx, query, docs, maxSources)
		if err != nil {
			return nil, fmt.Errorf("rerank failed: %w", err)
		}
		ranked := make([]models.Source, 0, len(order))
		for _, idx := range order {
			ranked = append(ranked, sources[idx])
		}
		sources = ranked
	}

	if proMode {
		a.fetchPages(ctx, sources)
	}

	log.Debug("sources selected",
		zap.String("provider", a.provider.Name()),
		zap.Int("count", len(sources)),
		zap.Bool("pro_mode", proMode),
	)

	messages := []models.ChatMessage{
		{Role: "system", Content: a.systemPrompt},
		{Role: "user", Content: fmt.Sprintf("Context:\n%s\nQuestion: %s", search.FormatResults(query, sources, maxContextChars), query)},
	}

	fmt.Fprintf(a.out, "Asking %s\n", a.model)
	answer, err := a.llm.Complete(ctx, a.model, messages)
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	return &models.AnswerResult{
		Answer:  strings.TrimSpace(answer),
		Sources: sources,
	}, nil
}

// fetchPages replaces each source's HTML with its fetched page text. Pages
// that cannot be fetched keep what the provider returned.
func (a *Agent) fetchPages(ctx context.Context, sources []models.Source) {
	for i := range sources {
		link := sources[i].Link
		if link == nil {
			continue
		}
		fmt.Fprintf(a.out, "Fetching %s\n", *link)
		text, err := a.fetcher.Fetch(ctx, *link)
		if err != nil {
			fmt.Fprintf(a.out, "Skipping %s: %v\n", *link, err)
			continue
		}
		if text != "" {
			sources[i].HTML = &text
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
