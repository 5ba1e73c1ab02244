package search

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sengokudaikon/opendeepsearch-mcp/internal/config"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/models"
	"github.com/sengokudaikon/opendeepsearch-mcp/pkg/logger"
)

// Keys carries the credentials the providers are built with
type Keys struct {
	SerperAPIKey       string
	SearXNGInstanceURL string
	SearXNGAPIKey      string
}

// Manager manages search providers
type Manager struct {
	providers map[string]Provider
}

// NewManager creates a manager holding every known provider type
func NewManager(cfg config.SearchConfig, keys Keys) *Manager {
	m := &Manager{providers: make(map[string]Provider)}

	m.Register(NewSerperProvider(keys.SerperAPIKey, cfg.Providers["serper"]))
	m.Register(NewSearXNGProvider(keys.SearXNGInstanceURL, keys.SearXNGAPIKey, cfg.Providers["searxng"]))
	m.Register(NewMCPProvider(cfg.Providers["mcp"]))

	logger.Debug("search manager initialized",
		zap.Strings("providers", m.Names()),
	)

	return m
}

// Register adds or replaces a provider under its own name
func (m *Manager) Register(p Provider) {
	m.providers[p.Name()] = p
}

// Names returns the registered provider names, sorted
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named provider if it is registered and available
func (m *Manager) Get(name string) (Provider, error) {
	p, ok := m.providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown search provider %q (available: %s)", name, strings.Join(m.Names(), ", "))
	}

	if !p.IsAvailable() {
		return nil, fmt.Errorf("search provider not available: %s", name)
	}

	return p, nil
}

// FormatResults renders sources as a numbered context block for the LLM prompt
func FormatResults(query string, sources []models.Source, maxContent int) string {
	if len(sources) == 0 {
		return "No search results found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for: %s\n\n", query)
	for i, s := range sources {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, deref(s.Title))
		if link := deref(s.Link); link != "" {
			fmt.Fprintf(&b, "    URL: %s\n", link)
		}
		if snippet := deref(s.Snippet); snippet != "" {
			fmt.Fprintf(&b, "    Summary: %s\n", snippet)
		}
		if content := deref(s.HTML); content != "" && content != deref(s.Snippet) {
			if maxContent > 0 && len(content) > maxContent {
				content = truncateUTF8(content, maxContent) + "..."
			}
			fmt.Fprintf(&b, "    Content: %s\n", content)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
