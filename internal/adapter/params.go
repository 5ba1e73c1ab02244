package adapter

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/sengokudaikon/opendeepsearch-mcp/internal/agent"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/credentials"
)

const (
	defaultMaxSources = 2
	defaultProMode    = false
)

// Params are the recognized perform_search arguments.
type Params struct {
	Query          string
	MaxSources     int
	ProMode        bool
	Model          string
	SearchProvider string
	Reranker       string
	SystemPrompt   string

	SerperAPIKey       string
	SearXNGInstanceURL string
	SearXNGAPIKey      string
	JinaAPIKey         string
}

// ParseParams validates a tool call's argument map. Unknown keys are ignored
// and null values count as absent.
func ParseParams(args map[string]any) (Params, error) {
	p := Params{MaxSources: defaultMaxSources, ProMode: defaultProMode}

	query, err := stringArg(args, "query")
	if err != nil {
		return p, err
	}
	if strings.TrimSpace(query) == "" {
		return p, fmt.Errorf("missing required argument: query")
	}
	p.Query = query

	if v, ok := args["max_sources"]; ok && v != nil {
		n, err := cast.ToIntE(v)
		if err != nil {
			return p, fmt.Errorf("invalid max_sources: %w", err)
		}
		if n < 1 {
			return p, fmt.Errorf("invalid max_sources: must be at least 1, got %d", n)
		}
		p.MaxSources = n
	}

	if v, ok := args["pro_mode"]; ok && v != nil {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return p, fmt.Errorf("invalid pro_mode: %w", err)
		}
		p.ProMode = b
	}

	fields := []struct {
		key string
		dst *string
	}{
		{"model", &p.Model},
		{"search_provider", &p.SearchProvider},
		{"reranker", &p.Reranker},
		{"system_prompt", &p.SystemPrompt},
		{"serper_api_key", &p.SerperAPIKey},
		{"searxng_instance_url", &p.SearXNGInstanceURL},
		{"searxng_api_key", &p.SearXNGAPIKey},
		{"jina_api_key", &p.JinaAPIKey},
	}
	for _, f := range fields {
		s, err := stringArg(args, f.key)
		if err != nil {
			return p, err
		}
		*f.dst = s
	}

	return p, nil
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("invalid %s: %w", key, err)
	}
	return s, nil
}

// Overrides returns the credential slots this call stages.
func (p Params) Overrides() credentials.Overrides {
	return credentials.Overrides{
		credentials.SerperAPIKey:       p.SerperAPIKey,
		credentials.SearXNGInstanceURL: p.SearXNGInstanceURL,
		credentials.SearXNGAPIKey:      p.SearXNGAPIKey,
		credentials.JinaAPIKey:         p.JinaAPIKey,
	}
}

// AgentConfig returns the collaborator config. Only supplied fields are set,
// so the agent applies its own defaults for the rest.
func (p Params) AgentConfig() agent.Config {
	return agent.Config{
		Model:              p.Model,
		SearchProvider:     p.SearchProvider,
		Reranker:           p.Reranker,
		SystemPrompt:       p.SystemPrompt,
		SerperAPIKey:       p.SerperAPIKey,
		SearXNGInstanceURL: p.SearXNGInstanceURL,
		SearXNGAPIKey:      p.SearXNGAPIKey,
	}
}

// logFields lists the non-secret arguments worth logging.
func (p Params) logFields() map[string]any {
	fields := map[string]any{
		"query":       p.Query,
		"max_sources": p.MaxSources,
		"pro_mode":    p.ProMode,
	}
	if p.Model != "" {
		fields["model"] = p.Model
	}
	if p.SearchProvider != "" {
		fields["search_provider"] = p.SearchProvider
	}
	if p.Reranker != "" {
		fields["reranker"] = p.Reranker
	}
	return fields
}
