package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sengokudaikon/opendeepsearch-mcp/internal/config"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/credentials"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/models"
)

type slotMap map[credentials.Slot]string

func (m slotMap) Lookup(s credentials.Slot) (string, bool) {
	v, ok := m[s]
	return v, ok
}

func (m slotMap) Set(s credentials.Slot, v string) error {
	m[s] = v
	return nil
}

func (m slotMap) Unset(s credentials.Slot) error {
	delete(m, s)
	return nil
}

// fakeBackend serves serper, the chat completions API and two result pages.
type fakeBackend struct {
	*httptest.Server
	lastPrompt string
	serperKey  string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fb.serperKey = r.Header.Get("X-API-KEY")
		fmt.Fprintf(w, `{"organic":[
			{"title":"First","link":"%[1]s/page/1","snippet":"first snippet"},
			{"title":"Second","link":"%[1]s/page/2","snippet":"second snippet"},
			{"title":"Third","link":"%[1]s/page/3","snippet":"third snippet"}]}`, fb.URL)
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []models.ChatMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fb.lastPrompt = req.Messages[len(req.Messages)-1].Content
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"  The answer [1]  "}}]}`)
	})
	mux.HandleFunc("/page/1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><nav>menu</nav><article><p>Full   article
			text</p><script>alert(1)</script></article></body></html>`)
	})
	mux.HandleFunc("/page/2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF")
	})
	fb.Server = httptest.NewServer(mux)
	t.Cleanup(fb.Close)
	return fb
}

func (fb *fakeBackend) defaults() *config.Config {
	return &config.Config{
		Agent: config.AgentConfig{Model: "test-model", SearchProvider: "serper", Reranker: "none"},
		LLM:   config.LLMConfig{BaseURL: fb.URL + "/v1", APIKey: "sk-test"},
		Search: config.SearchConfig{Providers: map[string]config.ProviderConfig{
			"serper": {BaseURL: fb.URL},
		}},
	}
}

func TestAsk(t *testing.T) {
	fb := newFakeBackend(t)
	var out bytes.Buffer

	a, err := New(Config{SerperAPIKey: "call-key"}, Deps{Defaults: fb.defaults(), Slots: slotMap{}, Output: &out})
	require.NoError(t, err)

	res, err := a.Ask(context.Background(), "what?", 2, false)
	require.NoError(t, err)

	assert.Equal(t, "call-key", fb.serperKey)
	assert.Equal(t, "The answer [1]", res.Answer)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, "First", *res.Sources[0].Title)
	assert.Equal(t, "second snippet", *res.Sources[1].Snippet)
	assert.Nil(t, res.Sources[0].HTML)

	assert.Contains(t, fb.lastPrompt, "Question: what?")
	assert.Contains(t, fb.lastPrompt, "[1] First")
	assert.NotContains(t, fb.lastPrompt, "Third")
	assert.Contains(t, out.String(), "Searching serper")
}

func TestAskProModeFetchesPages(t *testing.T) {
	fb := newFakeBackend(t)
	var out bytes.Buffer

	a, err := New(Config{}, Deps{
		Defaults: fb.defaults(),
		Slots:    slotMap{credentials.SerperAPIKey: "slot-key"},
		Output:   &out,
	})
	require.NoError(t, err)

	res, err := a.Ask(context.Background(), "what?", 2, true)
	require.NoError(t, err)

	assert.Equal(t, "slot-key", fb.serperKey)
	require.NotNil(t, res.Sources[0].HTML)
	assert.Equal(t, "Full article text", *res.Sources[0].HTML)
	assert.Nil(t, res.Sources[1].HTML, "unsupported page keeps snippet fallback")
	assert.Contains(t, out.String(), "Skipping")
	assert.Contains(t, fb.lastPrompt, "Content: Full article text")
}

func TestNewErrors(t *testing.T) {
	defaults := &config.Config{}

	_, err := New(Config{SearchProvider: "bing"}, Deps{Defaults: defaults, Slots: slotMap{}})
	assert.ErrorContains(t, err, "unknown search provider")

	_, err = New(Config{}, Deps{Defaults: defaults, Slots: slotMap{}})
	assert.ErrorContains(t, err, "not available")

	_, err = New(Config{SerperAPIKey: "k", Reranker: "jina"}, Deps{Defaults: defaults, Slots: slotMap{}})
	assert.ErrorContains(t, err, "missing API key")
}

func TestAskSearchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	defaults := &config.Config{Search: config.SearchConfig{Providers: map[string]config.ProviderConfig{
		"searxng": {BaseURL: srv.URL},
	}}}
	a, err := New(Config{SearchProvider: "searxng"}, Deps{Defaults: defaults, Slots: slotMap{}})
	require.NoError(t, err)

	_, err = a.Ask(context.Background(), "q", 2, false)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "search failed:"))
}
