package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sengokudaikon/opendeepsearch-mcp/internal/config"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/models"
)

type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	Temperature *float64             `json:"temperature"`
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Unexpected path '%s'", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Unexpected Authorization header '%s'", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("Expected model 'test-model', got '%s'", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "answer?" {
			t.Errorf("Unexpected messages: %+v", req.Messages)
		}
		if req.Temperature == nil || *req.Temperature != 0.2 {
			t.Errorf("Unexpected temperature: %v", req.Temperature)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"test-model","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"42"}}]}`)
	}))
	defer srv.Close()

	c := NewClient(config.LLMConfig{BaseURL: srv.URL + "/v1/", APIKey: "sk-test", Temperature: 0.2})
	got, err := c.Complete(context.Background(), "test-model", []models.ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "answer?"},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "42" {
		t.Errorf("Expected '42', got '%s'", got)
	}
}

func TestCompleteErrors(t *testing.T) {
	t.Run("API error body", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"type":"server_error","message":"bad key"}}`)
		}))
		defer srv.Close()

		_, err := NewClient(config.LLMConfig{BaseURL: srv.URL, APIKey: "k"}).Complete(context.Background(), "m", nil)
		if err == nil {
			t.Fatal("Expected error")
		}
		if !strings.HasPrefix(err.Error(), "llm error: status 500: ") || !strings.Contains(err.Error(), "bad key") {
			t.Errorf("Unexpected error: %v", err)
		}
		if n := calls.Load(); n != 1 {
			t.Errorf("Expected a single attempt, got %d", n)
		}
	})

	t.Run("No choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"choices":[]}`)
		}))
		defer srv.Close()

		_, err := NewClient(config.LLMConfig{BaseURL: srv.URL, APIKey: "k"}).Complete(context.Background(), "m", nil)
		if err == nil || err.Error() != "llm returned no choices" {
			t.Errorf("Unexpected error: %v", err)
		}
	})
}
