package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Name != "opendeepsearch" {
		t.Errorf("Expected server name 'opendeepsearch', got '%s'", cfg.Server.Name)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected log level 'INFO', got '%s'", cfg.Logging.Level)
	}
	if cfg.Agent.SearchProvider != "serper" {
		t.Errorf("Expected default provider 'serper', got '%s'", cfg.Agent.SearchProvider)
	}
	if got := cfg.Search.Providers["serper"].BaseURL; got != "https://google.serper.dev" {
		t.Errorf("Unexpected serper base URL '%s'", got)
	}
	if cfg.Rerank.Jina.Model == "" {
		t.Error("Expected a default jina model")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "ods.yaml")
	content := []byte("agent:\n  model: from-file\n  reranker: none\nllm:\n  base_url: http://llm.local\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ODS_AGENT_SYSTEM_PROMPT", "be brief")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Agent.Model != "from-file" {
		t.Errorf("Expected model 'from-file', got '%s'", cfg.Agent.Model)
	}
	if cfg.Agent.Reranker != "none" {
		t.Errorf("Expected reranker 'none', got '%s'", cfg.Agent.Reranker)
	}
	if cfg.LLM.BaseURL != "http://llm.local" {
		t.Errorf("Expected llm base url override, got '%s'", cfg.LLM.BaseURL)
	}
	if cfg.Agent.SystemPrompt != "be brief" {
		t.Errorf("Expected env override for system prompt, got '%s'", cfg.Agent.SystemPrompt)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}
