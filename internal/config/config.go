package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Agent   AgentConfig   `mapstructure:"agent"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Search  SearchConfig  `mapstructure:"search"`
	Rerank  RerankConfig  `mapstructure:"rerank"`
}

// ServerConfig identifies the MCP server during the initialize handshake
type ServerConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AgentConfig holds the defaults the search agent applies when a tool call
// does not override them
type AgentConfig struct {
	Model          string `mapstructure:"model"`
	SearchProvider string `mapstructure:"search_provider"`
	Reranker       string `mapstructure:"reranker"`
	SystemPrompt   string `mapstructure:"system_prompt"`
	MaxPageBytes   int64  `mapstructure:"max_page_bytes"`
	PageTimeout    int    `mapstructure:"page_timeout"`
}

// LLMConfig points at an OpenAI-compatible chat completions endpoint
type LLMConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Timeout     int     `mapstructure:"timeout"`
	Temperature float64 `mapstructure:"temperature"`
}

// SearchConfig represents web search provider configuration
type SearchConfig struct {
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig represents a generic search provider configuration.
// Serper and SearXNG keys come from the credential slots; APIKey is only
// used by the mcp provider.
type ProviderConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	ToolName   string `mapstructure:"tool_name"`   // MCP: tool name to call
	QueryParam string `mapstructure:"query_param"` // MCP: query parameter name
	Timeout    int    `mapstructure:"timeout"`
}

// RerankConfig configures the reranking backends
type RerankConfig struct {
	Jina     RerankerConfig `mapstructure:"jina"`
	Infinity RerankerConfig `mapstructure:"infinity"`
}

type RerankerConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"`
}

func Load(cfgFile string) (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	godotenv.Load()
	godotenv.Load(".env.local")

	v := viper.New()

	setDefaults(v)

	// Replace . with _ for nested config keys
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("ODS")
	v.AutomaticEnv()
	_ = v.BindEnv("llm.api_key", "ODS_LLM_API_KEY", "OPENAI_API_KEY")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is ok, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "opendeepsearch")
	v.SetDefault("server.version", "0.1.0")

	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")

	v.SetDefault("agent.model", "gpt-4o-mini")
	v.SetDefault("agent.search_provider", "serper")
	v.SetDefault("agent.reranker", "")
	v.SetDefault("agent.system_prompt", "")
	v.SetDefault("agent.max_page_bytes", 1<<20)
	v.SetDefault("agent.page_timeout", 15)

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.timeout", 120)
	v.SetDefault("llm.temperature", 0.2)

	v.SetDefault("search.providers.serper.base_url", "https://google.serper.dev")
	v.SetDefault("search.providers.serper.timeout", 30)
	v.SetDefault("search.providers.searxng.timeout", 30)
	v.SetDefault("search.providers.mcp.tool_name", "search")
	v.SetDefault("search.providers.mcp.query_param", "query")
	v.SetDefault("search.providers.mcp.timeout", 30)

	v.SetDefault("rerank.jina.base_url", "https://api.jina.ai")
	v.SetDefault("rerank.jina.model", "jina-reranker-v2-base-multilingual")
	v.SetDefault("rerank.jina.timeout", 30)
	v.SetDefault("rerank.infinity.base_url", "http://localhost:7997")
	v.SetDefault("rerank.infinity.model", "BAAI/bge-reranker-base")
	v.SetDefault("rerank.infinity.timeout", 30)
}
