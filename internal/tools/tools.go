// Package tools declares the tools the server exposes.
package tools

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// PerformSearch is the name of the only exposed tool.
const PerformSearch = "perform_search"

const performSearchDescription = "Executes the full OpenDeepSearch workflow: web search, content processing, context building, and LLM query answering."

// performSearchSchema is kept raw so integer and default annotations are
// published exactly as written.
var performSearchSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {
			"type": "string",
			"description": "The user's question or search query."
		},
		"max_sources": {
			"type": "integer",
			"description": "Maximum number of web sources to process.",
			"default": 2
		},
		"pro_mode": {
			"type": "boolean",
			"description": "Enable deeper processing.",
			"default": false
		},
		"model": {
			"type": "string",
			"description": "Override the default LLM model."
		},
		"search_provider": {
			"type": "string",
			"description": "Override the default search provider (e.g., 'serper', 'searxng')."
		},
		"reranker": {
			"type": "string",
			"description": "Override the default reranker (e.g., 'jina', 'infinity', 'none')."
		},
		"system_prompt": {
			"type": "string",
			"description": "Override the default system prompt for the LLM."
		},
		"serper_api_key": {
			"type": "string",
			"description": "API key for Serper search provider."
		},
		"searxng_instance_url": {
			"type": "string",
			"description": "URL of the SearXNG instance."
		},
		"searxng_api_key": {
			"type": "string",
			"description": "API key for SearXNG instance."
		},
		"jina_api_key": {
			"type": "string",
			"description": "API key for Jina reranker."
		}
	},
	"required": ["query"]
}`)

// PerformSearchTool returns the perform_search descriptor.
func PerformSearchTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(PerformSearch, performSearchDescription, performSearchSchema)
}

// ListTools returns every exposed tool descriptor.
func ListTools() []mcp.Tool {
	return []mcp.Tool{PerformSearchTool()}
}
