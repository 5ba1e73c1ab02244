package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTools(t *testing.T) {
	list := ListTools()
	require.Len(t, list, 1)
	assert.Equal(t, PerformSearch, list[0].Name)
	assert.NotEmpty(t, list[0].Description)

	raw, err := json.Marshal(list[0])
	require.NoError(t, err)

	var decoded struct {
		Name        string `json:"name"`
		InputSchema struct {
			Type       string `json:"type"`
			Required   []string
			Properties map[string]struct {
				Type    string `json:"type"`
				Default any    `json:"default"`
			} `json:"properties"`
		} `json:"inputSchema"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	schema := decoded.InputSchema
	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"query"}, schema.Required)
	assert.Len(t, schema.Properties, 11)

	assert.Equal(t, "integer", schema.Properties["max_sources"].Type)
	assert.EqualValues(t, 2, schema.Properties["max_sources"].Default)
	assert.Equal(t, "boolean", schema.Properties["pro_mode"].Type)
	assert.Equal(t, false, schema.Properties["pro_mode"].Default)

	for _, name := range []string{"query", "model", "search_provider", "reranker", "system_prompt",
		"serper_api_key", "searxng_instance_url", "searxng_api_key", "jina_api_key"} {
		assert.Equal(t, "string", schema.Properties[name].Type, name)
	}
}
