package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sengokudaikon/opendeepsearch-mcp/internal/models"
)

func TestFormatResult(t *testing.T) {
	got := FormatResult(sampleResult())

	want := "Test Answer\n\n---\n**Sources:**\n" +
		"1. **Title:** Source 1\n   **Link:** http://example.com/1\n   **Content:** Snippet 1 Content\n" +
		"2. **Title:** Source 2\n   **Link:** http://example.com/2\n   **Content:** Snippet 2 Content"
	assert.Equal(t, want, got)
	assert.Equal(t, got, FormatResult(sampleResult()))
}

func TestFormatResult_Fallbacks(t *testing.T) {
	html := ""
	tests := []struct {
		name   string
		source models.Source
		want   string
	}{
		{
			name:   "missing everything",
			source: models.Source{},
			want:   "1. **Title:** N/A\n   **Link:** N/A\n   **Content:** N/A",
		},
		{
			name:   "html wins over snippet",
			source: models.Source{Title: models.StringPtr("T"), Link: models.StringPtr("L"), HTML: models.StringPtr("page"), Snippet: models.StringPtr("snip")},
			want:   "1. **Title:** T\n   **Link:** L\n   **Content:** page",
		},
		{
			name:   "present empty html",
			source: models.Source{Title: models.StringPtr("T"), HTML: &html, Snippet: models.StringPtr("snip")},
			want:   "1. **Title:** T\n   **Link:** N/A\n   **Content:** ",
		},
		{
			name:   "snippet only",
			source: models.Source{Link: models.StringPtr("L"), Snippet: models.StringPtr("snip")},
			want:   "1. **Title:** N/A\n   **Link:** L\n   **Content:** snip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatResult(&models.AnswerResult{Answer: "A", Sources: []models.Source{tt.source}})
			assert.Equal(t, "A\n\n---\n**Sources:**\n"+tt.want, got)
		})
	}
}
