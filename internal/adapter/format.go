package adapter

import (
	"fmt"
	"strings"

	"github.com/sengokudaikon/opendeepsearch-mcp/internal/models"
)

const (
	sourcesHeader = "\n\n---\n**Sources:**"
	noSources     = "No sources found."
	notAvailable  = "N/A"
)

// FormatResult renders an answer followed by its numbered source list.
func FormatResult(result *models.AnswerResult) string {
	var b strings.Builder
	b.WriteString(result.Answer)
	b.WriteString(sourcesHeader)
	b.WriteString("\n")

	if len(result.Sources) == 0 {
		b.WriteString(noSources)
		return b.String()
	}

	blocks := make([]string, 0, len(result.Sources))
	for i, src := range result.Sources {
		blocks = append(blocks, formatSource(i+1, src))
	}
	b.WriteString(strings.Join(blocks, "\n"))
	return b.String()
}

func formatSource(n int, src models.Source) string {
	return fmt.Sprintf("%d. **Title:** %s\n   **Link:** %s\n   **Content:** %s",
		n, orNA(src.Title), orNA(src.Link), sourceContent(src))
}

// sourceContent prefers fetched page text over the search snippet.
func sourceContent(src models.Source) string {
	if src.HTML != nil {
		return *src.HTML
	}
	return orNA(src.Snippet)
}

func orNA(s *string) string {
	if s == nil {
		return notAvailable
	}
	return *s
}
