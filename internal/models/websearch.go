package models

// SearchProviderResult represents the result from a search provider
type SearchProviderResult struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// SearchResult represents a single search hit
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Snippet string `json:"snippet,omitempty"`
}

// Source is one ranked source behind an answer. Nil fields were not
// produced by the agent and render as "N/A".
type Source struct {
	Title   *string `json:"title,omitempty"`
	Link    *string `json:"link,omitempty"`
	HTML    *string `json:"html,omitempty"`
	Snippet *string `json:"snippet,omitempty"`
}

// AnswerResult is what the search agent returns for one question
type AnswerResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
