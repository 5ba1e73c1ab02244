package agent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxPageChars = 8000

var whitespaceRe = regexp.MustCompile(`\s+`)

// Fetcher downloads result pages and reduces them to readable text
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher creates a fetcher with a per-page timeout and body size cap
func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Fetch returns the main text content of the HTML page at url
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; opendeepsearch-mcp)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch page: HTTP %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		return "", fmt.Errorf("unsupported content type: %s", contentType)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	return extractText(doc), nil
}

// extractText prefers <article>, then <main>, then <body>, ignoring chrome
// and script content.
func extractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, header, footer, aside, form, iframe").Remove()

	sel := doc.Find("article").First()
	if strings.TrimSpace(sel.Text()) == "" {
		sel = doc.Find("main").First()
	}
	if strings.TrimSpace(sel.Text()) == "" {
		sel = doc.Find("body").First()
	}

	text := strings.TrimSpace(whitespaceRe.ReplaceAllString(sel.Text(), " "))
	return truncateUTF8(text, maxPageChars)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
