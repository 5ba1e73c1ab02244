package search

import (
	"context"

	"github.com/sengokudaikon/opendeepsearch-mcp/internal/models"
)

// Provider defines the interface for search providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Search performs a search query and returns at most limit results
	Search(ctx context.Context, query string, limit int) (*models.SearchProviderResult, error)

	// IsAvailable returns true if the provider is properly configured
	IsAvailable() bool
}
