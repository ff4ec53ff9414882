package retrieval

import (
	"context"

	"github.com/sightline-ai/sightline/internal/domain"
)

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher runs a query vector against a conversation's named index.
type Searcher interface {
	Search(conversationID, indexName string, query []float32, k int) ([]domain.ContextItem, error)
}
