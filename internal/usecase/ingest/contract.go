package ingest

import (
	"context"

	"github.com/sightline-ai/sightline/internal/domain"
)

// Embedder vectorizes multiple texts in a single API call.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Indexer stores embedded chunks in a conversation's named index.
type Indexer interface {
	Add(conversationID, indexName string, chunks ...domain.Chunk) error
}
