// Package ingest validates, vectorizes and indexes raw sources for a
// conversation.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sightline-ai/sightline/internal/domain"
	"github.com/sightline-ai/sightline/internal/repository/vectorindex"
)

// Service turns raw sources into indexed chunks.
type Service struct {
	embedder Embedder
	indexer  Indexer
	logger   *zap.Logger
}

// New creates an ingestion service.
func New(embedder Embedder, indexer Indexer, logger *zap.Logger) *Service {
	return &Service{embedder: embedder, indexer: indexer, logger: logger}
}

// Ingest validates the sources, embeds them in one batch and adds the
// resulting chunks to the conversation's indices. The whole batch is
// rejected on the first invalid source; nothing is indexed partially.
// Returns the number of chunks indexed.
func (s *Service) Ingest(ctx context.Context, conversationID string, sources []domain.Source) (int, error) {
	if len(sources) == 0 {
		return 0, nil
	}

	texts := make([]string, len(sources))
	for i, src := range sources {
		if strings.TrimSpace(src.Text) == "" {
			return 0, fmt.Errorf("source [%d]: %w", i, domain.ErrEmptyText)
		}
		if !src.Type.Valid() {
			return 0, fmt.Errorf("source [%d] type %q: %w", i, src.Type, domain.ErrInvalidSource)
		}
		texts[i] = src.Text
	}

	res, err := s.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed sources: %w", err)
	}
	if len(res.Embeddings) != len(sources) {
		return 0, fmt.Errorf("embed sources: got %d vectors for %d sources: %w",
			len(res.Embeddings), len(sources), domain.ErrEmbeddingProviderError)
	}

	// Group per index so each Add is one batch.
	byIndex := make(map[string][]domain.Chunk)
	for i, src := range sources {
		chunk := domain.Chunk{
			ID:        uuid.New().String(),
			Text:      src.Text,
			Source:    src.Type,
			SourceRef: src.SourceRef,
			Vector:    res.Embeddings[i],
		}
		if chunk.SourceRef == "" {
			chunk.SourceRef = chunk.ID
		}
		name := vectorindex.IndexNameFor(src.Type)
		byIndex[name] = append(byIndex[name], chunk)
	}

	for _, name := range vectorindex.OrderedNames() {
		chunks, ok := byIndex[name]
		if !ok {
			continue
		}
		if err := s.indexer.Add(conversationID, name, chunks...); err != nil {
			return 0, fmt.Errorf("index %s: %w", name, err)
		}
	}

	s.logger.Debug("Sources ingested",
		zap.String("conversation_id", conversationID),
		zap.Int("sources", len(sources)),
		zap.Int("total_tokens", res.TotalTokens),
	)

	return len(sources), nil
}
