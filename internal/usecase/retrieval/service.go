// Package retrieval selects the context chunks most relevant to a query.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sightline-ai/sightline/internal/domain"
	"github.com/sightline-ai/sightline/internal/repository/vectorindex"
)

// Default result limits.
const (
	DefaultKPerIndex = 5
	DefaultKTotal    = 5
)

// Service embeds the query once and merges ranked hits from the
// conversation's indices.
type Service struct {
	embedder  Embedder
	searcher  Searcher
	kPerIndex int
	kTotal    int
	logger    *zap.Logger
}

// New creates a retrieval service with default limits.
func New(embedder Embedder, searcher Searcher, logger *zap.Logger) *Service {
	return &Service{
		embedder:  embedder,
		searcher:  searcher,
		kPerIndex: DefaultKPerIndex,
		kTotal:    DefaultKTotal,
		logger:    logger,
	}
}

// WithLimits overrides the per-index and total result caps.
func (s *Service) WithLimits(kPerIndex, kTotal int) *Service {
	if kPerIndex > 0 {
		s.kPerIndex = kPerIndex
	}
	if kTotal > 0 {
		s.kTotal = kTotal
	}
	return s
}

// Retrieve returns up to kTotal deduplicated context items ranked by score.
// Chart hits outrank comment hits on equal scores. Empty or missing indices
// are skipped; a conversation with no indexed content yields an empty
// result, not an error.
func (s *Service) Retrieve(ctx context.Context, conversationID, query string) ([]domain.ContextItem, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyText
	}

	embRes, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Search in fixed index order so the stable sort below keeps charts
	// ahead of comments on score ties.
	merged := make([]domain.ContextItem, 0, s.kTotal)
	seen := make(map[string]struct{})
	for _, name := range vectorindex.OrderedNames() {
		items, err := s.searcher.Search(conversationID, name, embRes.Embedding, s.kPerIndex)
		if err != nil {
			if errors.Is(err, domain.ErrIndexEmpty) {
				continue
			}
			return nil, fmt.Errorf("search %s: %w", name, err)
		}
		for _, item := range items {
			key := item.DedupeKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, item)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if len(merged) > s.kTotal {
		merged = merged[:s.kTotal]
	}

	s.logger.Debug("Context retrieved",
		zap.String("conversation_id", conversationID),
		zap.Int("items", len(merged)),
	)

	return merged, nil
}
