// Package vectorindex provides in-memory flat vector indices with
// exact cosine scoring, grouped per conversation.
package vectorindex

import (
	"math"
	"sort"
	"sync"

	"github.com/sightline-ai/sightline/internal/domain"
)

// Memory is a flat in-memory vector index. Chunks are scanned exhaustively
// on every search; scores are cosine similarity normalized to [0, 1].
// The zero dimension is fixed by the first chunk added.
type Memory struct {
	mu     sync.RWMutex
	dim    int
	chunks []domain.Chunk
}

// NewMemory creates an empty index.
func NewMemory() *Memory {
	return &Memory{}
}

// Add appends chunks to the index. The first chunk fixes the index
// dimension; subsequent chunks with a different dimension are rejected
// with domain.ErrVectorDimMismatch and nothing from the batch is kept.
func (m *Memory) Add(chunks ...domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dim := m.dim
	for _, c := range chunks {
		if len(c.Vector) == 0 {
			return domain.ErrVectorDimMismatch
		}
		if dim == 0 {
			dim = len(c.Vector)
		}
		if len(c.Vector) != dim {
			return domain.ErrVectorDimMismatch
		}
	}

	m.dim = dim
	m.chunks = append(m.chunks, chunks...)
	return nil
}

// Len returns the number of indexed chunks.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// Search returns the top k chunks by cosine similarity to the query,
// scored in [0, 1]. Ties keep insertion order. Returns
// domain.ErrIndexEmpty when nothing has been indexed and
// domain.ErrVectorDimMismatch when the query dimension differs from
// the index dimension.
func (m *Memory) Search(query []float32, k int) ([]domain.ContextItem, error) {
	if k <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	if len(m.chunks) == 0 {
		m.mu.RUnlock()
		return nil, domain.ErrIndexEmpty
	}
	if len(query) != m.dim {
		m.mu.RUnlock()
		return nil, domain.ErrVectorDimMismatch
	}
	// chunks is append-only, so the slice header taken under the read
	// lock stays valid after release.
	snap := m.chunks
	m.mu.RUnlock()

	items := make([]domain.ContextItem, len(snap))
	for i, c := range snap {
		items[i] = domain.ContextItem{Chunk: c, Score: similarity(query, c.Vector)}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})

	if k > len(items) {
		k = len(items)
	}
	return items[:k], nil
}

// similarity maps cosine similarity from [-1, 1] to [0, 1].
func similarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return (cos + 1) / 2
}
