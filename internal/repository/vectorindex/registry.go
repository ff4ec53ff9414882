package vectorindex

import (
	"sync"

	"github.com/sightline-ai/sightline/internal/domain"
)

// Named indices kept per conversation, searched in this order.
const (
	IndexCharts   = "charts"
	IndexComments = "comments"
)

// OrderedNames returns the index names in their fixed search order.
func OrderedNames() []string {
	return []string{IndexCharts, IndexComments}
}

// IndexNameFor maps a source type to the index that holds its chunks.
func IndexNameFor(t domain.SourceType) string {
	if t == domain.SourceComment {
		return IndexComments
	}
	return IndexCharts
}

// Registry holds the named indices of each conversation. Indices are
// created lazily on first access and dropped together with the
// conversation.
type Registry struct {
	mu    sync.RWMutex
	convs map[string]map[string]*Memory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{convs: make(map[string]map[string]*Memory)}
}

// Index returns the named index of a conversation, creating it if needed.
func (r *Registry) Index(conversationID, name string) *Memory {
	r.mu.Lock()
	defer r.mu.Unlock()

	indices, ok := r.convs[conversationID]
	if !ok {
		indices = make(map[string]*Memory)
		r.convs[conversationID] = indices
	}
	idx, ok := indices[name]
	if !ok {
		idx = NewMemory()
		indices[name] = idx
	}
	return idx
}

// Lookup returns the named index of a conversation without creating it.
func (r *Registry) Lookup(conversationID, name string) (*Memory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indices, ok := r.convs[conversationID]
	if !ok {
		return nil, false
	}
	idx, ok := indices[name]
	return idx, ok
}

// Add appends chunks to the named index of a conversation, creating the
// index if needed.
func (r *Registry) Add(conversationID, name string, chunks ...domain.Chunk) error {
	return r.Index(conversationID, name).Add(chunks...)
}

// Search runs a query against the named index of a conversation. A missing
// index behaves like an empty one and reports domain.ErrIndexEmpty.
func (r *Registry) Search(conversationID, name string, query []float32, k int) ([]domain.ContextItem, error) {
	idx, ok := r.Lookup(conversationID, name)
	if !ok {
		return nil, domain.ErrIndexEmpty
	}
	return idx.Search(query, k)
}

// Counts reports the chunk count of each existing index of a conversation.
func (r *Registry) Counts(conversationID string) map[string]int {
	r.mu.RLock()
	indices := r.convs[conversationID]
	names := make([]string, 0, len(indices))
	idxs := make([]*Memory, 0, len(indices))
	for name, idx := range indices {
		names = append(names, name)
		idxs = append(idxs, idx)
	}
	r.mu.RUnlock()

	counts := make(map[string]int, len(names))
	for i, name := range names {
		counts[name] = idxs[i].Len()
	}
	return counts
}

// Drop removes all indices of a conversation.
func (r *Registry) Drop(conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.convs, conversationID)
}
