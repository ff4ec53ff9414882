package domain

import "strings"

// KeyPrefix namespaces all Redis keys written by sightline.
const KeyPrefix = "sightline:"

// SourceType identifies where a chunk of retrievable content came from.
type SourceType string

const (
	// SourceChart marks text extracted from an uploaded chart document.
	SourceChart SourceType = "chart"
	// SourceComment marks a user comment.
	SourceComment SourceType = "comment"
)

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool {
	return t == SourceChart || t == SourceComment
}

// Source is one ingestion tuple handed over by the parser collaborators.
type Source struct {
	Text      string
	Type      SourceType
	SourceRef string
}

// Chunk is a unit of retrievable content. The vector is computed once at
// ingestion and never mutated afterwards.
type Chunk struct {
	ID        string
	Text      string
	Source    SourceType
	SourceRef string
	Vector    []float32
}

// ContextItem is a chunk paired with its relevance score for one query.
// Scores are normalized cosine similarity in [0,1], higher = more relevant.
// Context items are ephemeral: recomputed per query, never stored.
type ContextItem struct {
	Chunk
	Score float64
}

// DedupeKey identifies near-identical retrieval hits across indices.
func (c *ContextItem) DedupeKey() string {
	text := strings.TrimSpace(c.Text)
	if len(text) > 50 {
		text = text[:50]
	}
	return c.SourceRef + ":" + text
}
