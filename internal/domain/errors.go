package domain

import "errors"

var (
	// ErrIndexEmpty signals a search against an index with zero chunks.
	ErrIndexEmpty = errors.New("index empty")
	// ErrEmptyText signals an attempt to embed or index empty text.
	ErrEmptyText = errors.New("empty text")
	// ErrVectorDimMismatch signals a vector dimension mismatch on add.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrConversationNotFound signals a missing conversation.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrEmbeddingQuotaExceeded signals an exhausted token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a text-generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrInvalidSource signals an ingestion tuple with an unknown source type.
	ErrInvalidSource = errors.New("invalid source")
)
