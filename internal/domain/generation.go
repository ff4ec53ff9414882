package domain

import "context"

// GenerationRequest is one call to the external text-generation service.
type GenerationRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// GenerationResult carries the generated text and token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Generator is the text-generation contract. Implementations own timeouts
// and transient-failure retries; callers see one result or one error.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// StreamGenerator emits the response incrementally. onToken is called from
// the requesting goroutine for each text delta; the accumulated result is
// returned once the stream ends.
type StreamGenerator interface {
	GenerateStream(ctx context.Context, req GenerationRequest, onToken func(token string)) (GenerationResult, error)
}
