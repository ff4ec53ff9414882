package synthesis

import (
	"context"

	"github.com/sightline-ai/sightline/internal/domain"
)

// generator is the slice of the text-generation client this package uses.
type generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
	GenerateStream(ctx context.Context, req domain.GenerationRequest, onToken func(token string)) (domain.GenerationResult, error)
}

// Findings bundles the deterministic extractor outputs fed into the prompt.
type Findings struct {
	Metrics   []domain.Metric
	Sentiment domain.SentimentSummary
	Trends    []domain.Trend
	Topics    []domain.Topic
}

// Result is one synthesized answer. Confidence is citation coverage: the
// fraction of response sentences traceable back to the supplied context.
type Result struct {
	Text               string
	SuggestedQuestions []string
	Confidence         float64
	TokensUsed         int
}
