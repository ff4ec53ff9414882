// Package synthesis produces the grounded answer: it builds a prompt from
// the retrieved context and the extractor findings, makes exactly one call
// to the text-generation service, and scores how well the generated text is
// covered by its sources.
package synthesis

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sightline-ai/sightline/internal/domain"
)

const (
	// DefaultMaxSuggestions caps the follow-up question list.
	DefaultMaxSuggestions = 4

	// DefaultTemperature keeps generation close to the supplied material.
	DefaultTemperature = 0.2

	// DefaultMaxTokens bounds one synthesized answer.
	DefaultMaxTokens = 700
)

// Service turns a query plus retrieved context and findings into an answer.
type Service struct {
	gen            generator
	logger         *zap.Logger
	maxSuggestions int
	temperature    float32
	maxTokens      int
}

// New builds a synthesis service with default generation parameters.
func New(gen generator, logger *zap.Logger) *Service {
	return &Service{
		gen:            gen,
		logger:         logger,
		maxSuggestions: DefaultMaxSuggestions,
		temperature:    DefaultTemperature,
		maxTokens:      DefaultMaxTokens,
	}
}

// WithGeneration overrides temperature and the completion token cap.
func (s *Service) WithGeneration(temperature float32, maxTokens int) *Service {
	if temperature > 0 {
		s.temperature = temperature
	}
	if maxTokens > 0 {
		s.maxTokens = maxTokens
	}
	return s
}

// WithMaxSuggestions overrides the follow-up question cap.
func (s *Service) WithMaxSuggestions(n int) *Service {
	if n >= 0 {
		s.maxSuggestions = n
	}
	return s
}

// Synthesize makes one generation call and post-processes the answer.
// Provider failures propagate wrapped; the caller decides how to degrade.
func (s *Service) Synthesize(ctx context.Context, query string, items []domain.ContextItem, f Findings) (Result, error) {
	res, err := s.gen.Generate(ctx, s.buildRequest(query, items, f))
	if err != nil {
		return Result{}, fmt.Errorf("synthesize: %w", err)
	}
	return s.finish(query, items, f, res), nil
}

// SynthesizeStream is Synthesize with incremental delivery: onToken receives
// each text delta as the generation service emits it, and the fully scored
// result is returned once the stream ends.
func (s *Service) SynthesizeStream(ctx context.Context, query string, items []domain.ContextItem, f Findings, onToken func(token string)) (Result, error) {
	res, err := s.gen.GenerateStream(ctx, s.buildRequest(query, items, f), onToken)
	if err != nil {
		return Result{}, fmt.Errorf("synthesize stream: %w", err)
	}
	return s.finish(query, items, f, res), nil
}

func (s *Service) buildRequest(query string, items []domain.ContextItem, f Findings) domain.GenerationRequest {
	return domain.GenerationRequest{
		System:      systemPrompt,
		User:        buildUserPrompt(query, items, f),
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}
}

func (s *Service) finish(query string, items []domain.ContextItem, f Findings, res domain.GenerationResult) Result {
	texts := make([]string, len(items))
	for i := range items {
		texts[i] = items[i].Text
	}

	out := Result{
		Text:               strings.TrimSpace(res.Text),
		Confidence:         citationCoverage(res.Text, texts),
		SuggestedQuestions: s.suggestQuestions(res.Text, f),
		TokensUsed:         res.TotalTokens,
	}
	s.logger.Debug("synthesized answer",
		zap.Int("context_items", len(items)),
		zap.Float64("confidence", out.Confidence),
		zap.Int("suggestions", len(out.SuggestedQuestions)),
		zap.Int("tokens", res.TotalTokens),
		zap.Int("query_len", len(query)),
	)
	return out
}

// suggestQuestions derives follow-ups from coverage gaps (topics the answer
// never mentions) and from drill-down angles on the detected patterns.
func (s *Service) suggestQuestions(response string, f Findings) []string {
	if s.maxSuggestions == 0 {
		return nil
	}

	responseWords := map[string]bool{}
	for _, w := range groundingTokens(response) {
		responseWords[w] = true
	}

	var out []string
	add := func(q string) {
		if len(out) >= s.maxSuggestions {
			return
		}
		for _, have := range out {
			if have == q {
				return
			}
		}
		out = append(out, q)
	}

	for _, topic := range f.Topics {
		if !responseWords[topic.Word] {
			add(fmt.Sprintf("What are people saying about %s?", topic.Word))
		}
	}
	for _, trend := range f.Trends {
		switch trend.Direction {
		case domain.TrendDown:
			add("What might be driving the downward movement?")
		case domain.TrendUp:
			add("What is contributing most to the growth?")
		}
	}
	if len(f.Metrics) > 0 {
		add("How do these figures compare with the previous period?")
	}
	if f.Sentiment.Samples > 0 {
		add("Which comments should we look at first?")
	}
	return out
}
