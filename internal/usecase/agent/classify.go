package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sightline-ai/sightline/internal/domain"
)

var analyticalCues = wordSet(
	"trend", "trends", "metric", "metrics", "data", "chart", "charts",
	"comment", "comments", "engagement", "sentiment", "revenue", "growth",
	"performance", "users", "feedback", "numbers", "percent", "percentage",
	"average", "compare", "comparison", "increase", "decrease", "saying",
	"analytics", "analysis", "analyze", "insight", "insights", "stats",
	"statistics", "summary", "summarize", "churn", "retention", "conversion",
	"sales", "quarter", "month", "week", "report", "dashboard", "kpi",
)

var smalltalkCues = wordSet(
	"hello", "hi", "hey", "joke", "weather", "color", "colour", "favorite",
	"favourite", "thanks", "thank", "bye", "goodbye", "lol", "name",
	"movie", "song", "recipe", "birthday",
)

const classifierPrompt = `Classify the user message as a data-analytics question or not. Reply with exactly one word: "analytical" if the message asks about data, metrics, charts, comments, feedback or business performance, otherwise "non-analytical".`

// classify decides whether the query warrants the analysis pipeline. The
// lexicons answer the clear cases; only cue-free queries go to the LLM
// classifier, and any classifier failure counts as analytical, because
// redirecting a real question is worse than one wasted retrieval pass.
func (s *Service) classify(ctx context.Context, query string) bool {
	var analytical, smalltalk bool
	for _, w := range tokenizeQuery(query) {
		if analyticalCues[w] {
			analytical = true
		}
		if smalltalkCues[w] {
			smalltalk = true
		}
	}
	if analytical {
		return true
	}
	if smalltalk {
		return false
	}
	return s.classifyWithLLM(ctx, query)
}

func (s *Service) classifyWithLLM(ctx context.Context, query string) bool {
	if s.classifier == nil {
		return true
	}
	res, err := s.classifier.Generate(ctx, domain.GenerationRequest{
		System:      classifierPrompt,
		User:        query,
		Temperature: 0,
		MaxTokens:   8,
	})
	if err != nil {
		s.logger.Warn("query classification failed, treating as analytical", zap.Error(err))
		return true
	}

	verdict := strings.ToLower(strings.TrimSpace(res.Text))
	// "non-analytical" contains "analytical": check the negative first.
	// Anything else, including garbage output, counts as analytical.
	return !strings.Contains(verdict, "non-analytical")
}

func tokenizeQuery(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	out := fields[:0]
	for _, f := range fields {
		if w := strings.Trim(f, ".,;:!?()[]\"'"); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func wordSet(words ...string) map[string]bool {
	s := make(map[string]bool, len(words))
	for _, w := range words {
		s[w] = true
	}
	return s
}
