package agent

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sightline-ai/sightline/internal/domain"
	"github.com/sightline-ai/sightline/internal/metrics"
)

const (
	redirectMessage = "I'm here to help you explore your analytics data — charts, metrics and audience feedback. Ask me something like \"What's our engagement trend?\" or \"What are people saying about the latest release?\""

	clarificationMessage = "I don't have enough data to answer that with confidence. Could you upload the relevant charts or comments, or narrow the question to a specific metric or time period?"

	degradedMessage = "Analysis is temporarily unavailable. Please try again in a moment."
)

// redirect is the terminal payload for non-analytical queries. It is not a
// clarification: the query was understood, it is just out of scope.
func (s *Service) redirect(st *State) Response {
	metrics.PipelineQueriesTotal.WithLabelValues("redirect").Inc()
	s.logger.Debug("query redirected",
		zap.String("conversation_id", st.ConversationID),
	)
	return Response{
		Text:                  redirectMessage,
		RequiresClarification: false,
	}
}

// validateResponse applies the sufficiency gate: an empty context, a
// confidence below the floor, or extractors that found nothing at all mean
// the synthesized text cannot be trusted, so it is replaced with a
// clarification request and the suggestions are dropped.
func (s *Service) validateResponse(st *State) Response {
	resp := Response{
		Text:               st.Synthesis.Text,
		Insights:           s.buildInsights(st),
		SuggestedQuestions: st.Synthesis.SuggestedQuestions,
		ContextSources:     len(st.Context),
		ContextRefs:        contextRefs(st.Context),
		Confidence:         st.Synthesis.Confidence,
	}

	noFindings := len(st.Findings.Metrics) == 0 &&
		st.Findings.Sentiment.Samples == 0 &&
		len(st.Findings.Trends) == 0

	if len(st.Context) == 0 || st.Synthesis.Confidence < s.minConfidence || noFindings {
		resp.RequiresClarification = true
		resp.Text = clarificationMessage
		resp.SuggestedQuestions = nil
		metrics.PipelineQueriesTotal.WithLabelValues("clarification").Inc()
		return resp
	}

	metrics.PipelineQueriesTotal.WithLabelValues("answered").Inc()
	return resp
}

// buildInsights turns the extractor findings into short human-readable
// callouts attached next to the answer.
func (s *Service) buildInsights(st *State) []string {
	var out []string
	add := func(line string) {
		if len(out) >= s.maxInsights {
			return
		}
		for _, have := range out {
			if have == line {
				return
			}
		}
		out = append(out, line)
	}

	for _, m := range st.Findings.Metrics {
		add(fmt.Sprintf("Metric: %s (%s, source %s)", formatMetric(m), m.Kind, m.SourceRef))
	}
	if st.Findings.Sentiment.Samples > 0 {
		sh := st.Findings.Sentiment.Shares
		add(fmt.Sprintf("Sentiment across %d comments: %.0f%% positive, %.0f%% neutral, %.0f%% negative",
			st.Findings.Sentiment.Samples,
			sh[domain.SentimentPositive], sh[domain.SentimentNeutral], sh[domain.SentimentNegative]))
	}
	for _, t := range st.Findings.Trends {
		add("Trend: " + t.Description)
	}
	if len(st.Findings.Topics) > 0 {
		words := make([]string, len(st.Findings.Topics))
		for i, t := range st.Findings.Topics {
			words[i] = fmt.Sprintf("%s (%d)", t.Word, t.Count)
		}
		add("Recurring topics: " + strings.Join(words, ", "))
	}
	if st.HasStats && len(st.Findings.Metrics) > 1 {
		add(fmt.Sprintf("Metric values span %g to %g, mean %.2f", st.Stats.Min, st.Stats.Max, st.Stats.Mean))
	}
	return out
}

func contextRefs(items []domain.ContextItem) []string {
	var out []string
	seen := map[string]bool{}
	for i := range items {
		if ref := items[i].SourceRef; ref != "" && !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	return out
}

func formatMetric(m domain.Metric) string {
	switch m.Unit {
	case "%":
		return fmt.Sprintf("%g%%", m.Value)
	case "$":
		return fmt.Sprintf("$%g", m.Value)
	case "x":
		return fmt.Sprintf("%gx", m.Value)
	default:
		return fmt.Sprintf("%g", m.Value)
	}
}
