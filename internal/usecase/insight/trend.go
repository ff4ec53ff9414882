package insight

import (
	"fmt"
	"strings"

	"github.com/sightline-ai/sightline/internal/domain"
)

const (
	// sentimentLeanShare is the label share (percent) above which the
	// overall sentiment counts as a directional pattern.
	sentimentLeanShare = 60.0

	// clusterMinMentions is how many negative comments must repeat a
	// keyword before it counts as a cluster.
	clusterMinMentions = 2
)

// DetectTrends looks for directional patterns across the extracted metrics
// and the sentiment distribution. Detection is heuristic: a missed pattern
// is acceptable, a pattern with no supporting reference is not, so every
// returned trend cites at least one source ref from the input.
func DetectTrends(items []domain.ContextItem, metrics []domain.Metric, sentiment domain.SentimentSummary) []domain.Trend {
	var out []domain.Trend
	if t, ok := metricDirectionTrend(metrics); ok {
		out = append(out, t)
	}
	if t, ok := sentimentLeanTrend(sentiment); ok {
		out = append(out, t)
	}
	out = append(out, negativeClusterTrends(items, sentiment)...)
	return out
}

// metricDirectionTrend compares how many extracted metrics carry growth
// language against how many carry decline language.
func metricDirectionTrend(metrics []domain.Metric) (domain.Trend, bool) {
	var incRefs, decRefs []string
	for i := range metrics {
		switch metrics[i].Kind {
		case domain.MetricIncrease:
			incRefs = append(incRefs, metrics[i].SourceRef)
		case domain.MetricDecrease:
			decRefs = append(decRefs, metrics[i].SourceRef)
		}
	}
	inc, dec := len(incRefs), len(decRefs)
	if inc == 0 && dec == 0 {
		return domain.Trend{}, false
	}

	switch {
	case inc > dec:
		return domain.Trend{
			Description:    fmt.Sprintf("%d of %d directional metric mentions point upward", inc, inc+dec),
			Direction:      domain.TrendUp,
			SupportingRefs: dedupeRefs(incRefs),
		}, true
	case dec > inc:
		return domain.Trend{
			Description:    fmt.Sprintf("%d of %d directional metric mentions point downward", dec, inc+dec),
			Direction:      domain.TrendDown,
			SupportingRefs: dedupeRefs(decRefs),
		}, true
	default:
		return domain.Trend{
			Description:    fmt.Sprintf("metric mentions are evenly split, %d up and %d down", inc, dec),
			Direction:      domain.TrendFlat,
			SupportingRefs: dedupeRefs(append(incRefs, decRefs...)),
		}, true
	}
}

// sentimentLeanTrend reports a pattern when one polarity clearly dominates
// the comment distribution.
func sentimentLeanTrend(sentiment domain.SentimentSummary) (domain.Trend, bool) {
	if sentiment.Samples < clusterMinMentions {
		return domain.Trend{}, false
	}

	var (
		label     domain.SentimentLabel
		direction domain.TrendDirection
	)
	switch {
	case sentiment.Shares[domain.SentimentNegative] >= sentimentLeanShare:
		label, direction = domain.SentimentNegative, domain.TrendDown
	case sentiment.Shares[domain.SentimentPositive] >= sentimentLeanShare:
		label, direction = domain.SentimentPositive, domain.TrendUp
	default:
		return domain.Trend{}, false
	}

	var refs []string
	for _, s := range sentiment.Scores {
		if s.Label == label {
			refs = append(refs, s.SourceRef)
		}
	}
	if len(refs) == 0 {
		return domain.Trend{}, false
	}
	return domain.Trend{
		Description: fmt.Sprintf("comment sentiment leans %s (%.0f%% of %d comments)",
			label, sentiment.Shares[label], sentiment.Samples),
		Direction:      direction,
		SupportingRefs: dedupeRefs(refs),
	}, true
}

// negativeClusterTrends finds keywords repeated across several negative
// comments, each cluster reported as its own downward pattern.
func negativeClusterTrends(items []domain.ContextItem, sentiment domain.SentimentSummary) []domain.Trend {
	negRefs := map[string]bool{}
	for _, s := range sentiment.Scores {
		if s.Label == domain.SentimentNegative {
			negRefs[s.SourceRef] = true
		}
	}
	if len(negRefs) < clusterMinMentions {
		return nil
	}

	var negative []domain.ContextItem
	for i := range items {
		if items[i].Source == domain.SourceComment && negRefs[items[i].SourceRef] {
			negative = append(negative, items[i])
		}
	}

	var out []domain.Trend
	for _, topic := range ExtractTopics(negative, DefaultTopicLimit) {
		if topic.Count < clusterMinMentions {
			continue
		}
		// Opinion words are the sentiment signal itself, not a subject;
		// the overall lean already reports them.
		if positiveWords[topic.Word] || negativeWords[topic.Word] {
			continue
		}
		var refs []string
		for i := range negative {
			if containsWord(negative[i].Text, topic.Word) {
				refs = append(refs, negative[i].SourceRef)
			}
		}
		refs = dedupeRefs(refs)
		if len(refs) < clusterMinMentions {
			continue
		}
		out = append(out, domain.Trend{
			Description:    fmt.Sprintf("negative feedback clusters around %q (%d mentions)", topic.Word, topic.Count),
			Direction:      domain.TrendDown,
			SupportingRefs: refs,
		})
	}
	return out
}

func containsWord(text, word string) bool {
	for _, w := range tokenize(text) {
		if w == word {
			return true
		}
	}
	return false
}

func dedupeRefs(refs []string) []string {
	seen := make(map[string]bool, len(refs))
	out := refs[:0]
	for _, r := range refs {
		key := strings.TrimSpace(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
