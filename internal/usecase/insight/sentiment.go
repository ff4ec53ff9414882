package insight

import (
	"strings"

	"github.com/sightline-ai/sightline/internal/domain"
)

const (
	// positiveThreshold and negativeThreshold split the continuous polarity
	// score into discrete labels.
	positiveThreshold = 0.1
	negativeThreshold = -0.1
)

var positiveWords = wordSet(
	"good", "great", "excellent", "amazing", "awesome", "love", "loved",
	"loves", "like", "likes", "liked", "best", "better", "fantastic",
	"wonderful", "happy", "pleased", "helpful", "useful", "intuitive",
	"fast", "smooth", "easy", "nice", "perfect", "impressive", "enjoy",
	"enjoyed", "works", "clean", "reliable", "solid",
)

var negativeWords = wordSet(
	"bad", "terrible", "awful", "horrible", "hate", "hated", "hates",
	"worst", "worse", "poor", "broken", "bug", "bugs", "buggy", "crash",
	"crashes", "crashed", "slow", "confusing", "frustrating", "frustrated",
	"annoying", "useless", "disappointing", "disappointed", "ugly",
	"unusable", "fails", "failed", "failing", "problem", "problems",
	"issue", "issues", "wrong", "missing",
)

// ScoreSentiment computes the polarity of one text by lexicon counting:
// (positive - negative) / max(positive + negative, 1), clamped to [-1, 1]
// by construction.
func ScoreSentiment(text string) float64 {
	var pos, neg int
	for _, w := range tokenize(text) {
		if positiveWords[w] {
			pos++
		}
		if negativeWords[w] {
			neg++
		}
	}
	total := pos + neg
	if total == 0 {
		return 0
	}
	return float64(pos-neg) / float64(total)
}

// AnalyzeSentiment scores every comment item and aggregates the labels into
// a distribution. Chart-derived items carry no opinion and are skipped, as
// are blank texts; neither counts toward the denominator.
func AnalyzeSentiment(items []domain.ContextItem) domain.SentimentSummary {
	summary := domain.SentimentSummary{
		Counts: map[domain.SentimentLabel]int{},
		Shares: map[domain.SentimentLabel]float64{},
	}

	var sum float64
	for i := range items {
		if items[i].Source != domain.SourceComment {
			continue
		}
		if strings.TrimSpace(items[i].Text) == "" {
			continue
		}
		polarity := ScoreSentiment(items[i].Text)
		label := labelFor(polarity)
		summary.Scores = append(summary.Scores, domain.SentimentScore{
			SourceRef: items[i].SourceRef,
			Polarity:  polarity,
			Label:     label,
		})
		summary.Counts[label]++
		summary.Samples++
		sum += polarity
	}

	if summary.Samples > 0 {
		summary.AveragePolarity = sum / float64(summary.Samples)
		for _, label := range []domain.SentimentLabel{
			domain.SentimentPositive, domain.SentimentNeutral, domain.SentimentNegative,
		} {
			summary.Shares[label] = float64(summary.Counts[label]) / float64(summary.Samples) * 100
		}
	}
	return summary
}

func labelFor(polarity float64) domain.SentimentLabel {
	switch {
	case polarity > positiveThreshold:
		return domain.SentimentPositive
	case polarity < negativeThreshold:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// tokenize lowercases the text and strips punctuation from word edges.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		if w := strings.Trim(f, ".,;:!?()[]\"'"); w != "" {
			out = append(out, w)
		}
	}
	return out
}
