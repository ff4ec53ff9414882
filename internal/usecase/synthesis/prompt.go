package synthesis

import (
	"fmt"
	"strings"

	"github.com/sightline-ai/sightline/internal/domain"
)

// systemPrompt pins the generation service to the supplied material. The
// insufficiency instruction matters as much as the grounding one: a model
// admitting it cannot answer beats a fluent fabrication.
const systemPrompt = `You are an analytics assistant. Answer the user's question using ONLY the numbered context passages and the extracted findings provided. Cite facts as they appear in the context; do not invent numbers, names or events that are not present there. If the provided material is insufficient to answer, say so explicitly and describe what data would help. Keep the answer concise and concrete.`

// buildUserPrompt serializes the retrieved context and extractor findings
// into the single user message sent to the generation service.
func buildUserPrompt(query string, items []domain.ContextItem, f Findings) string {
	var b strings.Builder

	b.WriteString("Context passages:\n")
	if len(items) == 0 {
		b.WriteString("(none retrieved)\n")
	}
	for i := range items {
		fmt.Fprintf(&b, "[%d] (%s %s) %s\n", i+1, items[i].Source, items[i].SourceRef, strings.TrimSpace(items[i].Text))
	}

	writeFindings(&b, f)

	b.WriteString("\nQuestion: ")
	b.WriteString(strings.TrimSpace(query))
	return b.String()
}

func writeFindings(b *strings.Builder, f Findings) {
	if len(f.Metrics) > 0 {
		b.WriteString("\nExtracted metrics:\n")
		for _, m := range f.Metrics {
			fmt.Fprintf(b, "- %s %s (%s, from %s)\n", formatValue(m.Value), unitName(m.Unit), m.Kind, m.SourceRef)
		}
	}
	if f.Sentiment.Samples > 0 {
		fmt.Fprintf(b, "\nComment sentiment (%d comments): %.0f%% positive, %.0f%% neutral, %.0f%% negative; average polarity %.2f\n",
			f.Sentiment.Samples,
			f.Sentiment.Shares[domain.SentimentPositive],
			f.Sentiment.Shares[domain.SentimentNeutral],
			f.Sentiment.Shares[domain.SentimentNegative],
			f.Sentiment.AveragePolarity)
	}
	if len(f.Trends) > 0 {
		b.WriteString("\nDetected trends:\n")
		for _, t := range f.Trends {
			fmt.Fprintf(b, "- [%s] %s (sources: %s)\n", t.Direction, t.Description, strings.Join(t.SupportingRefs, ", "))
		}
	}
	if len(f.Topics) > 0 {
		b.WriteString("\nRecurring comment topics: ")
		words := make([]string, len(f.Topics))
		for i, t := range f.Topics {
			words[i] = fmt.Sprintf("%s (%d)", t.Word, t.Count)
		}
		b.WriteString(strings.Join(words, ", "))
		b.WriteString("\n")
	}
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

func unitName(unit string) string {
	switch unit {
	case "%":
		return "percent"
	case "$":
		return "dollars"
	case "x":
		return "times"
	default:
		return "units"
	}
}
