// Package insight implements the deterministic extraction passes that run
// between retrieval and synthesis: metric extraction, sentiment scoring,
// trend detection, topic frequency and metric statistics. Every pass is
// pure (same input, same output) and never calls an external service, so
// any number a finding reports is literally present in the source text.
package insight

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sightline-ai/sightline/internal/domain"
)

const (
	// kindLookback is how far back from a numeric match directional cues
	// are searched for when classifying the metric kind.
	kindLookback = 40

	// snippetRadius bounds the quoted text around a match in a finding.
	snippetRadius = 60
)

var (
	percentPattern    = regexp.MustCompile(`(\d+(?:,\d{3})*(?:\.\d+)?)\s*%`)
	currencyPattern   = regexp.MustCompile(`\$\s*(\d+(?:,\d{3})*(?:\.\d+)?)`)
	multiplierPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[xX]\b`)
	comparisonPattern = regexp.MustCompile(`(?i)(?:up from|down from|compared to|versus|vs\.?|rose to|grew to|climbed to|fell to|dropped to|declined to)\s+(\d+(?:,\d{3})*(?:\.\d+)?)`)
)

var increaseCues = wordSet(
	"up", "increase", "increased", "increasing", "grew", "growth", "rose",
	"rise", "rising", "gained", "gain", "climbed", "higher", "improved",
	"improvement", "jumped", "surged",
)

var decreaseCues = wordSet(
	"down", "decrease", "decreased", "decreasing", "fell", "drop", "dropped",
	"dropping", "decline", "declined", "declining", "lower", "lost", "loss",
	"shrank", "plunged", "slipped",
)

// ExtractMetrics scans the context items for numeric findings: percentages,
// currency amounts, multiplicative factors and numbers attached to
// comparison phrases. Matching is syntactic; text with no matches yields an
// empty list, never an error.
func ExtractMetrics(items []domain.ContextItem) []domain.Metric {
	var out []domain.Metric
	for i := range items {
		out = append(out, extractFromText(items[i].Text, items[i].SourceRef)...)
	}
	return out
}

type span struct{ start, end int }

func extractFromText(text, ref string) []domain.Metric {
	type match struct {
		metric domain.Metric
		at     int
	}
	var (
		found []match
		seen  []span
	)

	// Pattern order matters: a "$1,200" inside "up from $1,200" must be
	// reported once, as a currency metric, so more specific units run first.
	for _, p := range []struct {
		re   *regexp.Regexp
		unit string
	}{
		{percentPattern, "%"},
		{currencyPattern, "$"},
		{multiplierPattern, "x"},
		{comparisonPattern, ""},
	} {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			s := span{start: m[2], end: m[3]}
			if overlapsAny(s, seen) {
				continue
			}
			value, err := parseNumber(text[s.start:s.end])
			if err != nil {
				continue
			}
			seen = append(seen, s)

			kind := classifyKind(text, m[0])
			if p.unit == "x" {
				kind = domain.MetricRatio
			}
			found = append(found, match{
				metric: domain.Metric{
					Value:     value,
					Unit:      p.unit,
					Kind:      kind,
					SourceRef: ref,
					Snippet:   snippet(text, m[0], m[1]),
				},
				at: s.start,
			})
		}
	}
	if found == nil {
		return nil
	}

	// Matches come out grouped by pattern; restore source-text order so the
	// output reads in the order the numbers appear.
	sort.SliceStable(found, func(i, j int) bool { return found[i].at < found[j].at })
	out := make([]domain.Metric, len(found))
	for i := range found {
		out[i] = found[i].metric
	}
	return out
}

func overlapsAny(s span, seen []span) bool {
	for _, o := range seen {
		if s.start < o.end && o.start < s.end {
			return true
		}
	}
	return false
}

func parseNumber(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
}

// classifyKind inspects the words shortly before the match for directional
// language such as "up 47.3%" or "revenue dropped 12%".
func classifyKind(text string, matchStart int) domain.MetricKind {
	from := matchStart - kindLookback
	if from < 0 {
		from = 0
	}
	for _, w := range strings.Fields(strings.ToLower(text[from:matchStart])) {
		w = strings.Trim(w, ".,;:!?()\"'")
		if increaseCues[w] {
			return domain.MetricIncrease
		}
		if decreaseCues[w] {
			return domain.MetricDecrease
		}
	}
	return domain.MetricAbsolute
}

func snippet(text string, start, end int) string {
	from := start - snippetRadius
	if from < 0 {
		from = 0
	}
	to := end + snippetRadius
	if to > len(text) {
		to = len(text)
	}
	return strings.TrimSpace(text[from:to])
}

func wordSet(words ...string) map[string]bool {
	s := make(map[string]bool, len(words))
	for _, w := range words {
		s[w] = true
	}
	return s
}
