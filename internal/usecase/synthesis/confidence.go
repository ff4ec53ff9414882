package synthesis

import (
	"regexp"
	"strings"
)

// minGroundingTokenLen filters short glue words out of the overlap check so
// "the" or "with" alone can never ground a claim.
const minGroundingTokenLen = 4

var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*`)

// citationCoverage estimates how much of the response is traceable to the
// supplied context: the fraction of sentences sharing either a content token
// or a number with any context text. It is a heuristic proxy for citation
// coverage, cheap and deterministic, good enough for the sufficiency gate.
func citationCoverage(response string, contextTexts []string) float64 {
	sentences := splitSentences(response)
	if len(sentences) == 0 {
		return 0
	}

	tokens := map[string]bool{}
	numbers := map[string]bool{}
	for _, text := range contextTexts {
		for _, w := range groundingTokens(text) {
			tokens[w] = true
		}
		for _, n := range numberPattern.FindAllString(text, -1) {
			numbers[normalizeNumber(n)] = true
		}
	}
	if len(tokens) == 0 && len(numbers) == 0 {
		return 0
	}

	grounded := 0
	for _, sentence := range sentences {
		if sentenceGrounded(sentence, tokens, numbers) {
			grounded++
		}
	}
	return float64(grounded) / float64(len(sentences))
}

func sentenceGrounded(sentence string, tokens, numbers map[string]bool) bool {
	for _, n := range numberPattern.FindAllString(sentence, -1) {
		if numbers[normalizeNumber(n)] {
			return true
		}
	}
	for _, w := range groundingTokens(sentence) {
		if tokens[w] {
			return true
		}
	}
	return false
}

// splitSentences breaks on sentence punctuation but keeps decimal points
// inside numbers ("47.3%") intact.
func splitSentences(text string) []string {
	var (
		out   []string
		cur   strings.Builder
		runes = []rune(text)
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for i, r := range runes {
		switch {
		case r == '!' || r == '?' || r == '\n':
			flush()
		case r == '.' && !(i > 0 && i+1 < len(runes) && isDigit(runes[i-1]) && isDigit(runes[i+1])):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func groundingTokens(text string) []string {
	var out []string
	for _, f := range strings.Fields(strings.ToLower(text)) {
		w := strings.Trim(f, ".,;:!?()[]\"'%$")
		if len(w) >= minGroundingTokenLen {
			out = append(out, w)
		}
	}
	return out
}

func normalizeNumber(n string) string {
	return strings.ReplaceAll(n, ",", "")
}
