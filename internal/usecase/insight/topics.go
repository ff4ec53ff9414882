package insight

import (
	"sort"
	"strings"

	"github.com/sightline-ai/sightline/internal/domain"
)

// DefaultTopicLimit caps how many topics ExtractTopics returns.
const DefaultTopicLimit = 5

// minTopicWordLen filters out short glue words the stop list misses.
const minTopicWordLen = 3

var stopWords = wordSet(
	"the", "and", "for", "are", "was", "were", "this", "that", "with",
	"have", "has", "had", "from", "they", "their", "them", "its", "it's",
	"but", "not", "you", "your", "all", "can", "will", "would", "could",
	"should", "there", "here", "been", "being", "than", "then", "when",
	"what", "which", "who", "how", "why", "very", "just", "more", "most",
	"some", "any", "our", "out", "about", "into", "over", "under", "also",
	"too", "now", "get", "got", "one", "two", "much", "many", "use",
	"used", "using", "after", "before", "because", "while", "where",
	"does", "did", "doing", "don't", "doesn't", "didn't", "i'm", "i've",
	"it", "is", "in", "on", "of", "to", "a", "an", "as", "at", "be", "by",
	"or", "if", "so", "we", "he", "she", "his", "her", "my", "me", "up",
	"down", "no", "yes",
)

// ExtractTopics counts recurring keywords across the comment items, skipping
// stop words, short tokens and pure numbers. Share is the percentage of all
// considered words, so topics are comparable across differently sized inputs.
func ExtractTopics(items []domain.ContextItem, limit int) []domain.Topic {
	if limit <= 0 {
		limit = DefaultTopicLimit
	}

	counts := map[string]int{}
	considered := 0
	for i := range items {
		if items[i].Source != domain.SourceComment {
			continue
		}
		for _, w := range tokenize(items[i].Text) {
			if !topicWord(w) {
				continue
			}
			counts[w]++
			considered++
		}
	}
	if considered == 0 {
		return nil
	}

	topics := make([]domain.Topic, 0, len(counts))
	for w, c := range counts {
		topics = append(topics, domain.Topic{
			Word:  w,
			Count: c,
			Share: float64(c) / float64(considered) * 100,
		})
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Count != topics[j].Count {
			return topics[i].Count > topics[j].Count
		}
		return topics[i].Word < topics[j].Word
	})
	if len(topics) > limit {
		topics = topics[:limit]
	}
	return topics
}

func topicWord(w string) bool {
	if len(w) < minTopicWordLen || stopWords[w] {
		return false
	}
	return strings.IndexFunc(w, func(r rune) bool { return r < '0' || r > '9' }) >= 0
}
