package insight

import "github.com/sightline-ai/sightline/internal/domain"

func chartItem(ref, text string) domain.ContextItem {
	return domain.ContextItem{
		Chunk: domain.Chunk{
			ID:        ref,
			Text:      text,
			Source:    domain.SourceChart,
			SourceRef: ref,
		},
		Score: 0.9,
	}
}

func commentItem(ref, text string) domain.ContextItem {
	return domain.ContextItem{
		Chunk: domain.Chunk{
			ID:        ref,
			Text:      text,
			Source:    domain.SourceComment,
			SourceRef: ref,
		},
		Score: 0.8,
	}
}
