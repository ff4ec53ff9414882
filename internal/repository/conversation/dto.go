package conversation

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sightline-ai/sightline/internal/domain"
)

// conversationToHash converts a domain Conversation to a map for HSET.
func conversationToHash(conv domain.Conversation) map[string]string {
	return map[string]string{
		"id":         conv.ID,
		"title":      conv.Title,
		"created_at": strconv.FormatInt(conv.CreatedAt, 10),
	}
}

// conversationFromHash hydrates a domain Conversation from an HGETALL result map.
func conversationFromHash(m map[string]string) (domain.Conversation, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("invalid created_at: %w", err)
	}
	return domain.Conversation{
		ID:        m["id"],
		Title:     m["title"],
		CreatedAt: createdAt,
	}, nil
}

// messageRow is the JSON-serializable representation of a message list entry.
type messageRow struct {
	ID        string             `json:"id"`
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	Meta      domain.MessageMeta `json:"meta,omitempty"`
	CreatedAt int64              `json:"created_at"`
}

func messageToJSON(msg domain.Message) ([]byte, error) {
	data, err := json.Marshal(messageRow{
		ID:        msg.ID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		Meta:      msg.Meta,
		CreatedAt: msg.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	return data, nil
}

func messageFromJSON(data []byte) (domain.Message, error) {
	var row messageRow
	if err := json.Unmarshal(data, &row); err != nil {
		return domain.Message{}, fmt.Errorf("unmarshal message: %w", err)
	}
	return domain.Message{
		ID:        row.ID,
		Role:      domain.Role(row.Role),
		Content:   row.Content,
		Meta:      row.Meta,
		CreatedAt: row.CreatedAt,
	}, nil
}

// analysisRow is the JSON-serializable representation of an analysis list entry.
type analysisRow struct {
	Query      string   `json:"query"`
	Insights   []string `json:"insights,omitempty"`
	SourceRefs []string `json:"source_refs,omitempty"`
	Confidence float64  `json:"confidence"`
	CreatedAt  int64    `json:"created_at"`
}

func analysisToJSON(a domain.Analysis) ([]byte, error) {
	data, err := json.Marshal(analysisRow{
		Query:      a.Query,
		Insights:   a.Insights,
		SourceRefs: a.SourceRefs,
		Confidence: a.Confidence,
		CreatedAt:  a.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}
	return data, nil
}

func analysisFromJSON(data []byte) (domain.Analysis, error) {
	var row analysisRow
	if err := json.Unmarshal(data, &row); err != nil {
		return domain.Analysis{}, fmt.Errorf("unmarshal analysis: %w", err)
	}
	return domain.Analysis{
		Query:      row.Query,
		Insights:   row.Insights,
		SourceRefs: row.SourceRefs,
		Confidence: row.Confidence,
		CreatedAt:  row.CreatedAt,
	}, nil
}
