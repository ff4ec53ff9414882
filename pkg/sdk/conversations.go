package sightline

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Source types accepted by IngestSources.
const (
	SourceChart   = "chart"
	SourceComment = "comment"
)

// IngestSource is one document indexed into a conversation.
type IngestSource struct {
	Text       string `json:"text"`
	SourceType string `json:"source_type"`
	SourceRef  string `json:"source_ref,omitempty"`
}

// Conversation is a chat session summary.
type Conversation struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"created_at"`
}

// Message is one turn of a conversation.
type Message struct {
	ID        string      `json:"id"`
	Role      string      `json:"role"`
	Content   string      `json:"content"`
	Meta      MessageMeta `json:"meta,omitempty"`
	CreatedAt int64       `json:"created_at"`
}

// MessageMeta carries the structured companions of an assistant turn.
type MessageMeta struct {
	ChartCount            int      `json:"chart_count,omitempty"`
	CommentCount          int      `json:"comment_count,omitempty"`
	Insights              []string `json:"insights,omitempty"`
	SuggestedQuestions    []string `json:"suggested_questions,omitempty"`
	RequiresClarification bool     `json:"requires_clarification,omitempty"`
	ContextSources        int      `json:"context_sources,omitempty"`
}

// Analysis is a saved result of one answered query.
type Analysis struct {
	Query      string   `json:"query"`
	Insights   []string `json:"insights"`
	SourceRefs []string `json:"source_refs"`
	Confidence float64  `json:"confidence"`
	CreatedAt  int64    `json:"created_at"`
}

// ConversationDetail is a conversation with its history and index sizes.
type ConversationDetail struct {
	Conversation Conversation   `json:"conversation"`
	Messages     []Message      `json:"messages"`
	Analyses     []Analysis     `json:"analyses"`
	IndexCounts  map[string]int `json:"index_counts"`
}

// IngestSources indexes documents into a conversation's chart and comment
// indices. Returns the number of sources indexed.
func (c *Client) IngestSources(ctx context.Context, conversationID string, sources []IngestSource) (int, error) {
	if conversationID == "" {
		return 0, fmt.Errorf("sightline: conversation ID required")
	}

	body := struct {
		Sources []IngestSource `json:"sources"`
	}{Sources: sources}

	var resp struct {
		Indexed int `json:"indexed"`
	}
	path := "/api/conversations/" + url.PathEscape(conversationID) + "/sources"
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return 0, err
	}
	return resp.Indexed, nil
}

// ListConversations returns recent conversations, newest first.
// A non-positive limit uses the server default.
func (c *Client) ListConversations(ctx context.Context, limit int) ([]Conversation, error) {
	path := "/api/conversations"
	if limit > 0 {
		path += "?limit=" + url.QueryEscape(fmt.Sprint(limit))
	}

	var resp struct {
		Items []Conversation `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// GetConversation returns a conversation with its full history.
func (c *Client) GetConversation(ctx context.Context, conversationID string) (ConversationDetail, error) {
	if conversationID == "" {
		return ConversationDetail{}, fmt.Errorf("sightline: conversation ID required")
	}

	var resp ConversationDetail
	path := "/api/conversations/" + url.PathEscape(conversationID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return ConversationDetail{}, err
	}
	return resp, nil
}

// DeleteConversation removes a conversation, its history and its indices.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return fmt.Errorf("sightline: conversation ID required")
	}
	path := "/api/conversations/" + url.PathEscape(conversationID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
