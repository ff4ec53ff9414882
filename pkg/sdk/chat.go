package sightline

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Source is one chart text or comment attached to a chat request.
type Source struct {
	Text      string `json:"text"`
	SourceRef string `json:"source_ref,omitempty"`
}

// ChatRequest asks a question about a conversation's indexed sources.
// Charts and Comments are optional inline sources indexed before the
// question is answered.
type ChatRequest struct {
	Message        string   `json:"message"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Charts         []Source `json:"charts,omitempty"`
	Comments       []Source `json:"comments,omitempty"`
	Stream         bool     `json:"stream,omitempty"`
}

// ChatResponse is the assistant's answer with its structured companions.
type ChatResponse struct {
	Response              string   `json:"response"`
	ConversationID        string   `json:"conversation_id"`
	Insights              []string `json:"insights"`
	SuggestedQuestions    []string `json:"suggested_questions"`
	RequiresClarification bool     `json:"requires_clarification"`
	ContextSourcesCount   int      `json:"context_sources_count"`
}

// Chat sends a question and returns the complete answer.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	req.Stream = false
	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return ChatResponse{}, err
	}
	return resp, nil
}

// streamEvent mirrors the server's SSE payload.
type streamEvent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Data *struct {
		ConversationID        string   `json:"conversationId"`
		Insights              []string `json:"insights"`
		SuggestedQuestions    []string `json:"suggested_questions"`
		RequiresClarification bool     `json:"requires_clarification"`
		ContextSourcesCount   int      `json:"context_sources_count"`
	} `json:"data,omitempty"`
}

// ChatStream sends a question and invokes onToken for each answer fragment
// as it is generated. The assembled response is returned when the stream
// finishes. A stream that ends without a data event (server-side failure
// mid-answer) returns an error alongside the text received so far.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, onToken func(token string)) (ChatResponse, error) {
	if onToken == nil {
		return ChatResponse{}, fmt.Errorf("sightline: onToken callback required")
	}
	req.Stream = true

	httpResp, err := c.send(ctx, http.MethodPost, "/api/chat", req, "text/event-stream")
	if err != nil {
		return ChatResponse{}, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= http.StatusBadRequest {
		return ChatResponse{}, parseAPIError(httpResp)
	}

	var (
		text    strings.Builder
		resp    ChatResponse
		gotData bool
	)

	scanner := bufio.NewScanner(httpResp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		raw, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return ChatResponse{}, fmt.Errorf("sightline: decode stream event: %w", err)
		}

		switch ev.Type {
		case "text":
			text.WriteString(ev.Text)
			onToken(ev.Text)
		case "data":
			if ev.Data != nil {
				gotData = true
				resp.ConversationID = ev.Data.ConversationID
				resp.Insights = ev.Data.Insights
				resp.SuggestedQuestions = ev.Data.SuggestedQuestions
				resp.RequiresClarification = ev.Data.RequiresClarification
				resp.ContextSourcesCount = ev.Data.ContextSourcesCount
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return ChatResponse{}, fmt.Errorf("sightline: read stream: %w", err)
	}

	resp.Response = text.String()
	if !gotData {
		return resp, fmt.Errorf("sightline: stream ended without result")
	}
	return resp, nil
}
