package chi

import (
	"github.com/sightline-ai/sightline/internal/domain"
	agentuc "github.com/sightline-ai/sightline/internal/usecase/agent"
	healthuc "github.com/sightline-ai/sightline/internal/usecase/health"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type healthResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// sourceInput is one attached chart text or comment on a chat request.
type sourceInput struct {
	Text      string `json:"text"`
	SourceRef string `json:"source_ref,omitempty"`
}

type chatRequest struct {
	Message        string        `json:"message"`
	ConversationID string        `json:"conversation_id,omitempty"`
	Charts         []sourceInput `json:"charts,omitempty"`
	Comments       []sourceInput `json:"comments,omitempty"`
	Stream         bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Response              string   `json:"response"`
	ConversationID        string   `json:"conversation_id"`
	Insights              []string `json:"insights"`
	SuggestedQuestions    []string `json:"suggested_questions"`
	RequiresClarification bool     `json:"requires_clarification"`
	ContextSourcesCount   int      `json:"context_sources_count"`
}

// chatStreamData is the terminal metadata event of an SSE chat response.
type chatStreamData struct {
	ConversationID        string   `json:"conversationId"`
	Insights              []string `json:"insights"`
	SuggestedQuestions    []string `json:"suggested_questions"`
	RequiresClarification bool     `json:"requires_clarification"`
	ContextSourcesCount   int      `json:"context_sources_count"`
}

type ingestSourceInput struct {
	Text       string `json:"text"`
	SourceType string `json:"source_type"`
	SourceRef  string `json:"source_ref,omitempty"`
}

type ingestRequest struct {
	Sources []ingestSourceInput `json:"sources"`
}

type ingestResponse struct {
	Indexed int `json:"indexed"`
}

type conversationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"created_at"`
}

type conversationListResponse struct {
	Items []conversationResponse `json:"items"`
}

type messageResponse struct {
	ID        string             `json:"id"`
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	Meta      domain.MessageMeta `json:"meta,omitempty"`
	CreatedAt int64              `json:"created_at"`
}

type analysisResponse struct {
	Query      string   `json:"query"`
	Insights   []string `json:"insights"`
	SourceRefs []string `json:"source_refs"`
	Confidence float64  `json:"confidence"`
	CreatedAt  int64    `json:"created_at"`
}

type conversationDetailResponse struct {
	Conversation conversationResponse `json:"conversation"`
	Messages     []messageResponse    `json:"messages"`
	Analyses     []analysisResponse   `json:"analyses"`
	IndexCounts  map[string]int       `json:"index_counts"`
}

func conversationToDTO(c domain.Conversation) conversationResponse {
	return conversationResponse{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt}
}

func messageToDTO(m domain.Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		Meta:      m.Meta,
		CreatedAt: m.CreatedAt,
	}
}

func analysisToDTO(a domain.Analysis) analysisResponse {
	return analysisResponse{
		Query:      a.Query,
		Insights:   emptyIfNil(a.Insights),
		SourceRefs: emptyIfNil(a.SourceRefs),
		Confidence: a.Confidence,
		CreatedAt:  a.CreatedAt,
	}
}

func chatResponseFromAgent(conversationID string, resp agentuc.Response) chatResponse {
	return chatResponse{
		Response:              resp.Text,
		ConversationID:        conversationID,
		Insights:              emptyIfNil(resp.Insights),
		SuggestedQuestions:    emptyIfNil(resp.SuggestedQuestions),
		RequiresClarification: resp.RequiresClarification,
		ContextSourcesCount:   resp.ContextSources,
	}
}

// emptyIfNil keeps JSON arrays as [] instead of null.
func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
