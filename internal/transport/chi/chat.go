package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sightline-ai/sightline/internal/domain"
	agentuc "github.com/sightline-ai/sightline/internal/usecase/agent"
)

// conversationTitleLen bounds the auto-generated title taken from the first
// message.
const conversationTitleLen = 60

// Chat handles POST /api/chat: optional inline ingestion of attached chart
// texts and comments, the full query pipeline, and either a JSON response or
// an SSE stream. History persistence is best-effort and never fails the
// request.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "message is required")
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
		s.createConversation(r.Context(), conversationID, req.Message)
	}

	if sources := attachedSources(req); len(sources) > 0 {
		if _, err := s.ingest.Ingest(r.Context(), conversationID, sources); err != nil {
			s.handleDomainError(w, err)
			return
		}
	}

	s.saveMessage(r.Context(), domain.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           domain.RoleUser,
		Content:        req.Message,
		Meta: domain.MessageMeta{
			ChartCount:   len(req.Charts),
			CommentCount: len(req.Comments),
		},
		CreatedAt: time.Now().UnixMilli(),
	})

	if req.Stream {
		s.chatStream(w, r, conversationID, req.Message)
		return
	}

	resp, err := s.pipeline.Run(r.Context(), conversationID, req.Message)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.saveResult(r.Context(), conversationID, req.Message, resp)
	writeJSON(w, http.StatusOK, chatResponseFromAgent(conversationID, resp))
}

func (s *Server) chatStream(w http.ResponseWriter, r *http.Request, conversationID, message string) {
	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "streaming not supported")
		return
	}
	sse.start()

	resp, err := s.pipeline.RunStream(r.Context(), conversationID, message, sse.text)
	if err != nil {
		// Headers are already on the wire; the stream just ends. Usually
		// this is the client going away mid-answer.
		s.logger.Warn("chat stream aborted", zap.String("conversation_id", conversationID), zap.Error(err))
		sse.finish()
		return
	}

	s.saveResult(r.Context(), conversationID, message, resp)
	sse.data(chatStreamData{
		ConversationID:        conversationID,
		Insights:              emptyIfNil(resp.Insights),
		SuggestedQuestions:    emptyIfNil(resp.SuggestedQuestions),
		RequiresClarification: resp.RequiresClarification,
		ContextSourcesCount:   resp.ContextSources,
	})
	sse.finish()
}

func attachedSources(req chatRequest) []domain.Source {
	var out []domain.Source
	for _, c := range req.Charts {
		out = append(out, domain.Source{Text: c.Text, Type: domain.SourceChart, SourceRef: c.SourceRef})
	}
	for _, c := range req.Comments {
		out = append(out, domain.Source{Text: c.Text, Type: domain.SourceComment, SourceRef: c.SourceRef})
	}
	return out
}

func (s *Server) createConversation(ctx context.Context, id, firstMessage string) {
	title := strings.TrimSpace(firstMessage)
	if len(title) > conversationTitleLen {
		title = title[:conversationTitleLen]
	}
	err := s.conversations.Create(ctx, domain.Conversation{
		ID:        id,
		Title:     title,
		CreatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		s.logger.Warn("create conversation failed, continuing without history",
			zap.String("conversation_id", id), zap.Error(err))
	}
}

func (s *Server) saveMessage(ctx context.Context, msg domain.Message) {
	if err := s.conversations.AddMessage(ctx, msg); err != nil {
		s.logger.Warn("save message failed, continuing without history",
			zap.String("conversation_id", msg.ConversationID), zap.Error(err))
	}
}

func (s *Server) saveResult(ctx context.Context, conversationID, query string, resp agentuc.Response) {
	s.saveMessage(ctx, domain.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           domain.RoleAssistant,
		Content:        resp.Text,
		Meta: domain.MessageMeta{
			Insights:              resp.Insights,
			SuggestedQuestions:    resp.SuggestedQuestions,
			RequiresClarification: resp.RequiresClarification,
			ContextSources:        resp.ContextSources,
		},
		CreatedAt: time.Now().UnixMilli(),
	})

	err := s.conversations.SaveAnalysis(ctx, domain.Analysis{
		ConversationID: conversationID,
		Query:          query,
		Insights:       resp.Insights,
		SourceRefs:     resp.ContextRefs,
		Confidence:     resp.Confidence,
		CreatedAt:      time.Now().UnixMilli(),
	})
	if err != nil {
		s.logger.Warn("save analysis failed, continuing without history",
			zap.String("conversation_id", conversationID), zap.Error(err))
	}
}
