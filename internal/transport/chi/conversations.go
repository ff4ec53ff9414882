package chi

import (
	"encoding/json"
	"net/http"
	"strconv"

	chirouter "github.com/go-chi/chi/v5"

	"github.com/sightline-ai/sightline/internal/domain"
)

const defaultConversationLimit = 20

// IngestSources handles POST /api/conversations/{id}/sources: the dedicated
// ingestion endpoint for the external parser collaborators.
func (s *Server) IngestSources(w http.ResponseWriter, r *http.Request) {
	conversationID := chirouter.URLParam(r, "id")

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Sources) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "sources are required")
		return
	}

	sources := make([]domain.Source, len(req.Sources))
	for i, in := range req.Sources {
		sources[i] = domain.Source{
			Text:      in.Text,
			Type:      domain.SourceType(in.SourceType),
			SourceRef: in.SourceRef,
		}
	}

	indexed, err := s.ingest.Ingest(r.Context(), conversationID, sources)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{Indexed: indexed})
}

// ListConversations handles GET /api/conversations.
func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	limit := defaultConversationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be a positive integer")
			return
		}
		limit = n
	}

	convs, err := s.conversations.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if len(convs) > limit {
		convs = convs[:limit]
	}

	items := make([]conversationResponse, len(convs))
	for i, c := range convs {
		items[i] = conversationToDTO(c)
	}
	writeJSON(w, http.StatusOK, conversationListResponse{Items: items})
}

// GetConversation handles GET /api/conversations/{id}: the conversation with
// its full message and analysis history plus current index sizes.
func (s *Server) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chirouter.URLParam(r, "id")

	conv, err := s.conversations.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	msgs, err := s.conversations.Messages(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	analyses, err := s.conversations.Analyses(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := conversationDetailResponse{
		Conversation: conversationToDTO(conv),
		Messages:     make([]messageResponse, len(msgs)),
		Analyses:     make([]analysisResponse, len(analyses)),
		IndexCounts:  s.indices.Counts(id),
	}
	for i, m := range msgs {
		resp.Messages[i] = messageToDTO(m)
	}
	for i, a := range analyses {
		resp.Analyses[i] = analysisToDTO(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteConversation handles DELETE /api/conversations/{id}. The in-memory
// indices go with the stored history.
func (s *Server) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chirouter.URLParam(r, "id")

	if err := s.conversations.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.indices.Drop(id)

	w.WriteHeader(http.StatusNoContent)
}
