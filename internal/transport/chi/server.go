// Package chi exposes the HTTP API: the chat pipeline, source ingestion,
// conversation history and the operational endpoints.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sightline-ai/sightline/internal/domain"
	agentuc "github.com/sightline-ai/sightline/internal/usecase/agent"
	healthuc "github.com/sightline-ai/sightline/internal/usecase/health"
)

type errorCode string

const (
	codeBadRequest              errorCode = "bad_request"
	codeValidationFailed        errorCode = "validation_failed"
	codeConversationNotFound    errorCode = "conversation_not_found"
	codeVectorDimMismatch       errorCode = "vector_dim_mismatch"
	codeEmbeddingQuotaExceeded  errorCode = "embedding_quota_exceeded"
	codeEmbeddingProviderError  errorCode = "embedding_provider_error"
	codeGenerationProviderError errorCode = "generation_provider_error"
	codeInternalError           errorCode = "internal_error"
)

type pipeline interface {
	Run(ctx context.Context, conversationID, query string) (agentuc.Response, error)
	RunStream(ctx context.Context, conversationID, query string, onToken func(token string)) (agentuc.Response, error)
}

type ingestor interface {
	Ingest(ctx context.Context, conversationID string, sources []domain.Source) (int, error)
}

type conversationStore interface {
	Create(ctx context.Context, conv domain.Conversation) error
	Get(ctx context.Context, id string) (domain.Conversation, error)
	List(ctx context.Context) ([]domain.Conversation, error)
	Delete(ctx context.Context, id string) error
	AddMessage(ctx context.Context, msg domain.Message) error
	Messages(ctx context.Context, conversationID string) ([]domain.Message, error)
	SaveAnalysis(ctx context.Context, a domain.Analysis) error
	Analyses(ctx context.Context, conversationID string) ([]domain.Analysis, error)
}

type indexRegistry interface {
	Counts(conversationID string) map[string]int
	Drop(conversationID string)
}

type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the use cases to HTTP routes.
type Server struct {
	pipeline      pipeline
	ingest        ingestor
	conversations conversationStore
	indices       indexRegistry
	health        healthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the HTTP API server.
func NewServer(
	p pipeline,
	ing ingestor,
	conversations conversationStore,
	indices indexRegistry,
	health healthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		pipeline:      p,
		ingest:        ing,
		conversations: conversations,
		indices:       indices,
		health:        health,
		logger:        logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrConversationNotFound, http.StatusNotFound, codeConversationNotFound),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, codeEmbeddingQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrGenerationProviderError, http.StatusBadGateway, codeGenerationProviderError),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrInvalidSource, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmptyText, http.StatusBadRequest, codeValidationFailed),
	}
	return s
}

// Routes registers all handlers on the router. Middleware is the caller's
// concern; only the route table lives here.
func (s *Server) Routes(r chirouter.Router) {
	r.Post("/api/chat", s.Chat)
	r.Post("/api/conversations/{id}/sources", s.IngestSources)
	r.Get("/api/conversations", s.ListConversations)
	r.Get("/api/conversations/{id}", s.GetConversation)
	r.Delete("/api/conversations/{id}", s.DeleteConversation)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrConversationNotFound,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingProviderError,
		domain.ErrGenerationProviderError,
		domain.ErrVectorDimMismatch,
		domain.ErrInvalidSource,
		domain.ErrEmptyText,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
