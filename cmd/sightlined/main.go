package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sightline-ai/sightline/internal/config"
	"github.com/sightline-ai/sightline/internal/db"
	dbRedis "github.com/sightline-ai/sightline/internal/db/redis"
	"github.com/sightline-ai/sightline/internal/domain"
	logpkg "github.com/sightline-ai/sightline/internal/logger"
	"github.com/sightline-ai/sightline/internal/metrics"
	budgetrepo "github.com/sightline-ai/sightline/internal/repository/budget"
	conversationrepo "github.com/sightline-ai/sightline/internal/repository/conversation"
	"github.com/sightline-ai/sightline/internal/repository/embcache"
	"github.com/sightline-ai/sightline/internal/repository/vectorindex"
	chiTransport "github.com/sightline-ai/sightline/internal/transport/chi"
	openaiProv "github.com/sightline-ai/sightline/internal/transport/openai"
	agentuc "github.com/sightline-ai/sightline/internal/usecase/agent"
	embeddinguc "github.com/sightline-ai/sightline/internal/usecase/embedding"
	healthuc "github.com/sightline-ai/sightline/internal/usecase/health"
	ingestuc "github.com/sightline-ai/sightline/internal/usecase/ingest"
	retrievaluc "github.com/sightline-ai/sightline/internal/usecase/retrieval"
	synthesisuc "github.com/sightline-ai/sightline/internal/usecase/synthesis"
	"github.com/sightline-ai/sightline/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting sightline API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	if cfg.Database.Driver != "redis" {
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	// Take the first vectorizer config
	var vecCfg config.VectorizerConfig
	var provName string
	for _, vc := range cfg.Embedding.Vectorizers {
		vecCfg = vc
		provName = vc.Provider
		break
	}
	provCfg := cfg.Embedding.Providers[provName]

	// Single BudgetTracker shared across both embedders.
	var budget *embeddinguc.BudgetTracker
	budgetCfg := provCfg.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if budgetCfg.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		budget = embeddinguc.NewBudgetTracker(
			provName, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		)
		// Connect persistence store — loads current counters from DB.
		budgetStore := budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour)
		budget.WithStore(ctx, budgetStore)
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var budgetChecker embeddinguc.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	base := openaiProv.NewEmbedder(&openaiProv.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		Provider:   provName,
		Logger:     logger,
	})

	// Source batches are embedded once per upload; caching buys nothing there,
	// so the document path skips embcache and keeps the single batch API call.
	docEmbedder := buildDocEmbedder(base, provName, vecCfg, budgetChecker, logger)
	queryEmbedder := buildQueryEmbedder(base, provName, vecCfg, cfg.Embedding.CacheTTLSec, store, budgetChecker, logger)
	logger.Info("Embedders created",
		zap.String("provider", provName),
		zap.String("model", vecCfg.Model),
		zap.Int("dimensions", vecCfg.Dimensions),
	)

	generator := openaiProv.NewGenerator(&openaiProv.GeneratorConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Logger:  logger,
	})
	logger.Info("Generator created", zap.String("model", cfg.LLM.Model))

	// The token budget is shared: generation draws from the same counters
	// as embedding.
	gen := &budgetedGenerator{inner: generator, budget: budgetChecker}

	// Repositories
	indices := vectorindex.NewRegistry()
	convRepo := conversationrepo.New(store)

	// Use case services
	ingestSvc := ingestuc.New(docEmbedder, indices, logger)
	retrievalSvc := retrievaluc.New(queryEmbedder, indices, logger).
		WithLimits(cfg.Pipeline.KPerIndex, cfg.Pipeline.KTotal)
	synthSvc := synthesisuc.New(gen, logger).
		WithGeneration(cfg.LLM.Temperature, cfg.LLM.MaxTokens).
		WithMaxSuggestions(cfg.Pipeline.MaxSuggestions)
	pipeline := agentuc.New(retrievalSvc, synthSvc, logger).
		WithClassifier(gen).
		WithThresholds(cfg.Pipeline.MinConfidence, cfg.Pipeline.MaxInsights)

	// Health service
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(queryEmbedder), generator)

	server := chiTransport.NewServer(pipeline, ingestSvc, convRepo, indices, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildDocEmbedder assembles the source-ingestion chain: OpenAI -> Instrumented -> Instruction
func buildDocEmbedder(
	base domain.Embedder,
	provName string,
	vecCfg config.VectorizerConfig,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) domain.BatchEmbedder {
	instrumented := embeddinguc.NewInstrumentedEmbedder(
		base, provName, vecCfg.Model, budget, logger,
	)
	if vecCfg.DocumentInstruction != "" {
		return domain.NewInstructionEmbedder(instrumented, vecCfg.DocumentInstruction)
	}
	return instrumented
}

// buildQueryEmbedder assembles the query chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildQueryEmbedder(
	base domain.Embedder,
	provName string,
	vecCfg config.VectorizerConfig,
	cacheTTLSec int,
	store db.Store,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) domain.Embedder {
	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(
			base, store, time.Duration(cacheTTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger,
		)
	}

	// Instrumented (budget + logging)
	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, provName, vecCfg.Model, budget, logger,
	)

	// Instruction prefix (outermost — cache key includes instruction)
	if vecCfg.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, vecCfg.QueryInstruction)
	}

	return embedder
}

// budgetedGenerator charges generation tokens against the shared budget.
// A nil budget passes everything through.
type budgetedGenerator struct {
	inner  *openaiProv.Generator
	budget embeddinguc.BudgetChecker
}

func (g *budgetedGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	if g.budget != nil {
		if err := g.budget.Check(ctx); err != nil {
			return domain.GenerationResult{}, fmt.Errorf("generation budget: %w", err)
		}
	}
	res, err := g.inner.Generate(ctx, req)
	if err == nil && g.budget != nil {
		g.budget.Record(int64(res.TotalTokens))
	}
	return res, err
}

func (g *budgetedGenerator) GenerateStream(ctx context.Context, req domain.GenerationRequest, onToken func(token string)) (domain.GenerationResult, error) {
	if g.budget != nil {
		if err := g.budget.Check(ctx); err != nil {
			return domain.GenerationResult{}, fmt.Errorf("generation budget: %w", err)
		}
	}
	res, err := g.inner.GenerateStream(ctx, req, onToken)
	if err == nil && g.budget != nil {
		g.budget.Record(int64(res.TotalTokens))
	}
	return res, err
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
