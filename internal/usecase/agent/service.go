package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sightline-ai/sightline/internal/domain"
	"github.com/sightline-ai/sightline/internal/metrics"
	"github.com/sightline-ai/sightline/internal/usecase/insight"
	"github.com/sightline-ai/sightline/internal/usecase/synthesis"
)

const (
	// DefaultMinConfidence is the citation-coverage floor below which the
	// synthesized answer is replaced with a clarification request. Tunable
	// through config; the observed pipelines do not pin an exact value.
	DefaultMinConfidence = 0.4

	// DefaultMaxInsights caps the insight list attached to a response.
	DefaultMaxInsights = 8
)

type retriever interface {
	Retrieve(ctx context.Context, conversationID, query string) ([]domain.ContextItem, error)
}

type synthesizer interface {
	Synthesize(ctx context.Context, query string, items []domain.ContextItem, f synthesis.Findings) (synthesis.Result, error)
	SynthesizeStream(ctx context.Context, query string, items []domain.ContextItem, f synthesis.Findings, onToken func(token string)) (synthesis.Result, error)
}

// classifierClient is the optional LLM fallback for ambiguous queries.
type classifierClient interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}

// Service drives the pipeline for one query at a time. It holds no per-query
// state itself, so a single instance serves concurrent requests.
type Service struct {
	retriever     retriever
	synth         synthesizer
	classifier    classifierClient
	logger        *zap.Logger
	minConfidence float64
	maxInsights   int
}

// New builds the router around a retriever and a synthesizer.
func New(r retriever, synth synthesizer, logger *zap.Logger) *Service {
	return &Service{
		retriever:     r,
		synth:         synth,
		logger:        logger,
		minConfidence: DefaultMinConfidence,
		maxInsights:   DefaultMaxInsights,
	}
}

// WithClassifier enables the LLM fallback for queries the lexicons cannot
// place. Without it, cue-free queries count as analytical.
func (s *Service) WithClassifier(c classifierClient) *Service {
	s.classifier = c
	return s
}

// WithThresholds overrides the confidence floor and the insight cap.
func (s *Service) WithThresholds(minConfidence float64, maxInsights int) *Service {
	if minConfidence > 0 {
		s.minConfidence = minConfidence
	}
	if maxInsights > 0 {
		s.maxInsights = maxInsights
	}
	return s
}

// Run executes the full pipeline and returns the terminal response.
// Provider failures degrade to a clarification-style response; only context
// cancellation surfaces as an error.
func (s *Service) Run(ctx context.Context, conversationID, query string) (Response, error) {
	return s.run(ctx, conversationID, query, nil)
}

// RunStream is Run with incremental text delivery: onToken receives answer
// deltas during the synthesis step. Tokens already delivered are not
// retracted when validation later overrides the final text.
func (s *Service) RunStream(ctx context.Context, conversationID, query string, onToken func(token string)) (Response, error) {
	if onToken == nil {
		return Response{}, fmt.Errorf("agent: RunStream requires an onToken callback")
	}
	return s.run(ctx, conversationID, query, onToken)
}

func (s *Service) run(ctx context.Context, conversationID, query string, onToken func(token string)) (Response, error) {
	st := &State{ConversationID: conversationID, Query: query, Step: StepStart}

	for st.Step != StepEnd {
		if err := ctx.Err(); err != nil {
			return Response{}, fmt.Errorf("agent: pipeline canceled at %s: %w", st.Step, err)
		}
		st.Step = Transition(st.Step, st.Analytical)

		var (
			resp    Response
			done    bool
			stepErr error
		)
		started := time.Now()
		switch st.Step {
		case StepValidateQuery:
			st.Analytical = s.classify(ctx, query)
		case StepRedirect:
			resp, done = s.redirect(st), true
		case StepRetrieve:
			stepErr = s.retrieve(ctx, st)
		case StepExtract:
			s.extract(st)
		case StepSynthesize:
			stepErr = s.synthesize(ctx, st, onToken)
		case StepValidateResponse:
			resp, done = s.validateResponse(st), true
		}
		metrics.PipelineStepDuration.WithLabelValues(string(st.Step)).Observe(time.Since(started).Seconds())

		if stepErr != nil {
			if ctx.Err() != nil {
				return Response{}, fmt.Errorf("agent: pipeline canceled at %s: %w", st.Step, ctx.Err())
			}
			return s.degrade(st, stepErr), nil
		}
		if done {
			return resp, nil
		}
	}
	return Response{}, fmt.Errorf("agent: pipeline ended without a terminal step")
}

func (s *Service) retrieve(ctx context.Context, st *State) error {
	items, err := s.retriever.Retrieve(ctx, st.ConversationID, st.Query)
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}
	st.Context = items
	metrics.PipelineContextSize.Observe(float64(len(items)))
	return nil
}

// extract runs the three deterministic passes plus the topic and statistics
// helpers. Extractors tolerate empty input, so an empty context simply
// yields empty findings for validation to catch.
func (s *Service) extract(st *State) {
	st.Findings = synthesis.Findings{
		Metrics:   insight.ExtractMetrics(st.Context),
		Sentiment: insight.AnalyzeSentiment(st.Context),
		Topics:    insight.ExtractTopics(st.Context, insight.DefaultTopicLimit),
	}
	st.Findings.Trends = insight.DetectTrends(st.Context, st.Findings.Metrics, st.Findings.Sentiment)
	st.Stats, st.HasStats = insight.ComputeStats(insight.MetricValues(st.Findings.Metrics))
}

func (s *Service) synthesize(ctx context.Context, st *State, onToken func(token string)) error {
	var (
		res synthesis.Result
		err error
	)
	if onToken != nil {
		res, err = s.synth.SynthesizeStream(ctx, st.Query, st.Context, st.Findings, onToken)
	} else {
		res, err = s.synth.Synthesize(ctx, st.Query, st.Context, st.Findings)
	}
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	st.Synthesis = res
	return nil
}

func (s *Service) degrade(st *State, err error) Response {
	s.logger.Warn("pipeline degraded",
		zap.String("step", string(st.Step)),
		zap.String("conversation_id", st.ConversationID),
		zap.Error(err),
	)
	metrics.PipelineQueriesTotal.WithLabelValues("degraded").Inc()
	return Response{
		Text:                  degradedMessage,
		RequiresClarification: true,
		ContextSources:        len(st.Context),
	}
}
