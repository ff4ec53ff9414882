package agent

import (
	"context"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/sightline-ai/sightline/internal/domain"
	"github.com/sightline-ai/sightline/internal/metrics"
	"github.com/sightline-ai/sightline/internal/usecase/synthesis"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

type mockRetriever struct {
	items []domain.ContextItem
	err   error
	calls int
}

func (m *mockRetriever) Retrieve(_ context.Context, _, _ string) ([]domain.ContextItem, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

type mockSynthesizer struct {
	result       synthesis.Result
	err          error
	calls        int
	streamCalls  int
	streamTokens []string
	lastFindings synthesis.Findings
}

func (m *mockSynthesizer) Synthesize(_ context.Context, _ string, _ []domain.ContextItem, f synthesis.Findings) (synthesis.Result, error) {
	m.calls++
	m.lastFindings = f
	if m.err != nil {
		return synthesis.Result{}, m.err
	}
	return m.result, nil
}

func (m *mockSynthesizer) SynthesizeStream(_ context.Context, _ string, _ []domain.ContextItem, f synthesis.Findings, onToken func(string)) (synthesis.Result, error) {
	m.streamCalls++
	m.lastFindings = f
	if m.err != nil {
		return synthesis.Result{}, m.err
	}
	for _, tok := range m.streamTokens {
		onToken(tok)
	}
	return m.result, nil
}

type mockClassifier struct {
	text  string
	err   error
	calls int
}

func (m *mockClassifier) Generate(_ context.Context, _ domain.GenerationRequest) (domain.GenerationResult, error) {
	m.calls++
	if m.err != nil {
		return domain.GenerationResult{}, m.err
	}
	return domain.GenerationResult{Text: m.text}, nil
}

func chartItem(ref, text string) domain.ContextItem {
	return domain.ContextItem{
		Chunk: domain.Chunk{ID: ref, Text: text, Source: domain.SourceChart, SourceRef: ref},
		Score: 0.9,
	}
}

func commentItem(ref, text string) domain.ContextItem {
	return domain.ContextItem{
		Chunk: domain.Chunk{ID: ref, Text: text, Source: domain.SourceComment, SourceRef: ref},
		Score: 0.8,
	}
}

func newTestService(r *mockRetriever, synth *mockSynthesizer) *Service {
	return New(r, synth, zap.NewNop())
}
