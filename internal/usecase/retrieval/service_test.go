package retrieval

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/sightline-ai/sightline/internal/domain"
	"github.com/sightline-ai/sightline/internal/repository/vectorindex"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

type mockSearcher struct {
	results map[string][]domain.ContextItem
	errs    map[string]error
	ks      map[string]int
}

func newMockSearcher() *mockSearcher {
	return &mockSearcher{
		results: make(map[string][]domain.ContextItem),
		errs:    make(map[string]error),
		ks:      make(map[string]int),
	}
}

func (m *mockSearcher) Search(_, indexName string, _ []float32, k int) ([]domain.ContextItem, error) {
	m.ks[indexName] = k
	if err, ok := m.errs[indexName]; ok {
		return nil, err
	}
	items, ok := m.results[indexName]
	if !ok {
		return nil, domain.ErrIndexEmpty
	}
	if k < len(items) {
		items = items[:k]
	}
	return items, nil
}

func item(ref, text string, src domain.SourceType, score float64) domain.ContextItem {
	return domain.ContextItem{
		Chunk: domain.Chunk{ID: ref, Text: text, Source: src, SourceRef: ref},
		Score: score,
	}
}

func newTestService(emb *mockEmbedder, se *mockSearcher) *Service {
	if emb.result.Embedding == nil && emb.err == nil {
		emb.result = domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}
	}
	return New(emb, se, zap.NewNop())
}

func TestRetrieve_MergesRankedAcrossIndices(t *testing.T) {
	se := newMockSearcher()
	se.results[vectorindex.IndexCharts] = []domain.ContextItem{
		item("chart-1", "revenue chart", domain.SourceChart, 0.9),
		item("chart-2", "mau chart", domain.SourceChart, 0.5),
	}
	se.results[vectorindex.IndexComments] = []domain.ContextItem{
		item("comment-1", "great quarter", domain.SourceComment, 0.7),
	}

	svc := newTestService(&mockEmbedder{}, se)
	items, err := svc.Retrieve(context.Background(), "conv-1", "how is revenue")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"chart-1", "comment-1", "chart-2"}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, ref := range want {
		if items[i].SourceRef != ref {
			t.Errorf("pos %d: got %s, want %s", i, items[i].SourceRef, ref)
		}
	}
}

func TestRetrieve_EmbedsQueryOnce(t *testing.T) {
	emb := &mockEmbedder{}
	se := newMockSearcher()
	se.results[vectorindex.IndexCharts] = []domain.ContextItem{
		item("chart-1", "t", domain.SourceChart, 0.9),
	}
	se.results[vectorindex.IndexComments] = []domain.ContextItem{
		item("comment-1", "t2", domain.SourceComment, 0.8),
	}

	svc := newTestService(emb, se)
	if _, err := svc.Retrieve(context.Background(), "conv-1", "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.calls != 1 {
		t.Errorf("expected 1 embed call, got %d", emb.calls)
	}
}

func TestRetrieve_ChartsWinScoreTies(t *testing.T) {
	se := newMockSearcher()
	se.results[vectorindex.IndexCharts] = []domain.ContextItem{
		item("chart-1", "chart text", domain.SourceChart, 0.8),
	}
	se.results[vectorindex.IndexComments] = []domain.ContextItem{
		item("comment-1", "comment text", domain.SourceComment, 0.8),
	}

	svc := newTestService(&mockEmbedder{}, se)
	items, err := svc.Retrieve(context.Background(), "conv-1", "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items[0].SourceRef != "chart-1" {
		t.Errorf("expected chart first on tie, got %s", items[0].SourceRef)
	}
}

func TestRetrieve_Dedupes(t *testing.T) {
	// Same ref and text indexed in both places: one survivor.
	se := newMockSearcher()
	se.results[vectorindex.IndexCharts] = []domain.ContextItem{
		item("ref-1", "duplicated text", domain.SourceChart, 0.9),
	}
	se.results[vectorindex.IndexComments] = []domain.ContextItem{
		item("ref-1", "duplicated text", domain.SourceComment, 0.7),
	}

	svc := newTestService(&mockEmbedder{}, se)
	items, err := svc.Retrieve(context.Background(), "conv-1", "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item after dedupe, got %d", len(items))
	}
	if items[0].Source != domain.SourceChart {
		t.Errorf("expected the chart hit to survive, got %s", items[0].Source)
	}
}

func TestRetrieve_CapsAtKTotal(t *testing.T) {
	se := newMockSearcher()
	var charts, comments []domain.ContextItem
	for i := 0; i < 5; i++ {
		charts = append(charts, item(
			"chart-"+string(rune('a'+i)), "chart "+string(rune('a'+i)), domain.SourceChart, 0.9-float64(i)*0.01))
		comments = append(comments, item(
			"comment-"+string(rune('a'+i)), "comment "+string(rune('a'+i)), domain.SourceComment, 0.8-float64(i)*0.01))
	}
	se.results[vectorindex.IndexCharts] = charts
	se.results[vectorindex.IndexComments] = comments

	svc := newTestService(&mockEmbedder{}, se)
	items, err := svc.Retrieve(context.Background(), "conv-1", "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != DefaultKTotal {
		t.Errorf("expected %d items, got %d", DefaultKTotal, len(items))
	}
	if se.ks[vectorindex.IndexCharts] != DefaultKPerIndex {
		t.Errorf("expected per-index k=%d, got %d", DefaultKPerIndex, se.ks[vectorindex.IndexCharts])
	}
}

func TestRetrieve_WithLimits(t *testing.T) {
	se := newMockSearcher()
	se.results[vectorindex.IndexCharts] = []domain.ContextItem{
		item("c1", "a", domain.SourceChart, 0.9),
		item("c2", "b", domain.SourceChart, 0.8),
		item("c3", "c", domain.SourceChart, 0.7),
	}

	svc := newTestService(&mockEmbedder{}, se).WithLimits(2, 2)
	items, err := svc.Retrieve(context.Background(), "conv-1", "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}
}

func TestRetrieve_EmptyIndicesYieldEmptyResult(t *testing.T) {
	svc := newTestService(&mockEmbedder{}, newMockSearcher())

	items, err := svc.Retrieve(context.Background(), "conv-1", "q")
	if err != nil {
		t.Fatalf("empty indices must not be an error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	svc := newTestService(&mockEmbedder{}, newMockSearcher())

	_, err := svc.Retrieve(context.Background(), "conv-1", "   ")
	if !errors.Is(err, domain.ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}

func TestRetrieve_EmbedderError(t *testing.T) {
	emb := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	svc := New(emb, newMockSearcher(), zap.NewNop())

	_, err := svc.Retrieve(context.Background(), "conv-1", "q")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestRetrieve_SearchErrorPropagates(t *testing.T) {
	se := newMockSearcher()
	se.errs[vectorindex.IndexCharts] = domain.ErrVectorDimMismatch

	svc := newTestService(&mockEmbedder{}, se)
	_, err := svc.Retrieve(context.Background(), "conv-1", "q")
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
}
