package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sightline-ai/sightline/internal/domain"
	agentuc "github.com/sightline-ai/sightline/internal/usecase/agent"
	healthuc "github.com/sightline-ai/sightline/internal/usecase/health"
)

type mockPipeline struct {
	resp         agentuc.Response
	err          error
	streamTokens []string
	runCalls     int
	streamCalls  int
	lastConvID   string
	lastQuery    string
}

func (m *mockPipeline) Run(_ context.Context, conversationID, query string) (agentuc.Response, error) {
	m.runCalls++
	m.lastConvID = conversationID
	m.lastQuery = query
	if m.err != nil {
		return agentuc.Response{}, m.err
	}
	return m.resp, nil
}

func (m *mockPipeline) RunStream(_ context.Context, conversationID, query string, onToken func(string)) (agentuc.Response, error) {
	m.streamCalls++
	m.lastConvID = conversationID
	m.lastQuery = query
	if m.err != nil {
		return agentuc.Response{}, m.err
	}
	for _, tok := range m.streamTokens {
		onToken(tok)
	}
	return m.resp, nil
}

type mockIngestor struct {
	indexed     int
	err         error
	calls       int
	lastSources []domain.Source
	lastConvID  string
}

func (m *mockIngestor) Ingest(_ context.Context, conversationID string, sources []domain.Source) (int, error) {
	m.calls++
	m.lastConvID = conversationID
	m.lastSources = sources
	if m.err != nil {
		return 0, m.err
	}
	if m.indexed == 0 {
		return len(sources), nil
	}
	return m.indexed, nil
}

type mockConversations struct {
	conversations map[string]domain.Conversation
	messages      map[string][]domain.Message
	analyses      map[string][]domain.Analysis
	listErr       error
	addMessageErr error
}

func newMockConversations() *mockConversations {
	return &mockConversations{
		conversations: map[string]domain.Conversation{},
		messages:      map[string][]domain.Message{},
		analyses:      map[string][]domain.Analysis{},
	}
}

func (m *mockConversations) Create(_ context.Context, conv domain.Conversation) error {
	m.conversations[conv.ID] = conv
	return nil
}

func (m *mockConversations) Get(_ context.Context, id string) (domain.Conversation, error) {
	conv, ok := m.conversations[id]
	if !ok {
		return domain.Conversation{}, domain.ErrConversationNotFound
	}
	return conv, nil
}

func (m *mockConversations) List(_ context.Context) ([]domain.Conversation, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Conversation, 0, len(m.conversations))
	for _, c := range m.conversations {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockConversations) Delete(_ context.Context, id string) error {
	if _, ok := m.conversations[id]; !ok {
		return domain.ErrConversationNotFound
	}
	delete(m.conversations, id)
	delete(m.messages, id)
	delete(m.analyses, id)
	return nil
}

func (m *mockConversations) AddMessage(_ context.Context, msg domain.Message) error {
	if m.addMessageErr != nil {
		return m.addMessageErr
	}
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], msg)
	return nil
}

func (m *mockConversations) Messages(_ context.Context, conversationID string) ([]domain.Message, error) {
	return m.messages[conversationID], nil
}

func (m *mockConversations) SaveAnalysis(_ context.Context, a domain.Analysis) error {
	m.analyses[a.ConversationID] = append(m.analyses[a.ConversationID], a)
	return nil
}

func (m *mockConversations) Analyses(_ context.Context, conversationID string) ([]domain.Analysis, error) {
	return m.analyses[conversationID], nil
}

type mockRegistry struct {
	counts  map[string]int
	dropped []string
}

func (m *mockRegistry) Counts(_ string) map[string]int { return m.counts }
func (m *mockRegistry) Drop(conversationID string)     { m.dropped = append(m.dropped, conversationID) }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type testEnv struct {
	pipeline      *mockPipeline
	ingest        *mockIngestor
	conversations *mockConversations
	registry      *mockRegistry
	health        *mockHealth
	router        *chirouter.Mux
}

func newTestEnv() *testEnv {
	env := &testEnv{
		pipeline:      &mockPipeline{},
		ingest:        &mockIngestor{},
		conversations: newMockConversations(),
		registry:      &mockRegistry{counts: map[string]int{}},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
		}},
	}
	srv := NewServer(env.pipeline, env.ingest, env.conversations, env.registry, env.health, zap.NewNop())
	env.router = chirouter.NewRouter()
	srv.Routes(env.router)
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}
