package chi

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sightline-ai/sightline/internal/domain"
	agentuc "github.com/sightline-ai/sightline/internal/usecase/agent"
)

func postJSON(t *testing.T, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestChat_JSONResponse(t *testing.T) {
	env := newTestEnv()
	env.pipeline.resp = agentuc.Response{
		Text:               "Engagement rose 47.3%.",
		Insights:           []string{"Metric: 47.3% (increase, source chart-1)"},
		SuggestedQuestions: []string{"Compare to last quarter?"},
		ContextSources:     3,
	}

	rr := env.do(t, postJSON(t, "/api/chat", `{"message":"What's our engagement trend?","conversation_id":"conv-1"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp chatResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Response != "Engagement rose 47.3%." {
		t.Errorf("response = %q", resp.Response)
	}
	if resp.ConversationID != "conv-1" {
		t.Errorf("conversation id = %q, want conv-1", resp.ConversationID)
	}
	if resp.RequiresClarification {
		t.Error("requires_clarification should be false")
	}
	if len(resp.Insights) != 1 || len(resp.SuggestedQuestions) != 1 {
		t.Errorf("insights/suggestions = %v / %v", resp.Insights, resp.SuggestedQuestions)
	}
	if env.pipeline.lastQuery != "What's our engagement trend?" {
		t.Errorf("query = %q", env.pipeline.lastQuery)
	}
}

func TestChat_MintsConversationID(t *testing.T) {
	env := newTestEnv()
	env.pipeline.resp = agentuc.Response{Text: "ok"}

	rr := env.do(t, postJSON(t, "/api/chat", `{"message":"What's the revenue trend?"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp chatResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ConversationID == "" {
		t.Fatal("expected a minted conversation id")
	}
	if _, ok := env.conversations.conversations[resp.ConversationID]; !ok {
		t.Error("minted conversation was not created in the store")
	}
}

func TestChat_EmptyMessageRejected(t *testing.T) {
	env := newTestEnv()
	rr := env.do(t, postJSON(t, "/api/chat", `{"message":"   "}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if env.pipeline.runCalls != 0 {
		t.Error("pipeline must not run for an empty message")
	}
}

func TestChat_InlineIngestion(t *testing.T) {
	env := newTestEnv()
	env.pipeline.resp = agentuc.Response{Text: "ok"}

	body := `{"message":"What's our engagement trend?","conversation_id":"conv-1",` +
		`"charts":[{"text":"Engagement up 47.3%","source_ref":"chart-1"}],` +
		`"comments":[{"text":"love it"}]}`
	rr := env.do(t, postJSON(t, "/api/chat", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if env.ingest.calls != 1 {
		t.Fatalf("ingest calls = %d, want 1", env.ingest.calls)
	}
	if len(env.ingest.lastSources) != 2 {
		t.Fatalf("sources = %+v, want chart + comment", env.ingest.lastSources)
	}
	if env.ingest.lastSources[0].Type != domain.SourceChart || env.ingest.lastSources[1].Type != domain.SourceComment {
		t.Errorf("source types = %s/%s", env.ingest.lastSources[0].Type, env.ingest.lastSources[1].Type)
	}
}

func TestChat_QuotaExceededMapsTo402(t *testing.T) {
	env := newTestEnv()
	env.ingest.err = domain.ErrEmbeddingQuotaExceeded

	body := `{"message":"trend?","conversation_id":"conv-1","comments":[{"text":"hi"}]}`
	rr := env.do(t, postJSON(t, "/api/chat", body))

	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", rr.Code)
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != codeEmbeddingQuotaExceeded {
		t.Errorf("code = %s", errResp.Code)
	}
}

func TestChat_GenerationFailureMapsTo502(t *testing.T) {
	env := newTestEnv()
	env.pipeline.err = domain.ErrGenerationProviderError

	rr := env.do(t, postJSON(t, "/api/chat", `{"message":"trend?","conversation_id":"conv-1"}`))

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "internal") {
		t.Errorf("unexpected internal error body: %s", rr.Body.String())
	}
}

func TestChat_PersistsHistory(t *testing.T) {
	env := newTestEnv()
	env.pipeline.resp = agentuc.Response{
		Text:        "Engagement rose.",
		Insights:    []string{"Metric: 47.3%"},
		ContextRefs: []string{"chart-1"},
		Confidence:  0.9,
	}

	rr := env.do(t, postJSON(t, "/api/chat", `{"message":"trend?","conversation_id":"conv-1"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	msgs := env.conversations.messages["conv-1"]
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want user + assistant", len(msgs))
	}
	if msgs[0].Role != domain.RoleUser || msgs[1].Role != domain.RoleAssistant {
		t.Errorf("roles = %s/%s", msgs[0].Role, msgs[1].Role)
	}
	analyses := env.conversations.analyses["conv-1"]
	if len(analyses) != 1 {
		t.Fatalf("analyses = %d, want 1", len(analyses))
	}
	if analyses[0].Confidence != 0.9 || len(analyses[0].SourceRefs) != 1 {
		t.Errorf("analysis = %+v", analyses[0])
	}
}

func TestChat_HistoryFailureIsNonFatal(t *testing.T) {
	env := newTestEnv()
	env.conversations.addMessageErr = domain.ErrConversationNotFound
	env.pipeline.resp = agentuc.Response{Text: "ok"}

	rr := env.do(t, postJSON(t, "/api/chat", `{"message":"trend?","conversation_id":"conv-1"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, history failures must not fail the request", rr.Code)
	}
}

func TestChat_SSEStream(t *testing.T) {
	env := newTestEnv()
	env.pipeline.resp = agentuc.Response{
		Text:               "Engagement rose 47.3%.",
		Insights:           []string{"Metric: 47.3%"},
		SuggestedQuestions: []string{},
		ContextSources:     2,
	}
	env.pipeline.streamTokens = []string{"Engagement ", "rose ", "47.3%."}

	rr := env.do(t, postJSON(t, "/api/chat", `{"message":"trend?","conversation_id":"conv-1","stream":true}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	var events []sseEvent
	scanner := bufio.NewScanner(rr.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev sseEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("bad event %q: %v", line, err)
		}
		events = append(events, ev)
	}

	if len(events) != 6 {
		t.Fatalf("events = %d, want start + 3 text + data + finish", len(events))
	}
	if events[0].Type != "start" || events[len(events)-1].Type != "finish" {
		t.Errorf("framing = %s .. %s", events[0].Type, events[len(events)-1].Type)
	}
	var text strings.Builder
	var data *chatStreamData
	for _, ev := range events {
		switch ev.Type {
		case "text":
			text.WriteString(ev.Text)
		case "data":
			data = ev.Data
		}
	}
	if text.String() != "Engagement rose 47.3%." {
		t.Errorf("streamed text = %q", text.String())
	}
	if data == nil {
		t.Fatal("missing data event")
	}
	if data.ConversationID != "conv-1" || data.ContextSourcesCount != 2 {
		t.Errorf("data = %+v", data)
	}
	if env.pipeline.streamCalls != 1 || env.pipeline.runCalls != 0 {
		t.Errorf("stream/run calls = %d/%d", env.pipeline.streamCalls, env.pipeline.runCalls)
	}
}

func TestChat_SSEStreamFailureEndsCleanly(t *testing.T) {
	env := newTestEnv()
	env.pipeline.err = domain.ErrGenerationProviderError

	rr := env.do(t, postJSON(t, "/api/chat", `{"message":"trend?","conversation_id":"conv-1","stream":true}`))

	// Headers were already sent; the stream ends with finish and no data event.
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, `"type":"data"`) {
		t.Error("no data event expected on failure")
	}
	if !strings.Contains(body, `"type":"finish"`) {
		t.Error("stream must still be terminated with finish")
	}
}
