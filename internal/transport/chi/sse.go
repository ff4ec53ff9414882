package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// sseWriter emits the chat stream protocol: a start event, text deltas, one
// terminal data event with the structured payload, then finish. Each event
// is flushed immediately so partial answers reach the client as they are
// generated.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("sse: response writer does not support flushing")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	return &sseWriter{w: w, flusher: flusher}, nil
}

type sseEvent struct {
	Type string          `json:"type"`
	Text string          `json:"text,omitempty"`
	Data *chatStreamData `json:"data,omitempty"`
}

func (s *sseWriter) start() {
	s.send(sseEvent{Type: "start"})
}

func (s *sseWriter) text(token string) {
	if token == "" {
		return
	}
	s.send(sseEvent{Type: "text", Text: token})
}

func (s *sseWriter) data(payload chatStreamData) {
	s.send(sseEvent{Type: "data", Data: &payload})
}

func (s *sseWriter) finish() {
	s.send(sseEvent{Type: "finish"})
}

func (s *sseWriter) send(ev sseEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", raw)
	s.flusher.Flush()
}
