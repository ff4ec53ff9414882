package domain

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser marks a message sent by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by the pipeline.
	RoleAssistant Role = "assistant"
)

// Conversation is one chat session. Persistence is best-effort: the pipeline
// answers correctly even when the history store is unavailable.
type Conversation struct {
	ID        string
	Title     string
	CreatedAt int64 // unix millis
}

// MessageMeta carries per-message pipeline metadata worth keeping with history.
type MessageMeta struct {
	ChartCount            int      `json:"chart_count,omitempty"`
	CommentCount          int      `json:"comment_count,omitempty"`
	Insights              []string `json:"insights,omitempty"`
	SuggestedQuestions    []string `json:"suggested_questions,omitempty"`
	RequiresClarification bool     `json:"requires_clarification,omitempty"`
	ContextSources        int      `json:"context_sources,omitempty"`
}

// Message is one turn in a conversation.
type Message struct {
	ID             string
	ConversationID string
	Role           Role
	Content        string
	Meta           MessageMeta
	CreatedAt      int64 // unix millis
}

// Analysis is a saved pipeline run: the question, the insights it produced
// and the source refs they were grounded on.
type Analysis struct {
	ConversationID string
	Query          string
	Insights       []string
	SourceRefs     []string
	Confidence     float64
	CreatedAt      int64 // unix millis
}
