// Package conversation persists chat sessions, their message history and
// saved analyses in a key-value store.
package conversation

import (
	"context"
	"fmt"
	"sort"

	"github.com/sightline-ai/sightline/internal/domain"
)

// store is the consumer interface for conversations (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	RPush(ctx context.Context, key string, values ...[]byte) error
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
}

// Repo implements conversation persistence over the store.
type Repo struct {
	store store
}

// New creates a conversation repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create stores conversation metadata. IDs are caller-minted UUIDs, so an
// existing key is simply overwritten.
func (r *Repo) Create(ctx context.Context, conv domain.Conversation) error {
	if err := r.store.HSet(ctx, convKey(conv.ID), conversationToHash(conv)); err != nil {
		return fmt.Errorf("hset conversation %s: %w", conv.ID, err)
	}
	return nil
}

// Get retrieves a conversation by ID.
func (r *Repo) Get(ctx context.Context, id string) (domain.Conversation, error) {
	m, err := r.store.HGetAll(ctx, convKey(id))
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("hgetall conversation %s: %w", id, err)
	}
	if len(m) == 0 {
		return domain.Conversation{}, domain.ErrConversationNotFound
	}
	return conversationFromHash(m)
}

// List returns all conversations sorted by CreatedAt descending
// (newest first).
func (r *Repo) List(ctx context.Context) ([]domain.Conversation, error) {
	keys, err := r.store.Scan(ctx, convKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan conversations: %w", err)
	}
	if len(keys) == 0 {
		return []domain.Conversation{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi conversations: %w", err)
	}

	convs := make([]domain.Conversation, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		conv, err := conversationFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse conversation %s: %w", keys[i], err)
		}
		convs = append(convs, conv)
	}

	sort.Slice(convs, func(i, j int) bool {
		return convs[i].CreatedAt > convs[j].CreatedAt
	})

	return convs, nil
}

// Delete removes a conversation with its message history and analyses.
func (r *Repo) Delete(ctx context.Context, id string) error {
	exists, err := r.store.Exists(ctx, convKey(id))
	if err != nil {
		return fmt.Errorf("check conversation %s: %w", id, err)
	}
	if !exists {
		return domain.ErrConversationNotFound
	}

	for _, key := range []string{convKey(id), messagesKey(id), analysesKey(id)} {
		if err := r.store.Del(ctx, key); err != nil {
			return fmt.Errorf("del %s: %w", key, err)
		}
	}
	return nil
}

// AddMessage appends a message to the conversation history.
func (r *Repo) AddMessage(ctx context.Context, msg domain.Message) error {
	data, err := messageToJSON(msg)
	if err != nil {
		return err
	}
	if err := r.store.RPush(ctx, messagesKey(msg.ConversationID), data); err != nil {
		return fmt.Errorf("rpush message %s: %w", msg.ConversationID, err)
	}
	return nil
}

// Messages returns the full message history in insertion order. An unknown
// conversation yields an empty history, not an error.
func (r *Repo) Messages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	rows, err := r.store.LRange(ctx, messagesKey(conversationID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("lrange messages %s: %w", conversationID, err)
	}

	msgs := make([]domain.Message, 0, len(rows))
	for i, row := range rows {
		msg, err := messageFromJSON(row)
		if err != nil {
			return nil, fmt.Errorf("parse message %s[%d]: %w", conversationID, i, err)
		}
		msg.ConversationID = conversationID
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// SaveAnalysis appends a pipeline run record to the conversation.
func (r *Repo) SaveAnalysis(ctx context.Context, a domain.Analysis) error {
	data, err := analysisToJSON(a)
	if err != nil {
		return err
	}
	if err := r.store.RPush(ctx, analysesKey(a.ConversationID), data); err != nil {
		return fmt.Errorf("rpush analysis %s: %w", a.ConversationID, err)
	}
	return nil
}

// Analyses returns saved pipeline runs in insertion order.
func (r *Repo) Analyses(ctx context.Context, conversationID string) ([]domain.Analysis, error) {
	rows, err := r.store.LRange(ctx, analysesKey(conversationID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("lrange analyses %s: %w", conversationID, err)
	}

	analyses := make([]domain.Analysis, 0, len(rows))
	for i, row := range rows {
		a, err := analysisFromJSON(row)
		if err != nil {
			return nil, fmt.Errorf("parse analysis %s[%d]: %w", conversationID, i, err)
		}
		a.ConversationID = conversationID
		analyses = append(analyses, a)
	}
	return analyses, nil
}

// Redis key patterns: sightline:conversation:{id}, sightline:messages:{id},
// sightline:analyses:{id}

func convKey(id string) string {
	return domain.KeyPrefix + "conversation:" + id
}

func messagesKey(id string) string {
	return domain.KeyPrefix + "messages:" + id
}

func analysesKey(id string) string {
	return domain.KeyPrefix + "analyses:" + id
}
