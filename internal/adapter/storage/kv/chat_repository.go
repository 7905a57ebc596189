package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/domain"
	"github.com/seu-repo/bloquito/internal/ports"
)

// ChatRepository keeps all sessions of a client in a single cache entry,
// a JSON object keyed by session id.
type ChatRepository struct {
	cache ports.Cache
	ttl   time.Duration
	mu    sync.Mutex
	log   *zap.Logger
}

func NewChatRepository(cache ports.Cache, ttl time.Duration, log *zap.Logger) *ChatRepository {
	return &ChatRepository{
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

func chatsKey(clientID string) string {
	return "chats:" + clientID
}

func (r *ChatRepository) load(ctx context.Context, clientID string) (map[string]*domain.ChatSession, error) {
	raw, err := r.cache.Get(ctx, chatsKey(clientID))
	if errors.Is(err, ports.ErrCacheMiss) {
		return map[string]*domain.ChatSession{}, nil
	}
	if err != nil {
		return nil, err
	}

	chats := map[string]*domain.ChatSession{}
	if err := json.Unmarshal([]byte(raw), &chats); err != nil {
		r.log.Warn("Discarding unreadable chat history",
			zap.String("client_id", clientID),
			zap.Error(err),
		)
		return map[string]*domain.ChatSession{}, nil
	}
	for id, session := range chats {
		if session == nil {
			delete(chats, id)
		}
	}
	return chats, nil
}

func (r *ChatRepository) store(ctx context.Context, clientID string, chats map[string]*domain.ChatSession) error {
	data, err := json.Marshal(chats)
	if err != nil {
		return fmt.Errorf("failed to encode chats: %w", err)
	}
	return r.cache.Set(ctx, chatsKey(clientID), string(data), r.ttl)
}

func (r *ChatRepository) Save(ctx context.Context, clientID string, session *domain.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats, err := r.load(ctx, clientID)
	if err != nil {
		return err
	}
	chats[session.ID] = session
	return r.store(ctx, clientID, chats)
}

func (r *ChatRepository) FindByID(ctx context.Context, clientID, id string) (*domain.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats, err := r.load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return chats[id], nil
}

func (r *ChatRepository) FindAll(ctx context.Context, clientID string) ([]domain.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats, err := r.load(ctx, clientID)
	if err != nil {
		return nil, err
	}

	sessions := make([]domain.ChatSession, 0, len(chats))
	for _, s := range chats {
		sessions = append(sessions, *s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (r *ChatRepository) Delete(ctx context.Context, clientID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats, err := r.load(ctx, clientID)
	if err != nil {
		return err
	}
	if _, ok := chats[id]; !ok {
		return nil
	}
	delete(chats, id)
	return r.store(ctx, clientID, chats)
}
