package kv

import (
	"context"
	"errors"

	"github.com/seu-repo/bloquito/internal/ports"
)

type ProfileRepository struct {
	cache ports.Cache
}

func NewProfileRepository(cache ports.Cache) *ProfileRepository {
	return &ProfileRepository{cache: cache}
}

func userNameKey(clientID string) string {
	return "user_name:" + clientID
}

func (r *ProfileRepository) GetUserName(ctx context.Context, clientID string) (string, bool, error) {
	name, err := r.cache.Get(ctx, userNameKey(clientID))
	if errors.Is(err, ports.ErrCacheMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

// SaveUserName never expires; the name outlives the chat history.
func (r *ProfileRepository) SaveUserName(ctx context.Context, clientID, name string) error {
	return r.cache.Set(ctx, userNameKey(clientID), name, 0)
}
