package ports

import (
	"context"

	"github.com/seu-repo/bloquito/internal/domain"
)

// ChatRepository persists chat sessions per client. FindByID returns
// (nil, nil) when the session does not exist.
type ChatRepository interface {
	Save(ctx context.Context, clientID string, session *domain.ChatSession) error
	FindByID(ctx context.Context, clientID, id string) (*domain.ChatSession, error)
	FindAll(ctx context.Context, clientID string) ([]domain.ChatSession, error)
	Delete(ctx context.Context, clientID, id string) error
}

// ProfileRepository stores the name a client chose. The boolean is false
// when no name was ever saved.
type ProfileRepository interface {
	GetUserName(ctx context.Context, clientID string) (string, bool, error)
	SaveUserName(ctx context.Context, clientID, name string) error
}
