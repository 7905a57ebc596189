package mocks

import (
	"context"
	"sort"

	"github.com/seu-repo/bloquito/internal/domain"
)

// MockChatRepository is an in-memory implementation of ChatRepository interface
type MockChatRepository struct {
	chats        map[string]map[string]*domain.ChatSession
	SaveFunc     func(ctx context.Context, clientID string, session *domain.ChatSession) error
	FindByIDFunc func(ctx context.Context, clientID, id string) (*domain.ChatSession, error)
	FindAllFunc  func(ctx context.Context, clientID string) ([]domain.ChatSession, error)
	DeleteFunc   func(ctx context.Context, clientID, id string) error
}

func NewMockChatRepository() *MockChatRepository {
	return &MockChatRepository{
		chats: make(map[string]map[string]*domain.ChatSession),
	}
}

func (m *MockChatRepository) Save(ctx context.Context, clientID string, session *domain.ChatSession) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, clientID, session)
	}
	if m.chats[clientID] == nil {
		m.chats[clientID] = make(map[string]*domain.ChatSession)
	}
	stored := *session
	stored.Messages = append([]domain.ChatMessage(nil), session.Messages...)
	m.chats[clientID][session.ID] = &stored
	return nil
}

func (m *MockChatRepository) FindByID(ctx context.Context, clientID, id string) (*domain.ChatSession, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, clientID, id)
	}
	stored, ok := m.chats[clientID][id]
	if !ok {
		return nil, nil
	}
	session := *stored
	session.Messages = append([]domain.ChatMessage(nil), stored.Messages...)
	return &session, nil
}

func (m *MockChatRepository) FindAll(ctx context.Context, clientID string) ([]domain.ChatSession, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx, clientID)
	}
	sessions := make([]domain.ChatSession, 0, len(m.chats[clientID]))
	for _, s := range m.chats[clientID] {
		sessions = append(sessions, *s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (m *MockChatRepository) Delete(ctx context.Context, clientID, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, clientID, id)
	}
	delete(m.chats[clientID], id)
	return nil
}

// MockProfileRepository is an in-memory implementation of ProfileRepository interface
type MockProfileRepository struct {
	names            map[string]string
	GetUserNameFunc  func(ctx context.Context, clientID string) (string, bool, error)
	SaveUserNameFunc func(ctx context.Context, clientID, name string) error
}

func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{
		names: make(map[string]string),
	}
}

func (m *MockProfileRepository) GetUserName(ctx context.Context, clientID string) (string, bool, error) {
	if m.GetUserNameFunc != nil {
		return m.GetUserNameFunc(ctx, clientID)
	}
	name, ok := m.names[clientID]
	return name, ok, nil
}

func (m *MockProfileRepository) SaveUserName(ctx context.Context, clientID, name string) error {
	if m.SaveUserNameFunc != nil {
		return m.SaveUserNameFunc(ctx, clientID, name)
	}
	m.names[clientID] = name
	return nil
}
