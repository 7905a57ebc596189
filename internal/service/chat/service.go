package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/domain"
	"github.com/seu-repo/bloquito/internal/observability/telemetry"
	"github.com/seu-repo/bloquito/internal/ports"
)

const (
	// DeclinedName is stored when the user chose not to give a name.
	DeclinedName = "Usuário"
	DefaultTitle = "Nova conversa"

	DefaultTitleMaxLength = 30

	welcomeBody = "Eu sou o Bloquito, seu assistente inteligente especializado em produtos da Asthor Barden. Como posso ajudá-lo hoje?"
)

var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrEmptyMessage    = errors.New("message content is empty")
)

type Service struct {
	chats          ports.ChatRepository
	profiles       ports.ProfileRepository
	titleMaxLength int
	now            func() time.Time
	log            *zap.Logger
}

func NewService(chats ports.ChatRepository, profiles ports.ProfileRepository, titleMaxLength int, log *zap.Logger) *Service {
	if titleMaxLength <= 0 {
		titleMaxLength = DefaultTitleMaxLength
	}
	return &Service{
		chats:          chats,
		profiles:       profiles,
		titleMaxLength: titleMaxLength,
		now:            time.Now,
		log:            log,
	}
}

// Create starts a new session for the client and greets the user.
func (s *Service) Create(ctx context.Context, clientID, userName string) (*domain.ChatSession, error) {
	now := s.now()
	session := &domain.ChatSession{
		ID:        "chat_" + uuid.New().String(),
		Title:     DefaultTitle,
		Messages:  []domain.ChatMessage{},
		CreatedAt: now,
	}
	session.Messages = append(session.Messages, domain.ChatMessage{
		Content:   WelcomeMessage(userName),
		Role:      domain.RoleBot,
		Timestamp: now,
	})

	if err := s.chats.Save(ctx, clientID, session); err != nil {
		return nil, fmt.Errorf("failed to save chat session: %w", err)
	}

	s.log.Debug("Chat session created",
		zap.String("client_id", clientID),
		zap.String("session_id", session.ID),
	)
	return session, nil
}

func (s *Service) Get(ctx context.Context, clientID, id string) (*domain.ChatSession, error) {
	session, err := s.chats.FindByID(ctx, clientID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns the client's sessions, newest first.
func (s *Service) List(ctx context.Context, clientID string) ([]domain.ChatSummary, error) {
	sessions, err := s.chats.FindAll(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}

	summaries := make([]domain.ChatSummary, 0, len(sessions))
	for i := range sessions {
		summaries = append(summaries, sessions[i].Summary())
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (s *Service) Delete(ctx context.Context, clientID, id string) error {
	if err := s.chats.Delete(ctx, clientID, id); err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}
	return nil
}

// Append adds msg to the session. When the first user message lands (the
// session then holds the welcome and that message) the session is renamed
// after it; retitled reports whether that happened.
func (s *Service) Append(ctx context.Context, clientID, sessionID string, msg domain.ChatMessage) (session *domain.ChatSession, retitled bool, err error) {
	if strings.TrimSpace(msg.Content) == "" {
		return nil, false, ErrEmptyMessage
	}

	session, err = s.Get(ctx, clientID, sessionID)
	if err != nil {
		return nil, false, err
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	session.Messages = append(session.Messages, msg)

	if msg.Role == domain.RoleUser && len(session.Messages) == 2 {
		session.Title = TruncateTitle(msg.Content, s.titleMaxLength)
		retitled = true
	}

	if err := s.chats.Save(ctx, clientID, session); err != nil {
		return nil, false, fmt.Errorf("failed to save chat session: %w", err)
	}

	source := string(msg.Source)
	if source == "" {
		source = string(domain.SourceText)
	}
	telemetry.MessagesTotal.WithLabelValues(string(msg.Role), source).Inc()

	return session, retitled, nil
}

// UserName returns the stored name; ok is false when the user was never asked.
func (s *Service) UserName(ctx context.Context, clientID string) (name string, ok bool, err error) {
	name, ok, err = s.profiles.GetUserName(ctx, clientID)
	if err != nil {
		return "", false, fmt.Errorf("failed to load user name: %w", err)
	}
	return name, ok, nil
}

// SaveUserName stores the trimmed name, or DeclinedName when it is blank,
// and returns what was stored.
func (s *Service) SaveUserName(ctx context.Context, clientID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DeclinedName
	}
	if err := s.profiles.SaveUserName(ctx, clientID, name); err != nil {
		return "", fmt.Errorf("failed to save user name: %w", err)
	}
	return name, nil
}

// WelcomeMessage is the greeting that opens every session.
func WelcomeMessage(userName string) string {
	if userName == "" || userName == DeclinedName {
		return "Olá! " + welcomeBody
	}
	return "Olá, " + userName + "! " + welcomeBody
}

// Salutation is what replaces {userName} in responses: ", Name", or nothing
// when the user has no name.
func Salutation(userName string) string {
	if userName == "" || userName == DeclinedName {
		return ""
	}
	return ", " + userName
}

// TruncateTitle cuts text to max runes and appends "..." when it was longer.
func TruncateTitle(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max]) + "..."
}
