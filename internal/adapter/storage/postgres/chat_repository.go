package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seu-repo/bloquito/internal/domain"
)

type chatSessionModel struct {
	ID        string               `gorm:"primaryKey;size:64"`
	ClientID  string               `gorm:"index;size:128;not null"`
	Title     string               `gorm:"not null"`
	Messages  []domain.ChatMessage `gorm:"serializer:json;type:jsonb"`
	CreatedAt time.Time            `gorm:"index"`
	UpdatedAt time.Time
}

func (chatSessionModel) TableName() string {
	return "chat_sessions"
}

func (m chatSessionModel) toDomain() *domain.ChatSession {
	messages := m.Messages
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	return &domain.ChatSession{
		ID:        m.ID,
		Title:     m.Title,
		Messages:  messages,
		CreatedAt: m.CreatedAt,
	}
}

type clientProfileModel struct {
	ClientID  string `gorm:"primaryKey;size:128"`
	UserName  string `gorm:"not null"`
	UpdatedAt time.Time
}

func (clientProfileModel) TableName() string {
	return "client_profiles"
}

type ChatRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewChatRepository(db *gorm.DB, log *zap.Logger) *ChatRepository {
	return &ChatRepository{
		db:  db,
		log: log,
	}
}

func (r *ChatRepository) Save(ctx context.Context, clientID string, session *domain.ChatSession) error {
	model := chatSessionModel{
		ID:        session.ID,
		ClientID:  clientID,
		Title:     session.Title,
		Messages:  session.Messages,
		CreatedAt: session.CreatedAt,
	}
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *ChatRepository) FindByID(ctx context.Context, clientID, id string) (*domain.ChatSession, error) {
	var model chatSessionModel
	err := r.db.WithContext(ctx).First(&model, "id = ? AND client_id = ?", id, clientID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.toDomain(), nil
}

func (r *ChatRepository) FindAll(ctx context.Context, clientID string) ([]domain.ChatSession, error) {
	var models []chatSessionModel
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	sessions := make([]domain.ChatSession, 0, len(models))
	for _, m := range models {
		sessions = append(sessions, *m.toDomain())
	}
	return sessions, nil
}

func (r *ChatRepository) Delete(ctx context.Context, clientID, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND client_id = ?", id, clientID).
		Delete(&chatSessionModel{}).Error
}

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetUserName(ctx context.Context, clientID string) (string, bool, error) {
	var model clientProfileModel
	err := r.db.WithContext(ctx).First(&model, "client_id = ?", clientID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return model.UserName, true, nil
}

func (r *ProfileRepository) SaveUserName(ctx context.Context, clientID, name string) error {
	model := clientProfileModel{ClientID: clientID, UserName: name}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_name", "updated_at"}),
	}).Create(&model).Error
}
