package repository

import (
	"fmt"

	"gorm.io/gorm"

	"pipeline-expert/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *model.ChatMessage) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create chat message failed: %w", err)
	}
	return nil
}

// ListBySessionID returns a session's messages in chronological replay order.
func (r *MessageRepository) ListBySessionID(sessionID string) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	if err := r.db.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list session messages failed: %w", err)
	}
	return messages, nil
}

// ListSessionHeads scans all messages newest-first with the owning user's
// public fields joined in. One row per message; deduplication by session id
// happens in the service layer.
func (r *MessageRepository) ListSessionHeads() ([]model.SessionHead, error) {
	var heads []model.SessionHead
	err := r.db.Model(&model.ChatMessage{}).
		Select("chat_messages.session_id, chat_messages.created_at, users.id AS user_id, users.username, users.display_name").
		Joins("LEFT JOIN users ON users.id = chat_messages.user_id").
		Order("chat_messages.created_at DESC").
		Scan(&heads).Error
	if err != nil {
		return nil, fmt.Errorf("list session heads failed: %w", err)
	}
	return heads, nil
}

func (r *MessageRepository) ListSessionHeadsByUserID(userID string) ([]model.SessionHead, error) {
	var heads []model.SessionHead
	err := r.db.Model(&model.ChatMessage{}).
		Select("chat_messages.session_id, chat_messages.created_at").
		Where("chat_messages.user_id = ?", userID).
		Order("chat_messages.created_at DESC").
		Scan(&heads).Error
	if err != nil {
		return nil, fmt.Errorf("list user session heads failed: %w", err)
	}
	return heads, nil
}
