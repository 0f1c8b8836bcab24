// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for chat
// messages and the participant index of conversations.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-intranet-backend/internal/domain"
)

// CreateChatMessage inserts m and registers its participants under the
// conversation key. Registration is idempotent.
func CreateChatMessage(ctx context.Context, db *gorm.DB, m domain.ChatMessage) (*domain.ChatMessage, error) {
	now := time.Now().UTC()
	m.ID = uuid.NewString()
	m.CreatedAt, m.UpdatedAt = now, now
	if err := db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}

	rows := make([]domain.ChatParticipant, 0, len(m.ParticipantIDs))
	for _, id := range m.ParticipantIDs {
		rows = append(rows, domain.ChatParticipant{ConversationKey: m.ConversationKey, AccountID: id, CreatedAt: now})
	}
	if len(rows) > 0 {
		err := db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&rows).Error
		if err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// GetChatMessage fetches a message by id.
func GetChatMessage(ctx context.Context, db *gorm.DB, id string) (*domain.ChatMessage, error) {
	var m domain.ChatMessage
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// CountConversationMessages returns the number of messages under key.
func CountConversationMessages(ctx context.Context, db *gorm.DB, key string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ChatMessage{}).
		Where("conversation_key = ?", key).
		Count(&total).Error
	return total, err
}

// ListConversationPage returns messages ordered deterministically
// (CreatedAt ASC, ID ASC).
func ListConversationPage(ctx context.Context, db *gorm.DB, key string, offset, limit int) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	err := db.WithContext(ctx).
		Where("conversation_key = ?", key).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListConversationKeys returns the keys of conversations accountID takes
// part in.
func ListConversationKeys(ctx context.Context, db *gorm.DB, accountID string) ([]string, error) {
	var keys []string
	err := db.WithContext(ctx).
		Model(&domain.ChatParticipant{}).
		Where("account_id = ?", accountID).
		Order("conversation_key asc").
		Pluck("conversation_key", &keys).Error
	return keys, err
}

// LastConversationMessage returns the newest message under key.
func LastConversationMessage(ctx context.Context, db *gorm.DB, key string) (*domain.ChatMessage, error) {
	var m domain.ChatMessage
	err := db.WithContext(ctx).
		Where("conversation_key = ?", key).
		Order("created_at DESC, id DESC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteChatMessage removes message id when it was sent by senderID.
func DeleteChatMessage(ctx context.Context, db *gorm.DB, id, senderID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND sender_id = ?", id, senderID).
		Delete(&domain.ChatMessage{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
