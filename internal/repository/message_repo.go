package repository

import (
	"context"
	"errors"
	"time"

	"github.com/huddlechat/huddle-backend/internal/domain"
	"gorm.io/gorm"
)

// ThreadStat is the reply count and newest reply id under one parent message
type ThreadStat struct {
	ParentMessageID uint64 `gorm:"column:parent_message_id"`
	Count           int64  `gorm:"column:reply_count"`
	LastID          uint64 `gorm:"column:last_id"`
}

// MessageRepository message data access interface
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// FindByID returns nil, nil when the message does not exist
	FindByID(ctx context.Context, id uint64) (*domain.Message, error)
	FindByIDs(ctx context.Context, ids []uint64) (map[uint64]*domain.Message, error)
	UpdateBody(ctx context.Context, id uint64, body string, at time.Time) error
	// DeleteWithReactions hard-deletes the message with its reactions and summaries.
	// Replies in its thread are kept.
	DeleteWithReactions(ctx context.Context, id uint64) error

	// ListByScope returns up to limit messages matching the scope tuple exactly,
	// newest first, with id < beforeID when beforeID is non-zero.
	ListByScope(ctx context.Context, scope domain.Scope, beforeID uint64, limit int) ([]domain.Message, error)
	// ThreadStats groups replies by parent for the given parent ids
	ThreadStats(ctx context.Context, parentIDs []uint64) (map[uint64]ThreadStat, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create inserts a message with created_at == updated_at
func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	now := time.Now()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id uint64) (*domain.Message, error) {
	var msg domain.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]*domain.Message, error) {
	result := make(map[uint64]*domain.Message, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var messages []domain.Message
	if err := r.db.WithContext(ctx).Where("id IN ?", uniqueIDs(ids)).Find(&messages).Error; err != nil {
		return nil, err
	}
	for i := range messages {
		result[messages[i].ID] = &messages[i]
	}
	return result, nil
}

func (r *messageRepository) UpdateBody(ctx context.Context, id uint64, body string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"body":       body,
			"updated_at": at,
		}).Error
}

func (r *messageRepository) DeleteWithReactions(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteMessagesWhere(tx, "id = ?", id)
	})
}

func (r *messageRepository) ListByScope(ctx context.Context, scope domain.Scope, beforeID uint64, limit int) ([]domain.Message, error) {
	query := scopeWhere(r.db.WithContext(ctx).Model(&domain.Message{}), scope)
	if beforeID > 0 {
		query = query.Where("id < ?", beforeID)
	}

	messages := []domain.Message{}
	err := query.Order("id DESC").Limit(limit).Find(&messages).Error
	return messages, err
}

func (r *messageRepository) ThreadStats(ctx context.Context, parentIDs []uint64) (map[uint64]ThreadStat, error) {
	result := make(map[uint64]ThreadStat, len(parentIDs))
	if len(parentIDs) == 0 {
		return result, nil
	}

	var stats []ThreadStat
	if err := r.db.WithContext(ctx).Model(&domain.Message{}).
		Select("parent_message_id, COUNT(*) AS reply_count, MAX(id) AS last_id").
		Where("parent_message_id IN ?", uniqueIDs(parentIDs)).
		Group("parent_message_id").
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	for _, s := range stats {
		result[s.ParentMessageID] = s
	}
	return result, nil
}

// scopeWhere matches every scoping column exactly; an absent field only matches NULL
func scopeWhere(db *gorm.DB, scope domain.Scope) *gorm.DB {
	columns := []struct {
		name  string
		value *uint64
	}{
		{"channel_id", scope.ChannelID},
		{"parent_message_id", scope.ParentMessageID},
		{"conversation_id", scope.ConversationID},
	}
	for _, col := range columns {
		if col.value == nil {
			db = db.Where(col.name + " IS NULL")
		} else {
			db = db.Where(col.name+" = ?", *col.value)
		}
	}
	return db
}
