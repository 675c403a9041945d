package repository

import (
	"context"
	"errors"
	"time"

	"github.com/huddlechat/huddle-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConversationRepository direct-message conversation data access interface
type ConversationRepository interface {
	FindByID(ctx context.Context, id uint64) (*domain.Conversation, error)
	// FindByPair matches the unordered member pair
	FindByPair(ctx context.Context, workspaceID, memberA, memberB uint64) (*domain.Conversation, error)
	// CreateIfAbsent inserts conv unless the pair already has a conversation,
	// and returns whichever row won.
	CreateIfAbsent(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, error)
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) FindByID(ctx context.Context, id uint64) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) FindByPair(ctx context.Context, workspaceID, memberA, memberB uint64) (*domain.Conversation, error) {
	low, high := domain.CanonicalPair(memberA, memberB)

	var conv domain.Conversation
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND member_low_id = ? AND member_high_id = ?", workspaceID, low, high).
		Take(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) CreateIfAbsent(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, error) {
	conv.CreatedAt = time.Now()
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "member_low_id"}, {Name: "member_high_id"}},
		DoNothing: true,
	}).Create(conv)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 1 && conv.ID != 0 {
		return conv, nil
	}

	// lost the race: read the row the other writer inserted
	existing, err := r.FindByPair(ctx, conv.WorkspaceID, conv.MemberLowID, conv.MemberHighID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return existing, nil
}
