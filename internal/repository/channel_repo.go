package repository

import (
	"context"
	"errors"
	"time"

	"github.com/huddlechat/huddle-backend/internal/domain"
	"gorm.io/gorm"
)

// ChannelRepository channel data access interface
type ChannelRepository interface {
	Create(ctx context.Context, channel *domain.Channel) error
	FindByID(ctx context.Context, id uint64) (*domain.Channel, error)
	ListByWorkspace(ctx context.Context, workspaceID uint64) ([]domain.Channel, error)
	UpdateName(ctx context.Context, id uint64, name string) error
	// DeleteCascade removes the channel and its messages, thread replies included
	DeleteCascade(ctx context.Context, id uint64) error
}

type channelRepository struct {
	db *gorm.DB
}

// NewChannelRepository creates a new ChannelRepository
func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &channelRepository{db: db}
}

func (r *channelRepository) Create(ctx context.Context, channel *domain.Channel) error {
	channel.CreatedAt = time.Now()
	return r.db.WithContext(ctx).Create(channel).Error
}

func (r *channelRepository) FindByID(ctx context.Context, id uint64) (*domain.Channel, error) {
	var channel domain.Channel
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&channel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *channelRepository) ListByWorkspace(ctx context.Context, workspaceID uint64) ([]domain.Channel, error) {
	channels := []domain.Channel{}
	err := r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).Order("id ASC").Find(&channels).Error
	return channels, err
}

func (r *channelRepository) UpdateName(ctx context.Context, id uint64, name string) error {
	return r.db.WithContext(ctx).Model(&domain.Channel{}).Where("id = ?", id).Update("name", name).Error
}

func (r *channelRepository) DeleteCascade(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteMessagesWhere(tx, "channel_id = ?", id); err != nil {
			return err
		}
		return tx.Delete(&domain.Channel{}, id).Error
	})
}
