package repository

import (
	"context"
	"errors"
	"time"

	"github.com/huddlechat/huddle-backend/internal/domain"
	"gorm.io/gorm"
)

// DefaultChannelName is the channel every new workspace starts with
const DefaultChannelName = "general"

// WorkspaceRepository workspace data access interface
type WorkspaceRepository interface {
	// CreateWithAdmin creates the workspace, its admin member and the default channel
	CreateWithAdmin(ctx context.Context, ws *domain.Workspace) error
	FindByID(ctx context.Context, id uint64) (*domain.Workspace, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]domain.Workspace, error)
	ListByUser(ctx context.Context, userID uint64) ([]domain.Workspace, error)
	UpdateName(ctx context.Context, id uint64, name string) error
	UpdateJoinCode(ctx context.Context, id uint64, code string) error
	// DeleteCascade removes the workspace and every row scoped to it
	DeleteCascade(ctx context.Context, id uint64) error
}

type workspaceRepository struct {
	db *gorm.DB
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &workspaceRepository{db: db}
}

func (r *workspaceRepository) CreateWithAdmin(ctx context.Context, ws *domain.Workspace) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		ws.CreatedAt = now
		if err := tx.Create(ws).Error; err != nil {
			return err
		}
		admin := &domain.Member{
			WorkspaceID: ws.ID,
			UserID:      ws.UserID,
			Role:        domain.RoleAdmin,
			CreatedAt:   now,
		}
		if err := tx.Create(admin).Error; err != nil {
			return err
		}
		return tx.Create(&domain.Channel{
			WorkspaceID: ws.ID,
			Name:        DefaultChannelName,
			CreatedAt:   now,
		}).Error
	})
}

func (r *workspaceRepository) FindByID(ctx context.Context, id uint64) (*domain.Workspace, error) {
	var ws domain.Workspace
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&ws).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (r *workspaceRepository) FindByIDs(ctx context.Context, ids []uint64) ([]domain.Workspace, error) {
	workspaces := []domain.Workspace{}
	if len(ids) == 0 {
		return workspaces, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", uniqueIDs(ids)).Order("id ASC").Find(&workspaces).Error
	return workspaces, err
}

// ListByUser lists the workspaces the user is a member of
func (r *workspaceRepository) ListByUser(ctx context.Context, userID uint64) ([]domain.Workspace, error) {
	workspaces := []domain.Workspace{}
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&domain.Member{}).Select("workspace_id").Where("user_id = ?", userID)).
		Order("id ASC").
		Find(&workspaces).Error
	return workspaces, err
}

func (r *workspaceRepository) UpdateName(ctx context.Context, id uint64, name string) error {
	return r.db.WithContext(ctx).Model(&domain.Workspace{}).Where("id = ?", id).Update("name", name).Error
}

func (r *workspaceRepository) UpdateJoinCode(ctx context.Context, id uint64, code string) error {
	return r.db.WithContext(ctx).Model(&domain.Workspace{}).Where("id = ?", id).Update("join_code", code).Error
}

func (r *workspaceRepository) DeleteCascade(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteMessagesWhere(tx, "workspace_id = ?", id); err != nil {
			return err
		}
		// reactions left on messages that were already gone
		if err := tx.Where("workspace_id = ?", id).Delete(&domain.Reaction{}).Error; err != nil {
			return err
		}
		for _, model := range []interface{}{&domain.Conversation{}, &domain.Channel{}, &domain.Member{}} {
			if err := tx.Where("workspace_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&domain.Workspace{}, id).Error
	})
}
