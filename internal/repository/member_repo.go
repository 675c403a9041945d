package repository

import (
	"context"
	"errors"
	"time"

	"github.com/huddlechat/huddle-backend/internal/domain"
	"gorm.io/gorm"
)

// MemberRepository workspace membership data access interface.
// Single-row lookups return nil, nil when nothing matches.
type MemberRepository interface {
	// Read operations
	FindByWorkspaceUser(ctx context.Context, workspaceID, userID uint64) (*domain.Member, error)
	FindByID(ctx context.Context, id uint64) (*domain.Member, error)
	FindByIDs(ctx context.Context, ids []uint64) (map[uint64]*domain.Member, error)
	ListWithUsers(ctx context.Context, workspaceID uint64) ([]domain.MemberWithUser, error)

	// Write operations
	Create(ctx context.Context, member *domain.Member) error
	UpdateRole(ctx context.Context, id uint64, role domain.Role) error
	// DeleteCascade removes the member, its messages, its reactions and its conversations
	DeleteCascade(ctx context.Context, member *domain.Member) error
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// FindByWorkspaceUser finds the member for a (workspace, user) pair
func (r *memberRepository) FindByWorkspaceUser(ctx context.Context, workspaceID, userID uint64) (*domain.Member, error) {
	var member domain.Member
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Take(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByID finds member by ID
func (r *memberRepository) FindByID(ctx context.Context, id uint64) (*domain.Member, error) {
	var member domain.Member
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByIDs loads members keyed by id; missing ids are absent from the map
func (r *memberRepository) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]*domain.Member, error) {
	result := make(map[uint64]*domain.Member, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var members []domain.Member
	if err := r.db.WithContext(ctx).Where("id IN ?", uniqueIDs(ids)).Find(&members).Error; err != nil {
		return nil, err
	}
	for i := range members {
		result[members[i].ID] = &members[i]
	}
	return result, nil
}

// ListWithUsers lists a workspace's members joined with their users.
// Members whose user row is missing are skipped.
func (r *memberRepository) ListWithUsers(ctx context.Context, workspaceID uint64) ([]domain.MemberWithUser, error) {
	var members []domain.Member
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("id ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}

	userIDs := make([]uint64, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}
	users, err := NewUserRepository(r.db).FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	result := make([]domain.MemberWithUser, 0, len(members))
	for _, m := range members {
		u, ok := users[m.UserID]
		if !ok {
			continue
		}
		result = append(result, domain.MemberWithUser{Member: m, User: *u})
	}
	return result, nil
}

// Create creates a new member
func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	member.CreatedAt = time.Now()
	return r.db.WithContext(ctx).Create(member).Error
}

// UpdateRole changes the member's role
func (r *memberRepository) UpdateRole(ctx context.Context, id uint64, role domain.Role) error {
	return r.db.WithContext(ctx).Model(&domain.Member{}).
		Where("id = ?", id).
		Update("role", role).Error
}

// DeleteCascade removes the member and everything it owns in one transaction
func (r *memberRepository) DeleteCascade(ctx context.Context, member *domain.Member) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 작성한 메시지 삭제
		if err := deleteMessagesWhere(tx, "member_id = ?", member.ID); err != nil {
			return err
		}

		// 남긴 반응 삭제 후 집계 재계산
		var reactions []domain.Reaction
		if err := tx.Where("member_id = ?", member.ID).Find(&reactions).Error; err != nil {
			return err
		}
		if err := tx.Where("member_id = ?", member.ID).Delete(&domain.Reaction{}).Error; err != nil {
			return err
		}
		type pair struct {
			messageID uint64
			value     string
		}
		done := make(map[pair]struct{}, len(reactions))
		for _, re := range reactions {
			p := pair{re.MessageID, re.Value}
			if _, ok := done[p]; ok {
				continue
			}
			done[p] = struct{}{}
			if err := recomputeSummary(tx, re.MessageID, re.Value); err != nil {
				return err
			}
		}

		// 참여 중인 대화와 그 메시지 삭제
		convIDs := tx.Session(&gorm.Session{NewDB: true}).
			Model(&domain.Conversation{}).
			Select("id").
			Where("first_member_id = ? OR second_member_id = ?", member.ID, member.ID)
		if err := deleteMessagesWhere(tx, "conversation_id IN (?)", convIDs); err != nil {
			return err
		}
		if err := tx.Where("first_member_id = ? OR second_member_id = ?", member.ID, member.ID).
			Delete(&domain.Conversation{}).Error; err != nil {
			return err
		}

		return tx.Delete(&domain.Member{}, member.ID).Error
	})
}
