package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/repository"
	"github.com/huddlechat/huddle-backend/pkg/cache"
	"github.com/huddlechat/huddle-backend/pkg/logger"
)

// MembershipService resolves a user's membership in a workspace and manages members.
// Resolve is the gate every other service goes through.
type MembershipService interface {
	// Resolve returns nil, nil when the user is not a member
	Resolve(ctx context.Context, workspaceID, userID uint64) (*domain.Member, error)
	// RequireMember turns absence into ErrUnauthorized
	RequireMember(ctx context.Context, workspaceID, userID uint64) (*domain.Member, error)
	// RequireAdmin additionally requires the admin role
	RequireAdmin(ctx context.Context, workspaceID, userID uint64) (*domain.Member, error)

	Current(ctx context.Context, userID, workspaceID uint64) (*domain.Member, error)
	GetByID(ctx context.Context, userID, memberID uint64) (*domain.MemberWithUser, error)
	List(ctx context.Context, userID, workspaceID uint64) ([]domain.MemberWithUser, error)
	UpdateRole(ctx context.Context, userID, memberID uint64, role domain.Role) (uint64, error)
	Remove(ctx context.Context, userID, memberID uint64) (uint64, error)
}

type membershipService struct {
	members repository.MemberRepository
	users   repository.UserRepository
	cache   cache.Service
}

// NewMembershipService creates a new MembershipService. cacheSvc may be a no-op cache.
func NewMembershipService(members repository.MemberRepository, users repository.UserRepository, cacheSvc cache.Service) MembershipService {
	if cacheSvc == nil {
		cacheSvc = cache.NewService(nil)
	}
	return &membershipService{members: members, users: users, cache: cacheSvc}
}

func (s *membershipService) Resolve(ctx context.Context, workspaceID, userID uint64) (*domain.Member, error) {
	key := s.cache.MemberKey(workspaceID, userID)

	var cached domain.Member
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		logger.GetLogger().Warn().Err(err).Str("key", key).Msg("membership cache read failed")
	}

	member, err := s.members.FindByWorkspaceUser(ctx, workspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve member: %w", err)
	}
	if member == nil {
		return nil, nil
	}

	if err := s.cache.Set(ctx, key, member, cache.TTLMember); err != nil {
		logger.GetLogger().Warn().Err(err).Str("key", key).Msg("membership cache write failed")
	}
	return member, nil
}

func (s *membershipService) RequireMember(ctx context.Context, workspaceID, userID uint64) (*domain.Member, error) {
	member, err := s.Resolve(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, common.ErrUnauthorized
	}
	return member, nil
}

func (s *membershipService) RequireAdmin(ctx context.Context, workspaceID, userID uint64) (*domain.Member, error) {
	member, err := s.RequireMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if !member.IsAdmin() {
		return nil, common.ErrUnauthorized
	}
	return member, nil
}

// Current returns the caller's own member, or nil
func (s *membershipService) Current(ctx context.Context, userID, workspaceID uint64) (*domain.Member, error) {
	return s.Resolve(ctx, workspaceID, userID)
}

// GetByID returns the member with its user when the caller shares the workspace, otherwise nil
func (s *membershipService) GetByID(ctx context.Context, userID, memberID uint64) (*domain.MemberWithUser, error) {
	target, err := s.members.FindByID(ctx, memberID)
	if err != nil || target == nil {
		return nil, err
	}
	caller, err := s.Resolve(ctx, target.WorkspaceID, userID)
	if err != nil || caller == nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, target.UserID)
	if err != nil || user == nil {
		return nil, err
	}
	return &domain.MemberWithUser{Member: *target, User: *user}, nil
}

// List returns the workspace's members, or an empty list for non-members
func (s *membershipService) List(ctx context.Context, userID, workspaceID uint64) ([]domain.MemberWithUser, error) {
	caller, err := s.Resolve(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		return []domain.MemberWithUser{}, nil
	}
	return s.members.ListWithUsers(ctx, workspaceID)
}

func (s *membershipService) UpdateRole(ctx context.Context, userID, memberID uint64, role domain.Role) (uint64, error) {
	if !role.Valid() {
		return 0, fmt.Errorf("%w: unknown role %q", common.ErrInvalidInput, role)
	}
	target, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return 0, err
	}
	if target == nil {
		return 0, common.ErrMemberNotFound
	}
	if _, err := s.RequireAdmin(ctx, target.WorkspaceID, userID); err != nil {
		return 0, err
	}

	if err := s.members.UpdateRole(ctx, memberID, role); err != nil {
		return 0, fmt.Errorf("update role: %w", err)
	}
	s.invalidate(ctx, target)
	return memberID, nil
}

// Remove deletes a member. Admin members cannot be removed; a member may
// remove itself, removing anyone else requires the admin role.
func (s *membershipService) Remove(ctx context.Context, userID, memberID uint64) (uint64, error) {
	target, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return 0, err
	}
	if target == nil {
		return 0, common.ErrMemberNotFound
	}
	caller, err := s.RequireMember(ctx, target.WorkspaceID, userID)
	if err != nil {
		return 0, err
	}

	self := caller.ID == target.ID
	switch {
	case self && caller.IsAdmin():
		return 0, common.ErrAdminCannotLeave
	case target.IsAdmin():
		return 0, common.ErrAdminCannotBeRemoved
	case !self && !caller.IsAdmin():
		return 0, common.ErrUnauthorized
	}

	if err := s.members.DeleteCascade(ctx, target); err != nil {
		return 0, fmt.Errorf("remove member: %w", err)
	}
	s.invalidate(ctx, target)
	return memberID, nil
}

func (s *membershipService) invalidate(ctx context.Context, m *domain.Member) {
	if err := s.cache.InvalidateMember(ctx, m.WorkspaceID, m.UserID); err != nil {
		logger.GetLogger().Warn().Err(err).Uint64("member_id", m.ID).Msg("membership cache invalidate failed")
	}
}
