package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/repository"
	"github.com/huddlechat/huddle-backend/pkg/cache"
	"github.com/huddlechat/huddle-backend/pkg/logger"
)

const (
	joinCodeLength   = 6
	joinCodeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// WorkspaceService manages workspaces and joining them by code
type WorkspaceService interface {
	Create(ctx context.Context, userID uint64, name string) (uint64, error)
	List(ctx context.Context, userID uint64) ([]domain.Workspace, error)
	GetByID(ctx context.Context, userID, workspaceID uint64) (*domain.Workspace, error)
	GetInfo(ctx context.Context, userID, workspaceID uint64) (*domain.WorkspaceInfo, error)
	Update(ctx context.Context, userID, workspaceID uint64, name string) (uint64, error)
	Remove(ctx context.Context, userID, workspaceID uint64) (uint64, error)
	NewJoinCode(ctx context.Context, userID, workspaceID uint64) (uint64, error)
	Join(ctx context.Context, userID, workspaceID uint64, joinCode string) (uint64, error)
}

type workspaceService struct {
	membership MembershipService
	workspaces repository.WorkspaceRepository
	members    repository.MemberRepository
	cache      cache.Service
}

// NewWorkspaceService creates a new WorkspaceService
func NewWorkspaceService(membership MembershipService, workspaces repository.WorkspaceRepository, members repository.MemberRepository, cacheSvc cache.Service) WorkspaceService {
	if cacheSvc == nil {
		cacheSvc = cache.NewService(nil)
	}
	return &workspaceService{membership: membership, workspaces: workspaces, members: members, cache: cacheSvc}
}

// Create makes the caller admin of a new workspace with a general channel
func (s *workspaceService) Create(ctx context.Context, userID uint64, name string) (uint64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: workspace name", common.ErrInvalidInput)
	}
	code, err := generateJoinCode()
	if err != nil {
		return 0, err
	}

	ws := &domain.Workspace{Name: name, UserID: userID, JoinCode: code}
	if err := s.workspaces.CreateWithAdmin(ctx, ws); err != nil {
		return 0, fmt.Errorf("create workspace: %w", err)
	}
	return ws.ID, nil
}

func (s *workspaceService) List(ctx context.Context, userID uint64) ([]domain.Workspace, error) {
	return s.workspaces.ListByUser(ctx, userID)
}

// GetByID returns the workspace to its members, otherwise nil
func (s *workspaceService) GetByID(ctx context.Context, userID, workspaceID uint64) (*domain.Workspace, error) {
	member, err := s.membership.Resolve(ctx, workspaceID, userID)
	if err != nil || member == nil {
		return nil, err
	}
	return s.workspaces.FindByID(ctx, workspaceID)
}

// GetInfo is the public view shown on the join screen
func (s *workspaceService) GetInfo(ctx context.Context, userID, workspaceID uint64) (*domain.WorkspaceInfo, error) {
	ws, err := s.workspaces.FindByID(ctx, workspaceID)
	if err != nil || ws == nil {
		return nil, err
	}
	member, err := s.membership.Resolve(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	return &domain.WorkspaceInfo{Name: ws.Name, IsMember: member != nil}, nil
}

func (s *workspaceService) Update(ctx context.Context, userID, workspaceID uint64, name string) (uint64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: workspace name", common.ErrInvalidInput)
	}
	if _, err := s.membership.RequireAdmin(ctx, workspaceID, userID); err != nil {
		return 0, err
	}
	if err := s.workspaces.UpdateName(ctx, workspaceID, name); err != nil {
		return 0, fmt.Errorf("update workspace: %w", err)
	}
	return workspaceID, nil
}

func (s *workspaceService) Remove(ctx context.Context, userID, workspaceID uint64) (uint64, error) {
	if _, err := s.membership.RequireAdmin(ctx, workspaceID, userID); err != nil {
		return 0, err
	}
	if err := s.workspaces.DeleteCascade(ctx, workspaceID); err != nil {
		return 0, fmt.Errorf("remove workspace: %w", err)
	}
	if err := s.cache.InvalidateWorkspaceMembers(ctx, workspaceID); err != nil {
		logger.GetLogger().Warn().Err(err).Uint64("workspace_id", workspaceID).Msg("membership cache invalidate failed")
	}
	return workspaceID, nil
}

func (s *workspaceService) NewJoinCode(ctx context.Context, userID, workspaceID uint64) (uint64, error) {
	if _, err := s.membership.RequireAdmin(ctx, workspaceID, userID); err != nil {
		return 0, err
	}
	code, err := generateJoinCode()
	if err != nil {
		return 0, err
	}
	if err := s.workspaces.UpdateJoinCode(ctx, workspaceID, code); err != nil {
		return 0, fmt.Errorf("update join code: %w", err)
	}
	return workspaceID, nil
}

// Join adds the caller as a plain member when the code matches (case-insensitive)
func (s *workspaceService) Join(ctx context.Context, userID, workspaceID uint64, joinCode string) (uint64, error) {
	ws, err := s.workspaces.FindByID(ctx, workspaceID)
	if err != nil {
		return 0, err
	}
	if ws == nil {
		return 0, common.ErrWorkspaceNotFound
	}
	if !strings.EqualFold(strings.TrimSpace(joinCode), ws.JoinCode) {
		return 0, common.ErrInvalidJoinCode
	}

	existing, err := s.membership.Resolve(ctx, workspaceID, userID)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, common.ErrAlreadyMember
	}

	if err := s.members.Create(ctx, &domain.Member{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        domain.RoleMember,
	}); err != nil {
		return 0, fmt.Errorf("join workspace: %w", err)
	}
	return workspaceID, nil
}

func generateJoinCode() (string, error) {
	var sb strings.Builder
	alphabetSize := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := 0; i < joinCodeLength; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("generate join code: %w", err)
		}
		sb.WriteByte(joinCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}
