package service

import (
	"context"
	"fmt"

	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/repository"
)

// ChannelService manages workspace channels. Writes require the admin role.
type ChannelService interface {
	Create(ctx context.Context, userID, workspaceID uint64, name string) (uint64, error)
	Update(ctx context.Context, userID, channelID uint64, name string) (uint64, error)
	Remove(ctx context.Context, userID, channelID uint64) (uint64, error)
	GetByID(ctx context.Context, userID, channelID uint64) (*domain.Channel, error)
	List(ctx context.Context, userID, workspaceID uint64) ([]domain.Channel, error)
}

type channelService struct {
	membership MembershipService
	channels   repository.ChannelRepository
}

// NewChannelService creates a new ChannelService
func NewChannelService(membership MembershipService, channels repository.ChannelRepository) ChannelService {
	return &channelService{membership: membership, channels: channels}
}

func (s *channelService) Create(ctx context.Context, userID, workspaceID uint64, name string) (uint64, error) {
	slug := domain.ChannelSlug(name)
	if slug == "" || slug == "-" {
		return 0, fmt.Errorf("%w: channel name", common.ErrInvalidInput)
	}
	if _, err := s.membership.RequireAdmin(ctx, workspaceID, userID); err != nil {
		return 0, err
	}

	channel := &domain.Channel{WorkspaceID: workspaceID, Name: slug}
	if err := s.channels.Create(ctx, channel); err != nil {
		return 0, fmt.Errorf("create channel: %w", err)
	}
	return channel.ID, nil
}

func (s *channelService) Update(ctx context.Context, userID, channelID uint64, name string) (uint64, error) {
	slug := domain.ChannelSlug(name)
	if slug == "" || slug == "-" {
		return 0, fmt.Errorf("%w: channel name", common.ErrInvalidInput)
	}
	channel, err := s.adminChannel(ctx, userID, channelID)
	if err != nil {
		return 0, err
	}
	if err := s.channels.UpdateName(ctx, channel.ID, slug); err != nil {
		return 0, fmt.Errorf("update channel: %w", err)
	}
	return channel.ID, nil
}

func (s *channelService) Remove(ctx context.Context, userID, channelID uint64) (uint64, error) {
	channel, err := s.adminChannel(ctx, userID, channelID)
	if err != nil {
		return 0, err
	}
	if err := s.channels.DeleteCascade(ctx, channel.ID); err != nil {
		return 0, fmt.Errorf("remove channel: %w", err)
	}
	return channel.ID, nil
}

// GetByID returns the channel when the caller is a member of its workspace, otherwise nil
func (s *channelService) GetByID(ctx context.Context, userID, channelID uint64) (*domain.Channel, error) {
	channel, err := s.channels.FindByID(ctx, channelID)
	if err != nil || channel == nil {
		return nil, err
	}
	member, err := s.membership.Resolve(ctx, channel.WorkspaceID, userID)
	if err != nil || member == nil {
		return nil, err
	}
	return channel, nil
}

// List returns the workspace's channels, or an empty list for non-members
func (s *channelService) List(ctx context.Context, userID, workspaceID uint64) ([]domain.Channel, error) {
	member, err := s.membership.Resolve(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return []domain.Channel{}, nil
	}
	return s.channels.ListByWorkspace(ctx, workspaceID)
}

func (s *channelService) adminChannel(ctx context.Context, userID, channelID uint64) (*domain.Channel, error) {
	channel, err := s.channels.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, common.ErrChannelNotFound
	}
	if _, err := s.membership.RequireAdmin(ctx, channel.WorkspaceID, userID); err != nil {
		return nil, err
	}
	return channel, nil
}
