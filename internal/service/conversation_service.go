package service

import (
	"context"
	"fmt"

	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/repository"
)

// ConversationService finds or creates 1:1 conversations
type ConversationService interface {
	// FindOrCreate returns the conversation between the caller and otherMemberID,
	// creating it on first contact. Argument order never yields a second row.
	FindOrCreate(ctx context.Context, userID, workspaceID, otherMemberID uint64) (uint64, error)
}

type conversationService struct {
	membership    MembershipService
	members       repository.MemberRepository
	conversations repository.ConversationRepository
}

// NewConversationService creates a new ConversationService
func NewConversationService(membership MembershipService, members repository.MemberRepository, conversations repository.ConversationRepository) ConversationService {
	return &conversationService{membership: membership, members: members, conversations: conversations}
}

func (s *conversationService) FindOrCreate(ctx context.Context, userID, workspaceID, otherMemberID uint64) (uint64, error) {
	caller, err := s.membership.RequireMember(ctx, workspaceID, userID)
	if err != nil {
		return 0, err
	}

	other, err := s.members.FindByID(ctx, otherMemberID)
	if err != nil {
		return 0, err
	}
	if other == nil || other.WorkspaceID != workspaceID {
		return 0, common.ErrMemberNotFound
	}

	existing, err := s.conversations.FindByPair(ctx, workspaceID, caller.ID, other.ID)
	if err != nil {
		return 0, fmt.Errorf("find conversation: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	conv, err := s.conversations.CreateIfAbsent(ctx, domain.NewConversation(workspaceID, caller.ID, other.ID))
	if err != nil {
		return 0, fmt.Errorf("create conversation: %w", err)
	}
	return conv.ID, nil
}
