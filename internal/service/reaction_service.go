package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/metrics"
	"github.com/huddlechat/huddle-backend/internal/repository"
	"github.com/huddlechat/huddle-backend/pkg/logger"
)

const maxReactionLength = 64

// ReactionService toggles reactions on messages
type ReactionService interface {
	// Toggle adds the caller's reaction with value, or removes it if present.
	// It returns the id of the reaction row that was added or removed.
	Toggle(ctx context.Context, userID, messageID uint64, value string) (uint64, error)
}

type reactionService struct {
	membership MembershipService
	messages   repository.MessageRepository
	reactions  repository.ReactionRepository
	publisher  Publisher
}

// NewReactionService creates a new ReactionService
func NewReactionService(membership MembershipService, messages repository.MessageRepository, reactions repository.ReactionRepository, publisher Publisher) ReactionService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &reactionService{membership: membership, messages: messages, reactions: reactions, publisher: publisher}
}

func (s *reactionService) Toggle(ctx context.Context, userID, messageID uint64, value string) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" || utf8.RuneCountInString(value) > maxReactionLength {
		return 0, fmt.Errorf("%w: reaction value", common.ErrInvalidInput)
	}

	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return 0, err
	}
	if msg == nil {
		return 0, common.ErrMessageNotFound
	}
	member, err := s.membership.RequireMember(ctx, msg.WorkspaceID, userID)
	if err != nil {
		return 0, err
	}

	id, removed, err := s.reactions.Toggle(ctx, &domain.Reaction{
		Value:       value,
		WorkspaceID: msg.WorkspaceID,
		MemberID:    member.ID,
		MessageID:   msg.ID,
	})
	if err != nil {
		return 0, fmt.Errorf("toggle reaction: %w", err)
	}
	metrics.ReactionToggled(removed)

	summaries, err := s.reactions.SummariesFor(ctx, []uint64{msg.ID})
	if err != nil {
		logger.GetLogger().Warn().Err(err).Uint64("message_id", msg.ID).Msg("reaction summary reload failed")
		return id, nil
	}
	views := summaries[msg.ID]
	if views == nil {
		views = []domain.ReactionView{}
	}
	s.publisher.Publish(ctx, msg.Scope(), domain.EventReactionUpdated, domain.ReactionUpdatedPayload{
		MessageID: msg.ID,
		Reactions: views,
	})
	return id, nil
}
