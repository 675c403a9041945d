package service

import (
	"context"
	"fmt"

	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/repository"
)

// scopeResolver turns a requested scope into the stored scope tuple and the
// workspace that owns it. Creation and listing share it so both agree on
// which feed a thread reply belongs to.
type scopeResolver struct {
	messages      repository.MessageRepository
	channels      repository.ChannelRepository
	conversations repository.ConversationRepository
}

func (r *scopeResolver) resolve(ctx context.Context, scope domain.Scope) (domain.Scope, uint64, error) {
	if scope.IsEmpty() {
		return scope, 0, common.ErrScopeUnresolvable
	}
	if scope.ChannelID != nil && scope.ConversationID != nil {
		return scope, 0, fmt.Errorf("%w: channel and conversation are exclusive", common.ErrScopeUnresolvable)
	}

	var workspaceID uint64

	if scope.ParentMessageID != nil {
		parent, err := r.messages.FindByID(ctx, *scope.ParentMessageID)
		if err != nil {
			return scope, 0, err
		}
		if parent == nil {
			return scope, 0, common.ErrParentMessageNotFound
		}
		// threads are one level deep
		if parent.ParentMessageID != nil {
			return scope, 0, fmt.Errorf("%w: message %d is itself a reply", common.ErrScopeUnresolvable, parent.ID)
		}
		// a reply lives in its parent's container
		if scope.ChannelID == nil && scope.ConversationID == nil {
			scope.ChannelID = parent.ChannelID
			scope.ConversationID = parent.ConversationID
			return scope, parent.WorkspaceID, nil
		}
		if !sameID(scope.ChannelID, parent.ChannelID) || !sameID(scope.ConversationID, parent.ConversationID) {
			return scope, 0, fmt.Errorf("%w: message %d is in another container", common.ErrScopeUnresolvable, parent.ID)
		}
		workspaceID = parent.WorkspaceID
	}

	if scope.ChannelID != nil {
		channel, err := r.channels.FindByID(ctx, *scope.ChannelID)
		if err != nil {
			return scope, 0, err
		}
		if channel == nil || (workspaceID != 0 && channel.WorkspaceID != workspaceID) {
			return scope, 0, fmt.Errorf("%w: channel %d", common.ErrScopeUnresolvable, *scope.ChannelID)
		}
		workspaceID = channel.WorkspaceID
	}

	if scope.ConversationID != nil {
		conv, err := r.conversations.FindByID(ctx, *scope.ConversationID)
		if err != nil {
			return scope, 0, err
		}
		if conv == nil || (workspaceID != 0 && conv.WorkspaceID != workspaceID) {
			return scope, 0, fmt.Errorf("%w: conversation %d", common.ErrScopeUnresolvable, *scope.ConversationID)
		}
		workspaceID = conv.WorkspaceID
	}

	return scope, workspaceID, nil
}

func sameID(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
