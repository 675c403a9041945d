package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/metrics"
	"github.com/huddlechat/huddle-backend/internal/repository"
	"github.com/huddlechat/huddle-backend/pkg/logger"
)

// MessageService creates, edits and deletes messages. Edits and deletes are author-only.
type MessageService interface {
	Create(ctx context.Context, userID uint64, in domain.CreateMessageInput) (uint64, error)
	Update(ctx context.Context, userID, messageID uint64, body string) (uint64, error)
	Remove(ctx context.Context, userID, messageID uint64) (uint64, error)
}

type messageService struct {
	membership MembershipService
	messages   repository.MessageRepository
	scopes     *scopeResolver
	feed       FeedService
	publisher  Publisher
	indexer    MessageIndexer
	storage    ObjectStorage
	now        func() time.Time
}

// MessageDeps groups the collaborators of the message store.
// Publisher, Indexer and Storage are optional.
type MessageDeps struct {
	Messages      repository.MessageRepository
	Channels      repository.ChannelRepository
	Conversations repository.ConversationRepository
	Feed          FeedService
	Publisher     Publisher
	Indexer       MessageIndexer
	Storage       ObjectStorage
}

// NewMessageService creates a new MessageService
func NewMessageService(membership MembershipService, deps MessageDeps) MessageService {
	s := &messageService{
		membership: membership,
		messages:   deps.Messages,
		scopes: &scopeResolver{
			messages:      deps.Messages,
			channels:      deps.Channels,
			conversations: deps.Conversations,
		},
		feed:      deps.Feed,
		publisher: deps.Publisher,
		indexer:   deps.Indexer,
		storage:   deps.Storage,
		now:       time.Now,
	}
	if s.publisher == nil {
		s.publisher = nopPublisher{}
	}
	if s.indexer == nil {
		s.indexer = nopIndexer{}
	}
	return s
}

func (s *messageService) Create(ctx context.Context, userID uint64, in domain.CreateMessageInput) (uint64, error) {
	if strings.TrimSpace(in.Body) == "" {
		return 0, fmt.Errorf("%w: body is required", common.ErrInvalidInput)
	}
	if in.Scope().IsEmpty() {
		return 0, fmt.Errorf("%w: channel, conversation or parent message is required", common.ErrInvalidInput)
	}
	if in.Image != nil && *in.Image == "" {
		in.Image = nil
	}
	if in.Image != nil && !ownsImageKey(in.WorkspaceID, *in.Image) {
		return 0, fmt.Errorf("%w: image was not uploaded to this workspace", common.ErrInvalidInput)
	}

	member, err := s.membership.RequireMember(ctx, in.WorkspaceID, userID)
	if err != nil {
		return 0, err
	}

	scope, workspaceID, err := s.scopes.resolve(ctx, in.Scope())
	if err != nil {
		return 0, err
	}
	if workspaceID != in.WorkspaceID {
		return 0, fmt.Errorf("%w: scope belongs to another workspace", common.ErrScopeUnresolvable)
	}

	msg := &domain.Message{
		Body:            in.Body,
		Image:           in.Image,
		MemberID:        member.ID,
		WorkspaceID:     in.WorkspaceID,
		ChannelID:       scope.ChannelID,
		ParentMessageID: scope.ParentMessageID,
		ConversationID:  scope.ConversationID,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return 0, fmt.Errorf("create message: %w", err)
	}
	metrics.MessageCreated(messageKind(msg))

	s.publishView(ctx, msg, domain.EventMessageCreated)
	s.publishThread(ctx, msg)
	s.index(ctx, msg)

	return msg.ID, nil
}

func (s *messageService) Update(ctx context.Context, userID, messageID uint64, body string) (uint64, error) {
	if strings.TrimSpace(body) == "" {
		return 0, fmt.Errorf("%w: body is required", common.ErrInvalidInput)
	}
	msg, err := s.authorize(ctx, userID, messageID)
	if err != nil {
		return 0, err
	}

	at := s.now()
	if err := s.messages.UpdateBody(ctx, messageID, body, at); err != nil {
		return 0, fmt.Errorf("update message: %w", err)
	}
	msg.Body = body
	msg.UpdatedAt = at

	s.publishView(ctx, msg, domain.EventMessageUpdated)
	s.index(ctx, msg)

	return messageID, nil
}

func (s *messageService) Remove(ctx context.Context, userID, messageID uint64) (uint64, error) {
	msg, err := s.authorize(ctx, userID, messageID)
	if err != nil {
		return 0, err
	}

	if err := s.messages.DeleteWithReactions(ctx, messageID); err != nil {
		return 0, fmt.Errorf("remove message: %w", err)
	}

	s.publisher.Publish(ctx, msg.Scope(), domain.EventMessageDeleted, domain.MessageDeletedPayload{ID: msg.ID})
	s.publishThread(ctx, msg)
	if err := s.indexer.DeleteMessage(ctx, msg.ID); err != nil {
		logger.GetLogger().Warn().Err(err).Uint64("message_id", msg.ID).Msg("search index delete failed")
	}
	if msg.Image != nil && ownsImageKey(msg.WorkspaceID, *msg.Image) && s.storage != nil {
		if err := s.storage.Delete(ctx, *msg.Image); err != nil {
			logger.GetLogger().Warn().Err(err).Str("key", *msg.Image).Msg("image delete failed")
		}
	}

	return messageID, nil
}

// authorize loads the message and checks the caller is its author
func (s *messageService) authorize(ctx context.Context, userID, messageID uint64) (*domain.Message, error) {
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, common.ErrMessageNotFound
	}
	member, err := s.membership.RequireMember(ctx, msg.WorkspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member.ID != msg.MemberID {
		return nil, common.ErrUnauthorized
	}
	return msg, nil
}

func (s *messageService) publishView(ctx context.Context, msg *domain.Message, eventType string) {
	view, err := s.feed.View(ctx, msg, true)
	if err != nil {
		logger.GetLogger().Warn().Err(err).Uint64("message_id", msg.ID).Msg("event view enrichment failed")
		return
	}
	if view == nil {
		return
	}
	s.publisher.Publish(ctx, msg.Scope(), eventType, view)
}

// publishThread refreshes the parent's thread summary in the parent's feed
func (s *messageService) publishThread(ctx context.Context, msg *domain.Message) {
	if msg.ParentMessageID == nil {
		return
	}
	parent, err := s.messages.FindByID(ctx, *msg.ParentMessageID)
	if err != nil || parent == nil {
		return
	}
	summary, err := s.feed.ThreadSummary(ctx, parent.ID)
	if err != nil {
		logger.GetLogger().Warn().Err(err).Uint64("message_id", parent.ID).Msg("thread summary failed")
		return
	}
	s.publisher.Publish(ctx, parent.Scope(), domain.EventThreadUpdated, domain.ThreadUpdatedPayload{
		MessageID: parent.ID,
		Thread:    summary,
	})
}

func (s *messageService) index(ctx context.Context, msg *domain.Message) {
	if err := s.indexer.IndexMessage(ctx, msg); err != nil {
		logger.GetLogger().Warn().Err(err).Uint64("message_id", msg.ID).Msg("search index update failed")
	}
}

func messageKind(msg *domain.Message) string {
	switch {
	case msg.ParentMessageID != nil:
		return "thread"
	case msg.ConversationID != nil:
		return "conversation"
	default:
		return "channel"
	}
}
