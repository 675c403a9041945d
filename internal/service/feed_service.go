package service

import (
	"context"
	"fmt"

	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/repository"
	"github.com/huddlechat/huddle-backend/pkg/logger"
	"github.com/huddlechat/huddle-backend/pkg/pagination"
)

// FeedService assembles enriched, paginated message feeds
type FeedService interface {
	// List returns one page of a scope, newest first. A caller outside the
	// scope's workspace gets an empty, finished page.
	List(ctx context.Context, userID uint64, in domain.ListMessagesInput) (*domain.MessagePage, error)
	// Get returns one enriched message without thread summary, or nil when
	// the message is missing, unreadable or has no resolvable author.
	Get(ctx context.Context, userID, messageID uint64) (*domain.MessageView, error)
	// AuthorizeScope resolves the scope and checks the caller's membership
	AuthorizeScope(ctx context.Context, userID uint64, scope domain.Scope) (domain.Scope, error)

	// View enriches a message for event payloads; nil when its author is gone
	View(ctx context.Context, msg *domain.Message, withThread bool) (*domain.MessageView, error)
	ThreadSummary(ctx context.Context, parentID uint64) (*domain.ThreadSummary, error)
}

type feedService struct {
	membership MembershipService
	members    repository.MemberRepository
	users      repository.UserRepository
	messages   repository.MessageRepository
	reactions  repository.ReactionRepository
	scopes     *scopeResolver
	storage    ObjectStorage
}

// FeedDeps groups the repositories the feed assembler reads from
type FeedDeps struct {
	Members       repository.MemberRepository
	Users         repository.UserRepository
	Messages      repository.MessageRepository
	Reactions     repository.ReactionRepository
	Channels      repository.ChannelRepository
	Conversations repository.ConversationRepository
}

// NewFeedService creates a new FeedService. storage may be nil, in which case images are omitted.
func NewFeedService(membership MembershipService, deps FeedDeps, storage ObjectStorage) FeedService {
	return &feedService{
		membership: membership,
		members:    deps.Members,
		users:      deps.Users,
		messages:   deps.Messages,
		reactions:  deps.Reactions,
		scopes: &scopeResolver{
			messages:      deps.Messages,
			channels:      deps.Channels,
			conversations: deps.Conversations,
		},
		storage: storage,
	}
}

func (s *feedService) AuthorizeScope(ctx context.Context, userID uint64, scope domain.Scope) (domain.Scope, error) {
	resolved, workspaceID, err := s.scopes.resolve(ctx, scope)
	if err != nil {
		return scope, err
	}
	if _, err := s.membership.RequireMember(ctx, workspaceID, userID); err != nil {
		return scope, err
	}
	return resolved, nil
}

func (s *feedService) List(ctx context.Context, userID uint64, in domain.ListMessagesInput) (*domain.MessagePage, error) {
	cursor, err := pagination.DecodeCursor(in.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.ClampLimit(in.Limit)

	scope, workspaceID, err := s.scopes.resolve(ctx, in.Scope())
	if err != nil {
		return nil, err
	}
	member, err := s.membership.Resolve(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return domain.EmptyPage(), nil
	}

	// one extra row tells whether an older page exists
	rows, err := s.messages.ListByScope(ctx, scope, cursor.LastID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	isDone := len(rows) <= limit
	if !isDone {
		rows = rows[:limit]
	}

	views, err := s.enrich(ctx, rows, true)
	if err != nil {
		return nil, err
	}

	page := &domain.MessagePage{Page: views, IsDone: isDone}
	if !isDone {
		page.ContinueCursor = pagination.EncodeCursor(pagination.CursorPayload{LastID: rows[len(rows)-1].ID})
	}
	return page, nil
}

func (s *feedService) Get(ctx context.Context, userID, messageID uint64) (*domain.MessageView, error) {
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil || msg == nil {
		return nil, err
	}
	member, err := s.membership.Resolve(ctx, msg.WorkspaceID, userID)
	if err != nil || member == nil {
		return nil, err
	}
	return s.View(ctx, msg, false)
}

func (s *feedService) View(ctx context.Context, msg *domain.Message, withThread bool) (*domain.MessageView, error) {
	views, err := s.enrich(ctx, []domain.Message{*msg}, withThread)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, nil
	}
	return &views[0], nil
}

func (s *feedService) ThreadSummary(ctx context.Context, parentID uint64) (*domain.ThreadSummary, error) {
	threads, err := s.threadSummaries(ctx, []uint64{parentID})
	if err != nil {
		return nil, err
	}
	return threads[parentID], nil
}

// enrich resolves authors, images, reactions and optionally thread summaries
// for a page with a fixed number of batched queries. Rows whose member or
// user cannot be resolved are dropped; order is preserved.
func (s *feedService) enrich(ctx context.Context, rows []domain.Message, withThreads bool) ([]domain.MessageView, error) {
	views := make([]domain.MessageView, 0, len(rows))
	if len(rows) == 0 {
		return views, nil
	}

	ids := make([]uint64, 0, len(rows))
	memberIDs := make([]uint64, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.ID)
		memberIDs = append(memberIDs, m.MemberID)
	}

	authors, err := s.resolveAuthors(ctx, memberIDs)
	if err != nil {
		return nil, err
	}

	reactions, err := s.reactions.SummariesFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load reactions: %w", err)
	}

	var threads map[uint64]*domain.ThreadSummary
	if withThreads {
		if threads, err = s.threadSummaries(ctx, ids); err != nil {
			return nil, err
		}
	}

	for i := range rows {
		m := &rows[i]
		author, ok := authors[m.MemberID]
		if !ok {
			continue
		}

		view := domain.MessageView{
			ID:              m.ID,
			Body:            m.Body,
			Image:           s.imageURL(ctx, m.WorkspaceID, m.Image),
			MemberID:        m.MemberID,
			WorkspaceID:     m.WorkspaceID,
			ChannelID:       m.ChannelID,
			ParentMessageID: m.ParentMessageID,
			ConversationID:  m.ConversationID,
			CreatedAt:       m.CreatedAt,
			UpdatedAt:       m.UpdatedAt,
			Author:          author,
			Reactions:       reactions[m.ID],
		}
		if view.Reactions == nil {
			view.Reactions = []domain.ReactionView{}
		}
		if withThreads {
			view.Thread = threads[m.ID]
		}
		views = append(views, view)
	}
	return views, nil
}

// resolveAuthors maps member id to author for members whose user exists
func (s *feedService) resolveAuthors(ctx context.Context, memberIDs []uint64) (map[uint64]domain.MessageAuthor, error) {
	members, err := s.members.FindByIDs(ctx, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	userIDs := make([]uint64, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	authors := make(map[uint64]domain.MessageAuthor, len(members))
	for id, m := range members {
		u, ok := users[m.UserID]
		if !ok {
			continue
		}
		authors[id] = domain.MessageAuthor{
			MemberID: m.ID,
			Role:     m.Role,
			UserID:   u.ID,
			Name:     u.Name,
			Image:    optionalString(u.Image),
		}
	}
	return authors, nil
}

// threadSummaries returns a summary for every parent id; parents without
// replies, or whose last reply has no resolvable author, get {count: 0}.
func (s *feedService) threadSummaries(ctx context.Context, parentIDs []uint64) (map[uint64]*domain.ThreadSummary, error) {
	stats, err := s.messages.ThreadStats(ctx, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("load thread stats: %w", err)
	}

	lastIDs := make([]uint64, 0, len(stats))
	for _, st := range stats {
		lastIDs = append(lastIDs, st.LastID)
	}
	lastReplies, err := s.messages.FindByIDs(ctx, lastIDs)
	if err != nil {
		return nil, fmt.Errorf("load last replies: %w", err)
	}
	authorIDs := make([]uint64, 0, len(lastReplies))
	for _, r := range lastReplies {
		authorIDs = append(authorIDs, r.MemberID)
	}
	authors, err := s.resolveAuthors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	result := make(map[uint64]*domain.ThreadSummary, len(parentIDs))
	for _, id := range parentIDs {
		result[id] = &domain.ThreadSummary{Count: 0}

		st, ok := stats[id]
		if !ok || st.Count == 0 {
			continue
		}
		last, ok := lastReplies[st.LastID]
		if !ok {
			continue
		}
		author, ok := authors[last.MemberID]
		if !ok {
			continue
		}
		name := author.Name
		ts := last.CreatedAt
		result[id] = &domain.ThreadSummary{
			Count:     st.Count,
			Image:     author.Image,
			Name:      &name,
			Timestamp: &ts,
		}
	}
	return result, nil
}

// imageURL signs the stored key; failures degrade to no image
func (s *feedService) imageURL(ctx context.Context, workspaceID uint64, key *string) *string {
	if key == nil || s.storage == nil || !ownsImageKey(workspaceID, *key) {
		return nil
	}
	url, err := s.storage.URL(ctx, *key)
	if err != nil {
		logger.GetLogger().Warn().Err(err).Str("key", *key).Msg("image url signing failed")
		return nil
	}
	return &url
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
