package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	es "github.com/huddlechat/huddle-backend/pkg/elasticsearch"
	pkglogger "github.com/huddlechat/huddle-backend/pkg/logger"
)

// MessagesIndex is the Elasticsearch index holding message bodies
const MessagesIndex = "chat_messages"

const searchMaxSize = 50

// MessageDocument is a message as indexed in Elasticsearch
type MessageDocument struct {
	ID              uint64    `json:"id"`
	WorkspaceID     uint64    `json:"workspace_id"`
	ChannelID       *uint64   `json:"channel_id,omitempty"`
	ConversationID  *uint64   `json:"conversation_id,omitempty"`
	ParentMessageID *uint64   `json:"parent_message_id,omitempty"`
	MemberID        uint64    `json:"member_id"`
	Body            string    `json:"body"`
	CreatedAt       time.Time `json:"created_at"`
}

// SearchBackend is the subset of the Elasticsearch client the search service uses
type SearchBackend interface {
	IndexDocument(ctx context.Context, index, docID string, body interface{}) error
	DeleteDocument(ctx context.Context, index, docID string) error
	Search(ctx context.Context, index string, query map[string]interface{}, from, size int) (*es.SearchResponse, error)
	CreateIndex(ctx context.Context, index string, mapping map[string]interface{}) error
}

// SearchResult is one page of message search hits, enriched for display
type SearchResult struct {
	Total int64                `json:"total"`
	Hits  []domain.MessageView `json:"hits"`
}

// SearchService indexes messages and searches them within a workspace.
// A nil backend disables search; indexing then does nothing.
type SearchService struct {
	backend    SearchBackend
	membership MembershipService
	feed       FeedService
}

// NewSearchService creates a new SearchService
func NewSearchService(backend SearchBackend, membership MembershipService, feed FeedService) *SearchService {
	return &SearchService{backend: backend, membership: membership, feed: feed}
}

// EnsureIndex creates the messages index when missing
func (s *SearchService) EnsureIndex(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":                map[string]interface{}{"type": "long"},
				"workspace_id":      map[string]interface{}{"type": "long"},
				"channel_id":        map[string]interface{}{"type": "long"},
				"conversation_id":   map[string]interface{}{"type": "long"},
				"parent_message_id": map[string]interface{}{"type": "long"},
				"member_id":         map[string]interface{}{"type": "long"},
				"body":              map[string]interface{}{"type": "text"},
				"created_at":        map[string]interface{}{"type": "date"},
			},
		},
	}
	return s.backend.CreateIndex(ctx, MessagesIndex, mapping)
}

// IndexMessage upserts the message document
func (s *SearchService) IndexMessage(ctx context.Context, msg *domain.Message) error {
	if s.backend == nil {
		return nil
	}
	doc := MessageDocument{
		ID:              msg.ID,
		WorkspaceID:     msg.WorkspaceID,
		ChannelID:       msg.ChannelID,
		ConversationID:  msg.ConversationID,
		ParentMessageID: msg.ParentMessageID,
		MemberID:        msg.MemberID,
		Body:            PlainText(msg.Body),
		CreatedAt:       msg.CreatedAt,
	}
	return s.backend.IndexDocument(ctx, MessagesIndex, strconv.FormatUint(msg.ID, 10), doc)
}

// DeleteMessage removes the message document
func (s *SearchService) DeleteMessage(ctx context.Context, id uint64) error {
	if s.backend == nil {
		return nil
	}
	return s.backend.DeleteDocument(ctx, MessagesIndex, strconv.FormatUint(id, 10))
}

// Search matches q against message bodies in one workspace. Hits are re-read
// through the feed, so deleted or unreadable messages drop out.
func (s *SearchService) Search(ctx context.Context, userID, workspaceID uint64, q string, from, size int) (*SearchResult, error) {
	if s.backend == nil {
		return nil, common.ErrSearchDisabled
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: query is required", common.ErrInvalidInput)
	}
	member, err := s.membership.Resolve(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return &SearchResult{Hits: []domain.MessageView{}}, nil
	}
	if from < 0 {
		from = 0
	}
	if size <= 0 || size > searchMaxSize {
		size = searchMaxSize
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{"match": map[string]interface{}{"body": q}},
				},
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"workspace_id": workspaceID}},
				},
			},
		},
		"sort": []interface{}{"_score", map[string]interface{}{"created_at": "desc"}},
	}
	res, err := s.backend.Search(ctx, MessagesIndex, query, from, size)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}

	result := &SearchResult{Total: res.Total, Hits: make([]domain.MessageView, 0, len(res.Hits))}
	for _, hit := range res.Hits {
		id, err := strconv.ParseUint(hit.ID, 10, 64)
		if err != nil {
			pkglogger.GetLogger().Warn().Str("doc_id", hit.ID).Msg("unexpected search document id")
			continue
		}
		view, err := s.feed.Get(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if view != nil {
			result.Hits = append(result.Hits, *view)
		}
	}
	return result, nil
}

// PlainText extracts the text of a rich-text delta ({"ops":[{"insert":...}]}).
// Bodies that are not a delta are returned unchanged.
func PlainText(body string) string {
	var delta struct {
		Ops []struct {
			Insert interface{} `json:"insert"`
		} `json:"ops"`
	}
	if err := json.Unmarshal([]byte(body), &delta); err != nil || delta.Ops == nil {
		return body
	}
	var sb strings.Builder
	for _, op := range delta.Ops {
		if text, ok := op.Insert.(string); ok {
			sb.WriteString(text)
		}
	}
	return strings.TrimSpace(sb.String())
}
