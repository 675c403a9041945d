package service

import (
	"context"

	"github.com/huddlechat/huddle-backend/internal/domain"
)

// Publisher pushes live-update events to a scope's subscribers
type Publisher interface {
	Publish(ctx context.Context, scope domain.Scope, eventType string, payload interface{})
}

// ObjectStorage signs upload/download URLs for message images
type ObjectStorage interface {
	PresignUpload(ctx context.Context, prefix, contentType string) (key, uploadURL string, err error)
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// MessageIndexer keeps the search index in step with message writes
type MessageIndexer interface {
	IndexMessage(ctx context.Context, msg *domain.Message) error
	DeleteMessage(ctx context.Context, id uint64) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.Scope, string, interface{}) {}

type nopIndexer struct{}

func (nopIndexer) IndexMessage(context.Context, *domain.Message) error { return nil }
func (nopIndexer) DeleteMessage(context.Context, uint64) error         { return nil }
