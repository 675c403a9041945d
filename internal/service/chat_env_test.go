package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/migration"
	"github.com/huddlechat/huddle-backend/internal/repository"
	es "github.com/huddlechat/huddle-backend/pkg/elasticsearch"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MockPublisher records live-update events
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, scope domain.Scope, eventType string, payload interface{}) {
	m.Called(scope, eventType, payload)
}

// events returns the published calls of one type
func (m *MockPublisher) events(eventType string) []mock.Call {
	var out []mock.Call
	for _, c := range m.Calls {
		if c.Arguments.String(1) == eventType {
			out = append(out, c)
		}
	}
	return out
}

// MockStorage is a mock implementation of ObjectStorage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) PresignUpload(ctx context.Context, prefix, contentType string) (string, string, error) {
	args := m.Called(prefix, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockStorage) URL(ctx context.Context, key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(key)
	return args.Error(0)
}

// MockSearchBackend is a mock implementation of SearchBackend
type MockSearchBackend struct {
	mock.Mock
}

func (m *MockSearchBackend) IndexDocument(ctx context.Context, index, docID string, body interface{}) error {
	args := m.Called(index, docID, body)
	return args.Error(0)
}

func (m *MockSearchBackend) DeleteDocument(ctx context.Context, index, docID string) error {
	args := m.Called(index, docID)
	return args.Error(0)
}

func (m *MockSearchBackend) Search(ctx context.Context, index string, query map[string]interface{}, from, size int) (*es.SearchResponse, error) {
	args := m.Called(index, query, from, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*es.SearchResponse), args.Error(1)
}

func (m *MockSearchBackend) CreateIndex(ctx context.Context, index string, mapping map[string]interface{}) error {
	args := m.Called(index, mapping)
	return args.Error(0)
}

// chatEnv wires every service against an in-memory database
type chatEnv struct {
	ctx context.Context
	db  *gorm.DB

	users         repository.UserRepository
	members       repository.MemberRepository
	channels      repository.ChannelRepository
	conversations repository.ConversationRepository
	messageRepo   repository.MessageRepository
	reactionRepo  repository.ReactionRepository

	publisher     *MockPublisher
	storage       *MockStorage
	membership    MembershipService
	conversation  ConversationService
	feed          FeedService
	messages      MessageService
	reactions     ReactionService
	channelSvc    ChannelService
	workspaceSvc  WorkspaceService
	workspaceID   uint64
	generalID     uint64
	aliceUser     uint64
	bobUser       uint64
	carolUser     uint64
	aliceMemberID uint64
	bobMemberID   uint64
}

type envOption func(*chatEnv, *MessageDeps)

func withStorage(env *chatEnv, deps *MessageDeps) {
	env.storage = &MockStorage{}
	deps.Storage = env.storage
}

func newChatEnv(t *testing.T, opts ...envOption) *chatEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, migration.Run(db))

	env := &chatEnv{
		ctx:           context.Background(),
		db:            db,
		users:         repository.NewUserRepository(db),
		members:       repository.NewMemberRepository(db),
		channels:      repository.NewChannelRepository(db),
		conversations: repository.NewConversationRepository(db),
		messageRepo:   repository.NewMessageRepository(db),
		reactionRepo:  repository.NewReactionRepository(db),
		publisher:     &MockPublisher{},
		aliceUser:     1,
		bobUser:       2,
		carolUser:     3,
	}
	env.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return()

	deps := MessageDeps{
		Messages:      env.messageRepo,
		Channels:      env.channels,
		Conversations: env.conversations,
		Publisher:     env.publisher,
	}
	for _, opt := range opts {
		opt(env, &deps)
	}

	env.membership = NewMembershipService(env.members, env.users, nil)
	env.conversation = NewConversationService(env.membership, env.members, env.conversations)
	var storage ObjectStorage
	if env.storage != nil {
		storage = env.storage
	}
	env.feed = NewFeedService(env.membership, FeedDeps{
		Members:       env.members,
		Users:         env.users,
		Messages:      env.messageRepo,
		Reactions:     env.reactionRepo,
		Channels:      env.channels,
		Conversations: env.conversations,
	}, storage)
	deps.Feed = env.feed
	env.messages = NewMessageService(env.membership, deps)
	env.reactions = NewReactionService(env.membership, env.messageRepo, env.reactionRepo, env.publisher)
	env.channelSvc = NewChannelService(env.membership, env.channels)
	env.workspaceSvc = NewWorkspaceService(env.membership, repository.NewWorkspaceRepository(db), env.members, nil)

	// Alice owns the workspace, Bob joins it, Carol stays outside
	for id, name := range map[uint64]string{1: "Alice", 2: "Bob", 3: "Carol"} {
		require.NoError(t, env.users.Upsert(env.ctx, &domain.User{ID: id, Name: name, Image: fmt.Sprintf("https://avatars/%d.png", id)}))
	}
	wsID, err := env.workspaceSvc.Create(env.ctx, env.aliceUser, "Acme")
	require.NoError(t, err)
	env.workspaceID = wsID

	ws, err := repository.NewWorkspaceRepository(db).FindByID(env.ctx, wsID)
	require.NoError(t, err)
	_, err = env.workspaceSvc.Join(env.ctx, env.bobUser, wsID, ws.JoinCode)
	require.NoError(t, err)

	channels, err := env.channels.ListByWorkspace(env.ctx, wsID)
	require.NoError(t, err)
	env.generalID = channels[0].ID

	alice, err := env.membership.Resolve(env.ctx, wsID, env.aliceUser)
	require.NoError(t, err)
	bob, err := env.membership.Resolve(env.ctx, wsID, env.bobUser)
	require.NoError(t, err)
	env.aliceMemberID = alice.ID
	env.bobMemberID = bob.ID

	return env
}

func (e *chatEnv) post(t *testing.T, userID uint64, in domain.CreateMessageInput) uint64 {
	t.Helper()
	if in.WorkspaceID == 0 {
		in.WorkspaceID = e.workspaceID
	}
	if in.Body == "" {
		in.Body = "hello"
	}
	id, err := e.messages.Create(e.ctx, userID, in)
	require.NoError(t, err)
	return id
}

func (e *chatEnv) postToGeneral(t *testing.T, userID uint64, body string) uint64 {
	t.Helper()
	return e.post(t, userID, domain.CreateMessageInput{Body: body, ChannelID: &e.generalID})
}

func ptr(v uint64) *uint64 { return &v }
