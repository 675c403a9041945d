package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func ptr(v uint64) *uint64 { return &v }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// one named in-memory database per test, shared across pooled connections
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, migration.Run(db))
	return db
}

type fixture struct {
	ws      *domain.Workspace
	channel domain.Channel
	alice   *domain.Member
	bob     *domain.Member
}

func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, NewUserRepository(db).Upsert(ctx, &domain.User{ID: 1, Name: "Alice"}))
	require.NoError(t, NewUserRepository(db).Upsert(ctx, &domain.User{ID: 2, Name: "Bob"}))

	ws := &domain.Workspace{Name: "Acme", UserID: 1, JoinCode: "abc123"}
	require.NoError(t, NewWorkspaceRepository(db).CreateWithAdmin(ctx, ws))

	members := NewMemberRepository(db)
	alice, err := members.FindByWorkspaceUser(ctx, ws.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, alice)
	bob := &domain.Member{WorkspaceID: ws.ID, UserID: 2, Role: domain.RoleMember}
	require.NoError(t, members.Create(ctx, bob))

	channels, err := NewChannelRepository(db).ListByWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, channels, 1)

	return fixture{ws: ws, channel: channels[0], alice: alice, bob: bob}
}

func createMessage(t *testing.T, db *gorm.DB, msg *domain.Message) *domain.Message {
	t.Helper()
	require.NoError(t, NewMessageRepository(db).Create(context.Background(), msg))
	return msg
}

func TestWorkspaceCreateWithAdmin(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)

	assert.Equal(t, domain.RoleAdmin, f.alice.Role)
	assert.Equal(t, DefaultChannelName, f.channel.Name)

	list, err := NewWorkspaceRepository(db).ListByUser(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.ws.ID, list[0].ID)
}

func TestUserUpsertRefreshesProfile(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	require.NoError(t, repo.Upsert(ctx, &domain.User{ID: 7, Name: "Old"}))
	require.NoError(t, repo.Upsert(ctx, &domain.User{ID: 7, Name: "New", Image: "https://img/7.png"}))

	u, err := repo.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "New", u.Name)
	assert.Equal(t, "https://img/7.png", u.Image)

	missing, err := repo.FindByID(ctx, 8)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestConversationCreateIfAbsent_EitherOrder(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()
	repo := NewConversationRepository(db)

	first, err := repo.CreateIfAbsent(ctx, domain.NewConversation(f.ws.ID, f.alice.ID, f.bob.ID))
	require.NoError(t, err)
	second, err := repo.CreateIfAbsent(ctx, domain.NewConversation(f.ws.ID, f.bob.ID, f.alice.ID))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, f.alice.ID, second.FirstMemberID)

	var count int64
	db.Model(&domain.Conversation{}).Count(&count)
	assert.Equal(t, int64(1), count)

	found, err := repo.FindByPair(ctx, f.ws.ID, f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestListByScope_ExactTupleMatch(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()
	repo := NewMessageRepository(db)

	top := createMessage(t, db, &domain.Message{Body: "top", MemberID: f.alice.ID, WorkspaceID: f.ws.ID, ChannelID: &f.channel.ID})
	reply := createMessage(t, db, &domain.Message{Body: "reply", MemberID: f.bob.ID, WorkspaceID: f.ws.ID, ChannelID: &f.channel.ID, ParentMessageID: &top.ID})

	channelFeed, err := repo.ListByScope(ctx, domain.Scope{ChannelID: &f.channel.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, channelFeed, 1)
	assert.Equal(t, top.ID, channelFeed[0].ID)

	threadFeed, err := repo.ListByScope(ctx, domain.Scope{ChannelID: &f.channel.ID, ParentMessageID: &top.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, threadFeed, 1)
	assert.Equal(t, reply.ID, threadFeed[0].ID)

	// parent alone does not match replies that also carry a channel
	orphan, err := repo.ListByScope(ctx, domain.Scope{ParentMessageID: &top.ID}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, orphan)
}

func TestListByScope_KeysetOrder(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()
	repo := NewMessageRepository(db)

	var ids []uint64
	for i := 0; i < 5; i++ {
		m := createMessage(t, db, &domain.Message{Body: fmt.Sprintf("m%d", i), MemberID: f.alice.ID, WorkspaceID: f.ws.ID, ChannelID: &f.channel.ID})
		ids = append(ids, m.ID)
	}

	page, err := repo.ListByScope(ctx, domain.Scope{ChannelID: &f.channel.ID}, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[4], page[0].ID)
	assert.Equal(t, ids[3], page[1].ID)

	next, err := repo.ListByScope(ctx, domain.Scope{ChannelID: &f.channel.ID}, page[1].ID, 10)
	require.NoError(t, err)
	require.Len(t, next, 3)
	assert.Equal(t, ids[2], next[0].ID)
	assert.Equal(t, ids[0], next[2].ID)
}

func TestThreadStats(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	p1 := createMessage(t, db, &domain.Message{Body: "p1", MemberID: f.alice.ID, WorkspaceID: f.ws.ID, ChannelID: &f.channel.ID})
	p2 := createMessage(t, db, &domain.Message{Body: "p2", MemberID: f.alice.ID, WorkspaceID: f.ws.ID, ChannelID: &f.channel.ID})
	createMessage(t, db, &domain.Message{Body: "r1", MemberID: f.alice.ID, WorkspaceID: f.ws.ID, ChannelID: &f.channel.ID, ParentMessageID: &p1.ID})
	last := createMessage(t, db, &domain.Message{Body: "r2", MemberID: f.bob.ID, WorkspaceID: f.ws.ID, ChannelID: &f.channel.ID, ParentMessageID: &p1.ID})

	stats, err := NewMessageRepository(db).ThreadStats(ctx, []uint64{p1.ID, p2.ID})
	require.NoError(t, err)

	require.Contains(t, stats, p1.ID)
	assert.Equal(t, int64(2), stats[p1.ID].Count)
	assert.Equal(t, last.ID, stats[p1.ID].LastID)
	assert.NotContains(t, stats, p2.ID)
}

func TestReactionToggleMaintainsSummary(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()
	repo := NewReactionRepository(db)

	msg := createMessage(t, db, &domain.Message{Body: "hi", MemberID: f.alice.ID, WorkspaceID: f.ws.ID, ChannelID: &f.channel.ID})

	toggle := func(member uint64, value string) bool {
		_, removed, err := repo.Toggle(ctx, &domain.Reaction{Value: value, WorkspaceID: f.ws.ID, MemberID: member, MessageID: msg.ID})
		require.NoError(t, err)
		return removed
	}

	assert.False(t, toggle(f.alice.ID, "👍"))
	assert.False(t, toggle(f.bob.ID, "👍"))
	assert.False(t, toggle(f.alice.ID, "😀"))

	summaries, err := repo.SummariesFor(ctx, []uint64{msg.ID})
	require.NoError(t, err)
	assert.Equal(t, []domain.ReactionView{
		{Value: "👍", Count: 2, MemberIDs: []uint64{f.alice.ID, f.bob.ID}},
		{Value: "😀", Count: 1, MemberIDs: []uint64{f.alice.ID}},
	}, summaries[msg.ID])

	// stored summary agrees with aggregating the rows
	rows, err := repo.ListByMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AggregateReactions(rows), summaries[msg.ID])

	assert.True(t, toggle(f.alice.ID, "😀"))
	summaries, err = repo.SummariesFor(ctx, []uint64{msg.ID})
	require.NoError(t, err)
	require.Len(t, summaries[msg.ID], 1)
	assert.Equal(t, "👍", summaries[msg.ID][0].Value)

	// a rebuild from rows reproduces the incrementally kept summaries
	require.NoError(t, db.Where("1 = 1").Delete(&domain.ReactionSummary{}).Error)
	written, err := repo.RebuildSummaries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	rebuilt, err := repo.SummariesFor(ctx, []uint64{msg.ID})
	require.NoError(t, err)
	assert.Equal(t, summaries[msg.ID], rebuilt[msg.ID])
}

func TestDeleteWithReactions_KeepsReplies(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()
	messages := NewMessageRepository(db)

	parent := createMessage(t, db, &domain.Message{Body: "p", MemberID: f.alice.ID, WorkspaceID: f.ws.ID, ChannelID: &f.channel.ID})
	reply := createMessage(t, db, &domain.Message{Body: "r", MemberID: f.bob.ID, WorkspaceID: f.ws.ID, ChannelID: &f.channel.ID, ParentMessageID: &parent.ID})
	_, _, err := NewReactionRepository(db).Toggle(ctx, &domain.Reaction{Value: "👍", WorkspaceID: f.ws.ID, MemberID: f.bob.ID, MessageID: parent.ID})
	require.NoError(t, err)

	require.NoError(t, messages.DeleteWithReactions(ctx, parent.ID))

	gone, err := messages.FindByID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := messages.FindByID(ctx, reply.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)

	var reactions, summaries int64
	db.Model(&domain.Reaction{}).Where("message_id = ?", parent.ID).Count(&reactions)
	db.Model(&domain.ReactionSummary{}).Where("message_id = ?", parent.ID).Count(&summaries)
	assert.Zero(t, reactions)
	assert.Zero(t, summaries)
}

func TestMemberDeleteCascade(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	conv, err := NewConversationRepository(db).CreateIfAbsent(ctx, domain.NewConversation(f.ws.ID, f.alice.ID, f.bob.ID))
	require.NoError(t, err)

	aliceMsg := createMessage(t, db, &domain.Message{Body: "a", MemberID: f.alice.ID, WorkspaceID: f.ws.ID, ChannelID: &f.channel.ID})
	bobMsg := createMessage(t, db, &domain.Message{Body: "b", MemberID: f.bob.ID, WorkspaceID: f.ws.ID, ChannelID: &f.channel.ID})
	createMessage(t, db, &domain.Message{Body: "dm", MemberID: f.alice.ID, WorkspaceID: f.ws.ID, ConversationID: &conv.ID})

	reactions := NewReactionRepository(db)
	_, _, err = reactions.Toggle(ctx, &domain.Reaction{Value: "👍", WorkspaceID: f.ws.ID, MemberID: f.bob.ID, MessageID: aliceMsg.ID})
	require.NoError(t, err)
	_, _, err = reactions.Toggle(ctx, &domain.Reaction{Value: "👍", WorkspaceID: f.ws.ID, MemberID: f.bob.ID, MessageID: bobMsg.ID})
	require.NoError(t, err)
	_, _, err = reactions.Toggle(ctx, &domain.Reaction{Value: "👍", WorkspaceID: f.ws.ID, MemberID: f.alice.ID, MessageID: bobMsg.ID})
	require.NoError(t, err)

	require.NoError(t, NewMemberRepository(db).DeleteCascade(ctx, f.bob))

	var count int64
	db.Model(&domain.Message{}).Where("member_id = ?", f.bob.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&domain.Reaction{}).Where("member_id = ?", f.bob.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&domain.Conversation{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&domain.Message{}).Where("conversation_id = ?", conv.ID).Count(&count)
	assert.Zero(t, count)

	// alice's channel message survives, its reaction summary is gone
	summaries, err := reactions.SummariesFor(ctx, []uint64{aliceMsg.ID})
	require.NoError(t, err)
	assert.Empty(t, summaries[aliceMsg.ID])

	m, err := NewMemberRepository(db).FindByID(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestWorkspaceDeleteCascade(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	msg := createMessage(t, db, &domain.Message{Body: "a", MemberID: f.alice.ID, WorkspaceID: f.ws.ID, ChannelID: &f.channel.ID})
	_, _, err := NewReactionRepository(db).Toggle(ctx, &domain.Reaction{Value: "👍", WorkspaceID: f.ws.ID, MemberID: f.bob.ID, MessageID: msg.ID})
	require.NoError(t, err)

	require.NoError(t, NewWorkspaceRepository(db).DeleteCascade(ctx, f.ws.ID))

	for _, model := range migration.Models()[1:] {
		var count int64
		db.Model(model).Count(&count)
		assert.Zero(t, count, "%T", model)
	}
}
