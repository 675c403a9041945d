package migration

import (
	"context"
	"testing"

	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openDB returns an in-memory database pinned to one connection,
// since every new sqlite :memory: connection starts empty
func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestRun_CreatesTablesAndIndexes(t *testing.T) {
	db := openDB(t)

	require.NoError(t, Run(db))
	// idempotent
	require.NoError(t, Run(db))

	m := db.Migrator()
	for _, model := range Models() {
		assert.True(t, m.HasTable(model))
	}
	assert.True(t, m.HasIndex(&domain.Message{}, "idx_messages_scope"))
	assert.True(t, m.HasIndex(&domain.Conversation{}, "idx_conversations_pair"))
	assert.True(t, m.HasIndex(&domain.Reaction{}, "idx_reactions_unique"))
	assert.True(t, m.HasIndex(&domain.Member{}, "idx_members_workspace_user"))
}

func TestRun_PairIndexRejectsDuplicate(t *testing.T) {
	db := openDB(t)
	require.NoError(t, Run(db))

	require.NoError(t, db.Create(domain.NewConversation(1, 5, 9)).Error)
	assert.Error(t, db.Create(domain.NewConversation(1, 9, 5)).Error)
}

func TestPending(t *testing.T) {
	db := openDB(t)

	assert.Len(t, Pending(db), len(Models()))
	assert.Contains(t, Pending(db), "reaction_summaries")

	require.NoError(t, Run(db))
	assert.Empty(t, Pending(db))
}

func TestVerify_FindsDriftAndRebuildRepairsSummaries(t *testing.T) {
	db := openDB(t)
	require.NoError(t, Run(db))

	ws := &domain.Workspace{Name: "Acme", UserID: 1, JoinCode: "abc123"}
	require.NoError(t, db.Create(ws).Error)
	member := &domain.Member{WorkspaceID: ws.ID, UserID: 1, Role: domain.RoleAdmin}
	require.NoError(t, db.Create(member).Error)
	ch := &domain.Channel{WorkspaceID: ws.ID, Name: "general"}
	require.NoError(t, db.Create(ch).Error)
	msg := &domain.Message{Body: "hi", MemberID: member.ID, WorkspaceID: ws.ID, ChannelID: &ch.ID}
	require.NoError(t, db.Create(msg).Error)

	// reactions written without summaries, plus one pointing at a deleted message
	for _, r := range []domain.Reaction{
		{Value: "👍", WorkspaceID: ws.ID, MemberID: member.ID, MessageID: msg.ID},
		{Value: "🎉", WorkspaceID: ws.ID, MemberID: member.ID, MessageID: msg.ID},
		{Value: "👍", WorkspaceID: ws.ID, MemberID: member.ID, MessageID: msg.ID + 100},
	} {
		r := r
		require.NoError(t, db.Create(&r).Error)
	}
	// a summary whose count is wrong
	stale, err := domain.NewReactionSummary(msg.ID, 1, domain.ReactionView{Value: "👍", Count: 5, MemberIDs: []uint64{member.ID}})
	require.NoError(t, err)
	require.NoError(t, db.Create(stale).Error)

	report, err := Verify(db)
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, int64(3), report.Rows["reactions"])
	assert.Equal(t, int64(1), report.OrphanReactions)
	assert.Equal(t, int64(1), report.StaleSummaryCounts)
	assert.Equal(t, int64(2), report.MissingSummaryPairs)
	assert.Zero(t, report.OrphanMessages)
	assert.Zero(t, report.DanglingScopes)

	written, err := repository.NewReactionRepository(db).RebuildSummaries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	var summaries []domain.ReactionSummary
	require.NoError(t, db.Where("message_id = ?", msg.ID).Order("first_reaction_id ASC").Find(&summaries).Error)
	require.Len(t, summaries, 2)
	assert.Equal(t, "👍", summaries[0].Value)
	assert.Equal(t, 1, summaries[0].Count)
	assert.Equal(t, []uint64{member.ID}, summaries[0].View().MemberIDs)

	report, err = Verify(db)
	require.NoError(t, err)
	assert.Zero(t, report.StaleSummaryCounts)
	assert.Zero(t, report.MissingSummaryPairs)
	assert.Equal(t, int64(1), report.OrphanReactions)
}
