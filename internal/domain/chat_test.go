package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u64(v uint64) *uint64 { return &v }

func TestAggregateReactions(t *testing.T) {
	rows := []Reaction{
		{Value: "👍", MemberID: 1},
		{Value: "👍", MemberID: 2},
		{Value: "😀", MemberID: 1},
	}

	got := AggregateReactions(rows)

	require.Len(t, got, 2)
	assert.Equal(t, ReactionView{Value: "👍", Count: 2, MemberIDs: []uint64{1, 2}}, got[0])
	assert.Equal(t, ReactionView{Value: "😀", Count: 1, MemberIDs: []uint64{1}}, got[1])
}

func TestAggregateReactions_DuplicateRows(t *testing.T) {
	rows := []Reaction{
		{Value: "🎉", MemberID: 5},
		{Value: "🎉", MemberID: 5},
	}

	got := AggregateReactions(rows)

	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, []uint64{5}, got[0].MemberIDs)
}

func TestAggregateReactions_Empty(t *testing.T) {
	got := AggregateReactions(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReactionSummaryRoundTrip(t *testing.T) {
	s, err := NewReactionSummary(9, 1, ReactionView{Value: "👍", Count: 2, MemberIDs: []uint64{3, 4}})
	require.NoError(t, err)

	assert.Equal(t, ReactionView{Value: "👍", Count: 2, MemberIDs: []uint64{3, 4}}, s.View())
}

func TestChannelSlug(t *testing.T) {
	assert.Equal(t, "product-launch", ChannelSlug("Product Launch"))
	assert.Equal(t, "a-b", ChannelSlug("A \t  B"))
	assert.Equal(t, "general", ChannelSlug("general"))
}

func TestCanonicalPair(t *testing.T) {
	low, high := CanonicalPair(9, 3)
	assert.Equal(t, uint64(3), low)
	assert.Equal(t, uint64(9), high)

	a := NewConversation(1, 9, 3)
	b := NewConversation(1, 3, 9)
	assert.Equal(t, a.MemberLowID, b.MemberLowID)
	assert.Equal(t, a.MemberHighID, b.MemberHighID)
	assert.Equal(t, uint64(9), a.FirstMemberID)
	assert.True(t, a.Includes(3))
	assert.False(t, a.Includes(4))
}

func TestScopeKey(t *testing.T) {
	assert.Equal(t, "ch:1|pm:-|cv:-", Scope{ChannelID: u64(1)}.Key())
	assert.Equal(t, "ch:-|pm:7|cv:2", Scope{ParentMessageID: u64(7), ConversationID: u64(2)}.Key())
	assert.True(t, Scope{}.IsEmpty())
	assert.False(t, Scope{ConversationID: u64(2)}.IsEmpty())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleMember.Valid())
	assert.False(t, Role("owner").Valid())
}
