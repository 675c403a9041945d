package domain

import "time"

// Conversation is the 1:1 direct-message container between two members.
// MemberLowID/MemberHighID hold the pair sorted so that the unique index
// rejects a second conversation for the same unordered pair.
type Conversation struct {
	ID             uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	WorkspaceID    uint64    `gorm:"column:workspace_id;uniqueIndex:idx_conversations_pair,priority:1" json:"workspace_id"`
	FirstMemberID  uint64    `gorm:"column:first_member_id;index" json:"first_member_id"`
	SecondMemberID uint64    `gorm:"column:second_member_id;index" json:"second_member_id"`
	MemberLowID    uint64    `gorm:"column:member_low_id;uniqueIndex:idx_conversations_pair,priority:2" json:"-"`
	MemberHighID   uint64    `gorm:"column:member_high_id;uniqueIndex:idx_conversations_pair,priority:3" json:"-"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Conversation) TableName() string { return "conversations" }

// CanonicalPair orders two member ids
func CanonicalPair(a, b uint64) (low, high uint64) {
	if a <= b {
		return a, b
	}
	return b, a
}

// NewConversation builds a conversation started by caller with other
func NewConversation(workspaceID, callerMemberID, otherMemberID uint64) *Conversation {
	low, high := CanonicalPair(callerMemberID, otherMemberID)
	return &Conversation{
		WorkspaceID:    workspaceID,
		FirstMemberID:  callerMemberID,
		SecondMemberID: otherMemberID,
		MemberLowID:    low,
		MemberHighID:   high,
	}
}

// Includes reports whether memberID participates in the conversation
func (c *Conversation) Includes(memberID uint64) bool {
	return c.FirstMemberID == memberID || c.SecondMemberID == memberID
}
