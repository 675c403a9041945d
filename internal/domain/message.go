package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Message is a chat message scoped to exactly one container:
// a channel, a conversation, or a thread (parent message).
// Thread replies keep their parent's channel/conversation fields so that
// one (channel_id, parent_message_id, conversation_id) index serves every feed.
type Message struct {
	ID              uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Body            string    `gorm:"column:body;type:text;not null" json:"body"`
	Image           *string   `gorm:"column:image;size:500" json:"-"`
	MemberID        uint64    `gorm:"column:member_id;index" json:"member_id"`
	WorkspaceID     uint64    `gorm:"column:workspace_id;index" json:"workspace_id"`
	ChannelID       *uint64   `gorm:"column:channel_id;index:idx_messages_scope,priority:1" json:"channel_id,omitempty"`
	ParentMessageID *uint64   `gorm:"column:parent_message_id;index:idx_messages_scope,priority:2" json:"parent_message_id,omitempty"`
	ConversationID  *uint64   `gorm:"column:conversation_id;index:idx_messages_scope,priority:3" json:"conversation_id,omitempty"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Message) TableName() string { return "messages" }

// Scope returns the message's scoping tuple
func (m *Message) Scope() Scope {
	return Scope{
		ChannelID:       m.ChannelID,
		ParentMessageID: m.ParentMessageID,
		ConversationID:  m.ConversationID,
	}
}

// Scope is the (channel_id, parent_message_id, conversation_id) tuple
// identifying one feed. Absent fields are nil and match NULL exactly.
type Scope struct {
	ChannelID       *uint64 `json:"channel_id,omitempty"`
	ParentMessageID *uint64 `json:"parent_message_id,omitempty"`
	ConversationID  *uint64 `json:"conversation_id,omitempty"`
}

// IsEmpty reports whether no scoping field is set
func (s Scope) IsEmpty() bool {
	return s.ChannelID == nil && s.ParentMessageID == nil && s.ConversationID == nil
}

// Key is the stable string form used as a live-update topic
func (s Scope) Key() string {
	return fmt.Sprintf("ch:%s|pm:%s|cv:%s", idOrDash(s.ChannelID), idOrDash(s.ParentMessageID), idOrDash(s.ConversationID))
}

func idOrDash(id *uint64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatUint(*id, 10)
}

// ThreadSummary describes the replies under a message.
// Count 0 carries no author fields.
type ThreadSummary struct {
	Count     int64      `json:"count"`
	Image     *string    `json:"image,omitempty"`
	Name      *string    `json:"name,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// MessageAuthor is the resolved author of a message
type MessageAuthor struct {
	MemberID uint64  `json:"member_id"`
	Role     Role    `json:"role"`
	UserID   uint64  `json:"user_id"`
	Name     string  `json:"name"`
	Image    *string `json:"image,omitempty"`
}

// MessageView is a message enriched for display. Thread is nil on single-message lookups.
type MessageView struct {
	ID              uint64         `json:"id"`
	Body            string         `json:"body"`
	Image           *string        `json:"image,omitempty"`
	MemberID        uint64         `json:"member_id"`
	WorkspaceID     uint64         `json:"workspace_id"`
	ChannelID       *uint64        `json:"channel_id,omitempty"`
	ParentMessageID *uint64        `json:"parent_message_id,omitempty"`
	ConversationID  *uint64        `json:"conversation_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Author          MessageAuthor  `json:"author"`
	Reactions       []ReactionView `json:"reactions"`
	Thread          *ThreadSummary `json:"thread,omitempty"`
}

// MessagePage is one page of a reverse-chronological feed
type MessagePage struct {
	Page           []MessageView `json:"page"`
	ContinueCursor string        `json:"continue_cursor"`
	IsDone         bool          `json:"is_done"`
}

// EmptyPage is returned to callers that may not see the scope
func EmptyPage() *MessagePage {
	return &MessagePage{Page: []MessageView{}, IsDone: true}
}

// CreateMessageInput carries a new message. Exactly one container must be
// addressed: a channel, a conversation, or only a parent message.
type CreateMessageInput struct {
	Body            string
	Image           *string
	WorkspaceID     uint64
	ChannelID       *uint64
	ConversationID  *uint64
	ParentMessageID *uint64
}

// Scope returns the scope named by the input
func (in CreateMessageInput) Scope() Scope {
	return Scope{ChannelID: in.ChannelID, ParentMessageID: in.ParentMessageID, ConversationID: in.ConversationID}
}

// ListMessagesInput selects one feed page
type ListMessagesInput struct {
	ChannelID       *uint64
	ConversationID  *uint64
	ParentMessageID *uint64
	Cursor          string
	Limit           int
}

// Scope returns the scope named by the input
func (in ListMessagesInput) Scope() Scope {
	return Scope{ChannelID: in.ChannelID, ParentMessageID: in.ParentMessageID, ConversationID: in.ConversationID}
}
