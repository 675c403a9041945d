package domain

// Live-update event types pushed to scope subscribers
const (
	EventMessageCreated  = "message.created"
	EventMessageUpdated  = "message.updated"
	EventMessageDeleted  = "message.deleted"
	EventReactionUpdated = "reaction.updated"
	EventThreadUpdated   = "thread.updated"
)

// MessageDeletedPayload is the payload of message.deleted
type MessageDeletedPayload struct {
	ID uint64 `json:"id"`
}

// ReactionUpdatedPayload is the payload of reaction.updated
type ReactionUpdatedPayload struct {
	MessageID uint64         `json:"message_id"`
	Reactions []ReactionView `json:"reactions"`
}

// ThreadUpdatedPayload is the payload of thread.updated, sent to the parent's scope
type ThreadUpdatedPayload struct {
	MessageID uint64         `json:"message_id"`
	Thread    *ThreadSummary `json:"thread"`
}
