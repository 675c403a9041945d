package domain

// Request DTOs bound by the HTTP handlers. Validation tags are checked by gin's
// validator before the request reaches a service.

// CreateMessageRequest is the body of POST /messages
type CreateMessageRequest struct {
	Body            string  `json:"body" binding:"required,max=20000"`
	Image           *string `json:"image" binding:"omitempty,max=500"`
	WorkspaceID     uint64  `json:"workspace_id" binding:"required"`
	ChannelID       *uint64 `json:"channel_id"`
	ConversationID  *uint64 `json:"conversation_id"`
	ParentMessageID *uint64 `json:"parent_message_id"`
}

// Input converts the request to service input
func (r *CreateMessageRequest) Input() CreateMessageInput {
	return CreateMessageInput{
		Body:            r.Body,
		Image:           r.Image,
		WorkspaceID:     r.WorkspaceID,
		ChannelID:       r.ChannelID,
		ConversationID:  r.ConversationID,
		ParentMessageID: r.ParentMessageID,
	}
}

// UpdateMessageRequest is the body of PATCH /messages/:id
type UpdateMessageRequest struct {
	Body string `json:"body" binding:"required,max=20000"`
}

// ToggleReactionRequest is the body of POST /messages/:id/reactions
type ToggleReactionRequest struct {
	Value string `json:"value" binding:"required,max=64"`
}

// NameRequest creates or renames a workspace or channel
type NameRequest struct {
	Name string `json:"name" binding:"required,min=1,max=80"`
}

// JoinWorkspaceRequest is the body of POST /workspaces/:id/join
type JoinWorkspaceRequest struct {
	JoinCode string `json:"join_code" binding:"required,max=16"`
}

// UpdateRoleRequest is the body of PATCH /members/:id
type UpdateRoleRequest struct {
	Role Role `json:"role" binding:"required,member_role"`
}

// ConversationRequest is the body of POST /workspaces/:id/conversations
type ConversationRequest struct {
	MemberID uint64 `json:"member_id" binding:"required"`
}

// UploadRequest is the body of POST /uploads
type UploadRequest struct {
	WorkspaceID uint64 `json:"workspace_id" binding:"required"`
	ContentType string `json:"content_type" binding:"required,oneof=image/png image/jpeg image/gif image/webp"`
}
