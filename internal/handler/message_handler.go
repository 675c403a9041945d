package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/service"
	"github.com/huddlechat/huddle-backend/pkg/ginutil"
	"github.com/huddlechat/huddle-backend/pkg/pagination"
)

// MessageHandler handles message HTTP requests
type MessageHandler struct {
	messages service.MessageService
	feed     service.FeedService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messages service.MessageService, feed service.FeedService) *MessageHandler {
	return &MessageHandler{messages: messages, feed: feed}
}

// Create handles POST /messages
// @Summary Post a message
// @Description Posts to a channel, a conversation or a thread. A reply given only its parent inherits the parent's scope.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body domain.CreateMessageRequest true "message"
// @Success 201 {object} common.Response{data=idResponse}
// @Failure 400 {object} common.Response
// @Failure 403 {object} common.Response
// @Failure 404 {object} common.Response
// @Router /messages [post]
func (h *MessageHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req domain.CreateMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.messages.Create(c.Request.Context(), userID, req.Input())
	if err != nil {
		common.ServiceError(c, err)
		return
	}

	common.Created(c, idResponse{ID: id})
}

// Update handles PATCH /messages/:id
// @Summary Edit a message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "message id"
// @Param request body domain.UpdateMessageRequest true "new body"
// @Success 200 {object} common.Response{data=idResponse}
// @Failure 403 {object} common.Response
// @Failure 404 {object} common.Response
// @Router /messages/{id} [patch]
func (h *MessageHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req domain.UpdateMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.messages.Update(c.Request.Context(), userID, messageID, req.Body)
	if err != nil {
		common.ServiceError(c, err)
		return
	}

	common.Success(c, idResponse{ID: id})
}

// Remove handles DELETE /messages/:id
// @Summary Delete a message
// @Description Only the author may delete. Replies of a deleted parent are kept.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "message id"
// @Success 200 {object} common.Response{data=idResponse}
// @Failure 403 {object} common.Response
// @Failure 404 {object} common.Response
// @Router /messages/{id} [delete]
func (h *MessageHandler) Remove(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "id")
	if !ok {
		return
	}

	id, err := h.messages.Remove(c.Request.Context(), userID, messageID)
	if err != nil {
		common.ServiceError(c, err)
		return
	}

	common.Success(c, idResponse{ID: id})
}

// Get handles GET /messages/:id
// @Summary Get one message
// @Description Returns data null when the message is missing or not readable by the caller.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "message id"
// @Success 200 {object} common.Response{data=domain.MessageView}
// @Router /messages/{id} [get]
func (h *MessageHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := h.feed.Get(c.Request.Context(), userID, messageID)
	if err != nil {
		common.ServiceError(c, err)
		return
	}

	common.Success(c, view)
}

// List handles GET /messages
// @Summary List a feed
// @Description Newest first. Pass continue_cursor back as cursor for the next page.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param channel_id query int false "channel id"
// @Param conversation_id query int false "conversation id"
// @Param parent_message_id query int false "thread parent id"
// @Param cursor query string false "continuation cursor"
// @Param limit query int false "page size (default 25, max 100)"
// @Success 200 {object} common.Response{data=domain.MessagePage}
// @Failure 400 {object} common.Response
// @Router /messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var in domain.ListMessagesInput
	var err error
	if in.ChannelID, err = ginutil.QueryUint64(c, "channel_id"); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid channel_id")
		return
	}
	if in.ConversationID, err = ginutil.QueryUint64(c, "conversation_id"); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid conversation_id")
		return
	}
	if in.ParentMessageID, err = ginutil.QueryUint64(c, "parent_message_id"); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid parent_message_id")
		return
	}
	in.Cursor = c.Query("cursor")
	in.Limit = ginutil.QueryInt(c, "limit", pagination.MessageDefaultLimit)

	page, err := h.feed.List(c.Request.Context(), userID, in)
	if err != nil {
		common.ServiceError(c, err)
		return
	}

	common.Success(c, page)
}
