package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/service"
)

// ConversationHandler handles direct conversations
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// FindOrCreate handles POST /workspaces/:id/conversations
// @Summary Open a direct conversation
// @Description Returns the existing conversation between the caller and member_id, creating it on first use.
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "workspace id"
// @Param request body domain.ConversationRequest true "other member"
// @Success 200 {object} common.Response{data=idResponse}
// @Failure 403 {object} common.Response
// @Failure 404 {object} common.Response
// @Router /workspaces/{id}/conversations [post]
func (h *ConversationHandler) FindOrCreate(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req domain.ConversationRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.service.FindOrCreate(c.Request.Context(), userID, workspaceID, req.MemberID)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, idResponse{ID: id})
}
