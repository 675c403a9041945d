package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/service"
)

// ReactionHandler handles reaction toggles
type ReactionHandler struct {
	service service.ReactionService
}

// NewReactionHandler creates a new ReactionHandler
func NewReactionHandler(service service.ReactionService) *ReactionHandler {
	return &ReactionHandler{service: service}
}

// Toggle handles POST /messages/:id/reactions
// @Summary Toggle a reaction
// @Description Adds the reaction, or removes it when the caller already reacted with the same value.
// @Tags reactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "message id"
// @Param request body domain.ToggleReactionRequest true "reaction value"
// @Success 200 {object} common.Response{data=idResponse}
// @Failure 403 {object} common.Response
// @Failure 404 {object} common.Response
// @Router /messages/{id}/reactions [post]
func (h *ReactionHandler) Toggle(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req domain.ToggleReactionRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.service.Toggle(c.Request.Context(), userID, messageID, req.Value)
	if err != nil {
		common.ServiceError(c, err)
		return
	}

	common.Success(c, idResponse{ID: id})
}
