package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/service"
)

// ChannelHandler handles channel HTTP requests
type ChannelHandler struct {
	service service.ChannelService
}

// NewChannelHandler creates a new ChannelHandler
func NewChannelHandler(service service.ChannelService) *ChannelHandler {
	return &ChannelHandler{service: service}
}

// Create handles POST /workspaces/:id/channels
// @Summary Create a channel
// @Description Admin only. The name is slugged: whitespace becomes "-" and letters are lowercased.
// @Tags channels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "workspace id"
// @Param request body domain.NameRequest true "channel name"
// @Success 201 {object} common.Response{data=idResponse}
// @Failure 403 {object} common.Response
// @Router /workspaces/{id}/channels [post]
func (h *ChannelHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req domain.NameRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.service.Create(c.Request.Context(), userID, workspaceID, req.Name)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Created(c, idResponse{ID: id})
}

// List handles GET /workspaces/:id/channels
// @Summary List channels
// @Description Empty for non-members.
// @Tags channels
// @Produce json
// @Security BearerAuth
// @Param id path int true "workspace id"
// @Success 200 {object} common.Response{data=[]domain.Channel}
// @Router /workspaces/{id}/channels [get]
func (h *ChannelHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.service.List(c.Request.Context(), userID, workspaceID)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, list)
}

// Get handles GET /channels/:id
// @Summary Get a channel
// @Tags channels
// @Produce json
// @Security BearerAuth
// @Param id path int true "channel id"
// @Success 200 {object} common.Response{data=domain.Channel}
// @Router /channels/{id} [get]
func (h *ChannelHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	channelID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ch, err := h.service.GetByID(c.Request.Context(), userID, channelID)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, ch)
}

// Update handles PATCH /channels/:id
// @Summary Rename a channel
// @Tags channels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "channel id"
// @Param request body domain.NameRequest true "new name"
// @Success 200 {object} common.Response{data=idResponse}
// @Failure 403 {object} common.Response
// @Router /channels/{id} [patch]
func (h *ChannelHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	channelID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req domain.NameRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.service.Update(c.Request.Context(), userID, channelID, req.Name)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, idResponse{ID: id})
}

// Remove handles DELETE /channels/:id
// @Summary Delete a channel
// @Description Admin only. Removes the channel's messages and their reactions.
// @Tags channels
// @Produce json
// @Security BearerAuth
// @Param id path int true "channel id"
// @Success 200 {object} common.Response{data=idResponse}
// @Failure 403 {object} common.Response
// @Router /channels/{id} [delete]
func (h *ChannelHandler) Remove(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	channelID, ok := pathID(c, "id")
	if !ok {
		return
	}
	id, err := h.service.Remove(c.Request.Context(), userID, channelID)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, idResponse{ID: id})
}
