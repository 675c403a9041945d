package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/service"
)

// WorkspaceHandler handles workspace HTTP requests
type WorkspaceHandler struct {
	service service.WorkspaceService
}

// NewWorkspaceHandler creates a new WorkspaceHandler
func NewWorkspaceHandler(service service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{service: service}
}

// Create handles POST /workspaces
// @Summary Create a workspace
// @Description The caller becomes its admin and a general channel is created.
// @Tags workspaces
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body domain.NameRequest true "workspace name"
// @Success 201 {object} common.Response{data=idResponse}
// @Router /workspaces [post]
func (h *WorkspaceHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req domain.NameRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.service.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Created(c, idResponse{ID: id})
}

// List handles GET /workspaces
// @Summary List my workspaces
// @Tags workspaces
// @Produce json
// @Security BearerAuth
// @Success 200 {object} common.Response{data=[]domain.Workspace}
// @Router /workspaces [get]
func (h *WorkspaceHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	list, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, list)
}

// Get handles GET /workspaces/:id
// @Summary Get a workspace
// @Description data is null when the caller is not a member.
// @Tags workspaces
// @Produce json
// @Security BearerAuth
// @Param id path int true "workspace id"
// @Success 200 {object} common.Response{data=domain.Workspace}
// @Router /workspaces/{id} [get]
func (h *WorkspaceHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ws, err := h.service.GetByID(c.Request.Context(), userID, workspaceID)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, ws)
}

// Info handles GET /workspaces/:id/info
// @Summary Public workspace info
// @Description Name and whether the caller already belongs to it. Used by the join page.
// @Tags workspaces
// @Produce json
// @Security BearerAuth
// @Param id path int true "workspace id"
// @Success 200 {object} common.Response{data=domain.WorkspaceInfo}
// @Router /workspaces/{id}/info [get]
func (h *WorkspaceHandler) Info(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	info, err := h.service.GetInfo(c.Request.Context(), userID, workspaceID)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, info)
}

// Update handles PATCH /workspaces/:id
// @Summary Rename a workspace
// @Tags workspaces
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "workspace id"
// @Param request body domain.NameRequest true "new name"
// @Success 200 {object} common.Response{data=idResponse}
// @Failure 403 {object} common.Response
// @Router /workspaces/{id} [patch]
func (h *WorkspaceHandler) Update(c *gin.Context) {
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
	id, err := h.service.Update(c.Request.Context(), userID, workspaceID, req.Name)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, idResponse{ID: id})
}

// Remove handles DELETE /workspaces/:id
// @Summary Delete a workspace
// @Description Admin only. Removes members, channels, conversations, messages and reactions.
// @Tags workspaces
// @Produce json
// @Security BearerAuth
// @Param id path int true "workspace id"
// @Success 200 {object} common.Response{data=idResponse}
// @Failure 403 {object} common.Response
// @Router /workspaces/{id} [delete]
func (h *WorkspaceHandler) Remove(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	id, err := h.service.Remove(c.Request.Context(), userID, workspaceID)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, idResponse{ID: id})
}

// NewJoinCode handles POST /workspaces/:id/join-code
// @Summary Rotate the join code
// @Tags workspaces
// @Produce json
// @Security BearerAuth
// @Param id path int true "workspace id"
// @Success 200 {object} common.Response{data=idResponse}
// @Failure 403 {object} common.Response
// @Router /workspaces/{id}/join-code [post]
func (h *WorkspaceHandler) NewJoinCode(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	id, err := h.service.NewJoinCode(c.Request.Context(), userID, workspaceID)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, idResponse{ID: id})
}

// Join handles POST /workspaces/:id/join
// @Summary Join with a code
// @Tags workspaces
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "workspace id"
// @Param request body domain.JoinWorkspaceRequest true "join code"
// @Success 200 {object} common.Response{data=idResponse}
// @Failure 400 {object} common.Response
// @Failure 409 {object} common.Response
// @Router /workspaces/{id}/join [post]
func (h *WorkspaceHandler) Join(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req domain.JoinWorkspaceRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.service.Join(c.Request.Context(), userID, workspaceID, req.JoinCode)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, idResponse{ID: id})
}
