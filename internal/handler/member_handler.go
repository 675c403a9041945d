package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/service"
)

// MemberHandler handles workspace membership requests
type MemberHandler struct {
	service service.MembershipService
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(service service.MembershipService) *MemberHandler {
	return &MemberHandler{service: service}
}

// Current handles GET /workspaces/:id/members/me
// @Summary My membership in a workspace
// @Description data is null when the caller is not a member.
// @Tags members
// @Produce json
// @Security BearerAuth
// @Param id path int true "workspace id"
// @Success 200 {object} common.Response{data=domain.Member}
// @Router /workspaces/{id}/members/me [get]
func (h *MemberHandler) Current(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	member, err := h.service.Current(c.Request.Context(), userID, workspaceID)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, member)
}

// List handles GET /workspaces/:id/members
// @Summary List members with their profiles
// @Tags members
// @Produce json
// @Security BearerAuth
// @Param id path int true "workspace id"
// @Success 200 {object} common.Response{data=[]domain.MemberWithUser}
// @Router /workspaces/{id}/members [get]
func (h *MemberHandler) List(c *gin.Context) {
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

// Get handles GET /members/:id
// @Summary Get a member
// @Tags members
// @Produce json
// @Security BearerAuth
// @Param id path int true "member id"
// @Success 200 {object} common.Response{data=domain.MemberWithUser}
// @Router /members/{id} [get]
func (h *MemberHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	memberID, ok := pathID(c, "id")
	if !ok {
		return
	}
	member, err := h.service.GetByID(c.Request.Context(), userID, memberID)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, member)
}

// UpdateRole handles PATCH /members/:id
// @Summary Change a member's role
// @Tags members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "member id"
// @Param request body domain.UpdateRoleRequest true "role"
// @Success 200 {object} common.Response{data=idResponse}
// @Failure 403 {object} common.Response
// @Router /members/{id} [patch]
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	memberID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req domain.UpdateRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.service.UpdateRole(c.Request.Context(), userID, memberID, req.Role)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, idResponse{ID: id})
}

// Remove handles DELETE /members/:id
// @Summary Remove a member or leave a workspace
// @Description Members may remove themselves. Admins may remove other non-admins. An admin cannot remove itself.
// @Tags members
// @Produce json
// @Security BearerAuth
// @Param id path int true "member id"
// @Success 200 {object} common.Response{data=idResponse}
// @Failure 403 {object} common.Response
// @Router /members/{id} [delete]
func (h *MemberHandler) Remove(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	memberID, ok := pathID(c, "id")
	if !ok {
		return
	}
	id, err := h.service.Remove(c.Request.Context(), userID, memberID)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, idResponse{ID: id})
}
