package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/service"
)

// UploadHandler issues presigned upload URLs for message images
type UploadHandler struct {
	service *service.UploadService
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(service *service.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

// Presign handles POST /uploads
// @Summary Get an image upload URL
// @Description PUT the file to upload_url, then pass key as the message image.
// @Tags uploads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body domain.UploadRequest true "upload target"
// @Success 200 {object} common.Response{data=service.UploadTicket}
// @Failure 403 {object} common.Response
// @Failure 503 {object} common.Response
// @Router /uploads [post]
func (h *UploadHandler) Presign(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req domain.UploadRequest
	if !bindJSON(c, &req) {
		return
	}

	ticket, err := h.service.PresignImage(c.Request.Context(), userID, req.WorkspaceID, req.ContentType)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, ticket)
}
