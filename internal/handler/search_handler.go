package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/service"
	"github.com/huddlechat/huddle-backend/pkg/ginutil"
)

// SearchHandler handles message search
type SearchHandler struct {
	service *service.SearchService
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(service *service.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// SearchMessages handles GET /workspaces/:id/messages/search
// @Summary Search messages in a workspace
// @Tags search
// @Produce json
// @Security BearerAuth
// @Param id path int true "workspace id"
// @Param q query string true "query"
// @Param from query int false "offset"
// @Param size query int false "page size (default 20)"
// @Success 200 {object} common.Response{data=service.SearchResult}
// @Failure 400 {object} common.Response
// @Failure 503 {object} common.Response
// @Router /workspaces/{id}/messages/search [get]
func (h *SearchHandler) SearchMessages(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}

	from := ginutil.QueryInt(c, "from", 0)
	size := ginutil.QueryInt(c, "size", 20)

	result, err := h.service.Search(c.Request.Context(), userID, workspaceID, c.Query("q"), from, size)
	if err != nil {
		common.ServiceError(c, err)
		return
	}
	common.Success(c, result)
}
