package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/middleware"
	"github.com/huddlechat/huddle-backend/internal/ws"
	pkglogger "github.com/huddlechat/huddle-backend/pkg/logger"
)

// WSHandler upgrades live-update connections
type WSHandler struct {
	hub            *ws.Hub
	authorizer     ws.ScopeAuthorizer
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. Subscriptions are checked through authorizer.
func NewWSHandler(hub *ws.Hub, authorizer ws.ScopeAuthorizer, allowedOrigins string) *WSHandler {
	h := &WSHandler{
		hub:            hub,
		authorizer:     authorizer,
		allowedOrigins: parseOrigins(allowedOrigins),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// parseOrigins parses comma-separated origins string
func parseOrigins(origins string) []string {
	if origins == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// checkOrigin validates the request origin against allowed origins
func (h *WSHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // Same-origin requests don't have Origin header
	}

	// If no allowed origins configured, allow all (development mode)
	if len(h.allowedOrigins) == 0 {
		return true
	}

	// Check against allowed origins
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}

	return false
}

// Connect handles GET /ws
// @Summary Live updates WebSocket
// @Description Send {"action":"subscribe","channel_id":1} frames to follow a feed. The token may be passed as ?token=.
// @Tags live
// @Security BearerAuth
// @Param token query string false "JWT when the Authorization header cannot be set"
// @Router /ws [get]
func (h *WSHandler) Connect(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		pkglogger.GetLogger().Debug().Err(err).Uint64("user_id", userID).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn, userID, h.authorizer)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
