package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/huddlechat/huddle-backend/internal/handler"
	"github.com/huddlechat/huddle-backend/internal/middleware"
	"github.com/huddlechat/huddle-backend/internal/service"
	"github.com/huddlechat/huddle-backend/pkg/jwt"
	"github.com/redis/go-redis/v9"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Message      *handler.MessageHandler
	Reaction     *handler.ReactionHandler
	Workspace    *handler.WorkspaceHandler
	Channel      *handler.ChannelHandler
	Member       *handler.MemberHandler
	Conversation *handler.ConversationHandler
	Upload       *handler.UploadHandler
	Search       *handler.SearchHandler
	WS           *handler.WSHandler
}

// Options carries the auth and rate-limit collaborators
type Options struct {
	JWT       *jwt.Manager
	Users     service.UserService
	Redis     *redis.Client // nil selects the in-process limiter
	RateLimit middleware.RateLimitConfig
}

// Setup configures all API routes
func Setup(router *gin.Engine, h Handlers, opts Options) {
	auth := []gin.HandlerFunc{middleware.JWTAuth(opts.JWT), middleware.SyncUser(opts.Users)}
	limit := middleware.RateLimit(opts.Redis, opts.RateLimit)

	api := router.Group("/api/v1", auth...)

	// 메시지
	messages := api.Group("/messages")
	{
		messages.GET("", h.Message.List)
		messages.POST("", limit, h.Message.Create)
		messages.GET("/:id", h.Message.Get)
		messages.PATCH("/:id", limit, h.Message.Update)
		messages.DELETE("/:id", limit, h.Message.Remove)
		messages.POST("/:id/reactions", limit, h.Reaction.Toggle)
	}

	// 워크스페이스
	workspaces := api.Group("/workspaces")
	{
		workspaces.GET("", h.Workspace.List)
		workspaces.POST("", limit, h.Workspace.Create)
		workspaces.GET("/:id", h.Workspace.Get)
		workspaces.GET("/:id/info", h.Workspace.Info)
		workspaces.PATCH("/:id", limit, h.Workspace.Update)
		workspaces.DELETE("/:id", limit, h.Workspace.Remove)
		workspaces.POST("/:id/join-code", limit, h.Workspace.NewJoinCode)
		workspaces.POST("/:id/join", limit, h.Workspace.Join)

		workspaces.GET("/:id/channels", h.Channel.List)
		workspaces.POST("/:id/channels", limit, h.Channel.Create)

		workspaces.GET("/:id/members", h.Member.List)
		workspaces.GET("/:id/members/me", h.Member.Current)

		workspaces.POST("/:id/conversations", limit, h.Conversation.FindOrCreate)

		workspaces.GET("/:id/messages/search", h.Search.SearchMessages)
	}

	// 채널
	channels := api.Group("/channels")
	{
		channels.GET("/:id", h.Channel.Get)
		channels.PATCH("/:id", limit, h.Channel.Update)
		channels.DELETE("/:id", limit, h.Channel.Remove)
	}

	// 멤버
	members := api.Group("/members")
	{
		members.GET("/:id", h.Member.Get)
		members.PATCH("/:id", limit, h.Member.UpdateRole)
		members.DELETE("/:id", limit, h.Member.Remove)
	}

	api.POST("/uploads", limit, h.Upload.Presign)

	// 실시간 업데이트 (WebSocket)
	router.GET("/ws", append(auth, h.WS.Connect)...)
}
