package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/service"
	"github.com/huddlechat/huddle-backend/pkg/logger"
)

// SyncUser mirrors the token's profile claims into the users table.
// It must run after JWTAuth. Sync failures are logged and do not block the request.
func SyncUser(users service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		userID := GetUserID(c)
		if claims == nil || userID == 0 {
			c.Next()
			return
		}

		name := claims.Name
		if name == "" {
			name = claims.Email
		}
		err := users.Sync(c.Request.Context(), &domain.User{
			ID:    userID,
			Name:  name,
			Email: claims.Email,
			Image: claims.Image,
		})
		if err != nil {
			logger.GetLogger().Warn().Err(err).Uint64("user_id", userID).Msg("user sync failed")
		}

		c.Next()
	}
}
