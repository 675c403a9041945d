package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/pkg/jwt"
)

const (
	ctxUserID = "userID"
	ctxClaims = "claims"
)

// JWTAuth JWT authentication middleware.
// Browsers cannot set headers on a WebSocket upgrade, so ?token= is accepted too.
func JWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Extract token
		tokenString, ok := bearerToken(c)
		if !ok {
			common.ErrorResponse(c, http.StatusUnauthorized, "Missing or malformed authorization")
			c.Abort()
			return
		}

		// 2. Verify token
		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, http.StatusUnauthorized, "Token expired")
			} else {
				common.ErrorResponse(c, http.StatusUnauthorized, "Invalid token")
			}
			c.Abort()
			return
		}

		// 3. Subject must be a numeric user id
		userID, err := claims.UserID()
		if err != nil {
			common.ErrorResponse(c, http.StatusUnauthorized, "Invalid token subject")
			c.Abort()
			return
		}

		// 4. Store identity in context
		c.Set(ctxUserID, userID)
		c.Set(ctxClaims, claims)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

// GetUserID extracts the authenticated user ID from context (0 when absent)
func GetUserID(c *gin.Context) uint64 {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return 0
	}
	if id, ok := userID.(uint64); ok {
		return id
	}
	return 0
}

// GetClaims extracts the verified token claims from context
func GetClaims(c *gin.Context) *jwt.Claims {
	claims, exists := c.Get(ctxClaims)
	if !exists {
		return nil
	}
	if cl, ok := claims.(*jwt.Claims); ok {
		return cl
	}
	return nil
}
