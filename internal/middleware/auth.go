package middleware

import (
	"context"
	"net/http"
	"strings"

	"anoa.com/datingapp/pkg/logger"
	"anoa.com/datingapp/pkg/response"
	"anoa.com/datingapp/pkg/token"
	"github.com/gin-gonic/gin"
)

// ActivityTracker records that an authenticated user made a request.
type ActivityTracker interface {
	TouchLastActive(ctx context.Context, id uint) error
}

type AuthMiddleware struct {
	tokens   *token.Manager
	activity ActivityTracker
}

func NewAuthMiddleware(tokens *token.Manager, activity ActivityTracker) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		activity: activity,
	}
}

// RequireAuth validates the bearer token and stores the caller identity in the
// context. The token query parameter is accepted for websocket clients.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenString = strings.TrimSpace(parts[1])
			}
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		claims, err := m.tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(response.ContextUserID, userID)
		c.Set(response.ContextUsername, claims.UniqueName)
		c.Set(response.ContextRoles, claims.Role)
		c.Next()
	}
}

// RequireRoles allows the request when the caller holds any of the given roles.
func (m *AuthMiddleware) RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		held, _ := c.Get(response.ContextRoles)
		names, _ := held.([]string)

		for _, have := range names {
			for _, want := range roles {
				if strings.EqualFold(have, want) {
					c.Next()
					return
				}
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "you do not have permission to perform this action"})
	}
}

// RequireSelf rejects requests whose route parameter does not match the caller.
func (m *AuthMiddleware) RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := response.GetUserID(c)
		if err != nil {
			response.ResponseError(c, err)
			c.Abort()
			return
		}

		id, err := response.ParamID(c, param)
		if err != nil || id != userID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "you can only access your own resources"})
			return
		}
		c.Next()
	}
}

// TrackLastActive updates the caller's last active time once the handler ran.
func (m *AuthMiddleware) TrackLastActive() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if m.activity == nil {
			return
		}
		userID, err := response.GetUserID(c)
		if err != nil {
			return
		}
		if err := m.activity.TouchLastActive(c.Request.Context(), userID); err != nil {
			logger.Warn("failed to track last active", "user_id", userID, "error", err)
		}
	}
}
