package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/constants"
	apierrors "github.com/giacomoverdi/voice-notes-transcriber/internal/errors"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/services"
)

// RequireAuth validates the bearer token and stores the user ID in context.
func RequireAuth(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		userID, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context.
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
