package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey  = "userId"
	isGuestKey = "isGuest"
)

// Identity resolves the caller from X-User-Id, then X-Guest-Id, then the
// configured mock user. Authentication is handled upstream of this service.
func Identity(mockUserID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		if userID := strings.TrimSpace(c.GetHeader("X-User-Id")); userID != "" {
			c.Set(userIDKey, userID)
			c.Set(isGuestKey, false)
			c.Next()
			return
		}

		if guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id")); guestID != "" {
			c.Set(userIDKey, "guest:"+guestID)
			c.Set(isGuestKey, true)
			c.Next()
			return
		}

		c.Set(userIDKey, mockUserID)
		c.Set(isGuestKey, false)
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the identity middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
