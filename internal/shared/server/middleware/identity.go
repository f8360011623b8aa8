package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docflow-backend/internal/shared/server/respond"
)

const userIDKey = "userId"

// Identity reads the caller identity established by the upstream auth layer.
// Authentication itself happens outside this service; requests arrive with an
// X-User-Id header set by the gateway.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		userID := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if userID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserIDFromContext fetches the user ID stored by Identity middleware.
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
