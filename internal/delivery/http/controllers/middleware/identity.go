package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserIDCtx is the gin context key holding the learner's id.
const UserIDCtx = "userID"

const userIDHeader = "X-User-ID"

// RequireUser extracts the learner id from the X-User-ID header. Session
// handling lives outside this service; the header is trusted as-is.
func RequireUser(c *gin.Context) {
	raw := c.GetHeader(userIDHeader)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header is required"})
		return
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
		return
	}
	c.Set(UserIDCtx, userID)
	c.Next()
}
