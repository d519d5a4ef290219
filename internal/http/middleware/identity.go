// README: Identity middleware; authentication itself lives outside this service.
package middleware

import (
	"github.com/gin-gonic/gin"
)

const UserIDKey = "userID"

// Identity trusts the X-User-ID header set by the auth gateway in front of
// this service.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "missing X-User-ID"})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}
