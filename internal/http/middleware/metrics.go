// README: Prometheus request metrics middleware.
package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"ecoscoot/internal/observability"
)

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		observability.HTTPRequestsTotal.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Inc()
	}
}
