package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/delegationapp/delegate/internal/service"
)

// Metrics records request counts and latency per route.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
