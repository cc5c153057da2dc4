package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/velesoft/lineplan-api/internal/service"
)

// Metrics records request counts and latency per route template. Requests
// that match no route share one label so scanners cannot inflate the
// metric cardinality with random paths.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
