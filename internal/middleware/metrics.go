package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studytrack/planner-api/internal/service"
)

// Metrics records latency and status for every request. The route template
// is preferred over the raw path so /calendar/events/:id stays one series
// regardless of the event ID.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
