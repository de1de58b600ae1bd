package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/canvasflow/observability"
)

// Metrics records request count and latency per route template. Unmatched
// requests are recorded under "unmatched" to keep cardinality bounded.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordRequest(c.Request.Context(), c.Request.Method, route, c.Writer.Status(), time.Since(start))
		if c.Writer.Status() >= 500 {
			m.RecordError(c.Request.Context(), "http_5xx", "server")
		}
	}
}
