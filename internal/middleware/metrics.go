package middleware

import (
	"github.com/gin-gonic/gin"

	"finsync/internal/metrics"
)

// Metrics records request counts and latency by route template.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := m.StartRequest(c.Request.Method, c.FullPath())
		c.Next()
		done(c.Writer.Status())
	}
}
