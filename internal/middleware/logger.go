package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the gin context key holding the request ID.
const ContextKeyRequestID = "request_id"

// RequestID injects an X-Request-ID header into the request and response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Logger logs each HTTP request with method, path, status, size and latency.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		requestID := c.GetString(ContextKeyRequestID)
		if len(c.Errors) > 0 {
			log.Printf("[%s] %s %s %d %dB %s errors=%s",
				requestID, c.Request.Method, c.Request.URL.Path,
				c.Writer.Status(), c.Writer.Size(), latency, c.Errors.String())
			return
		}
		log.Printf("[%s] %s %s %d %dB %s",
			requestID, c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), c.Writer.Size(), latency)
	}
}

// Recovery recovers from panics and returns a 500 error.
func Recovery() gin.HandlerFunc {
	return gin.Recovery()
}
