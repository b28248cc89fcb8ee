package monitoring

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware records request metrics and logs each request.
func Middleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncrementRequest()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		metrics.RecordResponseTime(duration)
		metrics.RecordRequestByStatus(statusCode)
		if statusCode >= 400 {
			metrics.IncrementError()
		}

		logger.RequestLogger(c.Request.Method, c.Request.URL.Path, c.ClientIP(), statusCode, duration)
	}
}
