package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/reset-mailer/pkg/logger"
)

// Logger returns a middleware that logs each admin request once it is served.
// Probe and scrape traffic logs at debug so it stays out of normal output.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Warn("Server error", fields...)
		case status >= 400:
			log.Warn("Client error", fields...)
		default:
			log.Debug("Request processed", fields...)
		}
	}
}
