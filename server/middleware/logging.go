package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/previewkit/logger"
)

const slowRequest = 500 * time.Millisecond

var probePaths = map[string]bool{
	"/health": true,
	"/alive":  true,
	"/ready":  true,
}

// RequestLogger logs each non-probe request once it completes.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if probePaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		fields := logger.Fields(
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			logger.FieldDuration, latency.Milliseconds(),
		)
		if fields["path"] == "" {
			fields["path"] = c.Request.URL.Path
		}
		if id := c.GetString(KeyRequestID); id != "" {
			fields[KeyRequestID] = id
		}
		if latency > slowRequest {
			fields["slow"] = true
		}

		switch {
		case status >= 500:
			log.Error("request completed", fields)
		case status >= 400:
			log.Warn("request completed", fields)
		default:
			log.Debug("request completed", fields)
		}
	}
}
