// Package middleware holds the Gin middleware installed on the status server.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/previewkit/errors"
	"github.com/kbukum/previewkit/logger"
)

const (
	// HeaderRequestID carries the request identifier.
	HeaderRequestID = "X-Request-Id"
	// KeyRequestID is the gin.Context key holding the request identifier.
	KeyRequestID = "request_id"

	maxRequestIDLen = 128
)

// RequestID propagates the caller's X-Request-Id, or generates one when it
// is missing or oversized, and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(KeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// Recovery turns a handler panic into a 500 error envelope and logs the stack.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := logger.Fields(
				logger.FieldError, fmt.Sprint(rec),
				"stack", string(debug.Stack()),
				"path", c.Request.URL.Path,
			)
			if id := c.GetString(KeyRequestID); id != "" {
				fields[KeyRequestID] = id
			}
			log.Error("panic recovered", fields)
			appErr := errors.Internal(fmt.Errorf("handler panicked: %v", rec))
			c.AbortWithStatusJSON(http.StatusInternalServerError, appErr.ToResponse())
		}()
		c.Next()
	}
}
