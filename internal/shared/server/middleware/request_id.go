package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invoice-api/internal/shared/telemetry"
)

const requestIDKey = "requestId"

// RequestID attaches a request ID to the response header and a request-scoped
// logger carrying it to the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set("X-Request-Id", id)

		entry := telemetry.FromContext(c.Request.Context()).WithField("request_id", id)
		c.Request = c.Request.WithContext(telemetry.WithLogger(c.Request.Context(), entry))
		c.Next()
	}
}

// RequestIDFromContext fetches the request ID stored by RequestID middleware.
func RequestIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(requestIDKey)
}
