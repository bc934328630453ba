package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"invoice-api/internal/shared/server/respond"
	"invoice-api/internal/shared/telemetry"
)

// Recovery turns panics into the JSON 500 body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				telemetry.FromContext(c.Request.Context()).WithFields(map[string]any{
					"error":  rec,
					"stack":  string(debug.Stack()),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("panic")
				respond.Error(c, http.StatusInternalServerError, "Internal server error")
			}
		}()
		c.Next()
	}
}
