package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoice-api/internal/shared/telemetry"
)

// ErrorResponse is the failure body used by the invoice API.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// BareError is the failure body used at the auth and upload boundary.
type BareError struct {
	Error string `json:"error"`
}

// OK writes a 200 response with the given payload.
func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// Error sends a {success:false, error} response and aborts the chain.
func Error(c *gin.Context, status int, message string) {
	logError(c, status, message)
	c.AbortWithStatusJSON(status, ErrorResponse{Success: false, Error: message})
}

// Bare sends an {error} response without the success flag.
func Bare(c *gin.Context, status int, message string) {
	logError(c, status, message)
	c.AbortWithStatusJSON(status, BareError{Error: message})
}

func logError(c *gin.Context, status int, message string) {
	fields := map[string]any{
		"status":     status,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	telemetry.Error("http.error", fields)
}
