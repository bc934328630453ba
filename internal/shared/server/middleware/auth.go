package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"invoice-api/internal/shared/auth"
	"invoice-api/internal/shared/server/respond"
	"invoice-api/internal/shared/telemetry"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
)

// Auth verifies the bearer token and stores the identity in context.
func Auth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respond.Bare(c, http.StatusUnauthorized, "No authorization header")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" || token == "Bearer" {
			respond.Bare(c, http.StatusUnauthorized, "No token provided")
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				respond.Bare(c, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			telemetry.FromContext(c.Request.Context()).WithError(err).Warn("auth.verify_failed")
			respond.Bare(c, http.StatusUnauthorized, "Authentication failed")
			return
		}

		c.Set(userIDKey, identity.ID)
		if identity.Email != "" {
			c.Set(userEmailKey, identity.Email)
		}

		entry := telemetry.FromContext(c.Request.Context()).WithField("user_id", identity.ID)
		c.Request = c.Request.WithContext(telemetry.WithLogger(c.Request.Context(), entry))
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userEmailKey)
}
