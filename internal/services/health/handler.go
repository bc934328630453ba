package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const llmCheckTimeout = 10 * time.Second

// Handler serves the health endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the unauthenticated health routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.status)
	r.GET("/api/llm/health", h.llm)
}

func (h *Handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.Svc.Status())
}

func (h *Handler) llm(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), llmCheckTimeout)
	defer cancel()

	payload, ok := h.Svc.LLM(ctx)
	if !ok {
		c.JSON(http.StatusInternalServerError, payload)
		return
	}
	c.JSON(http.StatusOK, payload)
}
