package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoice-api/internal/invoices"
	"invoice-api/internal/services/health"
	"invoice-api/internal/shared/auth"
	"invoice-api/internal/shared/config"
	"invoice-api/internal/shared/metrics"
	"invoice-api/internal/shared/server/middleware"
	"invoice-api/internal/shared/server/respond"
)

// RouterDeps carries the handlers and collaborators the router mounts.
type RouterDeps struct {
	Config         config.Config
	Verifier       auth.Verifier
	InvoiceHandler *invoices.Handler
	HealthHandler  *health.Handler
	// FilesDir, when set, is served read-only at /files for the local object store.
	FilesDir string
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	if deps.HealthHandler != nil {
		deps.HealthHandler.RegisterRoutes(r)
	}
	r.GET("/metrics", metrics.Handler())

	if deps.FilesDir != "" {
		r.StaticFS("/files", gin.Dir(deps.FilesDir, false))
	}

	if deps.InvoiceHandler != nil {
		api := r.Group("/api/invoices")
		api.Use(middleware.Auth(deps.Verifier))
		deps.InvoiceHandler.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "Not found")
	})

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
