package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-api/internal/invoices"
	"invoice-api/internal/shared/auth"
	"invoice-api/internal/shared/config"
)

func devConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:            "dev",
		MaxUploadBytes: 10 << 20,
		StepTimeout:    time.Second,
		Storage: config.StorageConfig{
			Type:          "local",
			LocalDir:      t.TempDir(),
			PublicBaseURL: "http://localhost:8080/files",
		},
		LLM:  config.LLMConfig{ServerURL: "http://127.0.0.1:1", TimeoutMS: 1000},
		Auth: config.AuthConfig{Mode: "jwt", JWTSecret: "bootstrap-secret"},
	}
}

func TestBuildDevFallsBackToMemory(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app, err := Build(devConfig(t))
	require.NoError(t, err)
	t.Cleanup(app.Close)

	assert.Nil(t, app.DB)
	assert.IsType(t, &invoices.MemoryRepo{}, app.InvoicesRepo)
	assert.Equal(t, "invoices", app.Config.Storage.Bucket)
	assert.Equal(t, "invoice-api", app.Config.ServiceName)

	signer, err := auth.NewJWTVerifier("bootstrap-secret", "")
	require.NoError(t, err)
	tok, err := signer.Sign("user-1", time.Minute)
	require.NoError(t, err)
	id, err := app.Verifier.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.ID)
}

func TestBuildRedisUnavailableInDev(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := devConfig(t)
	cfg.Redis = config.RedisConfig{URL: "redis://127.0.0.1:1/0", TTL: time.Minute}

	app, err := Build(cfg)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	assert.Nil(t, app.Cache)
	assert.IsType(t, &invoices.MemoryRepo{}, app.InvoicesRepo)
}

func TestBuildJWTRequiresSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := devConfig(t)
	cfg.Auth.JWTSecret = ""

	_, err := Build(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}

func TestBuildProductionRequiresDatabase(t *testing.T) {
	cfg := devConfig(t)
	cfg.Env = "production"
	cfg.Auth.JWTSecret = "secret"

	_, err := Build(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestBuildWithOverrides(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := invoices.NewMemoryRepo()

	app, err := BuildWith(context.Background(), devConfig(t), Overrides{Repo: repo})
	require.NoError(t, err)

	assert.Same(t, repo, app.InvoicesRepo)
	assert.Same(t, repo, app.InvoiceService.Repo)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
}
