package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	payload json.RawMessage
	err     error
}

func (s stubChecker) Health(context.Context) (json.RawMessage, error) {
	return s.payload, s.err
}

func newRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func TestStatus(t *testing.T) {
	svc := NewService("invoice-api", stubChecker{})
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	resp := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var body Status
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "invoice-api", body.Service)
	assert.Equal(t, "2026-01-02T03:04:05.000Z", body.Timestamp)
}

func TestLLMConnected(t *testing.T) {
	svc := NewService("invoice-api", stubChecker{payload: json.RawMessage(`{"status":"healthy"}`)})

	resp := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/llm/health", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"llm_status":"connected","llm_response":{"status":"healthy"}}`, resp.Body.String())
}

func TestLLMDisconnected(t *testing.T) {
	svc := NewService("invoice-api", stubChecker{err: errors.New("connection refused")})

	resp := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/llm/health", nil))

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.JSONEq(t, `{"llm_status":"disconnected","error":"connection refused"}`, resp.Body.String())
}
