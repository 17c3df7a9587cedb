package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"streamgate/internal/infrastructure/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReadinessChecker struct {
	status monitoring.HealthStatus
}

func (s *stubReadinessChecker) CheckAll(ctx context.Context) monitoring.HealthStatus {
	return s.status
}

func healthRouter(checker ReadinessChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	NewHealthHandler(checker, time.Now()).SetupRoutes(router)
	return router
}

func TestHealth_ReportsOK(t *testing.T) {
	router := healthRouter(&stubReadinessChecker{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "uptime")
}

func TestReady_HealthyDependencies(t *testing.T) {
	checker := &stubReadinessChecker{status: monitoring.HealthStatus{
		Status: "ok",
		Checks: map[string]string{"graphql": "ok"},
	}}
	router := healthRouter(checker)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestReady_DegradedDependencyIs503(t *testing.T) {
	checker := &stubReadinessChecker{status: monitoring.HealthStatus{
		Status: "degraded",
		Checks: map[string]string{"graphql": "connection refused"},
	}}
	router := healthRouter(checker)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}
