package health_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-edge/publish-engine/internal/health"
	"github.com/nexus-edge/publish-engine/internal/registry"
)

func TestHealthHandler_ReportsHealthy(t *testing.T) {
	checker := health.NewChecker("publish-engine", "test", registry.New(), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	checker.HealthHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"healthy"`)
}

func TestLivenessHandler_Returns200(t *testing.T) {
	checker := health.NewChecker("publish-engine", "test", registry.New(), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rr := httptest.NewRecorder()
	checker.LivenessHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestReadinessHandler_ReadyWithRegistry(t *testing.T) {
	checker := health.NewChecker("publish-engine", "test", registry.New(), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rr := httptest.NewRecorder()
	checker.ReadinessHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ready"`)
}

func TestReadinessHandler_NotReadyWithNilRegistry(t *testing.T) {
	checker := health.NewChecker("publish-engine", "test", nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rr := httptest.NewRecorder()
	checker.ReadinessHandler(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
