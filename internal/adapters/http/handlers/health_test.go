package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/eyewear-quotes/internal/mocks"
	"github.com/jsamuelsen/eyewear-quotes/internal/platform/telemetry"
	"github.com/jsamuelsen/eyewear-quotes/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func probe(h *HealthHandler, path string) *httptest.ResponseRecorder {
	engine := gin.New()
	h.RegisterHealthRoutesOnEngine(engine)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	return w
}

func TestNewBuildInfo(t *testing.T) {
	bi := NewBuildInfo("1.4.0", "9c1e2f7", "2026-03-14T09:00:00Z")

	assert.Equal(t, BuildInfo{Version: "1.4.0", Commit: "9c1e2f7", BuildTime: "2026-03-14T09:00:00Z", GoVersion: runtime.Version()}, bi)
}

func TestLiveness_NeverCallsRegistry(t *testing.T) {
	registry := mocks.NewMockHealthRegistry(t)
	h := NewHealthHandler(registry, BuildInfo{})
	h.started = time.Now().Add(-90 * time.Second)

	w := probe(h, "/-/live")

	require.Equal(t, http.StatusOK, w.Code)

	var resp livenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.GreaterOrEqual(t, resp.UptimeSeconds, int64(90))
	registry.AssertNotCalled(t, "CheckAll", mock.Anything)
}

func TestReadiness(t *testing.T) {
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		result *ports.HealthResult
		want   int
	}{
		{"store reachable", &ports.HealthResult{
			Status:    ports.HealthStatusHealthy,
			Checks:    map[string]*ports.CheckResult{"quote-store": {Status: ports.HealthStatusHealthy, DurationMS: 3}},
			Timestamp: at,
		}, http.StatusOK},
		{"store down", &ports.HealthResult{
			Status:    ports.HealthStatusUnhealthy,
			Checks:    map[string]*ports.CheckResult{"quote-store": {Status: ports.HealthStatusUnhealthy, Message: "database is locked"}},
			Timestamp: at,
		}, http.StatusServiceUnavailable},
		{"nothing registered", &ports.HealthResult{Status: ports.HealthStatusHealthy, Timestamp: at}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := mocks.NewMockHealthRegistry(t)
			registry.On("CheckAll", mock.Anything).Return(tt.result).Once()

			w := probe(NewHealthHandler(registry, BuildInfo{}), "/-/ready")

			require.Equal(t, tt.want, w.Code)

			var resp readinessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.result.Status, resp.Status)
			assert.Equal(t, tt.result.Checks, resp.Checks)
			assert.True(t, at.Equal(resp.Timestamp))
		})
	}
}

func TestReadiness_WithRealRegistry(t *testing.T) {
	registry := ports.NewHealthRegistry()
	require.NoError(t, registry.Register(failingChecker{}))

	w := probe(NewHealthHandler(registry, BuildInfo{}), "/-/ready")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"quote-service":{"status":"unhealthy","message":"connection refused"`)
}

func TestReadiness_NilRegistry(t *testing.T) {
	w := probe(NewHealthHandler(nil, BuildInfo{}), "/-/ready")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

type failingChecker struct{}

func (failingChecker) Name() string                { return "quote-service" }
func (failingChecker) Check(context.Context) error { return errors.New("connection refused") }

func TestBuildInfoHandler(t *testing.T) {
	bi := BuildInfo{Version: "1.4.0", Commit: "9c1e2f7", BuildTime: "2026-03-14T09:00:00Z", GoVersion: "go1.25.7"}

	w := probe(NewHealthHandler(nil, bi), "/-/build")

	require.Equal(t, http.StatusOK, w.Code)

	var got BuildInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, bi, got)
}

func TestMetrics(t *testing.T) {
	t.Run("default registry", func(t *testing.T) {
		w := probe(NewHealthHandler(nil, BuildInfo{}), "/-/metrics")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	})

	t.Run("business counters from a custom gatherer", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		telemetry.NewQuoteMetrics(reg).PaymentRecorded("tarjeta", 150)

		w := probe(NewHealthHandler(nil, BuildInfo{}).WithGatherer(reg), "/-/metrics")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `eyewear_quotes_payments_recorded_total{method="tarjeta"} 1`)
		assert.Contains(t, w.Body.String(), `eyewear_quotes_payments_amount_total{method="tarjeta"} 150`)
	})
}

func TestRegisterHealthRoutes(t *testing.T) {
	engine := gin.New()
	NewHealthHandler(nil, BuildInfo{}).RegisterHealthRoutes(engine.Group("/-"))

	var got []string
	for _, r := range engine.Routes() {
		got = append(got, r.Method+" "+r.Path)
	}

	assert.ElementsMatch(t, []string{"GET /-/live", "GET /-/ready", "GET /-/build", "GET /-/metrics"}, got)
}
