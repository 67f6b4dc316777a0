package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}

	return out
}

func attr(set attribute.Set, key string) string {
	v, _ := set.Value(attribute.Key(key))
	return v.Emit()
}

func TestMiddleware_RecordsRequestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()

	router := gin.New()
	router.Use(middleware("eyewear-quotes", sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))))
	router.GET("/api/v1/quotes/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/v1/quotes/q-1", "/api/v1/quotes/q-2", "/api/v1/presupuestos"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	data := collect(t, reader)

	hist, ok := data["http.server.request.duration"].(metricdata.Histogram[float64])
	require.True(t, ok)

	counts := make(map[string]uint64)
	for _, dp := range hist.DataPoints {
		assert.Equal(t, "eyewear-quotes", attr(dp.Attributes, "service.name"))
		counts[attr(dp.Attributes, "http.route")+" "+attr(dp.Attributes, "http.response.status_code")] += dp.Count
	}

	assert.Equal(t, map[string]uint64{
		"/api/v1/quotes/:id 200": 2,
		"unmatched 404":          1,
	}, counts)

	active, ok := data["http.server.active_requests"].(metricdata.Sum[int64])
	require.True(t, ok)

	for _, dp := range active.DataPoints {
		assert.Zero(t, dp.Value, "nothing left in flight for %s", attr(dp.Attributes, "http.route"))
	}
}

func TestMiddleware_ExposesTraceID(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	var stored any

	router := gin.New()
	router.Use(func(c *gin.Context) {
		sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
		c.Request = c.Request.WithContext(trace.ContextWithSpanContext(c.Request.Context(), sc))
	})
	router.Use(Middleware("eyewear-quotes"))
	router.GET("/api/v1/quotes/:id", func(c *gin.Context) {
		stored, _ = c.Get(TraceIDKey)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/quotes/q-1", nil))

	assert.Equal(t, traceID.String(), w.Header().Get("X-Trace-ID"))
	assert.Equal(t, traceID.String(), stored)
}

func TestMiddleware_NoSpanNoHeader(t *testing.T) {
	router := gin.New()
	router.Use(Middleware("eyewear-quotes"))
	router.GET("/-/live", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/live", nil))

	assert.Empty(t, w.Header().Get("X-Trace-ID"))
}
