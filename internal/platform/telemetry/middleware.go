package telemetry

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/eyewear-quotes/internal/platform/logging"
)

// TraceIDKey is the gin.Context key holding the current trace id.
const TraceIDKey = "trace_id"

const (
	instrumentationName = "github.com/jsamuelsen/eyewear-quotes/internal/platform/telemetry"

	// unmatchedRoute labels requests no route matched, keeping raw paths
	// out of metric attributes.
	unmatchedRoute = "unmatched"
)

type httpInstruments struct {
	duration metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPInstruments(mp metric.MeterProvider) (*httpInstruments, error) {
	meter := mp.Meter(instrumentationName)

	duration, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Duration of quotes API requests."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request duration histogram: %w", err)
	}

	inFlight, err := meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Quotes API requests being served."),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating active requests counter: %w", err)
	}

	return &httpInstruments{duration: duration, inFlight: inFlight}, nil
}

// TracingMiddleware starts a server span per request.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// Middleware records request metrics on the global meter provider and
// exposes the trace id as X-Trace-ID. It runs after TracingMiddleware.
func Middleware(serviceName string) gin.HandlerFunc {
	return middleware(serviceName, otel.GetMeterProvider())
}

func middleware(serviceName string, mp metric.MeterProvider) gin.HandlerFunc {
	inst, err := newHTTPInstruments(mp)
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			id := sc.TraceID().String()
			c.Set(TraceIDKey, id)
			c.Header("X-Trace-ID", id)
			c.Request = c.Request.WithContext(logging.WithTraceID(ctx, id))
		}

		if inst == nil {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		attrs := []attribute.KeyValue{
			attribute.String("service.name", serviceName),
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
		}

		start := time.Now()

		inst.inFlight.Add(ctx, 1, metric.WithAttributes(attrs...))
		defer inst.inFlight.Add(ctx, -1, metric.WithAttributes(attrs...))

		c.Next()

		inst.duration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(append(attrs, attribute.Int("http.response.status_code", c.Writer.Status()))...))
	}
}
