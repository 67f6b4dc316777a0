package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/http/middleware"
	"github.com/jsamuelsen/eyewear-quotes/internal/platform/config"
	"github.com/jsamuelsen/eyewear-quotes/internal/platform/logging"
)

const instrumentationName = "github.com/jsamuelsen/eyewear-quotes/internal/adapters/clients"

// Config configures a Client. Zero transport values fall back to the
// config package defaults.
type Config struct {
	BaseURL     string
	ServiceName string

	// Timeout bounds a single attempt. Retries and backoff come on top.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// AuthFunc, when set, decorates every attempt.
	AuthFunc func(*http.Request)

	Logger *slog.Logger
}

// Client calls the quote service with retries, a circuit breaker, tracing
// and request/correlation id propagation.
type Client struct {
	http    *http.Client
	baseURL string
	cfg     Config
	logger  *slog.Logger
	breaker *breaker

	tracer   trace.Tracer
	duration metric.Float64Histogram
	requests metric.Int64Counter
}

// New builds a Client from cfg.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	c := &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		cfg:     withDefaults(*cfg),
		tracer:  otel.Tracer(instrumentationName),
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c.logger = logger.With(slog.String("component", "clients.Client"), slog.String("downstream", cfg.ServiceName))

	c.breaker = newBreaker(c.cfg.Circuit, func(from, to State) {
		c.logger.Warn("circuit breaker state changed", slog.String("from", from.String()), slog.String("to", to.String()))
	})

	meter := otel.Meter(instrumentationName)

	var err error

	c.duration, err = meter.Float64Histogram("http.client.request.duration",
		metric.WithDescription("Duration of calls to the quote service"), metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	c.requests, err = meter.Int64Counter("http.client.request.total",
		metric.WithDescription("Calls to the quote service by outcome"))
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	c.http = &http.Client{
		Timeout: c.cfg.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        c.cfg.Transport.MaxIdleConns,
			MaxIdleConnsPerHost: c.cfg.Transport.MaxIdleConnsPerHost,
			IdleConnTimeout:     c.cfg.Transport.IdleConnTimeout,
		},
	}

	return c, nil
}

func withDefaults(cfg Config) Config {
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultClientTimeout
	}

	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}

	if cfg.Circuit.MaxFailures < 1 {
		cfg.Circuit.MaxFailures = config.DefaultClientCircuitMaxFailures
	}

	if cfg.Circuit.HalfOpenLimit < 1 {
		cfg.Circuit.HalfOpenLimit = config.DefaultClientCircuitHalfOpenLimit
	}

	if cfg.Transport.MaxIdleConns == 0 {
		cfg.Transport.MaxIdleConns = config.DefaultTransportMaxIdleConns
	}

	if cfg.Transport.MaxIdleConnsPerHost == 0 {
		cfg.Transport.MaxIdleConnsPerHost = config.DefaultTransportMaxIdleConnsPerHost
	}

	if cfg.Transport.IdleConnTimeout == 0 {
		cfg.Transport.IdleConnTimeout = config.DefaultTransportIdleConnTimeout
	}

	return cfg
}

// Do sends req. Idempotent requests are retried on transport errors, 429
// and 5xx; other methods only when the connection could not be opened.
// Retried bodies are rewound through req.GetBody. When retries run out on
// a status, the last response is returned so the caller can read it.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("downstream", c.cfg.ServiceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.breaker.acquire() {
		c.record(ctx, req.Method, 0, time.Since(start), "circuit_open")
		logger.Warn("request blocked by circuit breaker")

		return nil, ErrCircuitOpen
	}

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.cfg.ServiceName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.cfg.ServiceName),
		),
	)
	defer span.End()

	c.propagate(ctx, req)

	resp, attempts, err := c.attempt(ctx, req, logger)
	elapsed := time.Since(start)
	span.SetAttributes(attribute.Int("http.attempts", attempts))

	if err != nil {
		c.breaker.release(false)
		span.SetStatus(codes.Error, err.Error())
		c.record(ctx, req.Method, 0, elapsed, "error")
		logger.Error("request failed", slog.Int("attempts", attempts), slog.Duration("duration", elapsed), slog.Any("error", err))

		return nil, fmt.Errorf("%w after %d attempt(s): %w", ErrMaxRetriesExceeded, attempts, err)
	}

	c.breaker.release(resp.StatusCode < http.StatusInternalServerError)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, "HTTP "+resp.Status)
	}

	c.record(ctx, req.Method, resp.StatusCode, elapsed, fmt.Sprintf("%dxx", resp.StatusCode/100))
	logger.Debug("request completed", slog.Int("status", resp.StatusCode), slog.Int("attempts", attempts), slog.Duration("duration", elapsed))

	return resp, nil
}

func (c *Client) attempt(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, int, error) {
	var (
		resp *http.Response
		err  error
		wait time.Duration
	)

	for n := 1; ; n++ {
		if n > 1 {
			logger.Debug("retrying request", slog.Int("attempt", n), slog.Duration("backoff", wait))

			if serr := sleep(ctx, wait); serr != nil {
				return nil, n - 1, serr
			}

			if req.GetBody != nil {
				body, berr := req.GetBody()
				if berr != nil {
					return nil, n - 1, fmt.Errorf("rewinding request body: %w", berr)
				}

				req.Body = body
			}

			if c.cfg.AuthFunc != nil {
				c.cfg.AuthFunc(req)
			}
		}

		resp, err = c.http.Do(req.WithContext(ctx))

		last := n >= c.cfg.Retry.MaxAttempts || (req.Body != nil && req.Body != http.NoBody && req.GetBody == nil)

		switch {
		case err != nil:
			if last || !retryableError(req.Method, err) {
				return nil, n, err
			}

			wait = backoff(c.cfg.Retry, n)
		case retryableStatus(req.Method, resp.StatusCode) && !last:
			var ok bool
			if wait, ok = retryAfter(resp, c.cfg.Retry.MaxInterval); !ok {
				wait = backoff(c.cfg.Retry, n)
			}

			drain(resp)
		default:
			return resp, n, nil
		}
	}
}

// drain discards a response that is about to be retried so its connection
// can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// Get sends a GET to path below the base URL.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return c.Do(ctx, req)
}

// Post sends a JSON body. Byte and string readers can be replayed on a
// dial failure; other readers are sent once.
func (c *Client) Post(ctx context.Context, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return c.Do(ctx, req)
}

// ServiceName is the downstream name used in logs, spans and metrics.
func (c *Client) ServiceName() string {
	return c.cfg.ServiceName
}

// CircuitState exposes the breaker position for health reporting.
func (c *Client) CircuitState() State {
	return c.breaker.current()
}

func (c *Client) propagate(ctx context.Context, req *http.Request) {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	if c.cfg.AuthFunc != nil {
		c.cfg.AuthFunc(req)
	}
}

func (c *Client) buildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

func (c *Client) record(ctx context.Context, method string, status int, d time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.cfg.ServiceName),
		attribute.String("result", result),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	opt := metric.WithAttributes(attrs...)
	c.duration.Record(ctx, d.Seconds(), opt)
	c.requests.Add(ctx, 1, opt)
}
