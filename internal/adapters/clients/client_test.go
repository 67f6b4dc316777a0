package clients

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/http/middleware"
	"github.com/jsamuelsen/eyewear-quotes/internal/platform/config"
)

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL:     baseURL,
		ServiceName: "quotes",
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     10 * time.Millisecond,
			Multiplier:      2,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Minute,
			HalfOpenLimit: 1,
		},
	}
}

// quoteService answers with the scripted statuses in order, repeating the
// last one, and keeps what it received.
type quoteService struct {
	mu       sync.Mutex
	statuses []int
	bodies   []string
	headers  []http.Header
}

func (s *quoteService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	n := len(s.bodies)
	s.bodies = append(s.bodies, string(body))
	s.headers = append(s.headers, r.Header.Clone())
	status := s.statuses[min(n, len(s.statuses)-1)]
	s.mu.Unlock()

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "0")
	}

	w.WriteHeader(status)
}

func (s *quoteService) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.bodies)
}

func serveQuotes(t *testing.T, statuses ...int) (*quoteService, *Client) {
	t.Helper()

	svc := &quoteService{statuses: statuses}
	server := httptest.NewServer(svc)
	t.Cleanup(server.Close)

	client, err := New(testConfig(server.URL))
	require.NoError(t, err)

	return svc, client
}

func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()

	if resp != nil {
		assert.NoError(t, resp.Body.Close())
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "config is required")

	_, err = New(&Config{BaseURL: "http://quotes"})
	require.ErrorContains(t, err, "service name is required")

	client, err := New(&Config{BaseURL: "http://quotes/", ServiceName: "quotes"})
	require.NoError(t, err)

	assert.Equal(t, "http://quotes", client.baseURL)
	assert.Equal(t, config.DefaultClientTimeout, client.http.Timeout)
	assert.Equal(t, 1, client.cfg.Retry.MaxAttempts)
	assert.Equal(t, config.DefaultTransportMaxIdleConnsPerHost, client.cfg.Transport.MaxIdleConnsPerHost)
	assert.Equal(t, StateClosed, client.CircuitState())
	assert.Equal(t, "quotes", client.ServiceName())
}

func TestNew_UsesTransportConfig(t *testing.T) {
	cfg := testConfig("http://quotes")
	cfg.Transport = config.TransportConfig{MaxIdleConns: 7, MaxIdleConnsPerHost: 2, IdleConnTimeout: 5 * time.Second}

	client, err := New(cfg)
	require.NoError(t, err)

	transport, ok := client.http.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 7, transport.MaxIdleConns)
	assert.Equal(t, 2, transport.MaxIdleConnsPerHost)
	assert.Equal(t, 5*time.Second, transport.IdleConnTimeout)
}

func TestClient_BuildURL(t *testing.T) {
	client, err := New(testConfig("http://quotes:8080/"))
	require.NoError(t, err)

	assert.Equal(t, "http://quotes:8080/api/v1/quotes", client.buildURL("/api/v1/quotes"))
	assert.Equal(t, "http://quotes:8080/api/v1/quotes", client.buildURL("api/v1/quotes"))
}

func TestClient_PropagatesIDsAndAuth(t *testing.T) {
	svc, client := serveQuotes(t, http.StatusOK)

	var authCalls int

	client.cfg.AuthFunc = func(r *http.Request) {
		authCalls++
		r.Header.Set("Authorization", "Bearer quotectl")
	}

	ctx := middleware.ContextWithCorrelationID(middleware.ContextWithRequestID(context.Background(), "req-1"), "corr-1")

	resp, err := client.Get(ctx, "/api/v1/quotes/q-1")
	require.NoError(t, err)
	closeBody(t, resp)

	got := svc.headers[0]
	assert.Equal(t, "req-1", got.Get(middleware.HeaderRequestID))
	assert.Equal(t, "corr-1", got.Get(middleware.HeaderCorrelationID))
	assert.Equal(t, "Bearer quotectl", got.Get("Authorization"))
	assert.Equal(t, 1, authCalls)
}

func TestClient_RetryPolicy(t *testing.T) {
	tests := []struct {
		name       string
		post       bool
		statuses   []int
		wantCalls  int
		wantStatus int
	}{
		{"get recovers from 500s", false, []int{500, 500, 200}, 3, 200},
		{"get honours 429", false, []int{429, 200}, 2, 200},
		{"get gives up with the last response", false, []int{503}, 3, 503},
		{"get does not retry 404", false, []int{404}, 1, 404},
		{"get does not retry 422", false, []int{422}, 1, 422},
		{"payment post is never replayed on 500", true, []int{500, 201}, 1, 500},
		{"payment post succeeds once", true, []int{201}, 1, 201},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, client := serveQuotes(t, tt.statuses...)

			var (
				resp *http.Response
				err  error
			)

			if tt.post {
				resp, err = client.Post(context.Background(), "/api/v1/quotes/q-1/payments", strings.NewReader(`{"amount":"80.00"}`))
			} else {
				resp, err = client.Get(context.Background(), "/api/v1/quotes/q-1")
			}

			require.NoError(t, err)
			defer closeBody(t, resp)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, svc.calls())
		})
	}
}

func TestClient_ReplaysBodyOnRetry(t *testing.T) {
	svc, client := serveQuotes(t, http.StatusServiceUnavailable, http.StatusOK)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPut,
		client.buildURL("/api/v1/quotes/q-1/payments/p-1"), bytes.NewReader([]byte(`{"notes":"seña"}`)))
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	closeBody(t, resp)

	require.Equal(t, 2, svc.calls())
	assert.Equal(t, svc.bodies[0], svc.bodies[1])
	assert.Equal(t, `{"notes":"seña"}`, svc.bodies[1])
}

func TestClient_UnreachableService(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := New(testConfig(url))
	require.NoError(t, err)

	_, err = client.Post(context.Background(), "/api/v1/quotes/q-1/payments", strings.NewReader(`{"amount":"10"}`))

	require.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Contains(t, err.Error(), "after 3 attempt(s)", "dial failures are retried even for POST")
}

func TestClient_AttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	cfg := testConfig(server.URL)
	cfg.Timeout = 20 * time.Millisecond
	cfg.Retry.MaxAttempts = 2

	client, err := New(cfg)
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/api/v1/quotes/q-1")

	require.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Contains(t, err.Error(), "after 2 attempt(s)")
}

func TestClient_CallerDeadlineStopsBackoff(t *testing.T) {
	svc, client := serveQuotes(t, http.StatusInternalServerError)
	client.cfg.Retry.InitialInterval = time.Minute
	client.cfg.Retry.MaxInterval = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, "/api/v1/quotes/q-1")

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Equal(t, 1, svc.calls())
}

func TestClient_CircuitBreaker(t *testing.T) {
	svc, client := serveQuotes(t, http.StatusInternalServerError)
	client.cfg.Retry.MaxAttempts = 1
	client.breaker.cfg.MaxFailures = 2

	for range 2 {
		resp, err := client.Get(context.Background(), "/api/v1/quotes")
		require.NoError(t, err)
		closeBody(t, resp)
	}

	require.Equal(t, StateOpen, client.CircuitState())

	_, err := client.Get(context.Background(), "/api/v1/quotes")

	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, svc.calls(), "open circuit short-circuits")
}

func TestClient_ClientErrorsKeepCircuitClosed(t *testing.T) {
	_, client := serveQuotes(t, http.StatusNotFound)
	client.breaker.cfg.MaxFailures = 1

	for range 3 {
		resp, err := client.Get(context.Background(), "/api/v1/quotes/missing")
		require.NoError(t, err)
		closeBody(t, resp)
	}

	assert.Equal(t, StateClosed, client.CircuitState())
}
