package clients

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jsamuelsen/eyewear-quotes/internal/platform/config"
)

// idempotent methods are safe to send twice. A POST that reached the server
// may have recorded a payment, so it is only retried when the connection was
// never established.
func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	default:
		return false
	}
}

// retryableError reports whether err is worth another attempt for method.
func retryableError(method string, err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	if !idempotent(method) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return opErr != nil
}

// retryableStatus reports whether the service asked to be tried again.
func retryableStatus(method string, status int) bool {
	if !idempotent(method) {
		return false
	}

	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// backoff returns the wait before attempt (1-based retry number): the
// exponential interval capped at MaxInterval, spread by ±JitterFactor.
func backoff(cfg config.RetryConfig, attempt int) time.Duration {
	d := float64(cfg.InitialInterval) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if ceiling := float64(cfg.MaxInterval); cfg.MaxInterval > 0 && d > ceiling {
		d = ceiling
	}

	if cfg.JitterFactor > 0 {
		d += d * cfg.JitterFactor * (rand.Float64()*2 - 1) //nolint:gosec // jitter needs no crypto randomness
	}

	return time.Duration(d)
}

// retryAfter reads a Retry-After header given in seconds, capped at limit.
func retryAfter(resp *http.Response, limit time.Duration) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}

	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0, false
	}

	d := time.Duration(secs) * time.Second
	if limit > 0 && d > limit {
		d = limit
	}

	return d, true
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
