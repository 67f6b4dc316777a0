package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/eyewear-quotes/internal/platform/logging"
)

// Logging logs "request started" and "request completed" around every
// non-probe request. The request logger gains the matched route and goes
// back on the context, so service code logs with the same ids. fallback is
// used when no earlier middleware stored a logger.
func Logging(fallback *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/-/") {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		logger := logging.FromContextOr(ctx, fallback)
		if route := c.FullPath(); route != "" {
			logger = logger.With(slog.String("route", route))
		}

		c.Request = c.Request.WithContext(logging.WithContext(ctx, logger))

		target := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			target += "?" + q
		}

		req := []any{slog.String("method", c.Request.Method), slog.String("path", target)}

		logger.InfoContext(ctx, "request started", append(req,
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()))...)

		began := time.Now()

		c.Next()

		took := time.Since(began)
		status := c.Writer.Status()

		logger.Log(ctx, statusLevel(status), "request completed", append(req,
			slog.Int("status", status),
			slog.Duration("latency", took),
			slog.Int64("latency_ms", took.Milliseconds()),
			slog.Int("bytes", c.Writer.Size()))...)
	}
}

// statusLevel is error for 5xx and warn for 4xx.
func statusLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
