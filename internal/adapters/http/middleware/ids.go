// Package middleware holds the gin middleware chain of the quotes API.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/eyewear-quotes/internal/platform/logging"
)

const (
	// HeaderRequestID identifies a single HTTP exchange.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID follows a business transaction across services.
	HeaderCorrelationID = "X-Correlation-ID"

	maxIDLength = 128
)

type idKey string

const (
	ctxKeyRequestID     idKey = "request_id"
	ctxKeyCorrelationID idKey = "correlation_id"
)

// RequestID accepts a well-formed X-Request-ID or mints a UUID, echoes it
// in the response and tags the request logger with it.
func RequestID() gin.HandlerFunc {
	return propagateID(HeaderRequestID, ctxKeyRequestID, logging.WithRequestID)
}

// CorrelationID does the same for X-Correlation-ID. The outbound client
// forwards the value to the quotes service.
func CorrelationID() gin.HandlerFunc {
	return propagateID(HeaderCorrelationID, ctxKeyCorrelationID, logging.WithCorrelationID)
}

func propagateID(header string, key idKey, enrich func(context.Context, string) context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if !validID(id) {
			id = uuid.NewString()
		}

		c.Request.Header.Set(header, id)
		c.Header(header, id)

		ctx := context.WithValue(c.Request.Context(), key, id)
		c.Request = c.Request.WithContext(enrich(ctx, id))

		c.Next()
	}
}

// validID keeps caller-supplied ids short and free of characters that
// could forge log lines or headers.
func validID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}

	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}

	return true
}

// RequestIDFromContext returns the request id stored by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return idFromContext(ctx, ctxKeyRequestID)
}

// CorrelationIDFromContext returns the correlation id stored by CorrelationID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return idFromContext(ctx, ctxKeyCorrelationID)
}

// ContextWithRequestID stores id as the request id, for callers outside the
// HTTP chain such as the CLI.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// ContextWithCorrelationID stores id as the correlation id.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationID, id)
}

func idFromContext(ctx context.Context, key idKey) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(key).(string)

	return id
}
