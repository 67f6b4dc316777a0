// Package dto maps quotes API JSON onto domain inputs, and domain errors
// onto the error envelope every endpoint shares.
package dto

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
	"github.com/jsamuelsen/eyewear-quotes/internal/platform/logging"
	"github.com/jsamuelsen/eyewear-quotes/internal/platform/telemetry"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail describes one failure. Details holds the first message per
// field and Reasons every message in check order.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Reasons []string          `json:"reasons,omitempty"`
}

// Machine-readable codes carried in ErrorDetail.Code.
const (
	ErrorCodeNotFound        = "NOT_FOUND"
	ErrorCodeValidation      = "VALIDATION_ERROR"
	ErrorCodeUnavailable     = "SERVICE_UNAVAILABLE"
	ErrorCodeInternal        = "INTERNAL_ERROR"
	ErrorCodeTimeout         = "TIMEOUT"
	ErrorCodeBadRequest      = "BAD_REQUEST"
	ErrorCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
)

var codeStatus = map[string]int{
	ErrorCodeNotFound:        http.StatusNotFound,
	ErrorCodeValidation:      http.StatusUnprocessableEntity,
	ErrorCodeUnavailable:     http.StatusServiceUnavailable,
	ErrorCodeTimeout:         http.StatusGatewayTimeout,
	ErrorCodeBadRequest:      http.StatusBadRequest,
	ErrorCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
}

// HTTPStatusFromCode returns the status for code. Unknown codes are 500.
func HTTPStatusFromCode(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}

	return http.StatusInternalServerError
}

// NewErrorResponse builds an envelope without a trace id.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// WithTraceID sets the trace id and returns e.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// MapError classifies err by domain kind. Anything unclassified becomes a
// generic 500 so internals never reach the client.
func MapError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	var (
		notFound *domain.NotFoundError
		invalid  *domain.ValidationError
		resp     *ErrorResponse
	)

	switch {
	case errors.As(err, &notFound):
		resp = NewErrorResponse(ErrorCodeNotFound, notFound.Error())
	case domain.IsNotFound(err):
		resp = NewErrorResponse(ErrorCodeNotFound, "not found")
	case errors.As(err, &invalid):
		resp = NewErrorResponse(ErrorCodeValidation, invalid.Error())
		if len(invalid.Fields) > 0 {
			resp.Error.Details = invalid.Details()
			resp.Error.Reasons = invalid.Messages()
		}
	case domain.IsValidation(err):
		resp = NewErrorResponse(ErrorCodeValidation, err.Error())
	case domain.IsUnavailable(err):
		resp = NewErrorResponse(ErrorCodeUnavailable, "service temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		resp = NewErrorResponse(ErrorCodeTimeout, "request timeout exceeded")
	default:
		resp = NewErrorResponse(ErrorCodeInternal, "an internal error occurred")
	}

	return HTTPStatusFromCode(resp.Error.Code), resp
}

// HandleError writes the envelope for err. 500s are logged with the cause.
func HandleError(c *gin.Context, err error) {
	status, resp := MapError(err)
	resp.TraceID = GetTraceID(c)

	if status == http.StatusInternalServerError {
		ctx := c.Request.Context()
		logging.FromContext(ctx).ErrorContext(ctx, "unhandled error",
			"error", err.Error(),
			"trace_id", resp.TraceID,
		)
	}

	c.JSON(status, resp)
}

// AbortWithCode writes an envelope for code and stops the chain.
func AbortWithCode(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(HTTPStatusFromCode(code), NewErrorResponse(code, message).WithTraceID(GetTraceID(c)))
}

// GetTraceID picks the id stored by the telemetry middleware, then the
// active span, then X-Request-ID.
func GetTraceID(c *gin.Context) string {
	if v, ok := c.Get(telemetry.TraceIDKey); ok {
		id, _ := v.(string)
		return id
	}

	if c.Request == nil {
		return ""
	}

	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return c.GetHeader("X-Request-ID")
}
