package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrValidation marks a request that decoded but broke a tag rule.
	ErrValidation = errors.New("validation failed")

	// ErrBinding marks a body or query string that could not be decoded.
	ErrBinding = errors.New("binding failed")
)

// maxBodyBytes caps what BindJSON reads even when no server limit applies.
const maxBodyBytes = 1 << 20

// validate reports fields by their JSON name, or the form name for query
// structs.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}

			if name != "" {
				return name
			}
		}

		return f.Name
	})

	return v
}()

// Validate runs the struct tags of v.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// BindJSON decodes the body into v and validates it. A body nested under
// envelope, as in {"quote": {...}}, is accepted the same as a bare one.
func BindJSON(c *gin.Context, envelope string, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: request body is empty", ErrBinding)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	if inner, ok := top[envelope]; ok && bytes.HasPrefix(bytes.TrimSpace(inner), []byte("{")) {
		body = inner
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// BindQuery decodes the query string into v and validates it.
func BindQuery(c *gin.Context, v any) error {
	if err := c.ShouldBindQuery(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// HandleBindError answers a failed BindJSON or BindQuery: 413 for an
// oversize body, 422 with per-field messages for tag failures, 400 otherwise.
func HandleBindError(c *gin.Context, err error) {
	var (
		tooLarge *http.MaxBytesError
		failed   validator.ValidationErrors
	)

	switch {
	case errors.As(err, &tooLarge):
		AbortWithCode(c, ErrorCodePayloadTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	case errors.As(err, &failed):
		resp := NewErrorResponse(ErrorCodeValidation, "request validation failed").WithTraceID(GetTraceID(c))
		resp.Error.Details = make(map[string]string, len(failed))

		for _, fe := range failed {
			resp.Error.Details[fe.Field()] = describe(fe)
			resp.Error.Reasons = append(resp.Error.Reasons, fe.Field()+" "+describe(fe))
		}

		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, resp)
	default:
		AbortWithCode(c, ErrorCodeBadRequest, err.Error())
	}
}

// describe turns one tag failure into a message for API clients.
func describe(fe validator.FieldError) string {
	p := fe.Param()

	switch fe.Tag() {
	case "required":
		return "can't be blank"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + p
	case "gt":
		return "must be greater than " + p
	case "gte":
		return "must be greater than or equal to " + p
	case "lt":
		return "must be less than " + p
	case "lte":
		return "must be less than or equal to " + p
	case "min", "max":
		bound := "at least "
		if fe.Tag() == "max" {
			bound = "at most "
		}

		if fe.Kind() == reflect.String {
			return "must be " + bound + p + " characters"
		}

		return "must be " + bound + p
	default:
		return "failed " + fe.Tag() + " check"
	}
}
