package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/clients"
	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
)

// maxEnvelopeBytes bounds how much of an error body is read.
const maxEnvelopeBytes = 64 << 10

// envelope is the error body of the quote API. The flat {"code","message"}
// shape of older deployments is read too.
type envelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *envelope) code() string {
	if e.Error.Code != "" {
		return e.Error.Code
	}

	return e.Code
}

func (e *envelope) message() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}

	return e.Message
}

// readEnvelope returns nil for anything that is not a recognizable envelope.
func readEnvelope(r io.Reader) *envelope {
	if r == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(r, maxEnvelopeBytes)).Decode(&env); err != nil {
		return nil
	}

	if env.code() == "" && env.message() == "" {
		return nil
	}

	return &env
}

// call names one remote operation. entity and id are what a 404 reports as
// missing; calls without an entity treat a 404 as a misrouted base URL.
type call struct {
	what   string
	entity string
	id     string
}

// transportFailure translates an error returned in place of a response.
func (c call) transportFailure(service string, err error) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(service, c.what+": circuit open")
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(service, c.what+": retries exhausted")
	default:
		return domain.NewUnavailableError(service, fmt.Sprintf("%s: %v", c.what, err))
	}
}

// statusFailure translates a non-2xx answer.
func (c call) statusFailure(service string, status int, env *envelope) error {
	msg := fmt.Sprintf("%s: %d %s", c.what, status, http.StatusText(status))
	if env != nil && env.message() != "" {
		msg = env.message()
	}

	switch {
	case status == http.StatusNotFound && c.entity != "":
		return domain.NewNotFoundError(c.entity, c.id)
	case status == http.StatusNotFound, status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return domain.NewUnavailableError(service, msg)
	case env != nil && len(env.Error.Details) > 0:
		return fieldsFailure(c.entity, env.Error.Details)
	default:
		return domain.NewValidationError("", msg)
	}
}

// fieldsFailure rebuilds a multi-field validation error, fields sorted so
// the message is stable.
func fieldsFailure(entity string, details map[string]string) error {
	fields := make([]domain.FieldError, 0, len(details))
	for field, msg := range details {
		fields = append(fields, domain.FieldError{Field: field, Message: msg})
	}

	slices.SortFunc(fields, func(a, b domain.FieldError) int {
		return strings.Compare(a.Field, b.Field)
	})

	return &domain.ValidationError{Entity: entity, Fields: fields}
}
