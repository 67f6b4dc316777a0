// Package domain holds the quote aggregate, its line items and payments,
// and the errors they raise. Adapters decide how an error kind is shown.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// The three error kinds. Typed errors below unwrap to one of them.
var (
	// ErrNotFound also covers a child addressed under the wrong quote.
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("unavailable")
)

// Entity names used in errors and logs.
const (
	EntityQuote    = "quote"
	EntityLineItem = "line item"
	EntityPayment  = "payment"
)

// NotFoundError names what was missing. ID may be empty.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// FieldError is a single failed constraint on one field.
type FieldError struct {
	Field   string
	Message string
}

// String reads "price must be greater than 0".
func (f FieldError) String() string {
	if f.Field == "" {
		return f.Message
	}

	return f.Field + " " + f.Message
}

// ValidationError carries every field-level failure found while validating
// one entity. It is returned whole so callers can report all reasons at once.
type ValidationError struct {
	Entity string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	prefix := "validation failed"
	if e.Entity != "" {
		prefix = e.Entity + " " + prefix
	}

	if len(e.Fields) == 0 {
		return prefix
	}

	return prefix + ": " + strings.Join(e.Messages(), "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Messages returns one human-readable reason per failed field, in the
// order the checks ran.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.String()
	}

	return msgs
}

// Details returns the failures keyed by field. When a field failed more than
// one check, the first message wins.
func (e *ValidationError) Details() map[string]string {
	details := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if _, ok := details[f.Field]; !ok {
			details[f.Field] = f.Message
		}
	}

	return details
}

// NewValidationError reports one failed field with no entity.
func NewValidationError(field, message string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// validationCollector accumulates field failures for one entity.
type validationCollector struct {
	entity string
	fields []FieldError
}

func (c *validationCollector) add(field, message string) {
	c.fields = append(c.fields, FieldError{Field: field, Message: message})
}

// err returns nil when nothing failed.
func (c *validationCollector) err() error {
	if len(c.fields) == 0 {
		return nil
	}

	return &ValidationError{Entity: c.entity, Fields: c.fields}
}

// UnavailableError is a dependency that could not serve the request:
// the database, or the quote service for quotectl.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// IsNotFound, IsValidation and IsUnavailable test err's kind through any
// wrapping.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
