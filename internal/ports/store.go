// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrValidation)
//   - Keep interfaces small and focused (Interface Segregation Principle)
package ports

import (
	"context"
	"time"

	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
)

// QuoteFilter narrows and pages a quote listing.
type QuoteFilter struct {
	// Customer matches quotes whose customer name contains the value,
	// ignoring case. Empty matches everything.
	Customer string

	// After resumes a listing after the given position.
	After *QuoteCursor

	// Limit caps the number of quotes returned. Zero means no limit.
	Limit int
}

// QuoteCursor is a position in the newest-first quote ordering.
type QuoteCursor struct {
	CreatedAt time.Time
	ID        string
}

// PaymentFilter narrows a payment listing.
type PaymentFilter struct {
	// Method keeps only payments made with this method. Empty keeps all.
	Method domain.PaymentMethod
}

// QuoteStore persists quotes and the line items and payments they own.
//
// Contract shared by every implementation:
//   - Lookups that miss return a *domain.NotFoundError.
//   - Line items and payments are always addressed through their quote;
//     an id that exists under a different quote is reported as not found.
//   - GetQuote and ListQuotes return headers only; children are loaded
//     with ListLineItems and ListPayments.
//   - Every method is a single atomic write or read.
type QuoteStore interface {
	QuoteRepository
	LineItemRepository
	PaymentRepository
}

// QuoteRepository stores quote headers.
type QuoteRepository interface {
	CreateQuote(ctx context.Context, q *domain.Quote) error

	GetQuote(ctx context.Context, id string) (*domain.Quote, error)

	// ListQuotes returns quotes newest first, ties broken by id descending.
	ListQuotes(ctx context.Context, filter QuoteFilter) ([]*domain.Quote, error)

	UpdateQuote(ctx context.Context, q *domain.Quote) error

	// DeleteQuote removes the quote together with its payments and line
	// items in one atomic operation.
	DeleteQuote(ctx context.Context, id string) error
}

// LineItemRepository stores the line items of a quote.
type LineItemRepository interface {
	CreateLineItem(ctx context.Context, item *domain.LineItem) error

	GetLineItem(ctx context.Context, quoteID, id string) (*domain.LineItem, error)

	// ListLineItems returns the quote's items in creation order.
	ListLineItems(ctx context.Context, quoteID string) ([]domain.LineItem, error)

	UpdateLineItem(ctx context.Context, item *domain.LineItem) error

	DeleteLineItem(ctx context.Context, quoteID, id string) error
}

// PaymentRepository stores the payments of a quote.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, p *domain.Payment) error

	GetPayment(ctx context.Context, quoteID, id string) (*domain.Payment, error)

	// ListPayments returns the quote's payments by payment date ascending,
	// ties kept in creation order.
	ListPayments(ctx context.Context, quoteID string, filter PaymentFilter) ([]domain.Payment, error)

	UpdatePayment(ctx context.Context, p *domain.Payment) error

	DeletePayment(ctx context.Context, quoteID, id string) error
}
