// Package app contains application services that orchestrate use cases.
// This is the application layer in Clean Architecture - it coordinates
// domain logic and infrastructure through ports.
//
// Application Layer Responsibilities:
//   - Orchestrate use cases (loading aggregates, running writes)
//   - Coordinate between domain and storage through ports.QuoteStore
//   - Handle cross-cutting concerns (logging, business metrics)
//
// What does NOT belong here:
//   - HTTP specifics (that's adapters)
//   - SQL (that's the storage adapters)
//   - Money arithmetic and validation rules (that's the domain layer)
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
	"github.com/jsamuelsen/eyewear-quotes/internal/platform/logging"
	"github.com/jsamuelsen/eyewear-quotes/internal/ports"
)

// aggregateConcurrency bounds how many quotes a listing loads at once.
const aggregateConcurrency = 8

// Metrics receives business events. telemetry.QuoteMetrics implements it.
type Metrics interface {
	QuoteCreated()
	LineItemAdded()
	PaymentRecorded(method string, amount float64)
	QuoteFullyPaid()
}

type nopMetrics struct{}

func (nopMetrics) QuoteCreated()                   {}
func (nopMetrics) LineItemAdded()                  {}
func (nopMetrics) PaymentRecorded(string, float64) {}
func (nopMetrics) QuoteFullyPaid()                 {}

// QuoteService orchestrates quote, line item and payment use cases.
// It depends on port interfaces, not concrete implementations.
type QuoteService struct {
	store   ports.QuoteStore
	exec    *Executor
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
	metrics Metrics
}

// QuoteServiceConfig contains the dependencies of the quote service.
// Only Store is required.
type QuoteServiceConfig struct {
	Store   ports.QuoteStore
	Logger  *slog.Logger
	Now     func() time.Time
	NewID   func() string
	Metrics Metrics
}

// NewQuoteService creates a quote service. It panics without a store.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Store == nil {
		panic("app: QuoteServiceConfig.Store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "app.QuoteService"))

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	var metrics Metrics = nopMetrics{}
	if cfg.Metrics != nil {
		metrics = cfg.Metrics
	}

	return &QuoteService{
		store:   cfg.Store,
		exec:    NewExecutor(logger),
		logger:  logger,
		now:     now,
		newID:   newID,
		metrics: metrics,
	}
}

// ListQuotesQuery selects a page of quotes.
type ListQuotesQuery struct {
	// Customer keeps quotes whose customer name contains it, ignoring case.
	Customer string

	// PendingOnly keeps quotes that are not fully paid.
	PendingOnly bool

	After *ports.QuoteCursor

	// Limit is the page size. Zero returns every match.
	Limit int
}

// QuotePage is one page of fully loaded quotes.
type QuotePage struct {
	Quotes  []*domain.Quote
	Next    *ports.QuoteCursor
	HasMore bool
}

// ListQuotes returns quotes newest first with their children loaded.
// The pending filter needs derived totals, so headers are read in batches
// until the page is full or the store runs out.
func (s *QuoteService) ListQuotes(ctx context.Context, q ListQuotesQuery) (*QuotePage, error) {
	batchSize := 0
	if q.Limit > 0 {
		batchSize = q.Limit + 1
	}

	var (
		matched []*domain.Quote
		after   = q.After
	)

	for {
		headers, err := s.store.ListQuotes(ctx, ports.QuoteFilter{
			Customer: q.Customer,
			After:    after,
			Limit:    batchSize,
		})
		if err != nil {
			return nil, err
		}

		quotes, err := s.loadAll(ctx, headers)
		if err != nil {
			return nil, err
		}

		for _, quote := range quotes {
			if q.PendingOnly && quote.FullyPaid() {
				continue
			}

			matched = append(matched, quote)
		}

		if batchSize == 0 || len(headers) < batchSize || len(matched) > q.Limit {
			break
		}

		last := headers[len(headers)-1]
		after = &ports.QuoteCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	page := &QuotePage{Quotes: matched}

	if q.Limit > 0 && len(matched) > q.Limit {
		page.Quotes = matched[:q.Limit]
		page.HasMore = true

		last := page.Quotes[len(page.Quotes)-1]
		page.Next = &ports.QuoteCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	if page.Quotes == nil {
		page.Quotes = []*domain.Quote{}
	}

	return page, nil
}

// GetQuote loads a quote with its line items and payments.
func (s *QuoteService) GetQuote(ctx context.Context, id string) (*domain.Quote, error) {
	header, err := s.store.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.load(ctx, header)
}

// CreateQuote validates and stores a new quote.
func (s *QuoteService) CreateQuote(ctx context.Context, in domain.QuoteInput) (*domain.Quote, error) {
	return Execute(ctx, s.exec, Operation[domain.QuoteInput, *domain.Quote, *domain.Quote]{
		Name: "CreateQuote",
		Validate: func(_ context.Context, in domain.QuoteInput) (*domain.Quote, error) {
			now := s.now()

			q, err := domain.NewQuote(in, now)
			if err != nil {
				return nil, err
			}

			q.ID = s.newID()
			q.CreatedAt = now
			q.UpdatedAt = now

			return q, nil
		},
		Archive: func(ctx context.Context, _ domain.QuoteInput, q *domain.Quote) error {
			return s.store.CreateQuote(ctx, q)
		},
		Respond: func(_ context.Context, _ domain.QuoteInput, q *domain.Quote) (*domain.Quote, error) {
			s.metrics.QuoteCreated()
			return q, nil
		},
	}, in)
}

type quotePatchInput struct {
	id    string
	patch domain.QuotePatch
}

// UpdateQuote applies a patch to the quote header and returns the full quote.
func (s *QuoteService) UpdateQuote(ctx context.Context, id string, patch domain.QuotePatch) (*domain.Quote, error) {
	return Execute(ctx, s.exec, Operation[quotePatchInput, *domain.Quote, *domain.Quote]{
		Name: "UpdateQuote",
		Validate: func(ctx context.Context, in quotePatchInput) (*domain.Quote, error) {
			current, err := s.GetQuote(ctx, in.id)
			if err != nil {
				return nil, err
			}

			next, err := current.Apply(in.patch)
			if err != nil {
				return nil, err
			}

			next.UpdatedAt = s.now()

			return next, nil
		},
		Archive: func(ctx context.Context, _ quotePatchInput, q *domain.Quote) error {
			return s.store.UpdateQuote(ctx, q)
		},
	}, quotePatchInput{id: id, patch: patch})
}

// DeleteQuote removes a quote together with its line items and payments.
func (s *QuoteService) DeleteQuote(ctx context.Context, id string) error {
	_, err := Execute(ctx, s.exec, Operation[string, string, struct{}]{
		Name:     "DeleteQuote",
		Validate: func(_ context.Context, id string) (string, error) { return id, nil },
		Archive: func(ctx context.Context, _ string, id string) error {
			return s.store.DeleteQuote(ctx, id)
		},
	}, id)

	return err
}

// GetSummary returns the derived summary of a quote.
func (s *QuoteService) GetSummary(ctx context.Context, id string) (domain.Summary, error) {
	q, err := s.GetQuote(ctx, id)
	if err != nil {
		return domain.Summary{}, err
	}

	return q.Summary(), nil
}

// RenderReport returns the printable report of a quote.
func (s *QuoteService) RenderReport(ctx context.Context, id string) (string, error) {
	q, err := s.GetQuote(ctx, id)
	if err != nil {
		return "", err
	}

	return q.String(), nil
}

// load attaches children to a quote header.
func (s *QuoteService) load(ctx context.Context, header *domain.Quote) (*domain.Quote, error) {
	items, payments, err := both(ctx,
		func(ctx context.Context) ([]domain.LineItem, error) {
			return s.store.ListLineItems(ctx, header.ID)
		},
		func(ctx context.Context) ([]domain.Payment, error) {
			return s.store.ListPayments(ctx, header.ID, ports.PaymentFilter{})
		},
	)
	if err != nil {
		return nil, err
	}

	q := *header
	q.LineItems = items
	q.Payments = payments

	return &q, nil
}

func (s *QuoteService) loadAll(ctx context.Context, headers []*domain.Quote) ([]*domain.Quote, error) {
	if len(headers) == 0 {
		return nil, nil
	}

	return mapLimit(ctx, aggregateConcurrency, headers, s.load)
}

func (s *QuoteService) log(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, s.logger)
}
