// Package memory provides an in-process QuoteStore backed by maps.
// It is used for tests and for running the service without a database.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
	"github.com/jsamuelsen/eyewear-quotes/internal/ports"
)

// Store keeps copies of every record so callers can never mutate stored state
// through a pointer they were handed.
type Store struct {
	mu sync.RWMutex

	quotes    map[string]domain.Quote
	lineItems map[string]lineItemRecord
	payments  map[string]paymentRecord

	// seq orders children by creation.
	seq uint64
}

type lineItemRecord struct {
	item domain.LineItem
	seq  uint64
}

type paymentRecord struct {
	payment domain.Payment
	seq     uint64
}

var _ ports.QuoteStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		quotes:    make(map[string]domain.Quote),
		lineItems: make(map[string]lineItemRecord),
		payments:  make(map[string]paymentRecord),
	}
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return "memory-store" }

// Check implements ports.HealthChecker. An in-process store is always reachable.
func (s *Store) Check(context.Context) error { return nil }

// CreateQuote stores a new quote header.
func (s *Store) CreateQuote(_ context.Context, q *domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes[q.ID] = header(q)

	return nil
}

// GetQuote returns the quote header.
func (s *Store) GetQuote(_ context.Context, id string) (*domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[id]
	if !ok {
		return nil, domain.NewNotFoundError(domain.EntityQuote, id)
	}

	return &q, nil
}

// ListQuotes returns quote headers newest first.
func (s *Store) ListQuotes(_ context.Context, filter ports.QuoteFilter) ([]*domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(filter.Customer))

	result := make([]*domain.Quote, 0, len(s.quotes))
	for _, q := range s.quotes {
		if needle != "" && !strings.Contains(strings.ToLower(q.CustomerName), needle) {
			continue
		}

		if filter.After != nil && !olderThan(q, filter.After) {
			continue
		}

		result = append(result, &q)
	}

	slices.SortFunc(result, func(a, b *domain.Quote) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(b.ID, a.ID)
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result, nil
}

// UpdateQuote replaces the stored quote header.
func (s *Store) UpdateQuote(_ context.Context, q *domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quotes[q.ID]; !ok {
		return domain.NewNotFoundError(domain.EntityQuote, q.ID)
	}

	s.quotes[q.ID] = header(q)

	return nil
}

// DeleteQuote removes the quote and everything it owns under one lock.
func (s *Store) DeleteQuote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quotes[id]; !ok {
		return domain.NewNotFoundError(domain.EntityQuote, id)
	}

	for pid, rec := range s.payments {
		if rec.payment.QuoteID == id {
			delete(s.payments, pid)
		}
	}

	for iid, rec := range s.lineItems {
		if rec.item.QuoteID == id {
			delete(s.lineItems, iid)
		}
	}

	delete(s.quotes, id)

	return nil
}

// CreateLineItem stores a new line item under its quote.
func (s *Store) CreateLineItem(_ context.Context, item *domain.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quotes[item.QuoteID]; !ok {
		return domain.NewNotFoundError(domain.EntityQuote, item.QuoteID)
	}

	s.seq++
	s.lineItems[item.ID] = lineItemRecord{item: *item, seq: s.seq}

	return nil
}

// GetLineItem returns the line item if it belongs to quoteID.
func (s *Store) GetLineItem(_ context.Context, quoteID, id string) (*domain.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.lineItems[id]
	if !ok || rec.item.QuoteID != quoteID {
		return nil, domain.NewNotFoundError(domain.EntityLineItem, id)
	}

	item := rec.item

	return &item, nil
}

// ListLineItems returns the quote's line items in creation order.
func (s *Store) ListLineItems(_ context.Context, quoteID string) ([]domain.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]lineItemRecord, 0)
	for _, rec := range s.lineItems {
		if rec.item.QuoteID == quoteID {
			records = append(records, rec)
		}
	}

	slices.SortFunc(records, func(a, b lineItemRecord) int { return cmp.Compare(a.seq, b.seq) })

	items := make([]domain.LineItem, len(records))
	for i, rec := range records {
		items[i] = rec.item
	}

	return items, nil
}

// UpdateLineItem replaces a stored line item, keeping its creation position.
func (s *Store) UpdateLineItem(_ context.Context, item *domain.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.lineItems[item.ID]
	if !ok || rec.item.QuoteID != item.QuoteID {
		return domain.NewNotFoundError(domain.EntityLineItem, item.ID)
	}

	rec.item = *item
	s.lineItems[item.ID] = rec

	return nil
}

// DeleteLineItem removes the line item if it belongs to quoteID.
func (s *Store) DeleteLineItem(_ context.Context, quoteID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.lineItems[id]
	if !ok || rec.item.QuoteID != quoteID {
		return domain.NewNotFoundError(domain.EntityLineItem, id)
	}

	delete(s.lineItems, id)

	return nil
}

// CreatePayment stores a new payment under its quote.
func (s *Store) CreatePayment(_ context.Context, p *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quotes[p.QuoteID]; !ok {
		return domain.NewNotFoundError(domain.EntityQuote, p.QuoteID)
	}

	s.seq++
	s.payments[p.ID] = paymentRecord{payment: *p, seq: s.seq}

	return nil
}

// GetPayment returns the payment if it belongs to quoteID.
func (s *Store) GetPayment(_ context.Context, quoteID, id string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.payments[id]
	if !ok || rec.payment.QuoteID != quoteID {
		return nil, domain.NewNotFoundError(domain.EntityPayment, id)
	}

	p := rec.payment

	return &p, nil
}

// ListPayments returns the quote's payments oldest first.
func (s *Store) ListPayments(_ context.Context, quoteID string, filter ports.PaymentFilter) ([]domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]paymentRecord, 0)
	for _, rec := range s.payments {
		if rec.payment.QuoteID != quoteID {
			continue
		}

		if filter.Method != "" && rec.payment.Method != filter.Method {
			continue
		}

		records = append(records, rec)
	}

	slices.SortFunc(records, func(a, b paymentRecord) int { return cmp.Compare(a.seq, b.seq) })

	payments := make([]domain.Payment, len(records))
	for i, rec := range records {
		payments[i] = rec.payment
	}

	domain.SortPaymentsChronologically(payments)

	return payments, nil
}

// UpdatePayment replaces a stored payment, keeping its creation position.
func (s *Store) UpdatePayment(_ context.Context, p *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.payments[p.ID]
	if !ok || rec.payment.QuoteID != p.QuoteID {
		return domain.NewNotFoundError(domain.EntityPayment, p.ID)
	}

	rec.payment = *p
	s.payments[p.ID] = rec

	return nil
}

// DeletePayment removes the payment if it belongs to quoteID.
func (s *Store) DeletePayment(_ context.Context, quoteID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.payments[id]
	if !ok || rec.payment.QuoteID != quoteID {
		return domain.NewNotFoundError(domain.EntityPayment, id)
	}

	delete(s.payments, id)

	return nil
}

// header copies q without its children.
func header(q *domain.Quote) domain.Quote {
	h := *q
	h.LineItems = nil
	h.Payments = nil

	return h
}

func olderThan(q domain.Quote, c *ports.QuoteCursor) bool {
	if q.CreatedAt.Equal(c.CreatedAt) {
		return q.ID < c.ID
	}

	return q.CreatedAt.Before(c.CreatedAt)
}
