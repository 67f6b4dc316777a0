// Package mocks holds testify mocks of the ports interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
	"github.com/jsamuelsen/eyewear-quotes/internal/ports"
)

// MockQuoteStore is a mock implementation of ports.QuoteStore.
type MockQuoteStore struct {
	mock.Mock
}

var _ ports.QuoteStore = (*MockQuoteStore)(nil)

// NewMockQuoteStore creates a mock and registers expectation assertion on cleanup.
func NewMockQuoteStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockQuoteStore {
	m := &MockQuoteStore{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockQuoteStore) CreateQuote(ctx context.Context, q *domain.Quote) error {
	return m.Called(ctx, q).Error(0)
}

func (m *MockQuoteStore) GetQuote(ctx context.Context, id string) (*domain.Quote, error) {
	args := m.Called(ctx, id)
	q, _ := args.Get(0).(*domain.Quote)

	return q, args.Error(1)
}

func (m *MockQuoteStore) ListQuotes(ctx context.Context, filter ports.QuoteFilter) ([]*domain.Quote, error) {
	args := m.Called(ctx, filter)
	quotes, _ := args.Get(0).([]*domain.Quote)

	return quotes, args.Error(1)
}

func (m *MockQuoteStore) UpdateQuote(ctx context.Context, q *domain.Quote) error {
	return m.Called(ctx, q).Error(0)
}

func (m *MockQuoteStore) DeleteQuote(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockQuoteStore) CreateLineItem(ctx context.Context, item *domain.LineItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockQuoteStore) GetLineItem(ctx context.Context, quoteID, id string) (*domain.LineItem, error) {
	args := m.Called(ctx, quoteID, id)
	item, _ := args.Get(0).(*domain.LineItem)

	return item, args.Error(1)
}

func (m *MockQuoteStore) ListLineItems(ctx context.Context, quoteID string) ([]domain.LineItem, error) {
	args := m.Called(ctx, quoteID)
	items, _ := args.Get(0).([]domain.LineItem)

	return items, args.Error(1)
}

func (m *MockQuoteStore) UpdateLineItem(ctx context.Context, item *domain.LineItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockQuoteStore) DeleteLineItem(ctx context.Context, quoteID, id string) error {
	return m.Called(ctx, quoteID, id).Error(0)
}

func (m *MockQuoteStore) CreatePayment(ctx context.Context, p *domain.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockQuoteStore) GetPayment(ctx context.Context, quoteID, id string) (*domain.Payment, error) {
	args := m.Called(ctx, quoteID, id)
	p, _ := args.Get(0).(*domain.Payment)

	return p, args.Error(1)
}

func (m *MockQuoteStore) ListPayments(
	ctx context.Context,
	quoteID string,
	filter ports.PaymentFilter,
) ([]domain.Payment, error) {
	args := m.Called(ctx, quoteID, filter)
	payments, _ := args.Get(0).([]domain.Payment)

	return payments, args.Error(1)
}

func (m *MockQuoteStore) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockQuoteStore) DeletePayment(ctx context.Context, quoteID, id string) error {
	return m.Called(ctx, quoteID, id).Error(0)
}

// MockMetrics is a mock of the business metrics sink used by the app layer.
type MockMetrics struct {
	mock.Mock
}

// NewMockMetrics creates a mock and registers expectation assertion on cleanup.
func NewMockMetrics(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMetrics {
	m := &MockMetrics{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockMetrics) QuoteCreated()   { m.Called() }
func (m *MockMetrics) LineItemAdded()  { m.Called() }
func (m *MockMetrics) QuoteFullyPaid() { m.Called() }

func (m *MockMetrics) PaymentRecorded(method string, amount float64) {
	m.Called(method, amount)
}
