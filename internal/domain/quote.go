package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a priced proposal for a customer. It owns its line items and
// payments; every money figure it reports is derived from them on each call.
type Quote struct {
	ID              string
	CustomerName    string
	CustomerContact string
	Notes           string
	QuoteDate       time.Time
	LineItems       []LineItem
	Payments        []Payment
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// QuoteInput carries the fields for a new quote.
type QuoteInput struct {
	CustomerName    string
	CustomerContact string
	Notes           string
	QuoteDate       *time.Time
}

// QuotePatch changes selected header fields of an existing quote.
type QuotePatch struct {
	CustomerName    *string
	CustomerContact *string
	Notes           *string
	QuoteDate       *time.Time
}

// NewQuote builds a quote with no children. QuoteDate defaults to now.
func NewQuote(in QuoteInput, now time.Time) (*Quote, error) {
	q := &Quote{
		CustomerName:    in.CustomerName,
		CustomerContact: in.CustomerContact,
		Notes:           in.Notes,
		QuoteDate:       now,
	}

	if in.QuoteDate != nil {
		q.QuoteDate = *in.QuoteDate
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}

	return q, nil
}

// GenerateQuoteID returns the identifier used for quotes that are built and
// printed without being stored.
func GenerateQuoteID(now time.Time) string {
	return "Q" + now.Format("20060102150405")
}

// Apply returns a copy of the quote header with the patch applied.
// QuoteDate is never re-derived; it only changes when the patch sets it.
func (q *Quote) Apply(p QuotePatch) (*Quote, error) {
	next := *q

	if p.CustomerName != nil {
		next.CustomerName = *p.CustomerName
	}

	if p.CustomerContact != nil {
		next.CustomerContact = *p.CustomerContact
	}

	if p.Notes != nil {
		next.Notes = *p.Notes
	}

	if p.QuoteDate != nil {
		next.QuoteDate = *p.QuoteDate
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}

	return &next, nil
}

// Validate checks the header fields.
func (q *Quote) Validate() error {
	v := validationCollector{entity: EntityQuote}

	if strings.TrimSpace(q.CustomerName) == "" {
		v.add("customer_name", "can't be blank")
	}

	if q.QuoteDate.IsZero() {
		v.add("quote_date", "can't be blank")
	}

	return v.err()
}

// Total is the sum of all line item subtotals.
func (q *Quote) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range q.LineItems {
		total = total.Add(item.Subtotal())
	}

	return total
}

// TotalPaid is the sum of all payment amounts.
func (q *Quote) TotalPaid() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range q.Payments {
		paid = paid.Add(p.Amount)
	}

	return paid
}

// RemainingBalance is Total minus TotalPaid. Negative means overpaid.
func (q *Quote) RemainingBalance() decimal.Decimal {
	return q.Total().Sub(q.TotalPaid())
}

// FullyPaid reports whether nothing is left to pay.
func (q *Quote) FullyPaid() bool {
	return !q.RemainingBalance().IsPositive()
}

// ChronologicalPayments returns the payments oldest first without
// reordering the quote's own slice.
func (q *Quote) ChronologicalPayments() []Payment {
	payments := slices.Clone(q.Payments)
	SortPaymentsChronologically(payments)

	return payments
}

// InitialPayment returns the earliest payment, if any.
func (q *Quote) InitialPayment() (Payment, bool) {
	payments := q.ChronologicalPayments()
	if len(payments) == 0 {
		return Payment{}, false
	}

	return payments[0], true
}

// CategoryBreakdown sums subtotals per category. Categories without items are absent.
func (q *Quote) CategoryBreakdown() map[Category]decimal.Decimal {
	breakdown := make(map[Category]decimal.Decimal)
	for _, item := range q.LineItems {
		breakdown[item.Category] = breakdown[item.Category].Add(item.Subtotal())
	}

	return breakdown
}

// Summary is a snapshot of a quote's header and derived totals.
type Summary struct {
	ID                string
	CustomerName      string
	CustomerContact   string
	QuoteDate         time.Time
	LineItemsCount    int
	Total             decimal.Decimal
	TotalPaid         decimal.Decimal
	RemainingBalance  decimal.Decimal
	FullyPaid         bool
	CategoryBreakdown map[Category]decimal.Decimal
	PaymentsCount     int
}

// Summary computes the quote's summary record.
func (q *Quote) Summary() Summary {
	total := q.Total()
	paid := q.TotalPaid()
	remaining := total.Sub(paid)

	return Summary{
		ID:                q.ID,
		CustomerName:      q.CustomerName,
		CustomerContact:   q.CustomerContact,
		QuoteDate:         q.QuoteDate,
		LineItemsCount:    len(q.LineItems),
		Total:             total,
		TotalPaid:         paid,
		RemainingBalance:  remaining,
		FullyPaid:         !remaining.IsPositive(),
		CategoryBreakdown: q.CategoryBreakdown(),
		PaymentsCount:     len(q.Payments),
	}
}

// AddLineItem validates a new item and appends it to the quote.
// The quote is left untouched when validation fails.
func (q *Quote) AddLineItem(in LineItemInput) (LineItem, error) {
	item, err := NewLineItem(q.ID, in)
	if err != nil {
		return LineItem{}, err
	}

	q.LineItems = append(q.LineItems, item)

	return item, nil
}

// AddPayment validates a new payment and appends it to the quote.
func (q *Quote) AddPayment(in PaymentInput, now time.Time) (Payment, error) {
	p, err := NewPayment(q.ID, in, now)
	if err != nil {
		return Payment{}, err
	}

	q.Payments = append(q.Payments, p)

	return p, nil
}

// RemoveLineItem drops the item at index from the in-memory collection.
// It reports false when index is out of range.
func (q *Quote) RemoveLineItem(index int) (LineItem, bool) {
	if index < 0 || index >= len(q.LineItems) {
		return LineItem{}, false
	}

	removed := q.LineItems[index]
	q.LineItems = slices.Delete(q.LineItems, index, index+1)

	return removed, true
}
