package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
)

// QuoteRequest is the body of quote create and update requests.
// It may be sent bare or wrapped as {"quote": {...}}.
type QuoteRequest struct {
	CustomerName    *string `json:"customer_name"`
	CustomerContact *string `json:"customer_contact"`
	Notes           *string `json:"notes"`
	QuoteDate       Date    `json:"quote_date"`
}

// ToInput converts the request into a new quote. A blank quote date is
// filled in by the domain.
func (r *QuoteRequest) ToInput() (domain.QuoteInput, error) {
	f := fieldErrors{entity: domain.EntityQuote}

	in := domain.QuoteInput{
		CustomerName:    deref(r.CustomerName),
		CustomerContact: deref(r.CustomerContact),
		Notes:           deref(r.Notes),
		QuoteDate:       f.dateField("quote_date", r.QuoteDate, true),
	}

	return in, f.err()
}

// ToPatch converts the request into a header patch.
func (r *QuoteRequest) ToPatch() (domain.QuotePatch, error) {
	f := fieldErrors{entity: domain.EntityQuote}

	patch := domain.QuotePatch{
		CustomerName:    r.CustomerName,
		CustomerContact: r.CustomerContact,
		Notes:           r.Notes,
		QuoteDate:       f.dateField("quote_date", r.QuoteDate, false),
	}

	return patch, f.err()
}

// LineItemRequest is the body of line item create and update requests.
type LineItemRequest struct {
	Description *string `json:"description"`
	Price       Number  `json:"price"`
	Quantity    Number  `json:"quantity"`
	Category    *string `json:"category"`
}

// ToInput converts the request into a new line item.
func (r *LineItemRequest) ToInput() (domain.LineItemInput, error) {
	f := fieldErrors{entity: domain.EntityLineItem}

	in := domain.LineItemInput{
		Description: deref(r.Description),
		Price:       f.decimalField("price", r.Price),
		Quantity:    f.intField("quantity", r.Quantity),
		Category:    deref(r.Category),
	}

	return in, f.err()
}

// ToPatch converts the request into a line item patch.
func (r *LineItemRequest) ToPatch() (domain.LineItemPatch, error) {
	f := fieldErrors{entity: domain.EntityLineItem}

	patch := domain.LineItemPatch{
		Description: r.Description,
		Price:       f.decimalField("price", r.Price),
		Quantity:    f.intField("quantity", r.Quantity),
		Category:    r.Category,
	}

	return patch, f.err()
}

// PaymentRequest is the body of payment create and update requests.
type PaymentRequest struct {
	Amount        Number  `json:"amount"`
	PaymentDate   Date    `json:"payment_date"`
	PaymentMethod *string `json:"payment_method"`
	Notes         *string `json:"notes"`
}

// ToInput converts the request into a new payment. A blank payment date
// is filled in with the current time by the domain.
func (r *PaymentRequest) ToInput() (domain.PaymentInput, error) {
	f := fieldErrors{entity: domain.EntityPayment}

	in := domain.PaymentInput{
		Amount:      f.decimalField("amount", r.Amount),
		PaymentDate: f.dateField("payment_date", r.PaymentDate, true),
		Method:      deref(r.PaymentMethod),
		Notes:       deref(r.Notes),
	}

	return in, f.err()
}

// ToPatch converts the request into a payment patch.
func (r *PaymentRequest) ToPatch() (domain.PaymentPatch, error) {
	f := fieldErrors{entity: domain.EntityPayment}

	patch := domain.PaymentPatch{
		Amount:      f.decimalField("amount", r.Amount),
		PaymentDate: f.dateField("payment_date", r.PaymentDate, false),
		Method:      r.PaymentMethod,
		Notes:       r.Notes,
	}

	return patch, f.err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

// ListQuotesRequest holds the query parameters of the quote listing.
type ListQuotesRequest struct {
	PageQuery

	// Customer keeps quotes whose customer name contains the value.
	Customer string `form:"customer"`

	// Pending keeps quotes with a remaining balance.
	Pending bool `form:"pending"`
}

// ListPaymentsRequest holds the query parameters of the payment listing.
type ListPaymentsRequest struct {
	Method string `form:"method" validate:"omitempty,max=32"`
}

// Totals are the derived money figures of a quote.
type Totals struct {
	Total            Money `json:"total"`
	TotalPaid        Money `json:"total_paid"`
	RemainingBalance Money `json:"remaining_balance"`
	FullyPaid        bool  `json:"fully_paid"`
}

// QuoteIndexResponse is one entry of the quote listing.
type QuoteIndexResponse struct {
	ID              string    `json:"id"`
	CustomerName    string    `json:"customer_name"`
	CustomerContact string    `json:"customer_contact"`
	QuoteDate       time.Time `json:"quote_date"`
	CreatedAt       time.Time `json:"created_at"`
	LineItemsCount  int       `json:"line_items_count"`
	PaymentsCount   int       `json:"payments_count"`
	Totals          Totals    `json:"totals"`
}

// QuoteResponse is the full representation of a quote.
type QuoteResponse struct {
	ID                string             `json:"id"`
	CustomerName      string             `json:"customer_name"`
	CustomerContact   string             `json:"customer_contact"`
	Notes             string             `json:"notes"`
	QuoteDate         time.Time          `json:"quote_date"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	LineItems         []LineItemResponse `json:"line_items"`
	Payments          []PaymentResponse  `json:"payments"`
	Totals            Totals             `json:"totals"`
	CategoryBreakdown map[string]Money   `json:"category_breakdown"`
}

// LineItemResponse is the representation of a line item.
type LineItemResponse struct {
	ID           string    `json:"id"`
	QuoteID      string    `json:"quote_id"`
	Description  string    `json:"description"`
	Price        Money     `json:"price"`
	Category     string    `json:"category"`
	CategoryName string    `json:"category_name"`
	Quantity     int       `json:"quantity"`
	Subtotal     Money     `json:"subtotal"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PaymentResponse is the representation of a payment.
type PaymentResponse struct {
	ID                string    `json:"id"`
	QuoteID           string    `json:"quote_id"`
	Amount            Money     `json:"amount"`
	PaymentDate       time.Time `json:"payment_date"`
	PaymentMethod     string    `json:"payment_method"`
	PaymentMethodName string    `json:"payment_method_name"`
	Notes             string    `json:"notes"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SummaryResponse is the summary record of a quote.
type SummaryResponse struct {
	ID                string           `json:"id"`
	CustomerName      string           `json:"customer_name"`
	CustomerContact   string           `json:"customer_contact"`
	Date              time.Time        `json:"date"`
	LineItemsCount    int              `json:"line_items_count"`
	Total             Money            `json:"total"`
	TotalPaid         Money            `json:"total_paid"`
	RemainingBalance  Money            `json:"remaining_balance"`
	FullyPaid         bool             `json:"fully_paid"`
	CategoryBreakdown map[string]Money `json:"category_breakdown"`
	PaymentsCount     int              `json:"payments_count"`
}

// NewTotals computes the totals of a loaded quote.
func NewTotals(q *domain.Quote) Totals {
	return Totals{
		Total:            Money(q.Total()),
		TotalPaid:        Money(q.TotalPaid()),
		RemainingBalance: Money(q.RemainingBalance()),
		FullyPaid:        q.FullyPaid(),
	}
}

// NewQuoteIndexResponse builds a listing entry.
func NewQuoteIndexResponse(q *domain.Quote) QuoteIndexResponse {
	return QuoteIndexResponse{
		ID:              q.ID,
		CustomerName:    q.CustomerName,
		CustomerContact: q.CustomerContact,
		QuoteDate:       q.QuoteDate,
		CreatedAt:       q.CreatedAt,
		LineItemsCount:  len(q.LineItems),
		PaymentsCount:   len(q.Payments),
		Totals:          NewTotals(q),
	}
}

// NewQuoteResponse builds the full representation. Payments are listed
// chronologically.
func NewQuoteResponse(q *domain.Quote) QuoteResponse {
	items := make([]LineItemResponse, len(q.LineItems))
	for i := range q.LineItems {
		items[i] = NewLineItemResponse(&q.LineItems[i])
	}

	chronological := q.ChronologicalPayments()

	payments := make([]PaymentResponse, len(chronological))
	for i := range chronological {
		payments[i] = NewPaymentResponse(&chronological[i])
	}

	return QuoteResponse{
		ID:                q.ID,
		CustomerName:      q.CustomerName,
		CustomerContact:   q.CustomerContact,
		Notes:             q.Notes,
		QuoteDate:         q.QuoteDate,
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         q.UpdatedAt,
		LineItems:         items,
		Payments:          payments,
		Totals:            NewTotals(q),
		CategoryBreakdown: breakdown(q.CategoryBreakdown()),
	}
}

// NewLineItemResponse builds the representation of a line item.
func NewLineItemResponse(li *domain.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:           li.ID,
		QuoteID:      li.QuoteID,
		Description:  li.Description,
		Price:        Money(li.Price),
		Category:     string(li.Category),
		CategoryName: li.CategoryName(),
		Quantity:     li.Quantity,
		Subtotal:     Money(li.Subtotal()),
		CreatedAt:    li.CreatedAt,
		UpdatedAt:    li.UpdatedAt,
	}
}

// NewPaymentResponse builds the representation of a payment.
func NewPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		QuoteID:           p.QuoteID,
		Amount:            Money(p.Amount),
		PaymentDate:       p.PaymentDate,
		PaymentMethod:     string(p.Method),
		PaymentMethodName: p.MethodName(),
		Notes:             p.Notes,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// NewSummaryResponse converts a domain summary.
func NewSummaryResponse(s domain.Summary) SummaryResponse {
	return SummaryResponse{
		ID:                s.ID,
		CustomerName:      s.CustomerName,
		CustomerContact:   s.CustomerContact,
		Date:              s.QuoteDate,
		LineItemsCount:    s.LineItemsCount,
		Total:             Money(s.Total),
		TotalPaid:         Money(s.TotalPaid),
		RemainingBalance:  Money(s.RemainingBalance),
		FullyPaid:         s.FullyPaid,
		CategoryBreakdown: breakdown(s.CategoryBreakdown),
		PaymentsCount:     s.PaymentsCount,
	}
}

// NewLineItemsResponse builds a line item listing.
func NewLineItemsResponse(items []domain.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, len(items))
	for i := range items {
		out[i] = NewLineItemResponse(&items[i])
	}

	return out
}

// NewPaymentsResponse builds a payment listing in the given order.
func NewPaymentsResponse(payments []domain.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = NewPaymentResponse(&payments[i])
	}

	return out
}

func breakdown(in map[domain.Category]decimal.Decimal) map[string]Money {
	out := make(map[string]Money, len(in))
	for category, amount := range in {
		out[string(category)] = Money(amount)
	}

	return out
}
