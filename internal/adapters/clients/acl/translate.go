package acl

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
)

// Wire shapes of the quote API.
type (
	totalsDTO struct {
		Total            decimal.Decimal `json:"total"`
		TotalPaid        decimal.Decimal `json:"total_paid"`
		RemainingBalance decimal.Decimal `json:"remaining_balance"`
		FullyPaid        bool            `json:"fully_paid"`
	}

	lineItemDTO struct {
		ID          string          `json:"id"`
		QuoteID     string          `json:"quote_id"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		Quantity    int             `json:"quantity"`
		Category    string          `json:"category"`
		CreatedAt   time.Time       `json:"created_at"`
		UpdatedAt   time.Time       `json:"updated_at"`
	}

	paymentDTO struct {
		ID            string          `json:"id"`
		QuoteID       string          `json:"quote_id"`
		Amount        decimal.Decimal `json:"amount"`
		PaymentDate   time.Time       `json:"payment_date"`
		PaymentMethod string          `json:"payment_method"`
		Notes         string          `json:"notes"`
		CreatedAt     time.Time       `json:"created_at"`
		UpdatedAt     time.Time       `json:"updated_at"`
	}

	quoteDTO struct {
		ID              string        `json:"id"`
		CustomerName    string        `json:"customer_name"`
		CustomerContact string        `json:"customer_contact"`
		Notes           string        `json:"notes"`
		QuoteDate       time.Time     `json:"quote_date"`
		CreatedAt       time.Time     `json:"created_at"`
		UpdatedAt       time.Time     `json:"updated_at"`
		LineItems       []lineItemDTO `json:"line_items"`
		Payments        []paymentDTO  `json:"payments"`
	}

	quoteIndexDTO struct {
		ID              string    `json:"id"`
		CustomerName    string    `json:"customer_name"`
		CustomerContact string    `json:"customer_contact"`
		QuoteDate       time.Time `json:"quote_date"`
		LineItemsCount  int       `json:"line_items_count"`
		PaymentsCount   int       `json:"payments_count"`
		Totals          totalsDTO `json:"totals"`
	}

	quotePageDTO struct {
		Items      []quoteIndexDTO `json:"items"`
		NextCursor string          `json:"nextCursor"`
		HasMore    bool            `json:"hasMore"`
	}

	summaryDTO struct {
		ID                string                     `json:"id"`
		CustomerName      string                     `json:"customer_name"`
		CustomerContact   string                     `json:"customer_contact"`
		Date              time.Time                  `json:"date"`
		LineItemsCount    int                        `json:"line_items_count"`
		Total             decimal.Decimal            `json:"total"`
		TotalPaid         decimal.Decimal            `json:"total_paid"`
		RemainingBalance  decimal.Decimal            `json:"remaining_balance"`
		FullyPaid         bool                       `json:"fully_paid"`
		CategoryBreakdown map[string]decimal.Decimal `json:"category_breakdown"`
		PaymentsCount     int                        `json:"payments_count"`
	}

	paymentRequestDTO struct {
		Amount        string `json:"amount"`
		PaymentDate   string `json:"payment_date,omitempty"`
		PaymentMethod string `json:"payment_method,omitempty"`
		Notes         string `json:"notes,omitempty"`
	}
)

func requireText(value, field string) error {
	if value == "" {
		return domain.NewValidationError(field, "can't be blank")
	}

	return nil
}

func requirePositive(value decimal.Decimal, field string) error {
	if !value.IsPositive() {
		return domain.NewValidationError(field, "must be greater than 0")
	}

	return nil
}

// translateEach stops at the first entry that does not translate.
func translateEach[W, D any](wire []W, fn func(*W) (D, error)) ([]D, error) {
	out := make([]D, 0, len(wire))

	for i := range wire {
		v, err := fn(&wire[i])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		out = append(out, v)
	}

	return out, nil
}

// translateQuote builds the aggregate from its parts. Totals are not read;
// the domain derives them.
func translateQuote(w *quoteDTO) (*domain.Quote, error) {
	if err := requireText(w.ID, "id"); err != nil {
		return nil, err
	}

	if err := requireText(w.CustomerName, "customer_name"); err != nil {
		return nil, err
	}

	items, err := translateEach(w.LineItems, translateLineItem)
	if err != nil {
		return nil, err
	}

	payments, err := translateEach(w.Payments, translatePayment)
	if err != nil {
		return nil, err
	}

	return &domain.Quote{
		ID:              w.ID,
		CustomerName:    w.CustomerName,
		CustomerContact: w.CustomerContact,
		Notes:           w.Notes,
		QuoteDate:       w.QuoteDate,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
		LineItems:       items,
		Payments:        payments,
	}, nil
}

func translateLineItem(w *lineItemDTO) (domain.LineItem, error) {
	if err := requirePositive(w.Price, "price"); err != nil {
		return domain.LineItem{}, err
	}

	if w.Quantity <= 0 {
		return domain.LineItem{}, domain.NewValidationError("quantity", "must be greater than 0")
	}

	return domain.LineItem{
		ID:          w.ID,
		QuoteID:     w.QuoteID,
		Description: w.Description,
		Price:       w.Price,
		Quantity:    w.Quantity,
		Category:    domain.NormalizeCategory(w.Category),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}, nil
}

func translatePayment(w *paymentDTO) (domain.Payment, error) {
	if err := requirePositive(w.Amount, "amount"); err != nil {
		return domain.Payment{}, err
	}

	return domain.Payment{
		ID:          w.ID,
		QuoteID:     w.QuoteID,
		Amount:      w.Amount,
		PaymentDate: w.PaymentDate,
		Method:      domain.NormalizePaymentMethod(w.PaymentMethod),
		Notes:       w.Notes,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}, nil
}

func translateSummary(w *summaryDTO) domain.Summary {
	breakdown := make(map[domain.Category]decimal.Decimal, len(w.CategoryBreakdown))
	for code, amount := range w.CategoryBreakdown {
		c := domain.NormalizeCategory(code)
		breakdown[c] = breakdown[c].Add(amount)
	}

	return domain.Summary{
		ID:                w.ID,
		CustomerName:      w.CustomerName,
		CustomerContact:   w.CustomerContact,
		QuoteDate:         w.Date,
		LineItemsCount:    w.LineItemsCount,
		Total:             w.Total,
		TotalPaid:         w.TotalPaid,
		RemainingBalance:  w.RemainingBalance,
		FullyPaid:         w.FullyPaid,
		CategoryBreakdown: breakdown,
		PaymentsCount:     w.PaymentsCount,
	}
}

// translateIndex reads one listing row, which carries no breakdown.
func translateIndex(w *quoteIndexDTO) (domain.Summary, error) {
	if err := requireText(w.ID, "id"); err != nil {
		return domain.Summary{}, err
	}

	return domain.Summary{
		ID:               w.ID,
		CustomerName:     w.CustomerName,
		CustomerContact:  w.CustomerContact,
		QuoteDate:        w.QuoteDate,
		LineItemsCount:   w.LineItemsCount,
		Total:            w.Totals.Total,
		TotalPaid:        w.Totals.TotalPaid,
		RemainingBalance: w.Totals.RemainingBalance,
		FullyPaid:        w.Totals.FullyPaid,
		PaymentsCount:    w.PaymentsCount,
	}, nil
}
