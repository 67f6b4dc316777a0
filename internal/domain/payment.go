package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Payment is money received against a quote.
type Payment struct {
	ID          string
	QuoteID     string
	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      PaymentMethod
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PaymentInput carries the fields for a new payment.
// A nil PaymentDate is filled with the current time; a blank Method becomes "efectivo".
type PaymentInput struct {
	Amount      *decimal.Decimal
	PaymentDate *time.Time
	Method      string
	Notes       string
}

// PaymentPatch changes selected fields of an existing payment. Nil fields are left as they are.
type PaymentPatch struct {
	Amount      *decimal.Decimal
	PaymentDate *time.Time
	Method      *string
	Notes       *string
}

// NewPayment builds a payment owned by quoteID. The amount is rounded to
// cents before it is checked.
func NewPayment(quoteID string, in PaymentInput, now time.Time) (Payment, error) {
	p := Payment{
		QuoteID:     quoteID,
		PaymentDate: now,
		Method:      NormalizePaymentMethod(in.Method),
		Notes:       in.Notes,
	}

	if in.PaymentDate != nil {
		p.PaymentDate = *in.PaymentDate
	}

	v := validationCollector{entity: EntityPayment}
	if in.Amount == nil {
		v.add("amount", "can't be blank")
	} else {
		p.Amount = RoundMoney(*in.Amount)
	}

	p.check(&v, in.Amount != nil)

	if err := v.err(); err != nil {
		return Payment{}, err
	}

	return p, nil
}

// Apply returns a copy of p with the patch applied and validated.
// The payment date is only replaced when the patch carries one.
func (p Payment) Apply(patch PaymentPatch) (Payment, error) {
	next := p

	if patch.Amount != nil {
		next.Amount = RoundMoney(*patch.Amount)
	}

	if patch.PaymentDate != nil {
		next.PaymentDate = *patch.PaymentDate
	}

	if patch.Notes != nil {
		next.Notes = *patch.Notes
	}

	method := string(next.Method)
	if patch.Method != nil {
		method = *patch.Method
	}

	next.Method = NormalizePaymentMethod(method)

	if err := next.Validate(); err != nil {
		return p, err
	}

	return next, nil
}

// Validate checks every constraint on p without altering it.
func (p Payment) Validate() error {
	v := validationCollector{entity: EntityPayment}
	p.check(&v, true)

	return v.err()
}

func (p Payment) check(v *validationCollector, checkAmount bool) {
	if checkAmount {
		checkMoney(v, "amount", p.Amount)
	}

	if p.PaymentDate.IsZero() {
		v.add("payment_date", "can't be blank")
	}

	if !p.Method.Valid() {
		v.add("payment_method", "is not included in the list")
	}
}

// MethodName is the display label of the payment method.
func (p Payment) MethodName() string {
	return p.Method.Label()
}

// String renders the payment the way it is printed on a quote.
func (p Payment) String() string {
	var b strings.Builder

	b.WriteString(FormatMoney(p.Amount))
	b.WriteString(" - ")
	b.WriteString(p.MethodName())
	b.WriteString(" (")
	b.WriteString(FormatDate(p.PaymentDate))
	b.WriteString(")")

	if p.Notes != "" {
		b.WriteString(" - ")
		b.WriteString(p.Notes)
	}

	return b.String()
}

// SortPaymentsChronologically orders payments by date in place.
// Payments sharing a date keep their relative order.
func SortPaymentsChronologically(payments []Payment) {
	slices.SortStableFunc(payments, func(a, b Payment) int {
		return a.PaymentDate.Compare(b.PaymentDate)
	})
}
