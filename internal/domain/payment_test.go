package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)

func TestNewPayment_Defaults(t *testing.T) {
	p, err := NewPayment("q-1", PaymentInput{Amount: dec("145.00")}, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, PaymentCash, p.Method)
	assert.Equal(t, fixedNow, p.PaymentDate)
	assert.Empty(t, p.Notes)
}

func TestNewPayment_KeepsGivenDate(t *testing.T) {
	given := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)

	p, err := NewPayment("q-1", PaymentInput{Amount: dec("10"), PaymentDate: &given}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, given, p.PaymentDate)
}

func TestNewPayment_MethodCoercion(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		expected PaymentMethod
	}{
		{name: "blank becomes efectivo", method: "", expected: PaymentCash},
		{name: "recognized kept", method: "transferencia", expected: PaymentTransfer},
		{name: "unrecognized becomes other", method: "bitcoin", expected: PaymentOther},
		{name: "padded value trimmed", method: " tarjeta ", expected: PaymentCard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPayment("q-1", PaymentInput{Amount: dec("1"), Method: tt.method}, fixedNow)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p.Method)
		})
	}
}

func TestNewPayment_Validation(t *testing.T) {
	tests := []struct {
		name   string
		amount *decimal.Decimal
	}{
		{name: "missing amount", amount: nil},
		{name: "zero amount", amount: dec("0")},
		{name: "negative amount", amount: dec("-10")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPayment("q-1", PaymentInput{Amount: tt.amount}, fixedNow)
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, EntityPayment, ve.Entity)
			assert.Equal(t, "amount", ve.Fields[0].Field)
		})
	}
}

func TestPayment_Apply(t *testing.T) {
	p, err := NewPayment("q-1", PaymentInput{Amount: dec("50"), Method: "cheque"}, fixedNow)
	require.NoError(t, err)

	t.Run("does not re-default date or method", func(t *testing.T) {
		next, err := p.Apply(PaymentPatch{Notes: strPtr("segunda cuota")})
		require.NoError(t, err)

		assert.Equal(t, fixedNow, next.PaymentDate)
		assert.Equal(t, PaymentCheque, next.Method)
		assert.Equal(t, "segunda cuota", next.Notes)
	})

	t.Run("blank method falls back to efectivo", func(t *testing.T) {
		next, err := p.Apply(PaymentPatch{Method: strPtr("")})
		require.NoError(t, err)
		assert.Equal(t, PaymentCash, next.Method)
	})

	t.Run("invalid amount rejected", func(t *testing.T) {
		next, err := p.Apply(PaymentPatch{Amount: dec("0")})
		require.Error(t, err)
		assert.Equal(t, p, next)
	})
}

func TestPayment_Validate(t *testing.T) {
	p := Payment{Amount: decimal.NewFromInt(1), Method: "crypto"}

	err := p.Validate()
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, map[string]string{
		"payment_date":   "can't be blank",
		"payment_method": "is not included in the list",
	}, ve.Details())
	assert.Equal(t, "Crypto", p.MethodName())
}

func TestPayment_String(t *testing.T) {
	p := Payment{
		Amount:      decimal.NewFromInt(145),
		PaymentDate: time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
		Method:      PaymentCard,
	}
	assert.Equal(t, "$145.00 - Tarjeta (05/03/2026)", p.String())

	p.Notes = "seña"
	assert.Equal(t, "$145.00 - Tarjeta (05/03/2026) - seña", p.String())
}

func TestSortPaymentsChronologically_IsStable(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, time.April, d, 0, 0, 0, 0, time.UTC) }

	payments := []Payment{
		{ID: "late", PaymentDate: day(9)},
		{ID: "tie-first", PaymentDate: day(3)},
		{ID: "early", PaymentDate: day(1)},
		{ID: "tie-second", PaymentDate: day(3)},
	}

	SortPaymentsChronologically(payments)

	ids := make([]string, len(payments))
	for i, p := range payments {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"early", "tie-first", "tie-second", "late"}, ids)
}

func TestEnumerations_AreCopies(t *testing.T) {
	cats := Categories()
	cats[0] = "mutated"
	assert.Equal(t, CategoryLens, Categories()[0])

	methods := PaymentMethods()
	methods[0] = "mutated"
	assert.Equal(t, PaymentCash, PaymentMethods()[0])
}
