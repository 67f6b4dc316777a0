package domain

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQuote(t *testing.T) *Quote {
	t.Helper()

	q, err := NewQuote(QuoteInput{CustomerName: "Ana Pérez"}, fixedNow)
	require.NoError(t, err)
	q.ID = "q-1"

	return q
}

func mustAddItem(t *testing.T, q *Quote, desc, price, category string, qty int) {
	t.Helper()

	_, err := q.AddLineItem(LineItemInput{Description: desc, Price: dec(price), Category: category, Quantity: intPtr(qty)})
	require.NoError(t, err)
}

func mustAddPayment(t *testing.T, q *Quote, amount string) {
	t.Helper()

	_, err := q.AddPayment(PaymentInput{Amount: dec(amount)}, fixedNow)
	require.NoError(t, err)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestNewQuote(t *testing.T) {
	t.Run("defaults quote date to now", func(t *testing.T) {
		q, err := NewQuote(QuoteInput{CustomerName: "Ana"}, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, fixedNow, q.QuoteDate)
	})

	t.Run("keeps explicit quote date", func(t *testing.T) {
		date := time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)

		q, err := NewQuote(QuoteInput{CustomerName: "Ana", QuoteDate: &date}, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, date, q.QuoteDate)
	})

	t.Run("requires customer name", func(t *testing.T) {
		_, err := NewQuote(QuoteInput{CustomerName: "  "}, fixedNow)
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})
}

func TestQuote_ApplyNeverRederivesDate(t *testing.T) {
	q := newTestQuote(t)

	next, err := q.Apply(QuotePatch{Notes: strPtr("llamar el lunes")})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, next.QuoteDate)
	assert.Equal(t, "llamar el lunes", next.Notes)
	assert.Empty(t, q.Notes)

	_, err = q.Apply(QuotePatch{CustomerName: strPtr("")})
	require.Error(t, err)
}

func TestQuote_EmptyIsFullyPaid(t *testing.T) {
	q := newTestQuote(t)

	assertDecimal(t, "0", q.Total())
	assertDecimal(t, "0", q.TotalPaid())
	assertDecimal(t, "0", q.RemainingBalance())
	assert.True(t, q.FullyPaid())
	assert.Empty(t, q.CategoryBreakdown())

	_, ok := q.InitialPayment()
	assert.False(t, ok)
}

func TestQuote_TotalsAndCategoryBreakdown(t *testing.T) {
	q := newTestQuote(t)
	mustAddItem(t, q, "Lente progresivo", "150.00", "lente", 1)
	mustAddItem(t, q, "Montura metal", "80.00", "montura", 1)
	mustAddItem(t, q, "Antirreflejo", "35.00", "tratamiento", 2)

	assertDecimal(t, "290.00", q.Total())

	breakdown := q.CategoryBreakdown()
	require.Len(t, breakdown, 3)
	assertDecimal(t, "150.00", breakdown[CategoryLens])
	assertDecimal(t, "80.00", breakdown[CategoryFrame])
	assertDecimal(t, "70.00", breakdown[CategoryTreatment])
}

func TestQuote_PaidInTwoInstallments(t *testing.T) {
	q := newTestQuote(t)
	mustAddItem(t, q, "Lente progresivo", "150.00", "lente", 1)
	mustAddItem(t, q, "Montura metal", "80.00", "montura", 1)
	mustAddItem(t, q, "Antirreflejo", "35.00", "tratamiento", 2)

	mustAddPayment(t, q, "145.00")
	assertDecimal(t, "145.00", q.TotalPaid())
	assertDecimal(t, "145.00", q.RemainingBalance())
	assert.False(t, q.FullyPaid())
	assert.Equal(t, StatusPending, q.Status())

	mustAddPayment(t, q, "145.00")
	assertDecimal(t, "0.00", q.RemainingBalance())
	assert.True(t, q.FullyPaid())
	assert.Equal(t, StatusPaid, q.Status())
}

func TestQuote_OverpaymentLeavesNegativeBalance(t *testing.T) {
	q := newTestQuote(t)
	mustAddItem(t, q, "Montura", "100.00", "montura", 1)
	mustAddPayment(t, q, "150.00")

	assertDecimal(t, "-50.00", q.RemainingBalance())
	assert.True(t, q.FullyPaid())
}

func TestQuote_DerivedInvariantsHoldForRandomData(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2)) //nolint:gosec // deterministic test data
	cats := Categories()

	for range 200 {
		q := &Quote{CustomerName: "x", QuoteDate: fixedNow}

		expectedTotal := decimal.Zero
		for range r.IntN(8) {
			price := decimal.New(r.Int64N(100_000)+1, -2)
			qty := r.IntN(5) + 1
			q.LineItems = append(q.LineItems, LineItem{
				Description: "i", Price: price, Quantity: qty, Category: cats[r.IntN(len(cats))],
			})
			expectedTotal = expectedTotal.Add(price.Mul(decimal.NewFromInt(int64(qty))))
		}

		expectedPaid := decimal.Zero
		for range r.IntN(4) {
			amount := decimal.New(r.Int64N(100_000)+1, -2)
			q.Payments = append(q.Payments, Payment{Amount: amount, PaymentDate: fixedNow, Method: PaymentCash})
			expectedPaid = expectedPaid.Add(amount)
		}

		assert.True(t, expectedTotal.Equal(q.Total()))
		assert.True(t, expectedPaid.Equal(q.TotalPaid()))
		assert.True(t, q.Total().Sub(q.TotalPaid()).Equal(q.RemainingBalance()))
		assert.Equal(t, q.RemainingBalance().LessThanOrEqual(decimal.Zero), q.FullyPaid())

		breakdownSum := decimal.Zero
		for _, v := range q.CategoryBreakdown() {
			breakdownSum = breakdownSum.Add(v)
		}
		assert.True(t, breakdownSum.Equal(q.Total()))
	}
}

func TestQuote_ChronologicalAndInitialPayment(t *testing.T) {
	q := newTestQuote(t)
	later := fixedNow.Add(48 * time.Hour)
	earlier := fixedNow.Add(-48 * time.Hour)

	_, err := q.AddPayment(PaymentInput{Amount: dec("20"), PaymentDate: &later}, fixedNow)
	require.NoError(t, err)
	_, err = q.AddPayment(PaymentInput{Amount: dec("10"), PaymentDate: &earlier}, fixedNow)
	require.NoError(t, err)

	first, ok := q.InitialPayment()
	require.True(t, ok)
	assertDecimal(t, "10", first.Amount)

	chrono := q.ChronologicalPayments()
	assert.Equal(t, earlier, chrono[0].PaymentDate)
	assert.Equal(t, later, q.Payments[0].PaymentDate, "stored order must not change")
}

func TestQuote_AddLineItemFailureLeavesQuoteUntouched(t *testing.T) {
	q := newTestQuote(t)
	mustAddItem(t, q, "Montura", "100", "montura", 1)

	_, err := q.AddLineItem(LineItemInput{Description: "", Price: dec("10")})
	require.Error(t, err)
	assert.Len(t, q.LineItems, 1)
	assertDecimal(t, "100", q.Total())
}

func TestQuote_RemoveLineItem(t *testing.T) {
	q := newTestQuote(t)
	mustAddItem(t, q, "A", "1", "", 1)
	mustAddItem(t, q, "B", "2", "", 1)
	mustAddItem(t, q, "C", "3", "", 1)

	removed, ok := q.RemoveLineItem(1)
	require.True(t, ok)
	assert.Equal(t, "B", removed.Description)
	require.Len(t, q.LineItems, 2)
	assert.Equal(t, "C", q.LineItems[1].Description)
	assertDecimal(t, "4", q.Total())

	_, ok = q.RemoveLineItem(5)
	assert.False(t, ok)
	_, ok = q.RemoveLineItem(-1)
	assert.False(t, ok)
}

func TestQuote_Summary(t *testing.T) {
	q := newTestQuote(t)
	q.CustomerContact = "555-1234"
	mustAddItem(t, q, "Lente", "150", "lente", 1)
	mustAddPayment(t, q, "50")

	s := q.Summary()

	assert.Equal(t, "q-1", s.ID)
	assert.Equal(t, "Ana Pérez", s.CustomerName)
	assert.Equal(t, "555-1234", s.CustomerContact)
	assert.Equal(t, fixedNow, s.QuoteDate)
	assert.Equal(t, 1, s.LineItemsCount)
	assert.Equal(t, 1, s.PaymentsCount)
	assertDecimal(t, "150", s.Total)
	assertDecimal(t, "50", s.TotalPaid)
	assertDecimal(t, "100", s.RemainingBalance)
	assert.False(t, s.FullyPaid)
	assertDecimal(t, "150", s.CategoryBreakdown[CategoryLens])
}

func TestGenerateQuoteID(t *testing.T) {
	assert.Equal(t, "Q20260314103000", GenerateQuoteID(fixedNow))
}

func BenchmarkQuote_Summary(b *testing.B) {
	q := &Quote{CustomerName: "bench", QuoteDate: fixedNow}
	for i := range 200 {
		q.LineItems = append(q.LineItems, LineItem{
			Description: "item", Price: decimal.New(int64(i+1)*137, -2), Quantity: i%3 + 1, Category: CategoryLens,
		})
		q.Payments = append(q.Payments, Payment{Amount: decimal.New(int64(i+1)*50, -2), PaymentDate: fixedNow})
	}

	for b.Loop() {
		_ = q.Summary()
	}
}
