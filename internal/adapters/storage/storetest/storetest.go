// Package storetest holds the behaviour every ports.QuoteStore must share.
// Each implementation runs the suite from its own tests.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
	"github.com/jsamuelsen/eyewear-quotes/internal/ports"
)

// Factory returns an empty store. It registers its own cleanup.
type Factory func(t *testing.T) ports.QuoteStore

var base = time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)

// Run executes the full suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("quotes", func(t *testing.T) { testQuotes(t, newStore(t)) })
	t.Run("list quotes", func(t *testing.T) { testListQuotes(t, newStore(t)) })
	t.Run("line items", func(t *testing.T) { testLineItems(t, newStore(t)) })
	t.Run("payments", func(t *testing.T) { testPayments(t, newStore(t)) })
	t.Run("cascade delete", func(t *testing.T) { testCascadeDelete(t, newStore(t)) })
	t.Run("money limits", func(t *testing.T) { testMoneyLimits(t, newStore(t)) })
}

func quote(id, customer string, created time.Time) *domain.Quote {
	return &domain.Quote{
		ID:           id,
		CustomerName: customer,
		QuoteDate:    created,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func lineItem(id, quoteID, desc, price string, created time.Time) *domain.LineItem {
	return &domain.LineItem{
		ID:          id,
		QuoteID:     quoteID,
		Description: desc,
		Price:       decimal.RequireFromString(price),
		Quantity:    1,
		Category:    domain.CategoryLens,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func payment(id, quoteID, amount string, date time.Time, method domain.PaymentMethod) *domain.Payment {
	return &domain.Payment{
		ID:          id,
		QuoteID:     quoteID,
		Amount:      decimal.RequireFromString(amount),
		PaymentDate: date,
		Method:      method,
		CreatedAt:   base,
		UpdatedAt:   base,
	}
}

func testQuotes(t *testing.T, s ports.QuoteStore) {
	ctx := context.Background()

	q := quote("q-1", "Ana Pérez", base)
	q.CustomerContact = "ana@example.com"
	q.Notes = "receta nueva"
	require.NoError(t, s.CreateQuote(ctx, q))

	got, err := s.GetQuote(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Pérez", got.CustomerName)
	assert.Equal(t, "ana@example.com", got.CustomerContact)
	assert.Equal(t, "receta nueva", got.Notes)
	assert.True(t, base.Equal(got.QuoteDate))
	assert.True(t, base.Equal(got.CreatedAt))

	got.CustomerName = "Ana María Pérez"
	got.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, s.UpdateQuote(ctx, got))

	reloaded, err := s.GetQuote(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana María Pérez", reloaded.CustomerName)
	assert.True(t, base.Add(time.Hour).Equal(reloaded.UpdatedAt))

	_, err = s.GetQuote(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))

	err = s.UpdateQuote(ctx, quote("missing", "x", base))
	assert.True(t, domain.IsNotFound(err))

	err = s.DeleteQuote(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))
}

func testListQuotes(t *testing.T, s ports.QuoteStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateQuote(ctx, quote("q-a", "Ana Pérez", base)))
	require.NoError(t, s.CreateQuote(ctx, quote("q-b", "Bruno Díaz", base.Add(time.Minute))))
	require.NoError(t, s.CreateQuote(ctx, quote("q-c", "ana lópez", base.Add(2*time.Minute))))
	// Same instant as q-c: ties break by id descending.
	require.NoError(t, s.CreateQuote(ctx, quote("q-d", "Carla 100%_off", base.Add(2*time.Minute))))

	ids := func(qs []*domain.Quote) []string {
		out := make([]string, len(qs))
		for i, q := range qs {
			out[i] = q.ID
		}

		return out
	}

	t.Run("newest first", func(t *testing.T) {
		all, err := s.ListQuotes(ctx, ports.QuoteFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"q-d", "q-c", "q-b", "q-a"}, ids(all))
	})

	t.Run("customer filter ignores case", func(t *testing.T) {
		matched, err := s.ListQuotes(ctx, ports.QuoteFilter{Customer: "ANA"})
		require.NoError(t, err)
		assert.Equal(t, []string{"q-c", "q-a"}, ids(matched))
	})

	t.Run("customer filter treats wildcards literally", func(t *testing.T) {
		matched, err := s.ListQuotes(ctx, ports.QuoteFilter{Customer: "%_"})
		require.NoError(t, err)
		assert.Equal(t, []string{"q-d"}, ids(matched))
	})

	t.Run("cursor paging", func(t *testing.T) {
		var (
			seen  []string
			after *ports.QuoteCursor
		)

		for range 10 {
			page, err := s.ListQuotes(ctx, ports.QuoteFilter{After: after, Limit: 3})
			require.NoError(t, err)

			if len(page) == 0 {
				break
			}

			seen = append(seen, ids(page)...)
			last := page[len(page)-1]
			after = &ports.QuoteCursor{CreatedAt: last.CreatedAt, ID: last.ID}
		}

		assert.Equal(t, []string{"q-d", "q-c", "q-b", "q-a"}, seen)
	})
}

func testLineItems(t *testing.T, s ports.QuoteStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateQuote(ctx, quote("q-1", "Ana", base)))
	require.NoError(t, s.CreateQuote(ctx, quote("q-2", "Bruno", base)))

	// Creation order wins over id order and timestamps.
	for i, id := range []string{"li-z", "li-a", "li-m"} {
		item := lineItem(id, "q-1", fmt.Sprintf("item %d", i), "10.50", base)
		require.NoError(t, s.CreateLineItem(ctx, item))
	}

	items, err := s.ListLineItems(ctx, "q-1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "li-z", items[0].ID)
	assert.Equal(t, "li-a", items[1].ID)
	assert.Equal(t, "li-m", items[2].ID)
	assert.True(t, decimal.RequireFromString("10.50").Equal(items[0].Price))
	assert.Equal(t, domain.CategoryLens, items[0].Category)

	t.Run("missing quote", func(t *testing.T) {
		err := s.CreateLineItem(ctx, lineItem("li-x", "nope", "x", "1", base))
		require.Error(t, err)

		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, domain.EntityQuote, nf.Entity)
	})

	t.Run("scoped to quote", func(t *testing.T) {
		_, err := s.GetLineItem(ctx, "q-2", "li-a")
		assert.True(t, domain.IsNotFound(err))

		err = s.DeleteLineItem(ctx, "q-2", "li-a")
		assert.True(t, domain.IsNotFound(err))

		wrong := lineItem("li-a", "q-2", "moved", "1", base)
		assert.True(t, domain.IsNotFound(s.UpdateLineItem(ctx, wrong)))
	})

	t.Run("update keeps position", func(t *testing.T) {
		item, err := s.GetLineItem(ctx, "q-1", "li-z")
		require.NoError(t, err)

		item.Description = "Lente progresivo"
		item.Price = decimal.RequireFromString("150.00")
		item.Quantity = 2
		item.Category = domain.CategoryTreatment
		require.NoError(t, s.UpdateLineItem(ctx, item))

		items, err := s.ListLineItems(ctx, "q-1")
		require.NoError(t, err)
		assert.Equal(t, "li-z", items[0].ID)
		assert.Equal(t, "Lente progresivo", items[0].Description)
		assert.Equal(t, 2, items[0].Quantity)
		assert.Equal(t, domain.CategoryTreatment, items[0].Category)
		assert.True(t, decimal.RequireFromString("300").Equal(items[0].Subtotal()))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteLineItem(ctx, "q-1", "li-a"))

		items, err := s.ListLineItems(ctx, "q-1")
		require.NoError(t, err)
		assert.Len(t, items, 2)

		empty, err := s.ListLineItems(ctx, "q-2")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func testPayments(t *testing.T, s ports.QuoteStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateQuote(ctx, quote("q-1", "Ana", base)))
	require.NoError(t, s.CreateQuote(ctx, quote("q-2", "Bruno", base)))

	day := func(d int) time.Time { return time.Date(2026, time.April, d, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, s.CreatePayment(ctx, payment("p-late", "q-1", "20.00", day(9), domain.PaymentCard)))
	require.NoError(t, s.CreatePayment(ctx, payment("p-tie-1", "q-1", "30.00", day(3), domain.PaymentCash)))
	require.NoError(t, s.CreatePayment(ctx, payment("p-early", "q-1", "10.00", day(1), domain.PaymentCash)))
	require.NoError(t, s.CreatePayment(ctx, payment("p-tie-0", "q-1", "40.00", day(3), domain.PaymentTransfer)))

	paymentIDs := func(ps []domain.Payment) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.ID
		}

		return out
	}

	t.Run("chronological with stable ties", func(t *testing.T) {
		ps, err := s.ListPayments(ctx, "q-1", ports.PaymentFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"p-early", "p-tie-1", "p-tie-0", "p-late"}, paymentIDs(ps))
		assert.True(t, day(1).Equal(ps[0].PaymentDate))
		assert.True(t, decimal.RequireFromString("10").Equal(ps[0].Amount))
	})

	t.Run("method filter", func(t *testing.T) {
		ps, err := s.ListPayments(ctx, "q-1", ports.PaymentFilter{Method: domain.PaymentCash})
		require.NoError(t, err)
		assert.Equal(t, []string{"p-early", "p-tie-1"}, paymentIDs(ps))
	})

	t.Run("missing quote", func(t *testing.T) {
		err := s.CreatePayment(ctx, payment("p-x", "nope", "1", day(1), domain.PaymentCash))
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("scoped to quote", func(t *testing.T) {
		_, err := s.GetPayment(ctx, "q-2", "p-late")
		assert.True(t, domain.IsNotFound(err))
		assert.True(t, domain.IsNotFound(s.DeletePayment(ctx, "q-2", "p-late")))
	})

	t.Run("update", func(t *testing.T) {
		p, err := s.GetPayment(ctx, "q-1", "p-late")
		require.NoError(t, err)

		p.Amount = decimal.RequireFromString("25.75")
		p.Notes = "saldo"
		p.Method = domain.PaymentCheque
		require.NoError(t, s.UpdatePayment(ctx, p))

		reloaded, err := s.GetPayment(ctx, "q-1", "p-late")
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("25.75").Equal(reloaded.Amount))
		assert.Equal(t, "saldo", reloaded.Notes)
		assert.Equal(t, domain.PaymentCheque, reloaded.Method)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeletePayment(ctx, "q-1", "p-early"))

		_, err := s.GetPayment(ctx, "q-1", "p-early")
		assert.True(t, domain.IsNotFound(err))
	})
}

func testCascadeDelete(t *testing.T, s ports.QuoteStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateQuote(ctx, quote("q-1", "Ana", base)))
	require.NoError(t, s.CreateQuote(ctx, quote("q-2", "Bruno", base)))
	require.NoError(t, s.CreateLineItem(ctx, lineItem("li-1", "q-1", "Lente", "150", base)))
	require.NoError(t, s.CreateLineItem(ctx, lineItem("li-2", "q-2", "Montura", "80", base)))
	require.NoError(t, s.CreatePayment(ctx, payment("p-1", "q-1", "50", base, domain.PaymentCash)))

	require.NoError(t, s.DeleteQuote(ctx, "q-1"))

	_, err := s.GetQuote(ctx, "q-1")
	assert.True(t, domain.IsNotFound(err))

	items, err := s.ListLineItems(ctx, "q-1")
	require.NoError(t, err)
	assert.Empty(t, items)

	payments, err := s.ListPayments(ctx, "q-1", ports.PaymentFilter{})
	require.NoError(t, err)
	assert.Empty(t, payments)

	_, err = s.GetLineItem(ctx, "q-1", "li-1")
	assert.True(t, domain.IsNotFound(err))

	others, err := s.ListLineItems(ctx, "q-2")
	require.NoError(t, err)
	assert.Len(t, others, 1, "other quotes keep their children")
}

// testMoneyLimits stores the smallest and largest values the domain lets
// through. Every backend must hand them back unchanged, so totals agree
// whichever store is configured.
func testMoneyLimits(t *testing.T, s ports.QuoteStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateQuote(ctx, quote("q-1", "Ana", base)))

	amount := func(v string) *decimal.Decimal {
		d := decimal.RequireFromString(v)
		return &d
	}

	for i, price := range []string{"0.005", "9999999999.99"} {
		item, err := domain.NewLineItem("q-1", domain.LineItemInput{Description: "limite", Price: amount(price)})
		require.NoError(t, err)

		item.ID = fmt.Sprintf("li-%d", i)
		item.CreatedAt, item.UpdatedAt = base, base
		require.NoError(t, s.CreateLineItem(ctx, &item))
	}

	p, err := domain.NewPayment("q-1", domain.PaymentInput{Amount: amount("9999999999.994")}, base)
	require.NoError(t, err)

	p.ID = "p-1"
	p.CreatedAt, p.UpdatedAt = base, base
	require.NoError(t, s.CreatePayment(ctx, &p))

	items, err := s.ListLineItems(ctx, "q-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, decimal.RequireFromString("0.01").Equal(items[0].Price), "got %s", items[0].Price)
	assert.True(t, decimal.RequireFromString("9999999999.99").Equal(items[1].Price), "got %s", items[1].Price)

	got, err := s.GetPayment(ctx, "q-1", "p-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("9999999999.99").Equal(got.Amount), "got %s", got.Amount)

	q, err := s.GetQuote(ctx, "q-1")
	require.NoError(t, err)

	q.LineItems = items
	assert.Equal(t, "$10000000000.00", domain.FormatMoney(q.Total()))
}
