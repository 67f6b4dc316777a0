package domain

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }

func TestNewLineItem_Defaults(t *testing.T) {
	item, err := NewLineItem("q-1", LineItemInput{
		Description: "Lente monofocal",
		Price:       dec("150.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, "q-1", item.QuoteID)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, CategoryOther, item.Category)
}

func TestNewLineItem_CategoryCoercion(t *testing.T) {
	tests := []struct {
		name     string
		category string
		expected Category
	}{
		{name: "recognized value kept", category: "montura", expected: CategoryFrame},
		{name: "blank becomes other", category: "", expected: CategoryOther},
		{name: "whitespace becomes other", category: "   ", expected: CategoryOther},
		{name: "unrecognized becomes other", category: "invalid_cat", expected: CategoryOther},
		{name: "case differs becomes other", category: "LENTE", expected: CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewLineItem("q-1", LineItemInput{
				Description: "Item",
				Price:       dec("10"),
				Category:    tt.category,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, item.Category)
		})
	}
}

func TestNewLineItem_Validation(t *testing.T) {
	tests := []struct {
		name   string
		input  LineItemInput
		fields []string
	}{
		{
			name:   "blank description",
			input:  LineItemInput{Description: " ", Price: dec("10")},
			fields: []string{"description"},
		},
		{
			name:   "missing price",
			input:  LineItemInput{Description: "Montura"},
			fields: []string{"price"},
		},
		{
			name:   "zero price",
			input:  LineItemInput{Description: "Montura", Price: dec("0")},
			fields: []string{"price"},
		},
		{
			name:   "negative price",
			input:  LineItemInput{Description: "Montura", Price: dec("-1.50")},
			fields: []string{"price"},
		},
		{
			name:   "zero quantity",
			input:  LineItemInput{Description: "Montura", Price: dec("10"), Quantity: intPtr(0)},
			fields: []string{"quantity"},
		},
		{
			name:   "everything wrong at once",
			input:  LineItemInput{Price: dec("0"), Quantity: intPtr(-2)},
			fields: []string{"description", "price", "quantity"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLineItem("q-1", tt.input)
			require.Error(t, err)
			assert.True(t, IsValidation(err))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)

			got := make([]string, 0, len(ve.Fields))
			for _, f := range ve.Fields {
				got = append(got, f.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestLineItem_ValidateCatchesDirectlyAssignedCategory(t *testing.T) {
	item := LineItem{Description: "Estuche", Price: decimal.NewFromInt(5), Quantity: 1, Category: "gadget"}

	err := item.Validate()
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "category", ve.Fields[0].Field)
	assert.Equal(t, "Gadget", item.CategoryName())
}

func TestLineItem_Apply(t *testing.T) {
	item, err := NewLineItem("q-1", LineItemInput{Description: "Antirreflejo", Price: dec("35"), Category: "tratamiento"})
	require.NoError(t, err)

	t.Run("changes only patched fields", func(t *testing.T) {
		next, err := item.Apply(LineItemPatch{Quantity: intPtr(2)})
		require.NoError(t, err)

		assert.Equal(t, 2, next.Quantity)
		assert.Equal(t, CategoryTreatment, next.Category)
		assert.True(t, next.Price.Equal(decimal.NewFromInt(35)))
		assert.Equal(t, 1, item.Quantity, "receiver must not change")
	})

	t.Run("coerces category", func(t *testing.T) {
		next, err := item.Apply(LineItemPatch{Category: strPtr("nope")})
		require.NoError(t, err)
		assert.Equal(t, CategoryOther, next.Category)
	})

	t.Run("rejects invalid patch and keeps original", func(t *testing.T) {
		next, err := item.Apply(LineItemPatch{Price: dec("0")})
		require.Error(t, err)
		assert.Equal(t, item, next)
	})

	t.Run("reapplying an empty patch is idempotent", func(t *testing.T) {
		next, err := item.Apply(LineItemPatch{})
		require.NoError(t, err)
		assert.Equal(t, item, next)
	})
}

func TestLineItem_SubtotalIsExact(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7)) //nolint:gosec // deterministic test data

	for range 500 {
		cents := r.Int64N(1_000_000) + 1
		qty := r.IntN(50) + 1
		price := decimal.New(cents, -2)

		item := LineItem{Description: "x", Price: price, Quantity: qty, Category: CategoryOther}

		expected := decimal.New(cents*int64(qty), -2)
		assert.True(t, expected.Equal(item.Subtotal()), "price=%s qty=%d", price, qty)
	}
}

func TestLineItem_String(t *testing.T) {
	tests := []struct {
		name     string
		item     LineItem
		expected string
	}{
		{
			name:     "single unit",
			item:     LineItem{Description: "Montura acetato", Price: decimal.NewFromInt(80), Quantity: 1, Category: CategoryFrame},
			expected: "Montura - Montura acetato: $80.00",
		},
		{
			name:     "several units",
			item:     LineItem{Description: "Antirreflejo", Price: decimal.RequireFromString("35.5"), Quantity: 2, Category: CategoryTreatment},
			expected: "Tratamiento - Antirreflejo (2 x $35.50) = $71.00",
		},
		{
			name:     "other category",
			item:     LineItem{Description: "Ajuste", Price: decimal.NewFromInt(5), Quantity: 1, Category: CategoryOther},
			expected: "Otro - Ajuste: $5.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.item.String())
		})
	}
}
