package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one priced product or service inside a quote.
type LineItem struct {
	ID          string
	QuoteID     string
	Description string
	Price       decimal.Decimal
	Quantity    int
	Category    Category
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LineItemInput carries the fields for a new line item.
// A nil Quantity defaults to 1; a blank or unknown Category becomes "other".
type LineItemInput struct {
	Description string
	Price       *decimal.Decimal
	Quantity    *int
	Category    string
}

// LineItemPatch changes selected fields of an existing line item. Nil fields are left as they are.
type LineItemPatch struct {
	Description *string
	Price       *decimal.Decimal
	Quantity    *int
	Category    *string
}

// NewLineItem builds a line item owned by quoteID. The price is rounded to
// cents and the category normalized before any check runs, so 0.004 is
// rejected as zero and category input alone never fails validation.
func NewLineItem(quoteID string, in LineItemInput) (LineItem, error) {
	item := LineItem{
		QuoteID:     quoteID,
		Description: in.Description,
		Quantity:    1,
		Category:    NormalizeCategory(in.Category),
	}

	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}

	v := validationCollector{entity: EntityLineItem}
	if in.Price == nil {
		v.add("price", "can't be blank")
	} else {
		item.Price = RoundMoney(*in.Price)
	}

	item.check(&v, in.Price != nil)

	if err := v.err(); err != nil {
		return LineItem{}, err
	}

	return item, nil
}

// Apply returns a copy of li with the patch applied and validated.
// On failure li is returned unchanged together with the error.
func (li LineItem) Apply(p LineItemPatch) (LineItem, error) {
	next := li

	if p.Description != nil {
		next.Description = *p.Description
	}

	if p.Price != nil {
		next.Price = RoundMoney(*p.Price)
	}

	if p.Quantity != nil {
		next.Quantity = *p.Quantity
	}

	category := string(next.Category)
	if p.Category != nil {
		category = *p.Category
	}

	next.Category = NormalizeCategory(category)

	if err := next.Validate(); err != nil {
		return li, err
	}

	return next, nil
}

// Validate checks every constraint on li without altering it.
// A category assigned directly, bypassing normalization, is reported here.
func (li LineItem) Validate() error {
	v := validationCollector{entity: EntityLineItem}
	li.check(&v, true)

	return v.err()
}

func (li LineItem) check(v *validationCollector, checkPrice bool) {
	if strings.TrimSpace(li.Description) == "" {
		v.add("description", "can't be blank")
	}

	if checkPrice {
		checkMoney(v, "price", li.Price)
	}

	if li.Quantity <= 0 {
		v.add("quantity", "must be greater than 0")
	}

	if !li.Category.Valid() {
		v.add("category", "is not included in the list")
	}
}

// Subtotal is price times quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// CategoryName is the display label of the item's category.
func (li LineItem) CategoryName() string {
	return li.Category.Label()
}

// String renders the item the way it is printed on a quote.
func (li LineItem) String() string {
	if li.Quantity > 1 {
		return fmt.Sprintf("%s - %s (%d x %s) = %s",
			li.CategoryName(), li.Description, li.Quantity,
			FormatMoney(li.Price), FormatMoney(li.Subtotal()))
	}

	return fmt.Sprintf("%s - %s: %s", li.CategoryName(), li.Description, FormatMoney(li.Price))
}
