package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Category classifies a line item.
type Category string

// Recognized line item categories.
const (
	CategoryLens      Category = "lente"
	CategoryFrame     Category = "montura"
	CategoryTreatment Category = "tratamiento"
	CategoryAccessory Category = "accesorio"
	CategoryService   Category = "servicio"
	CategoryOther     Category = "other"
)

var categories = [...]Category{
	CategoryLens,
	CategoryFrame,
	CategoryTreatment,
	CategoryAccessory,
	CategoryService,
	CategoryOther,
}

var categoryLabels = map[Category]string{
	CategoryLens:      "Lente",
	CategoryFrame:     "Montura",
	CategoryTreatment: "Tratamiento",
	CategoryAccessory: "Accesorio",
	CategoryService:   "Servicio",
	CategoryOther:     "Otro",
}

// Categories returns the accepted category codes in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories[:])

	return out
}

// Valid reports whether c is one of the recognized codes.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the Spanish display name. Unknown codes are capitalized as-is.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}

	return capitalize(string(c))
}

// NormalizeCategory maps raw input to a recognized code.
// Blank and unrecognized values both become CategoryOther.
func NormalizeCategory(raw string) Category {
	c := Category(strings.TrimSpace(raw))
	if !c.Valid() {
		return CategoryOther
	}

	return c
}

// PaymentMethod is how a payment was made.
type PaymentMethod string

// Recognized payment methods.
const (
	PaymentCash     PaymentMethod = "efectivo"
	PaymentCard     PaymentMethod = "tarjeta"
	PaymentTransfer PaymentMethod = "transferencia"
	PaymentCheque   PaymentMethod = "cheque"
	PaymentOther    PaymentMethod = "other"
)

var paymentMethods = [...]PaymentMethod{
	PaymentCash,
	PaymentCard,
	PaymentTransfer,
	PaymentCheque,
	PaymentOther,
}

var paymentMethodLabels = map[PaymentMethod]string{
	PaymentCash:     "Efectivo",
	PaymentCard:     "Tarjeta",
	PaymentTransfer: "Transferencia",
	PaymentCheque:   "Cheque",
	PaymentOther:    "Otro",
}

// PaymentMethods returns the accepted payment method codes in display order.
func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(paymentMethods))
	copy(out, paymentMethods[:])

	return out
}

// Valid reports whether m is one of the recognized codes.
func (m PaymentMethod) Valid() bool {
	_, ok := paymentMethodLabels[m]
	return ok
}

// Label returns the Spanish display name. Unknown codes are capitalized as-is.
func (m PaymentMethod) Label() string {
	if label, ok := paymentMethodLabels[m]; ok {
		return label
	}

	return capitalize(string(m))
}

// NormalizePaymentMethod maps raw input to a recognized code.
// Blank input becomes PaymentCash; anything else unrecognized becomes PaymentOther.
func NormalizePaymentMethod(raw string) PaymentMethod {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PaymentCash
	}

	m := PaymentMethod(trimmed)
	if !m.Valid() {
		return PaymentOther
	}

	return m
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}

	r, size := utf8.DecodeRuneInString(s)

	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
