package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits shown for monetary values.
const MoneyPlaces = 2

// maxMoneyDigits is the integer digits a price or amount may have, the
// precision of a NUMERIC(12,2) column.
const maxMoneyDigits = 10

// MaxMoney is the exclusive upper bound of a price or payment amount.
var MaxMoney = decimal.New(1, maxMoneyDigits)

// dateLayout is the day-first layout used on printed quotes.
const dateLayout = "02/01/2006"

// FormatMoney renders an amount as "$123.45".
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(MoneyPlaces)
}

// FormatDate renders t as DD/MM/YYYY.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// magnitude is the count of integer digits of d, zero or negative below 1.
// It reads the representation only, so huge exponents cost nothing.
func magnitude(d decimal.Decimal) int {
	return d.NumDigits() + int(d.Exponent())
}

// RoundMoney rounds d to cents, half away from zero, as a NUMERIC(12,2)
// column does on write. Values out of range are returned as they are and
// left for the range check to reject.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	switch m := magnitude(d); {
	case d.IsZero(), m > maxMoneyDigits:
		return d
	case m < -MoneyPlaces:
		return decimal.Zero
	default:
		return d.Round(MoneyPlaces)
	}
}

// checkMoney records why d is not a usable price or amount.
func checkMoney(v *validationCollector, field string, d decimal.Decimal) {
	switch {
	case !d.IsPositive():
		v.add(field, "must be greater than 0")
	case magnitude(d) > maxMoneyDigits:
		v.add(field, "must be less than "+MaxMoney.String())
	}
}
