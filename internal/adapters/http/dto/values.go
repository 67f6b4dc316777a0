package dto

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
)

// dateOnlyLayout is accepted for every date field besides RFC 3339.
const dateOnlyLayout = "2006-01-02"

var jsonNull = []byte("null")

// Bounds on a numeric field before it reaches the domain: its text length
// and decimal exponent. Wider values only cost memory to parse or render.
const (
	maxNumberText     = 40
	maxNumberExponent = 20
)

// maxIntField is the largest integer field value, an INTEGER column.
var maxIntField = decimal.NewFromInt(math.MaxInt32)

// Money encodes a decimal as a JSON number with exactly two decimals.
type Money decimal.Decimal

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(domain.MoneyPlaces)), nil
}

// Number is a lenient numeric request field. It accepts a JSON number or a
// numeric string; anything else is kept as Invalid rather than failing the
// whole request, so it can be reported against its field.
type Number struct {
	Value decimal.Decimal

	// Set reports whether the key was present, even as null.
	Set bool

	// Blank reports null or an empty string.
	Blank bool

	Invalid bool

	// OutOfRange reports a number too long or with too wide an exponent
	// to be a price, amount or quantity. Value is left zero.
	OutOfRange bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{Set: true}

	raw, blank := scalarText(b)
	if blank {
		n.Blank = true
		return nil
	}

	if len(raw) > maxNumberText {
		n.OutOfRange = true
		return nil
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		n.Invalid = true
		return nil
	}

	if exp := d.Exponent(); exp > maxNumberExponent || exp < -maxNumberExponent {
		n.OutOfRange = true
		return nil
	}

	n.Value = d

	return nil
}

// Date is a lenient date request field accepting YYYY-MM-DD or RFC 3339.
type Date struct {
	Value   time.Time
	Set     bool
	Blank   bool
	Invalid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	*d = Date{Set: true}

	raw, blank := scalarText(b)
	if blank {
		d.Blank = true
		return nil
	}

	t, err := ParseDate(raw)
	if err != nil {
		d.Invalid = true
		return nil
	}

	d.Value = t

	return nil
}

// ParseDate parses YYYY-MM-DD (as midnight UTC) or an RFC 3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	if t, err := time.Parse(dateOnlyLayout, raw); err == nil {
		return t, nil
	}

	return time.Parse(time.RFC3339Nano, raw)
}

// scalarText returns the text of a JSON scalar, unquoting strings.
// blank is true for null and for strings that are empty after trimming.
func scalarText(b []byte) (text string, blank bool) {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, jsonNull) {
		return "", true
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return string(b), false
		}

		s = strings.TrimSpace(s)

		return s, s == ""
	}

	return string(b), false
}

// fieldErrors collects request-level field failures into a domain
// validation error so they are reported like business rule failures.
type fieldErrors struct {
	entity string
	fields []domain.FieldError
}

func (f *fieldErrors) add(field, message string) {
	f.fields = append(f.fields, domain.FieldError{Field: field, Message: message})
}

func (f *fieldErrors) err() error {
	if len(f.fields) == 0 {
		return nil
	}

	return &domain.ValidationError{Entity: f.entity, Fields: f.fields}
}

// decimalField converts a Number for a required money field. A nil result
// with no failure recorded means the field was absent.
func (f *fieldErrors) decimalField(name string, n Number) *decimal.Decimal {
	switch {
	case !n.Set:
		return nil
	case n.Invalid:
		f.add(name, "is not a number")
		return nil
	case n.OutOfRange:
		f.add(name, "is out of range")
		return nil
	case n.Blank:
		f.add(name, "can't be blank")
		return nil
	}

	v := n.Value

	return &v
}

// intField converts a Number for a required integer field. Values past
// the int32 range are rejected here, before IntPart could wrap them.
func (f *fieldErrors) intField(name string, n Number) *int {
	d := f.decimalField(name, n)
	if d == nil {
		return nil
	}

	switch {
	case !d.IsInteger():
		f.add(name, "must be an integer")
		return nil
	case d.GreaterThan(maxIntField):
		f.add(name, "must be less than or equal to "+strconv.Itoa(math.MaxInt32))
		return nil
	case d.LessThan(maxIntField.Neg()):
		f.add(name, "must be greater than 0")
		return nil
	}

	v := int(d.IntPart())

	return &v
}

// dateField converts a Date. Blank is reported only when blankAllowed is false.
func (f *fieldErrors) dateField(name string, d Date, blankAllowed bool) *time.Time {
	switch {
	case !d.Set:
		return nil
	case d.Invalid:
		f.add(name, "is not a valid date")
		return nil
	case d.Blank:
		if !blankAllowed {
			f.add(name, "can't be blank")
		}

		return nil
	}

	v := d.Value

	return &v
}
