package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// redactedFields are attribute names whose values never reach a log sink.
// customer_contact holds a phone number or email address.
var redactedFields = []string{
	"customer_contact",
	"CustomerContact",
	"dsn",
	"DSN",
	"password",
	"token",
	"access_token",
	"api_key",
	"authorization",
	"cookie",
}

var (
	// bearerPattern matches Authorization header values.
	bearerPattern = regexp.MustCompile(`(?i)^(bearer|basic)\s+.+$`)

	// dsnPasswordPattern matches connection URLs carrying a password,
	// e.g. postgres://quotes:secret@db:5432/quotes.
	dsnPasswordPattern = regexp.MustCompile(`^[a-z][a-z0-9+.-]*://[^/:@\s]+:[^@\s]+@`)

	// emailPattern catches contact details logged under an unexpected key.
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[a-zA-Z]{2,}$`)
)

// DefaultRedactOptions returns the masq options applied by every logger.
func DefaultRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(redactedFields)+4)

	for _, name := range redactedFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	return append(opts,
		masq.WithFieldPrefix("secret"),
		masq.WithRegex(bearerPattern),
		masq.WithRegex(dsnPasswordPattern),
		masq.WithRegex(emailPattern),
	)
}

// NewReplaceAttr returns a slog ReplaceAttr function redacting with the
// default options plus opts.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(DefaultRedactOptions(), opts...)...)
}
