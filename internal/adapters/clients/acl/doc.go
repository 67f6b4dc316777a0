// Package acl turns the quote service's HTTP API into domain values for
// quotectl.
//
// The JSON is an external contract. Money arrives as numbers, categories and
// payment methods as raw codes, and failures inside an error envelope. The
// package keeps all of that out of the domain:
//
//   - wire DTOs are unexported and never leave the package
//   - every failure comes back as a domain error: 404 as [domain.ErrNotFound],
//     400/422 as [domain.ValidationError] with each field, and 429, 5xx,
//     transport errors, open circuits or exhausted retries as
//     [domain.ErrUnavailable]
//   - wire data is checked before it becomes a domain value, and totals are
//     recomputed by the domain instead of trusted
package acl
