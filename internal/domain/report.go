package domain

import (
	"fmt"
	"strings"
)

const reportWidth = 60

// Status lines printed at the bottom of a quote report.
const (
	StatusPaid    = "PAGADO COMPLETO"
	StatusPending = "PENDIENTE"
)

// Status returns the printed payment status of the quote.
func (q *Quote) Status() string {
	if q.FullyPaid() {
		return StatusPaid
	}

	return StatusPending
}

// String renders the printable quote report.
func (q *Quote) String() string {
	heavy := strings.Repeat("=", reportWidth)
	light := strings.Repeat("-", reportWidth)

	var b strings.Builder

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("%s", heavy)
	line("PRESUPUESTO #%s", q.ID)
	line("%s", heavy)
	line("Cliente: %s", q.CustomerName)

	if q.CustomerContact != "" {
		line("Contacto: %s", q.CustomerContact)
	}

	line("Fecha: %s", FormatDate(q.QuoteDate))

	if q.Notes != "" {
		line("Notas: %s", q.Notes)
	}

	line("")
	line("DETALLE:")
	line("%s", light)

	for i, item := range q.LineItems {
		line("%d. %s", i+1, item)
	}

	line("%s", light)
	line("TOTAL: %s", FormatMoney(q.Total()))
	line("")

	if len(q.Payments) > 0 {
		line("PAGOS:")
		line("%s", light)

		for i, p := range q.ChronologicalPayments() {
			line("%d. %s", i+1, p)
		}

		line("%s", light)
		line("Total Pagado: %s", FormatMoney(q.TotalPaid()))
	}

	// Without payments this leaves two blank lines under TOTAL.
	line("")
	line("SALDO PENDIENTE: %s", FormatMoney(q.RemainingBalance()))
	line("Estado: %s", q.Status())
	b.WriteString(heavy)

	return b.String()
}
