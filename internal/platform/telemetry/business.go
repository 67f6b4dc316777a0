package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "eyewear_quotes"

// QuoteMetrics holds the business counters exposed on /-/metrics.
type QuoteMetrics struct {
	quotesCreated    prometheus.Counter
	lineItemsAdded   prometheus.Counter
	paymentsRecorded *prometheus.CounterVec
	paymentAmount    *prometheus.CounterVec
	quotesFullyPaid  prometheus.Counter
}

// NewQuoteMetrics creates the counters and registers them with reg.
// A nil reg uses the default Prometheus registerer.
func NewQuoteMetrics(reg prometheus.Registerer) *QuoteMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &QuoteMetrics{
		quotesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "quotes_created_total",
			Help:      "Quotes created.",
		}),
		lineItemsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "line_items_added_total",
			Help:      "Line items added to quotes.",
		}),
		paymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "payments_recorded_total",
			Help:      "Payments recorded, by payment method.",
		}, []string{"method"}),
		paymentAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "payments_amount_total",
			Help:      "Sum of recorded payment amounts, by payment method.",
		}, []string{"method"}),
		quotesFullyPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "quotes_fully_paid_total",
			Help:      "Quotes whose remaining balance reached zero or below after a payment.",
		}),
	}

	reg.MustRegister(m.quotesCreated, m.lineItemsAdded, m.paymentsRecorded, m.paymentAmount, m.quotesFullyPaid)

	return m
}

// QuoteCreated counts a new quote.
func (m *QuoteMetrics) QuoteCreated() { m.quotesCreated.Inc() }

// LineItemAdded counts a new line item.
func (m *QuoteMetrics) LineItemAdded() { m.lineItemsAdded.Inc() }

// PaymentRecorded counts a payment and adds its amount.
func (m *QuoteMetrics) PaymentRecorded(method string, amount float64) {
	m.paymentsRecorded.WithLabelValues(method).Inc()
	m.paymentAmount.WithLabelValues(method).Add(amount)
}

// QuoteFullyPaid counts a quote that just became fully paid.
func (m *QuoteMetrics) QuoteFullyPaid() { m.quotesFullyPaid.Inc() }
