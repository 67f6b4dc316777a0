package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/clients"
	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/http/handlers"
	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/storage/memory"
	"github.com/jsamuelsen/eyewear-quotes/internal/app"
	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
)

// setupQuoteClient points a QuoteClient at handler.
func setupQuoteClient(t *testing.T, handler http.Handler) *QuoteClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := clients.New(testConfig(server.URL))
	require.NoError(t, err)

	return NewQuoteClient(QuoteClientConfig{
		Client: client,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func fixed(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

const quoteJSON = `{
	"id": "q-1",
	"customer_name": "Ana Pérez",
	"customer_contact": "ana@example.com",
	"notes": "",
	"quote_date": "2026-03-14T00:00:00Z",
	"created_at": "2026-03-14T09:00:00Z",
	"updated_at": "2026-03-14T09:00:00Z",
	"line_items": [
		{"id": "li-1", "quote_id": "q-1", "description": "Progresivo", "price": 150.00, "quantity": 1, "category": "lente", "category_name": "Lente", "subtotal": 150.00},
		{"id": "li-2", "quote_id": "q-1", "description": "Antirreflejo", "price": 35.00, "quantity": 2, "category": "tratamiento", "category_name": "Tratamiento", "subtotal": 70.00}
	],
	"payments": [
		{"id": "p-1", "quote_id": "q-1", "amount": 100.00, "payment_date": "2026-03-14T00:00:00Z", "payment_method": "tarjeta", "payment_method_name": "Tarjeta", "notes": "seña"}
	],
	"totals": {"total": 220.00, "total_paid": 100.00, "remaining_balance": 120.00, "fully_paid": false},
	"category_breakdown": {"lente": 150.00, "tratamiento": 70.00}
}`

func TestNewQuoteClient_PanicsWithoutClient(t *testing.T) {
	assert.Panics(t, func() {
		NewQuoteClient(QuoteClientConfig{Logger: slog.Default()})
	})
}

func TestNewQuoteClient_DefaultsLogger(t *testing.T) {
	client, err := clients.New(testConfig("http://localhost"))
	require.NoError(t, err)

	qc := NewQuoteClient(QuoteClientConfig{Client: client})

	assert.NotNil(t, qc.logger)
	assert.Equal(t, "quotes", qc.Name(), "named after the configured service")
	assert.Same(t, client, qc.Client())
}

func TestQuoteClient_GetQuote(t *testing.T) {
	var gotPath string

	qc := setupQuoteClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fixed(http.StatusOK, quoteJSON)(w, r)
	}))

	quote, err := qc.GetQuote(context.Background(), "q-1")

	require.NoError(t, err)
	assert.Equal(t, "/api/v1/quotes/q-1", gotPath)
	assert.Equal(t, "Ana Pérez", quote.CustomerName)
	require.Len(t, quote.LineItems, 2)
	assert.Equal(t, domain.CategoryTreatment, quote.LineItems[1].Category)
	require.Len(t, quote.Payments, 1)
	assert.Equal(t, domain.PaymentCard, quote.Payments[0].Method)

	// Totals are recomputed by the domain, not copied from the payload.
	assert.True(t, decimal.NewFromInt(220).Equal(quote.Total()))
	assert.True(t, decimal.NewFromInt(120).Equal(quote.RemainingBalance()))
	assert.Contains(t, quote.String(), "PRESUPUESTO #q-1")
}

func TestQuoteClient_GetQuote_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(error) bool
	}{
		{
			name:    "not found",
			handler: fixed(http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"quote with id \"q-1\" not found"}}`),
			check:   domain.IsNotFound,
		},
		{
			name:    "server error",
			handler: fixed(http.StatusInternalServerError, `{"error":{"code":"INTERNAL_ERROR","message":"boom"}}`),
			check:   domain.IsUnavailable,
		},
		{
			name:    "malformed body",
			handler: fixed(http.StatusOK, `<html>`),
			check:   domain.IsUnavailable,
		},
		{
			name:    "invalid external data",
			handler: fixed(http.StatusOK, `{"id":"q-1","customer_name":"Ana","line_items":[{"id":"li-1","price":0,"quantity":1}]}`),
			check:   domain.IsValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qc := setupQuoteClient(t, tt.handler)

			_, err := qc.GetQuote(context.Background(), "q-1")

			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
		})
	}

	t.Run("blank id is rejected before the call", func(t *testing.T) {
		qc := setupQuoteClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			t.Error("no request expected")
		}))

		_, err := qc.GetQuote(context.Background(), "")

		assert.True(t, domain.IsValidation(err))
	})
}

func TestQuoteClient_ServiceDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := clients.New(testConfig(url))
	require.NoError(t, err)

	qc := NewQuoteClient(QuoteClientConfig{Client: client})

	_, err = qc.GetQuote(context.Background(), "q-1")

	assert.True(t, domain.IsUnavailable(err))
	assert.Error(t, qc.Check(context.Background()))
}

func TestQuoteClient_Check_WrongBaseURL(t *testing.T) {
	qc := setupQuoteClient(t, http.NotFoundHandler())

	err := qc.Check(context.Background())

	assert.True(t, domain.IsUnavailable(err))
	assert.Contains(t, err.Error(), "liveness check: 404 Not Found")
}

func TestQuoteClient_ListQuotes_Query(t *testing.T) {
	var gotQuery map[string][]string

	qc := setupQuoteClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fixed(http.StatusOK, `{"items":[],"hasMore":false}`)(w, r)
	}))

	page, err := qc.ListQuotes(context.Background(), ListOptions{Customer: "ana", Pending: true, Limit: 5, Cursor: "abc"})

	require.NoError(t, err)
	assert.Empty(t, page.Quotes)
	assert.Equal(t, map[string][]string{
		"customer": {"ana"},
		"pending":  {"true"},
		"limit":    {"5"},
		"cursor":   {"abc"},
	}, gotQuery)
}

// newServiceServer runs the real quote handlers over a memory store.
func newServiceServer(t *testing.T) *QuoteClient {
	t.Helper()

	gin.SetMode(gin.TestMode)

	service := app.NewQuoteService(app.QuoteServiceConfig{
		Store:  memory.New(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	engine := gin.New()
	api := engine.Group("/api/v1")
	handlers.NewQuoteHandler(service, handlers.Paging{Default: 10, Max: 50}).RegisterQuoteRoutes(api)
	handlers.NewLineItemHandler(service).RegisterLineItemRoutes(api)
	handlers.NewPaymentHandler(service).RegisterPaymentRoutes(api)
	handlers.NewHealthHandler(nil, handlers.BuildInfo{}).RegisterHealthRoutesOnEngine(engine)

	return setupQuoteClient(t, engine)
}

// seed creates a quote with one item through the client's own HTTP client.
func seed(t *testing.T, qc *QuoteClient, customer, price string) string {
	t.Helper()

	ctx := context.Background()

	resp, err := qc.Client().Post(ctx, quotesPath, jsonBody(t, map[string]any{"customer_name": customer}))
	require.NoError(t, err)

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created, err := decode[struct {
		ID string `json:"id"`
	}](qc.Name(), resp.Body)
	require.NoError(t, err)

	resp, err = qc.Client().Post(ctx, quotesPath+"/"+created.ID+"/line_items",
		jsonBody(t, map[string]any{"description": "Progresivo", "price": price, "category": "lente"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	return created.ID
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()

	body, err := json.Marshal(v)
	require.NoError(t, err)

	return bytes.NewReader(body)
}

func TestQuoteClient_AgainstService(t *testing.T) {
	qc := newServiceServer(t)
	ctx := context.Background()

	anaID := seed(t, qc, "Ana Pérez", "200.00")
	seed(t, qc, "Bruno", "50.00")

	require.NoError(t, qc.Check(ctx))

	t.Run("record payment", func(t *testing.T) {
		amount := decimal.RequireFromString("80")
		date := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

		payment, err := qc.RecordPayment(ctx, anaID, domain.PaymentInput{
			Amount:      &amount,
			PaymentDate: &date,
			Method:      "transferencia",
			Notes:       "seña",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.PaymentTransfer, payment.Method)
		assert.True(t, date.Equal(payment.PaymentDate))
	})

	t.Run("summary reflects the payment", func(t *testing.T) {
		summary, err := qc.GetSummary(ctx, anaID)

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(120).Equal(summary.RemainingBalance))
		assert.False(t, summary.FullyPaid)
		assert.Equal(t, 1, summary.PaymentsCount)
		assert.True(t, decimal.NewFromInt(200).Equal(summary.CategoryBreakdown[domain.CategoryLens]))
	})

	t.Run("non-positive amount is rejected before the call", func(t *testing.T) {
		zero := decimal.Zero

		_, err := qc.RecordPayment(ctx, anaID, domain.PaymentInput{Amount: &zero})

		assert.True(t, domain.IsValidation(err))

		_, err = qc.RecordPayment(ctx, anaID, domain.PaymentInput{})

		assert.True(t, domain.IsValidation(err))
	})

	t.Run("list filters by customer", func(t *testing.T) {
		page, err := qc.ListQuotes(ctx, ListOptions{Customer: "ana"})

		require.NoError(t, err)
		require.Len(t, page.Quotes, 1)
		assert.Equal(t, anaID, page.Quotes[0].ID)
		assert.False(t, page.HasMore)
	})

	t.Run("missing quote", func(t *testing.T) {
		_, err := qc.GetQuote(ctx, "does-not-exist")

		assert.True(t, domain.IsNotFound(err))
	})
}
