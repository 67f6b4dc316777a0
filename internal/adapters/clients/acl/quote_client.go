package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/clients"
	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
	"github.com/jsamuelsen/eyewear-quotes/internal/platform/logging"
)

const quotesPath = "/api/v1/quotes"

// QuoteClientConfig wires a QuoteClient. Client's base URL is the quote
// service root.
type QuoteClientConfig struct {
	Client *clients.Client
	Logger *slog.Logger
}

// QuoteClient reads and records quotes through the quote service's HTTP API.
type QuoteClient struct {
	http   *clients.Client
	logger *slog.Logger
}

// NewQuoteClient panics without a Client. A nil Logger means slog.Default().
func NewQuoteClient(cfg QuoteClientConfig) *QuoteClient {
	if cfg.Client == nil {
		panic("acl: QuoteClient needs a clients.Client")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteClient{http: cfg.Client, logger: logger}
}

// Client exposes the resilient client, for circuit state and raw calls.
func (c *QuoteClient) Client() *clients.Client {
	return c.http
}

// Name is the configured service name. It labels health checks and
// unavailable errors.
func (c *QuoteClient) Name() string {
	return c.http.ServiceName()
}

// Check calls the service's liveness probe.
func (c *QuoteClient) Check(ctx context.Context) error {
	resp, err := c.http.Get(ctx, "/-/live")

	body, err := c.settle(resp, err, call{what: "liveness check"})
	if err != nil {
		return err
	}

	return body.Close()
}

// ListOptions filters a quote listing.
type ListOptions struct {
	Customer string
	Pending  bool
	Limit    int
	Cursor   string
}

// QuotePage is one page of the listing. Its summaries have no category
// breakdown.
type QuotePage struct {
	Quotes     []domain.Summary
	NextCursor string
	HasMore    bool
}

// GetQuote fetches a quote with its line items and payments.
func (c *QuoteClient) GetQuote(ctx context.Context, id string) (*domain.Quote, error) {
	if err := requireText(id, "id"); err != nil {
		return nil, err
	}

	w, err := getJSON[quoteDTO](ctx, c, quotePath(id), call{what: "get quote", entity: domain.EntityQuote, id: id})
	if err != nil {
		return nil, err
	}

	quote, err := translateQuote(w)
	if err != nil {
		return nil, fmt.Errorf("quote %s from %s: %w", id, c.Name(), err)
	}

	c.logger.Log(ctx, logging.LevelTrace, "quote fetched",
		slog.String("quote_id", quote.ID),
		slog.Int("line_items", len(quote.LineItems)),
		slog.Int("payments", len(quote.Payments)))

	return quote, nil
}

// GetSummary fetches the summary record of a quote.
func (c *QuoteClient) GetSummary(ctx context.Context, id string) (domain.Summary, error) {
	if err := requireText(id, "id"); err != nil {
		return domain.Summary{}, err
	}

	w, err := getJSON[summaryDTO](ctx, c, quotePath(id)+"/summary", call{what: "get summary", entity: domain.EntityQuote, id: id})
	if err != nil {
		return domain.Summary{}, err
	}

	return translateSummary(w), nil
}

// ListQuotes fetches one page of quotes, newest first.
func (c *QuoteClient) ListQuotes(ctx context.Context, opts ListOptions) (*QuotePage, error) {
	w, err := getJSON[quotePageDTO](ctx, c, quotesPath+listQuery(opts), call{what: "list quotes"})
	if err != nil {
		return nil, err
	}

	summaries, err := translateEach(w.Items, translateIndex)
	if err != nil {
		return nil, fmt.Errorf("quote listing from %s: %w", c.Name(), err)
	}

	return &QuotePage{Quotes: summaries, NextCursor: w.NextCursor, HasMore: w.HasMore}, nil
}

func listQuery(opts ListOptions) string {
	q := url.Values{}

	if opts.Customer != "" {
		q.Set("customer", opts.Customer)
	}

	if opts.Pending {
		q.Set("pending", "true")
	}

	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	if opts.Cursor != "" {
		q.Set("cursor", opts.Cursor)
	}

	if len(q) == 0 {
		return ""
	}

	return "?" + q.Encode()
}

// RecordPayment registers a payment against a quote. A missing date or
// method is defaulted by the service.
func (c *QuoteClient) RecordPayment(ctx context.Context, quoteID string, in domain.PaymentInput) (*domain.Payment, error) {
	if err := requireText(quoteID, "quote_id"); err != nil {
		return nil, err
	}

	if in.Amount == nil {
		return nil, domain.NewValidationError("amount", "can't be blank")
	}

	if err := requirePositive(*in.Amount, "amount"); err != nil {
		return nil, err
	}

	req := paymentRequestDTO{
		Amount:        in.Amount.String(),
		PaymentMethod: in.Method,
		Notes:         in.Notes,
	}
	if in.PaymentDate != nil {
		req.PaymentDate = in.PaymentDate.Format(time.DateOnly)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding payment: %w", err)
	}

	c.logger.DebugContext(ctx, "recording payment", slog.String("quote_id", quoteID))

	op := call{what: "record payment", entity: domain.EntityQuote, id: quoteID}
	resp, err := c.http.Post(ctx, quotePath(quoteID)+"/payments", bytes.NewReader(payload))

	body, err := c.settle(resp, err, op)
	if err != nil {
		return nil, err
	}

	w, err := decode[paymentDTO](c.Name(), body)
	if err != nil {
		return nil, err
	}

	payment, err := translatePayment(w)
	if err != nil {
		return nil, fmt.Errorf("payment from %s: %w", c.Name(), err)
	}

	return &payment, nil
}

func quotePath(id string) string {
	return quotesPath + "/" + url.PathEscape(id)
}

// settle hands back the body of a 2xx answer and turns anything else into
// a domain error.
func (c *QuoteClient) settle(resp *http.Response, err error, op call) (io.ReadCloser, error) {
	if err != nil {
		return nil, op.transportFailure(c.Name(), err)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return resp.Body, nil
	}

	defer resp.Body.Close()

	return nil, op.statusFailure(c.Name(), resp.StatusCode, readEnvelope(resp.Body))
}

func getJSON[T any](ctx context.Context, c *QuoteClient, path string, op call) (*T, error) {
	resp, err := c.http.Get(ctx, path)

	body, err := c.settle(resp, err, op)
	if err != nil {
		return nil, err
	}

	return decode[T](c.Name(), body)
}

// decode closes body. A payload that does not parse means the service is
// not speaking this API, so it is reported as unavailable.
func decode[T any](service string, body io.ReadCloser) (*T, error) {
	defer body.Close()

	var v T
	if err := json.NewDecoder(body).Decode(&v); err != nil {
		return nil, domain.NewUnavailableError(service, "malformed response: "+err.Error())
	}

	return &v, nil
}
