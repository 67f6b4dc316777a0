package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/clients"
	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/clients/acl"
	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/http/middleware"
	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
	"github.com/jsamuelsen/eyewear-quotes/internal/platform/config"
	"github.com/jsamuelsen/eyewear-quotes/internal/platform/logging"
)

// clientFactory builds the quote API client from the loaded configuration.
type clientFactory func(cfg *config.Config, logger *slog.Logger) (*acl.QuoteClient, error)

func defaultClientFactory(cfg *config.Config, logger *slog.Logger) (*acl.QuoteClient, error) {
	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Quotes.BaseURL,
		ServiceName: cfg.Services.Quotes.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	return acl.NewQuoteClient(acl.QuoteClientConfig{Client: httpClient, Logger: logger}), nil
}

// cli carries the state shared by every subcommand.
type cli struct {
	profile string
	baseURL string
	verbose bool

	newClient clientFactory
	client    *acl.QuoteClient
}

func newRootCmd(newClient clientFactory) *cobra.Command {
	c := &cli{newClient: newClient}

	root := &cobra.Command{
		Use:           "quotectl",
		Short:         "Inspect quotes and record payments against the quote service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// One correlation id per invocation ties together retries and
			// the follow-up summary fetch of pay.
			cmd.SetContext(middleware.ContextWithCorrelationID(cmd.Context(), uuid.NewString()))

			return c.setup(cmd.ErrOrStderr())
		},
	}

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	root.PersistentFlags().StringVar(&c.profile, "profile", profile, "configuration profile (configs/<profile>.yaml)")
	root.PersistentFlags().StringVar(&c.baseURL, "base-url", "", "quote service URL, overrides services.quotes.base_url")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		c.reportCmd(),
		c.summaryCmd(),
		c.listCmd(),
		c.payCmd(),
		c.pingCmd(),
	)

	return root
}

// setup loads configuration and builds the client. Logs go to stderr so
// they never mix with command output.
func (c *cli) setup(stderr io.Writer) error {
	cfg, err := config.Load(c.profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if c.baseURL != "" {
		cfg.Services.Quotes.BaseURL = c.baseURL
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level := "warn"
	if c.verbose {
		level = "debug"
	}

	logger := logging.NewWithWriter(&logging.Config{
		Level:   level,
		Format:  "text",
		Service: "quotectl",
		Version: cfg.App.Version,
	}, stderr)

	c.client, err = c.newClient(cfg, logger)

	return err
}

func (c *cli) reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <quote-id>",
		Short: "Print the full quote report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quote, err := c.client.GetQuote(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), quote.String())

			return err
		},
	}
}

func (c *cli) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the quote service answers its liveness probe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()
			if err := c.client.Check(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: ok in %s (circuit %s)\n",
				c.client.Name(), time.Since(start).Round(time.Millisecond), c.client.Client().CircuitState())

			return err
		},
	}
}

func (c *cli) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <quote-id>",
		Short: "Print totals, balance and category breakdown of a quote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := c.client.GetSummary(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return writeSummary(cmd.OutOrStdout(), &summary)
		},
	}
}

func writeSummary(w io.Writer, s *domain.Summary) error {
	var b []byte

	b = fmt.Appendf(b, "PRESUPUESTO #%s\n", s.ID)
	b = fmt.Appendf(b, "Cliente: %s\n", s.CustomerName)

	if s.CustomerContact != "" {
		b = fmt.Appendf(b, "Contacto: %s\n", s.CustomerContact)
	}

	b = fmt.Appendf(b, "Fecha: %s\n", domain.FormatDate(s.QuoteDate))
	b = fmt.Appendf(b, "Ítems: %d\n", s.LineItemsCount)
	b = fmt.Appendf(b, "Pagos: %d\n", s.PaymentsCount)
	b = fmt.Appendf(b, "TOTAL: %s\n", domain.FormatMoney(s.Total))
	b = fmt.Appendf(b, "Total Pagado: %s\n", domain.FormatMoney(s.TotalPaid))
	b = fmt.Appendf(b, "SALDO PENDIENTE: %s\n", domain.FormatMoney(s.RemainingBalance))
	b = fmt.Appendf(b, "Estado: %s\n", status(s.FullyPaid))

	if len(s.CategoryBreakdown) > 0 {
		b = append(b, "Por categoría:\n"...)

		for _, category := range domain.Categories() {
			if amount, ok := s.CategoryBreakdown[category]; ok {
				b = fmt.Appendf(b, "  %s: %s\n", category.Label(), domain.FormatMoney(amount))
			}
		}
	}

	_, err := w.Write(b)

	return err
}

func status(fullyPaid bool) string {
	if fullyPaid {
		return domain.StatusPaid
	}

	return domain.StatusPending
}

func (c *cli) listCmd() *cobra.Command {
	var (
		opts acl.ListOptions
		all  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quotes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFECHA\tCLIENTE\tTOTAL\tSALDO\tESTADO")

			for {
				page, err := c.client.ListQuotes(cmd.Context(), opts)
				if err != nil {
					return err
				}

				for i := range page.Quotes {
					s := &page.Quotes[i]
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						s.ID,
						domain.FormatDate(s.QuoteDate),
						s.CustomerName,
						domain.FormatMoney(s.Total),
						domain.FormatMoney(s.RemainingBalance),
						status(s.FullyPaid),
					)
				}

				if !all || !page.HasMore {
					break
				}

				opts.Cursor = page.NextCursor
			}

			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&opts.Customer, "customer", "", "only quotes whose customer name contains this text")
	cmd.Flags().BoolVar(&opts.Pending, "pending", false, "only quotes with a remaining balance")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "page size (service default when zero)")
	cmd.Flags().BoolVar(&all, "all", false, "follow pagination until the last page")

	return cmd
}

func (c *cli) payCmd() *cobra.Command {
	var amount, method, notes, date string

	cmd := &cobra.Command{
		Use:   "pay <quote-id>",
		Short: "Record a payment and print the new balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := paymentInput(amount, method, notes, date)
			if err != nil {
				return err
			}

			payment, err := c.client.RecordPayment(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}

			summary, err := c.client.GetSummary(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Pago registrado: %s (%s)\nSALDO PENDIENTE: %s\nEstado: %s\n",
				domain.FormatMoney(payment.Amount),
				payment.MethodName(),
				domain.FormatMoney(summary.RemainingBalance),
				status(summary.FullyPaid),
			)

			return err
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount paid, e.g. 150.00")
	cmd.Flags().StringVar(&method, "method", "", "efectivo, tarjeta, transferencia, cheque or other (default efectivo)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&date, "date", "", "payment date as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

var errInvalidAmount = errors.New("amount must be a number")

// paymentInput parses the pay flags. Blank method and date are left for the
// service to default.
func paymentInput(amount, method, notes, date string) (domain.PaymentInput, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.PaymentInput{}, fmt.Errorf("%w: %q", errInvalidAmount, amount)
	}

	in := domain.PaymentInput{
		Amount: &value,
		Method: method,
		Notes:  notes,
	}

	if date != "" {
		parsed, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return domain.PaymentInput{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
		}

		in.PaymentDate = &parsed
	}

	return in, nil
}
