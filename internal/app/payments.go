package app

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
	"github.com/jsamuelsen/eyewear-quotes/internal/ports"
)

// ListPayments returns the payments of a quote oldest first. A non-empty
// method keeps only payments made with it, after normalization.
func (s *QuoteService) ListPayments(ctx context.Context, quoteID, method string) ([]domain.Payment, error) {
	filter := ports.PaymentFilter{}
	if method != "" {
		filter.Method = domain.NormalizePaymentMethod(method)
	}

	_, payments, err := both(ctx,
		func(ctx context.Context) (*domain.Quote, error) { return s.store.GetQuote(ctx, quoteID) },
		func(ctx context.Context) ([]domain.Payment, error) { return s.store.ListPayments(ctx, quoteID, filter) },
	)
	if err != nil {
		return nil, err
	}

	return payments, nil
}

// GetPayment returns one payment of a quote.
func (s *QuoteService) GetPayment(ctx context.Context, quoteID, id string) (*domain.Payment, error) {
	return s.store.GetPayment(ctx, quoteID, id)
}

type paymentInput struct {
	quoteID string
	in      domain.PaymentInput
}

// recordedPayment is a validated payment plus whether it settles the quote.
type recordedPayment struct {
	payment *domain.Payment
	settles bool
}

// AddPayment validates and stores a new payment on a quote.
func (s *QuoteService) AddPayment(ctx context.Context, quoteID string, in domain.PaymentInput) (*domain.Payment, error) {
	return Execute(ctx, s.exec, Operation[paymentInput, recordedPayment, *domain.Payment]{
		Name: "AddPayment",
		Validate: func(ctx context.Context, in paymentInput) (recordedPayment, error) {
			q, err := s.GetQuote(ctx, in.quoteID)
			if err != nil {
				return recordedPayment{}, err
			}

			wasPaid := q.FullyPaid()
			now := s.now()

			p, err := q.AddPayment(in.in, now)
			if err != nil {
				return recordedPayment{}, err
			}

			p.ID = s.newID()
			p.CreatedAt = now
			p.UpdatedAt = now

			return recordedPayment{payment: &p, settles: !wasPaid && q.FullyPaid()}, nil
		},
		Archive: func(ctx context.Context, _ paymentInput, r recordedPayment) error {
			return s.store.CreatePayment(ctx, r.payment)
		},
		Respond: func(ctx context.Context, _ paymentInput, r recordedPayment) (*domain.Payment, error) {
			amount, _ := r.payment.Amount.Float64()
			s.metrics.PaymentRecorded(string(r.payment.Method), amount)

			if r.settles {
				s.metrics.QuoteFullyPaid()
				s.log(ctx).InfoContext(ctx, "quote fully paid", slog.String("quote_id", r.payment.QuoteID))
			}

			return r.payment, nil
		},
	}, paymentInput{quoteID: quoteID, in: in})
}

type paymentPatchInput struct {
	quoteID string
	id      string
	patch   domain.PaymentPatch
}

// UpdatePayment applies a patch to one payment of a quote.
func (s *QuoteService) UpdatePayment(
	ctx context.Context,
	quoteID, id string,
	patch domain.PaymentPatch,
) (*domain.Payment, error) {
	return Execute(ctx, s.exec, Operation[paymentPatchInput, *domain.Payment, *domain.Payment]{
		Name: "UpdatePayment",
		Validate: func(ctx context.Context, in paymentPatchInput) (*domain.Payment, error) {
			current, err := s.store.GetPayment(ctx, in.quoteID, in.id)
			if err != nil {
				return nil, err
			}

			next, err := current.Apply(in.patch)
			if err != nil {
				return nil, err
			}

			next.UpdatedAt = s.now()

			return &next, nil
		},
		Archive: func(ctx context.Context, _ paymentPatchInput, p *domain.Payment) error {
			return s.store.UpdatePayment(ctx, p)
		},
	}, paymentPatchInput{quoteID: quoteID, id: id, patch: patch})
}

// DeletePayment removes one payment of a quote.
func (s *QuoteService) DeletePayment(ctx context.Context, quoteID, id string) error {
	_, err := Execute(ctx, s.exec, Operation[[2]string, [2]string, struct{}]{
		Name:     "DeletePayment",
		Validate: func(_ context.Context, ids [2]string) ([2]string, error) { return ids, nil },
		Archive: func(ctx context.Context, _ [2]string, ids [2]string) error {
			return s.store.DeletePayment(ctx, ids[0], ids[1])
		},
	}, [2]string{quoteID, id})

	return err
}
