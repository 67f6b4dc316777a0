package app

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
)

// ListLineItems returns the items of a quote in creation order.
func (s *QuoteService) ListLineItems(ctx context.Context, quoteID string) ([]domain.LineItem, error) {
	_, items, err := both(ctx,
		func(ctx context.Context) (*domain.Quote, error) { return s.store.GetQuote(ctx, quoteID) },
		func(ctx context.Context) ([]domain.LineItem, error) { return s.store.ListLineItems(ctx, quoteID) },
	)
	if err != nil {
		return nil, err
	}

	return items, nil
}

// GetLineItem returns one item of a quote.
func (s *QuoteService) GetLineItem(ctx context.Context, quoteID, id string) (*domain.LineItem, error) {
	return s.store.GetLineItem(ctx, quoteID, id)
}

type lineItemInput struct {
	quoteID string
	in      domain.LineItemInput
}

// AddLineItem validates and stores a new item on a quote.
func (s *QuoteService) AddLineItem(ctx context.Context, quoteID string, in domain.LineItemInput) (*domain.LineItem, error) {
	return Execute(ctx, s.exec, Operation[lineItemInput, *domain.LineItem, *domain.LineItem]{
		Name: "AddLineItem",
		Validate: func(ctx context.Context, in lineItemInput) (*domain.LineItem, error) {
			q, err := s.store.GetQuote(ctx, in.quoteID)
			if err != nil {
				return nil, err
			}

			item, err := q.AddLineItem(in.in)
			if err != nil {
				return nil, err
			}

			now := s.now()
			item.ID = s.newID()
			item.CreatedAt = now
			item.UpdatedAt = now

			return &item, nil
		},
		Archive: func(ctx context.Context, _ lineItemInput, item *domain.LineItem) error {
			return s.store.CreateLineItem(ctx, item)
		},
		Respond: func(ctx context.Context, _ lineItemInput, item *domain.LineItem) (*domain.LineItem, error) {
			s.metrics.LineItemAdded()
			s.log(ctx).DebugContext(ctx, "line item added",
				slog.String("quote_id", item.QuoteID),
				slog.String("category", string(item.Category)),
			)

			return item, nil
		},
	}, lineItemInput{quoteID: quoteID, in: in})
}

type lineItemPatchInput struct {
	quoteID string
	id      string
	patch   domain.LineItemPatch
}

// UpdateLineItem applies a patch to one item of a quote.
func (s *QuoteService) UpdateLineItem(
	ctx context.Context,
	quoteID, id string,
	patch domain.LineItemPatch,
) (*domain.LineItem, error) {
	return Execute(ctx, s.exec, Operation[lineItemPatchInput, *domain.LineItem, *domain.LineItem]{
		Name: "UpdateLineItem",
		Validate: func(ctx context.Context, in lineItemPatchInput) (*domain.LineItem, error) {
			current, err := s.store.GetLineItem(ctx, in.quoteID, in.id)
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
		Archive: func(ctx context.Context, _ lineItemPatchInput, item *domain.LineItem) error {
			return s.store.UpdateLineItem(ctx, item)
		},
	}, lineItemPatchInput{quoteID: quoteID, id: id, patch: patch})
}

// DeleteLineItem removes one item of a quote.
func (s *QuoteService) DeleteLineItem(ctx context.Context, quoteID, id string) error {
	_, err := Execute(ctx, s.exec, Operation[[2]string, [2]string, struct{}]{
		Name:     "DeleteLineItem",
		Validate: func(_ context.Context, ids [2]string) ([2]string, error) { return ids, nil },
		Archive: func(ctx context.Context, _ [2]string, ids [2]string) error {
			return s.store.DeleteLineItem(ctx, ids[0], ids[1])
		},
	}, [2]string{quoteID, id})

	return err
}
