package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
)

const lineItemColumns = `id, quote_id, description, price, quantity, category, created_at, updated_at`

// CreateLineItem inserts a line item after checking its quote exists.
func (s *Store) CreateLineItem(ctx context.Context, item *domain.LineItem) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.requireQuote(ctx, tx, item.QuoteID); err != nil {
			return err
		}

		_, err := s.exec(ctx, tx,
			`INSERT INTO line_items (`+lineItemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.QuoteID, item.Description, item.Price, item.Quantity, string(item.Category),
			s.ts(item.CreatedAt), s.ts(item.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting line item: %w", err)
		}

		return nil
	})
}

// GetLineItem loads a line item scoped to its quote.
func (s *Store) GetLineItem(ctx context.Context, quoteID, id string) (*domain.LineItem, error) {
	row := s.queryRow(ctx,
		`SELECT `+lineItemColumns+` FROM line_items WHERE id = ? AND quote_id = ?`, id, quoteID)

	item, err := scanLineItem(row)
	if isNoRows(err) {
		return nil, domain.NewNotFoundError(domain.EntityLineItem, id)
	}

	if err != nil {
		return nil, fmt.Errorf("loading line item: %w", err)
	}

	return item, nil
}

// ListLineItems returns the quote's items in insertion order.
func (s *Store) ListLineItems(ctx context.Context, quoteID string) ([]domain.LineItem, error) {
	rows, err := s.query(ctx,
		`SELECT `+lineItemColumns+` FROM line_items WHERE quote_id = ? ORDER BY seq`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("listing line items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.LineItem, 0)

	for rows.Next() {
		item, err := scanLineItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning line item: %w", err)
		}

		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing line items: %w", err)
	}

	return items, nil
}

// UpdateLineItem overwrites a line item's editable fields.
func (s *Store) UpdateLineItem(ctx context.Context, item *domain.LineItem) error {
	res, err := s.exec(ctx, s.db,
		`UPDATE line_items SET description = ?, price = ?, quantity = ?, category = ?, updated_at = ?
		 WHERE id = ? AND quote_id = ?`,
		item.Description, item.Price, item.Quantity, string(item.Category), s.ts(item.UpdatedAt),
		item.ID, item.QuoteID,
	)
	if err != nil {
		return fmt.Errorf("updating line item: %w", err)
	}

	return s.expectOne(res, domain.EntityLineItem, item.ID)
}

// DeleteLineItem removes a line item scoped to its quote.
func (s *Store) DeleteLineItem(ctx context.Context, quoteID, id string) error {
	res, err := s.exec(ctx, s.db, `DELETE FROM line_items WHERE id = ? AND quote_id = ?`, id, quoteID)
	if err != nil {
		return fmt.Errorf("deleting line item: %w", err)
	}

	return s.expectOne(res, domain.EntityLineItem, id)
}

func scanLineItem(row scanner) (*domain.LineItem, error) {
	var item domain.LineItem

	var category string

	var created, updated timestamp

	err := row.Scan(&item.ID, &item.QuoteID, &item.Description, &item.Price, &item.Quantity,
		&category, &created, &updated)
	if err != nil {
		return nil, err
	}

	item.Category = domain.Category(category)
	item.CreatedAt = created.Time
	item.UpdatedAt = updated.Time

	return &item, nil
}
