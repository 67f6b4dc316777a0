package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
	"github.com/jsamuelsen/eyewear-quotes/internal/ports"
)

const paymentColumns = `id, quote_id, amount, payment_date, payment_method, notes, created_at, updated_at`

// CreatePayment inserts a payment after checking its quote exists.
func (s *Store) CreatePayment(ctx context.Context, p *domain.Payment) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.requireQuote(ctx, tx, p.QuoteID); err != nil {
			return err
		}

		_, err := s.exec(ctx, tx,
			`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.QuoteID, p.Amount, s.ts(p.PaymentDate), string(p.Method), p.Notes,
			s.ts(p.CreatedAt), s.ts(p.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting payment: %w", err)
		}

		return nil
	})
}

// GetPayment loads a payment scoped to its quote.
func (s *Store) GetPayment(ctx context.Context, quoteID, id string) (*domain.Payment, error) {
	row := s.queryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ? AND quote_id = ?`, id, quoteID)

	p, err := scanPayment(row)
	if isNoRows(err) {
		return nil, domain.NewNotFoundError(domain.EntityPayment, id)
	}

	if err != nil {
		return nil, fmt.Errorf("loading payment: %w", err)
	}

	return p, nil
}

// ListPayments returns the quote's payments oldest first. Payments sharing
// a date keep insertion order.
func (s *Store) ListPayments(ctx context.Context, quoteID string, filter ports.PaymentFilter) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE quote_id = ?`
	args := []any{quoteID}

	if filter.Method != "" {
		query += ` AND payment_method = ?`
		args = append(args, string(filter.Method))
	}

	query += ` ORDER BY payment_date, seq`

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}

		payments = append(payments, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}

	return payments, nil
}

// UpdatePayment overwrites a payment's editable fields.
func (s *Store) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	res, err := s.exec(ctx, s.db,
		`UPDATE payments SET amount = ?, payment_date = ?, payment_method = ?, notes = ?, updated_at = ?
		 WHERE id = ? AND quote_id = ?`,
		p.Amount, s.ts(p.PaymentDate), string(p.Method), p.Notes, s.ts(p.UpdatedAt),
		p.ID, p.QuoteID,
	)
	if err != nil {
		return fmt.Errorf("updating payment: %w", err)
	}

	return s.expectOne(res, domain.EntityPayment, p.ID)
}

// DeletePayment removes a payment scoped to its quote.
func (s *Store) DeletePayment(ctx context.Context, quoteID, id string) error {
	res, err := s.exec(ctx, s.db, `DELETE FROM payments WHERE id = ? AND quote_id = ?`, id, quoteID)
	if err != nil {
		return fmt.Errorf("deleting payment: %w", err)
	}

	return s.expectOne(res, domain.EntityPayment, id)
}

func scanPayment(row scanner) (*domain.Payment, error) {
	var p domain.Payment

	var method string

	var paymentDate, created, updated timestamp

	err := row.Scan(&p.ID, &p.QuoteID, &p.Amount, &paymentDate, &method, &p.Notes, &created, &updated)
	if err != nil {
		return nil, err
	}

	p.Method = domain.PaymentMethod(method)
	p.PaymentDate = paymentDate.Time
	p.CreatedAt = created.Time
	p.UpdatedAt = updated.Time

	return &p, nil
}
