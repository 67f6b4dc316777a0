package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
	"github.com/jsamuelsen/eyewear-quotes/internal/ports"
)

const quoteColumns = `id, customer_name, customer_contact, notes, quote_date, created_at, updated_at`

// CreateQuote inserts a quote header.
func (s *Store) CreateQuote(ctx context.Context, q *domain.Quote) error {
	_, err := s.exec(ctx, s.db,
		`INSERT INTO quotes (`+quoteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.CustomerName, q.CustomerContact, q.Notes,
		s.ts(q.QuoteDate), s.ts(q.CreatedAt), s.ts(q.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting quote: %w", err)
	}

	return nil
}

// GetQuote loads a quote header.
func (s *Store) GetQuote(ctx context.Context, id string) (*domain.Quote, error) {
	row := s.queryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = ?`, id)

	q, err := scanQuote(row)
	if isNoRows(err) {
		return nil, domain.NewNotFoundError(domain.EntityQuote, id)
	}

	if err != nil {
		return nil, fmt.Errorf("loading quote: %w", err)
	}

	return q, nil
}

// ListQuotes returns quote headers newest first.
func (s *Store) ListQuotes(ctx context.Context, filter ports.QuoteFilter) ([]*domain.Quote, error) {
	var (
		where []string
		args  []any
	)

	if needle := strings.TrimSpace(filter.Customer); needle != "" {
		where = append(where, `LOWER(customer_name) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(needle))
	}

	if c := filter.After; c != nil {
		where = append(where, `(created_at < ? OR (created_at = ? AND id < ?))`)
		args = append(args, s.ts(c.CreatedAt), s.ts(c.CreatedAt), c.ID)
	}

	query := `SELECT ` + quoteColumns + ` FROM quotes`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}

	query += ` ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]*domain.Quote, 0)

	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}

		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}

	return quotes, nil
}

// UpdateQuote overwrites the editable header fields.
func (s *Store) UpdateQuote(ctx context.Context, q *domain.Quote) error {
	res, err := s.exec(ctx, s.db,
		`UPDATE quotes SET customer_name = ?, customer_contact = ?, notes = ?, quote_date = ?, updated_at = ? WHERE id = ?`,
		q.CustomerName, q.CustomerContact, q.Notes, s.ts(q.QuoteDate), s.ts(q.UpdatedAt), q.ID,
	)
	if err != nil {
		return fmt.Errorf("updating quote: %w", err)
	}

	return s.expectOne(res, domain.EntityQuote, q.ID)
}

// DeleteQuote removes the quote, its payments and its line items in a
// single transaction.
func (s *Store) DeleteQuote(ctx context.Context, id string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `DELETE FROM payments WHERE quote_id = ?`, id); err != nil {
			return fmt.Errorf("deleting payments: %w", err)
		}

		if _, err := s.exec(ctx, tx, `DELETE FROM line_items WHERE quote_id = ?`, id); err != nil {
			return fmt.Errorf("deleting line items: %w", err)
		}

		res, err := s.exec(ctx, tx, `DELETE FROM quotes WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting quote: %w", err)
		}

		return s.expectOne(res, domain.EntityQuote, id)
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "quote deleted", slog.String("quote_id", id))

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(row scanner) (*domain.Quote, error) {
	var q domain.Quote

	var quoteDate, created, updated timestamp

	if err := row.Scan(&q.ID, &q.CustomerName, &q.CustomerContact, &q.Notes, &quoteDate, &created, &updated); err != nil {
		return nil, err
	}

	q.QuoteDate = quoteDate.Time
	q.CreatedAt = created.Time
	q.UpdatedAt = updated.Time

	return &q, nil
}
