package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jsamuelsen/eyewear-quotes/internal/domain"
)

// withTx runs fn in a transaction, committing when fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// requireQuote reports NotFound when the quote is missing.
func (s *Store) requireQuote(ctx context.Context, tx *sql.Tx, quoteID string) error {
	var one int

	err := tx.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM quotes WHERE id = ?`), quoteID).Scan(&one)
	if isNoRows(err) {
		return domain.NewNotFoundError(domain.EntityQuote, quoteID)
	}

	if err != nil {
		return fmt.Errorf("looking up quote: %w", err)
	}

	return nil
}
