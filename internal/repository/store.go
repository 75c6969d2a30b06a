package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the query surface shared by *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store groups the repositories that share one connection or transaction
type Store interface {
	Products() ProductRepository
	Carts() CartRepository
	Discounts() DiscountRepository
	// WithinTx runs fn inside a transaction. fn receives a Store bound to the
	// transaction; the transaction is rolled back if fn returns an error.
	// Nested calls reuse the outer transaction.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type sqlStore struct {
	db *sql.DB
	q  DBTX
	tx bool
}

// NewStore creates a Store backed by db
func NewStore(db *sql.DB) Store {
	return &sqlStore{db: db, q: db}
}

func (s *sqlStore) Products() ProductRepository {
	return &productRepository{db: s.q}
}

func (s *sqlStore) Carts() CartRepository {
	return &cartRepository{db: s.q}
}

func (s *sqlStore) Discounts() DiscountRepository {
	return &discountRepository{db: s.q}
}

// WithinTx begins a transaction, commits it when fn succeeds and rolls it back otherwise
func (s *sqlStore) WithinTx(ctx context.Context, fn func(tx Store) error) (err error) {
	if s.tx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&sqlStore{db: s.db, q: tx, tx: true}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
