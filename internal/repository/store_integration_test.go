//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_WithinTxCommits(t *testing.T) {
	resetTables(t)
	store := NewStore(testDB)
	ctx := context.Background()
	p := createProduct(t, store.Products(), "Cookie", "1.50", 10)

	err := store.WithinTx(ctx, func(tx Store) error {
		locked, err := tx.Products().FindByIDForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		return tx.Products().UpdateStock(ctx, p.ID, locked.Stock-4)
	})
	require.NoError(t, err)

	got, err := store.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 6, got.Stock)
}

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	resetTables(t)
	store := NewStore(testDB)
	ctx := context.Background()
	p := createProduct(t, store.Products(), "Cookie", "1.50", 10)
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(tx Store) error {
		if err := tx.Products().UpdateStock(ctx, p.ID, 0); err != nil {
			return err
		}
		cart := newCart()
		if err := tx.Carts().Create(ctx, cart); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 10, got.Stock)

	n, err := store.Carts().Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestStore_WithinTxRollsBackOnPanic(t *testing.T) {
	resetTables(t)
	store := NewStore(testDB)
	ctx := context.Background()
	p := createProduct(t, store.Products(), "Cookie", "1.50", 10)

	require.Panics(t, func() {
		_ = store.WithinTx(ctx, func(tx Store) error {
			_ = tx.Products().UpdateStock(ctx, p.ID, 1)
			panic("unexpected")
		})
	})

	got, err := store.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 10, got.Stock)
}

func TestStore_NestedWithinTxSharesTransaction(t *testing.T) {
	resetTables(t)
	store := NewStore(testDB)
	ctx := context.Background()
	p := createProduct(t, store.Products(), "Cookie", "1.50", 10)
	boom := errors.New("outer failure")

	err := store.WithinTx(ctx, func(outer Store) error {
		if err := outer.WithinTx(ctx, func(inner Store) error {
			return inner.Products().UpdateStock(ctx, p.ID, 2)
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 10, got.Stock, "inner work is rolled back with the outer transaction")
}
