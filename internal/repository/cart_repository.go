package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"checkout-api/internal/domain"

	"github.com/google/uuid"
)

// ErrCartNotFound is returned when a cart id does not resolve
var ErrCartNotFound = domain.ErrCartNotFound

// CartRepository defines the interface for cart data access.
// Carts are persisted as one row in carts plus one row per line in cart_items.
type CartRepository interface {
	Create(ctx context.Context, cart *domain.Cart) error
	Save(ctx context.Context, cart *domain.Cart) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
	List(ctx context.Context) ([]*domain.Cart, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
	CountItems(ctx context.Context) (int, error)
}

type cartRepository struct {
	db DBTX
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db DBTX) CartRepository {
	return &cartRepository{db: db}
}

const itemColumns = `id, cart_id, product_id, quantity, unit_price, total_price, discount_id, discount_amount`

// Create inserts the cart header and any lines it already carries
func (r *cartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	query := `
		INSERT INTO carts (id, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.ExecContext(ctx, query, cart.ID, cart.TotalAmount, cart.CreatedAt, cart.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}

	return r.insertItems(ctx, cart)
}

// Save writes the cart header and replaces its lines with cart.Items.
// Line ids are preserved so callers can keep addressing the same lines.
func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE carts SET total_amount = $2, updated_at = $3 WHERE id = $1`,
		cart.ID, cart.TotalAmount, cart.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}

	if err := requireAffected(result, ErrCartNotFound); err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}

	return r.insertItems(ctx, cart)
}

func (r *cartRepository) insertItems(ctx context.Context, cart *domain.Cart) error {
	query := `
		INSERT INTO cart_items (` + itemColumns + `, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for i, item := range cart.Items {
		discountID := uuid.NullUUID{}
		if item.DiscountID != nil {
			discountID = uuid.NullUUID{UUID: *item.DiscountID, Valid: true}
		}

		_, err := r.db.ExecContext(
			ctx,
			query,
			item.ID,
			cart.ID,
			item.ProductID,
			item.Quantity,
			item.UnitPrice,
			item.TotalPrice,
			discountID,
			item.DiscountAmount,
			i,
		)
		if err != nil {
			return fmt.Errorf("failed to save cart item: %w", err)
		}
	}

	return nil
}

// FindByID retrieves a cart with its lines in insertion order
func (r *cartRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	return r.find(ctx, `SELECT id, total_amount, created_at, updated_at FROM carts WHERE id = $1`, id)
}

// FindByIDForUpdate retrieves a cart and locks its header row until the surrounding transaction ends
func (r *cartRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	return r.find(ctx, `SELECT id, total_amount, created_at, updated_at FROM carts WHERE id = $1 FOR UPDATE`, id)
}

func (r *cartRepository) find(ctx context.Context, query string, id uuid.UUID) (*domain.Cart, error) {
	cart := &domain.Cart{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&cart.ID,
		&cart.TotalAmount,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to find cart by ID: %w", err)
	}

	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return cart, nil
}

func (r *cartRepository) items(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	query := `SELECT ` + itemColumns + ` FROM cart_items WHERE cart_id = $1 ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		var discountID uuid.NullUUID
		err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
			&discountID,
			&item.DiscountAmount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		if discountID.Valid {
			id := discountID.UUID
			item.DiscountID = &id
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// List retrieves every cart, newest first
func (r *cartRepository) List(ctx context.Context) ([]*domain.Cart, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM carts ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list carts: %w", err)
	}

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan cart: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating carts: %w", err)
	}
	rows.Close()

	carts := make([]*domain.Cart, 0, len(ids))
	for _, id := range ids {
		cart, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		carts = append(carts, cart)
	}

	return carts, nil
}

// Delete removes a cart; its lines go with it through ON DELETE CASCADE
func (r *cartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	return requireAffected(result, ErrCartNotFound)
}

// Count returns the number of carts
func (r *cartRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "carts")
}

// CountItems returns the number of cart lines across all carts
func (r *cartRepository) CountItems(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "cart_items")
}
