package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"checkout-api/internal/domain"

	"github.com/google/uuid"
)

// ErrDiscountNotFound is returned when a discount id does not resolve
var ErrDiscountNotFound = domain.ErrDiscountNotFound

// DiscountRepository defines the interface for discount data access
type DiscountRepository interface {
	Create(ctx context.Context, discount *domain.Discount) error
	Update(ctx context.Context, discount *domain.Discount) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Discount, error)
	// List returns the full catalog in a stable order (creation time, then id).
	// The order decides ties between equally valued discounts.
	List(ctx context.Context) ([]domain.Discount, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Discount, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type discountRepository struct {
	db DBTX
}

// NewDiscountRepository creates a new instance of DiscountRepository
func NewDiscountRepository(db DBTX) DiscountRepository {
	return &discountRepository{db: db}
}

const discountColumns = `id, name, description, type, value, min_quantity, start_date, end_date, is_active, created_at, updated_at`

func scanDiscount(row rowScanner) (domain.Discount, error) {
	var d domain.Discount
	var minQuantity sql.NullInt64
	var startDate, endDate sql.NullTime

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Description,
		&d.Type,
		&d.Value,
		&minQuantity,
		&startDate,
		&endDate,
		&d.IsActive,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return d, err
	}

	if minQuantity.Valid {
		n := int(minQuantity.Int64)
		d.MinQuantity = &n
	}
	if startDate.Valid {
		t := startDate.Time
		d.StartDate = &t
	}
	if endDate.Valid {
		t := endDate.Time
		d.EndDate = &t
	}

	return d, nil
}

func nullableArgs(d *domain.Discount) (sql.NullInt64, sql.NullTime, sql.NullTime) {
	var minQuantity sql.NullInt64
	var startDate, endDate sql.NullTime
	if d.MinQuantity != nil {
		minQuantity = sql.NullInt64{Int64: int64(*d.MinQuantity), Valid: true}
	}
	if d.StartDate != nil {
		startDate = sql.NullTime{Time: *d.StartDate, Valid: true}
	}
	if d.EndDate != nil {
		endDate = sql.NullTime{Time: *d.EndDate, Valid: true}
	}
	return minQuantity, startDate, endDate
}

// Create inserts a new discount
func (r *discountRepository) Create(ctx context.Context, d *domain.Discount) error {
	query := `
		INSERT INTO discounts (` + discountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	minQuantity, startDate, endDate := nullableArgs(d)
	_, err := r.db.ExecContext(
		ctx,
		query,
		d.ID,
		d.Name,
		d.Description,
		d.Type,
		d.Value,
		minQuantity,
		startDate,
		endDate,
		d.IsActive,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create discount: %w", err)
	}

	return nil
}

// Update overwrites every mutable column of an existing discount
func (r *discountRepository) Update(ctx context.Context, d *domain.Discount) error {
	query := `
		UPDATE discounts
		SET name = $2, description = $3, type = $4, value = $5, min_quantity = $6,
		    start_date = $7, end_date = $8, is_active = $9, updated_at = $10
		WHERE id = $1
	`

	minQuantity, startDate, endDate := nullableArgs(d)
	result, err := r.db.ExecContext(
		ctx,
		query,
		d.ID,
		d.Name,
		d.Description,
		d.Type,
		d.Value,
		minQuantity,
		startDate,
		endDate,
		d.IsActive,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update discount: %w", err)
	}

	return requireAffected(result, ErrDiscountNotFound)
}

// FindByID retrieves a discount by ID
func (r *discountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Discount, error) {
	query := `SELECT ` + discountColumns + ` FROM discounts WHERE id = $1`

	d, err := scanDiscount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDiscountNotFound
		}
		return nil, fmt.Errorf("failed to find discount by ID: %w", err)
	}

	return &d, nil
}

// List retrieves the whole discount catalog, active or not
func (r *discountRepository) List(ctx context.Context) ([]domain.Discount, error) {
	query := `SELECT ` + discountColumns + ` FROM discounts ORDER BY created_at, id`
	return r.query(ctx, query)
}

// FindByIDs retrieves the discounts referenced by a cart, keyed by ID
func (r *discountRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Discount, error) {
	found := make(map[uuid.UUID]domain.Discount, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	args := make([]any, len(ids))
	placeholders := ""
	for i, id := range ids {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	discounts, err := r.query(ctx, `SELECT `+discountColumns+` FROM discounts WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	for _, d := range discounts {
		found[d.ID] = d
	}

	return found, nil
}

func (r *discountRepository) query(ctx context.Context, query string, args ...any) ([]domain.Discount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}
	defer rows.Close()

	discounts := []domain.Discount{}
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan discount: %w", err)
		}
		discounts = append(discounts, d)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating discounts: %w", err)
	}

	return discounts, nil
}

// Deactivate soft-deletes a discount so receipts that reference it keep resolving
func (r *discountRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE discounts SET is_active = FALSE, updated_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate discount: %w", err)
	}

	return requireAffected(result, ErrDiscountNotFound)
}

// Count returns the number of discount rows
func (r *discountRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "discounts")
}
