package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"checkout-api/internal/cart"
	"checkout-api/internal/domain"
	"checkout-api/internal/lock"
	"checkout-api/internal/metrics"
	"checkout-api/internal/pricing"
	"checkout-api/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Cart operation names used in logs and metrics
const (
	OpCreateCart      = "create_cart"
	OpDeleteCart      = "delete_cart"
	OpAddItem         = "add_item"
	OpRemoveItem      = "remove_item"
	OpUpdateQuantity  = "update_quantity"
	OpApplyDiscounts  = "apply_discounts"
	OpGenerateReceipt = "generate_receipt"
)

// CartService defines the interface for cart business logic. Every mutation
// runs under an exclusive per-cart lock inside one database transaction, so a
// failed call leaves the cart and product stock exactly as they were.
type CartService interface {
	CreateCart(ctx context.Context) (*domain.Cart, error)
	GetCart(ctx context.Context, cartID uuid.UUID) (*domain.Cart, error)
	ListCarts(ctx context.Context) ([]*domain.Cart, error)
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
	AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*domain.Cart, error)
	ApplyDiscounts(ctx context.Context, cartID uuid.UUID) (*domain.Cart, error)
	GenerateReceipt(ctx context.Context, cartID uuid.UUID) (*pricing.Receipt, error)
}

type cartService struct {
	store   repository.Store
	catalog *DiscountCatalog
	locker  lock.Locker
	logger  *zap.Logger
	metrics *metrics.Metrics

	now   func() time.Time
	newID func() uuid.UUID
}

// NewCartService creates a new instance of CartService
func NewCartService(
	store repository.Store,
	catalog *DiscountCatalog,
	locker lock.Locker,
	logger *zap.Logger,
	m *metrics.Metrics,
) CartService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &cartService{
		store:   store,
		catalog: catalog,
		locker:  locker,
		logger:  logger,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.New,
	}
}

// CreateCart persists a new empty cart
func (s *cartService) CreateCart(ctx context.Context) (*domain.Cart, error) {
	c := cart.New(s.newID(), s.now())
	if err := s.store.Carts().Create(ctx, &c); err != nil {
		s.record(OpCreateCart, err, zap.String("cart_id", c.ID.String()))
		return nil, err
	}

	s.record(OpCreateCart, nil, zap.String("cart_id", c.ID.String()))
	return &c, nil
}

// GetCart retrieves a cart with its lines
func (s *cartService) GetCart(ctx context.Context, cartID uuid.UUID) (*domain.Cart, error) {
	return s.store.Carts().FindByID(ctx, cartID)
}

// ListCarts retrieves every cart
func (s *cartService) ListCarts(ctx context.Context) ([]*domain.Cart, error) {
	return s.store.Carts().List(ctx)
}

// DeleteCart removes a cart and returns the stock held by its lines
func (s *cartService) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	err := s.locker.WithLock(ctx, lock.CartKey(cartID), func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(tx repository.Store) error {
			current, err := tx.Carts().FindByIDForUpdate(ctx, cartID)
			if err != nil {
				return err
			}

			products, err := lockProducts(ctx, tx.Products(), current.ProductIDs())
			if err != nil {
				return err
			}

			released, err := cart.ReleaseAll(*current, products)
			if err != nil {
				return err
			}

			for _, id := range current.ProductIDs() {
				if err := tx.Products().UpdateStock(ctx, id, released[id].Stock); err != nil {
					return err
				}
			}

			return tx.Carts().Delete(ctx, cartID)
		})
	})

	s.record(OpDeleteCart, err, zap.String("cart_id", cartID.String()))
	return err
}

// AddItem reserves stock for quantity units of a product and adds them to the cart
func (s *cartService) AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	fields := []zap.Field{
		zap.String("cart_id", cartID.String()),
		zap.String("product_id", productID.String()),
		zap.Int("quantity", quantity),
	}

	if quantity < 1 {
		s.record(OpAddItem, domain.ErrInvalidQuantity, fields...)
		return nil, domain.ErrInvalidQuantity
	}

	return s.mutate(ctx, OpAddItem, cartID, fields, func(ctx context.Context, tx repository.Store, current domain.Cart) (domain.Cart, error) {
		product, err := tx.Products().FindByIDForUpdate(ctx, productID)
		if err != nil {
			return current, err
		}

		next, reserved, err := cart.AddItem(current, *product, quantity, s.newID(), s.now())
		if err != nil {
			return current, err
		}

		if err := tx.Products().UpdateStock(ctx, productID, reserved.Stock); err != nil {
			return current, err
		}
		return next, nil
	})
}

// RemoveItem deletes a line from the cart and returns its quantity to stock
func (s *cartService) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*domain.Cart, error) {
	fields := []zap.Field{
		zap.String("cart_id", cartID.String()),
		zap.String("item_id", itemID.String()),
	}

	return s.mutate(ctx, OpRemoveItem, cartID, fields, func(ctx context.Context, tx repository.Store, current domain.Cart) (domain.Cart, error) {
		i := current.FindItem(itemID)
		if i < 0 {
			return current, domain.ErrCartItemNotFound
		}

		product, err := tx.Products().FindByIDForUpdate(ctx, current.Items[i].ProductID)
		if err != nil {
			return current, err
		}

		next, released, err := cart.RemoveItem(current, *product, itemID, s.now())
		if err != nil {
			return current, err
		}

		if err := tx.Products().UpdateStock(ctx, product.ID, released.Stock); err != nil {
			return current, err
		}
		return next, nil
	})
}

// UpdateItemQuantity sets a line's quantity and reconciles the difference with stock
func (s *cartService) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*domain.Cart, error) {
	fields := []zap.Field{
		zap.String("cart_id", cartID.String()),
		zap.String("item_id", itemID.String()),
		zap.Int("quantity", quantity),
	}

	return s.mutate(ctx, OpUpdateQuantity, cartID, fields, func(ctx context.Context, tx repository.Store, current domain.Cart) (domain.Cart, error) {
		i := current.FindItem(itemID)
		if i < 0 {
			return current, domain.ErrCartItemNotFound
		}
		if quantity < 1 {
			return current, domain.ErrInvalidQuantity
		}

		product, err := tx.Products().FindByIDForUpdate(ctx, current.Items[i].ProductID)
		if err != nil {
			return current, err
		}

		next, adjusted, err := cart.UpdateItemQuantity(current, *product, itemID, quantity, s.now())
		if err != nil {
			return current, err
		}

		if adjusted.Stock != product.Stock {
			if err := tx.Products().UpdateStock(ctx, product.ID, adjusted.Stock); err != nil {
				return current, err
			}
		}
		return next, nil
	})
}

// ApplyDiscounts reprices the cart against the current discount catalog
func (s *cartService) ApplyDiscounts(ctx context.Context, cartID uuid.UUID) (*domain.Cart, error) {
	var applied []pricing.Applied

	priced, err := s.mutate(ctx, OpApplyDiscounts, cartID, []zap.Field{zap.String("cart_id", cartID.String())},
		func(ctx context.Context, tx repository.Store, current domain.Cart) (domain.Cart, error) {
			next, a, _, err := s.price(ctx, tx, current)
			applied = a
			return next, err
		})
	if err != nil {
		return nil, err
	}

	s.countApplied(applied)
	return priced, nil
}

// GenerateReceipt reprices the cart, persists the result and returns a receipt for it
func (s *cartService) GenerateReceipt(ctx context.Context, cartID uuid.UUID) (*pricing.Receipt, error) {
	var receipt pricing.Receipt
	var applied []pricing.Applied

	_, err := s.mutate(ctx, OpGenerateReceipt, cartID, []zap.Field{zap.String("cart_id", cartID.String())},
		func(ctx context.Context, tx repository.Store, current domain.Cart) (domain.Cart, error) {
			next, a, catalog, err := s.price(ctx, tx, current)
			if err != nil {
				return current, err
			}

			products, err := tx.Products().FindByIDs(ctx, next.ProductIDs())
			if err != nil {
				return current, err
			}

			discounts := make(map[uuid.UUID]domain.Discount, len(catalog))
			for _, d := range catalog {
				discounts[d.ID] = d
			}

			applied = a
			receipt = pricing.BuildReceipt(next, products, discounts)
			return next, nil
		})
	if err != nil {
		return nil, err
	}

	s.countApplied(applied)
	return &receipt, nil
}

func (s *cartService) price(ctx context.Context, tx repository.Store, current domain.Cart) (domain.Cart, []pricing.Applied, []domain.Discount, error) {
	catalog, err := s.catalog.Load(ctx, tx.Discounts())
	if err != nil {
		return current, nil, nil, err
	}

	priced, applied, err := pricing.ApplyDiscounts(current, catalog, s.now())
	if err != nil {
		return current, nil, nil, err
	}
	return priced, applied, catalog, nil
}

type mutation func(ctx context.Context, tx repository.Store, current domain.Cart) (domain.Cart, error)

// mutate loads the cart under lock and row lock, applies fn and saves the result
func (s *cartService) mutate(ctx context.Context, op string, cartID uuid.UUID, fields []zap.Field, fn mutation) (*domain.Cart, error) {
	var result domain.Cart

	err := s.locker.WithLock(ctx, lock.CartKey(cartID), func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(tx repository.Store) error {
			current, err := tx.Carts().FindByIDForUpdate(ctx, cartID)
			if err != nil {
				return err
			}

			next, err := fn(ctx, tx, *current)
			if err != nil {
				return err
			}

			if err := tx.Carts().Save(ctx, &next); err != nil {
				return err
			}

			result = next
			return nil
		})
	})

	s.record(op, err, fields...)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// record logs and counts the outcome of a cart operation
func (s *cartService) record(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("operation", op))

	switch {
	case err == nil:
		s.metrics.CartMutation(op, metrics.ResultOK)
		s.logger.Info("Cart operation completed", fields...)
	case isDomainError(err):
		if domain.IsInsufficientStock(err) {
			s.metrics.StockRejected()
		}
		s.metrics.CartMutation(op, metrics.ResultRejected)
		s.logger.Warn("Cart operation rejected", append(fields, zap.Error(err))...)
	default:
		s.metrics.CartMutation(op, metrics.ResultError)
		s.logger.Error("Cart operation failed", append(fields, zap.Error(err))...)
	}
}

func (s *cartService) countApplied(applied []pricing.Applied) {
	for _, a := range applied {
		s.metrics.DiscountsApplied(string(a.Discount.Type))
	}
}

func isDomainError(err error) bool {
	return domain.IsNotFound(err) || domain.IsInsufficientStock(err) || domain.IsInvalidArgument(err)
}

// lockProducts row-locks products in id order so concurrent carts sharing products cannot deadlock
func lockProducts(ctx context.Context, repo repository.ProductRepository, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	sorted := append([]uuid.UUID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	products := make(map[uuid.UUID]domain.Product, len(sorted))
	for _, id := range sorted {
		p, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
			}
			return nil, err
		}
		products[id] = *p
	}
	return products, nil
}
