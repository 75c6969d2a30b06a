package service

import (
	"context"
	"errors"
	"sync"

	"checkout-api/internal/domain"
	"checkout-api/internal/repository"

	"github.com/google/uuid"
)

// mockStore is an in-memory repository.Store. WithinTx snapshots the data and
// restores it when the callback fails, mirroring a database rollback.
type mockStore struct {
	mu        sync.Mutex
	products  map[uuid.UUID]domain.Product
	carts     map[uuid.UUID]domain.Cart
	discounts []domain.Discount

	listDiscountCalls int
	failCartSave      error
}

func newMockStore() *mockStore {
	return &mockStore{
		products: make(map[uuid.UUID]domain.Product),
		carts:    make(map[uuid.UUID]domain.Cart),
	}
}

func (m *mockStore) Products() repository.ProductRepository   { return mockProducts{m} }
func (m *mockStore) Carts() repository.CartRepository         { return mockCarts{m} }
func (m *mockStore) Discounts() repository.DiscountRepository { return mockDiscounts{m} }

func (m *mockStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	products := make(map[uuid.UUID]domain.Product, len(m.products))
	for k, v := range m.products {
		products[k] = v
	}
	carts := make(map[uuid.UUID]domain.Cart, len(m.carts))
	for k, v := range m.carts {
		carts[k] = v.Clone()
	}

	if err := fn(m); err != nil {
		m.products = products
		m.carts = carts
		return err
	}
	return nil
}

func (m *mockStore) product(id uuid.UUID) domain.Product {
	return m.products[id]
}

type mockProducts struct{ m *mockStore }

func (r mockProducts) Create(ctx context.Context, p *domain.Product) error {
	r.m.products[p.ID] = *p
	return nil
}

func (r mockProducts) Update(ctx context.Context, p *domain.Product) error {
	if _, ok := r.m.products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	r.m.products[p.ID] = *p
	return nil
}

func (r mockProducts) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	p, ok := r.m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stock = stock
	r.m.products[id] = p
	return nil
}

func (r mockProducts) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := r.m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (r mockProducts) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.FindByID(ctx, id)
}

func (r mockProducts) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	out := make(map[uuid.UUID]domain.Product)
	for _, id := range ids {
		if p, ok := r.m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r mockProducts) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	out := []*domain.Product{}
	for _, p := range r.m.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		p := p
		out = append(out, &p)
	}
	return out, len(out), nil
}

func (r mockProducts) Count(ctx context.Context) (int, error) { return len(r.m.products), nil }

type mockCarts struct{ m *mockStore }

func (r mockCarts) Create(ctx context.Context, c *domain.Cart) error {
	r.m.carts[c.ID] = c.Clone()
	return nil
}

func (r mockCarts) Save(ctx context.Context, c *domain.Cart) error {
	if r.m.failCartSave != nil {
		return r.m.failCartSave
	}
	if _, ok := r.m.carts[c.ID]; !ok {
		return repository.ErrCartNotFound
	}
	r.m.carts[c.ID] = c.Clone()
	return nil
}

func (r mockCarts) FindByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	c, ok := r.m.carts[id]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	clone := c.Clone()
	return &clone, nil
}

func (r mockCarts) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	return r.FindByID(ctx, id)
}

func (r mockCarts) List(ctx context.Context) ([]*domain.Cart, error) {
	out := []*domain.Cart{}
	for _, c := range r.m.carts {
		clone := c.Clone()
		out = append(out, &clone)
	}
	return out, nil
}

func (r mockCarts) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.m.carts[id]; !ok {
		return repository.ErrCartNotFound
	}
	delete(r.m.carts, id)
	return nil
}

func (r mockCarts) Count(ctx context.Context) (int, error) { return len(r.m.carts), nil }

func (r mockCarts) CountItems(ctx context.Context) (int, error) {
	n := 0
	for _, c := range r.m.carts {
		n += len(c.Items)
	}
	return n, nil
}

type mockDiscounts struct{ m *mockStore }

var errNotImplemented = errors.New("not implemented")

func (r mockDiscounts) Create(ctx context.Context, d *domain.Discount) error {
	r.m.discounts = append(r.m.discounts, *d)
	return nil
}

func (r mockDiscounts) Update(ctx context.Context, d *domain.Discount) error {
	for i := range r.m.discounts {
		if r.m.discounts[i].ID == d.ID {
			r.m.discounts[i] = *d
			return nil
		}
	}
	return repository.ErrDiscountNotFound
}

func (r mockDiscounts) FindByID(ctx context.Context, id uuid.UUID) (*domain.Discount, error) {
	for _, d := range r.m.discounts {
		if d.ID == id {
			d := d
			return &d, nil
		}
	}
	return nil, repository.ErrDiscountNotFound
}

func (r mockDiscounts) List(ctx context.Context) ([]domain.Discount, error) {
	r.m.listDiscountCalls++
	return append([]domain.Discount(nil), r.m.discounts...), nil
}

func (r mockDiscounts) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Discount, error) {
	return nil, errNotImplemented
}

func (r mockDiscounts) Deactivate(ctx context.Context, id uuid.UUID) error {
	for i := range r.m.discounts {
		if r.m.discounts[i].ID == id {
			r.m.discounts[i].IsActive = false
			return nil
		}
	}
	return repository.ErrDiscountNotFound
}

func (r mockDiscounts) Count(ctx context.Context) (int, error) { return len(r.m.discounts), nil }
