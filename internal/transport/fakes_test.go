package transport

import (
	"context"

	"checkout-api/internal/domain"
	"checkout-api/internal/pricing"
	"checkout-api/internal/repository"
	"checkout-api/internal/service"

	"github.com/google/uuid"
)

// fakeCartService records calls and returns canned results
type fakeCartService struct {
	cart    *domain.Cart
	receipt *pricing.Receipt
	err     error

	calls       []string
	gotProduct  uuid.UUID
	gotItem     uuid.UUID
	gotQuantity int
}

var _ service.CartService = (*fakeCartService)(nil)

func (f *fakeCartService) result(op string) (*domain.Cart, error) {
	f.calls = append(f.calls, op)
	if f.err != nil {
		return nil, f.err
	}
	return f.cart, nil
}

func (f *fakeCartService) CreateCart(ctx context.Context) (*domain.Cart, error) {
	return f.result(service.OpCreateCart)
}

func (f *fakeCartService) GetCart(ctx context.Context, cartID uuid.UUID) (*domain.Cart, error) {
	return f.result("get_cart")
}

func (f *fakeCartService) ListCarts(ctx context.Context) ([]*domain.Cart, error) {
	cart, err := f.result("list_carts")
	if err != nil {
		return nil, err
	}
	return []*domain.Cart{cart}, nil
}

func (f *fakeCartService) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	_, err := f.result(service.OpDeleteCart)
	return err
}

func (f *fakeCartService) AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	f.gotProduct, f.gotQuantity = productID, quantity
	return f.result(service.OpAddItem)
}

func (f *fakeCartService) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*domain.Cart, error) {
	f.gotItem = itemID
	return f.result(service.OpRemoveItem)
}

func (f *fakeCartService) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*domain.Cart, error) {
	f.gotItem, f.gotQuantity = itemID, quantity
	return f.result(service.OpUpdateQuantity)
}

func (f *fakeCartService) ApplyDiscounts(ctx context.Context, cartID uuid.UUID) (*domain.Cart, error) {
	return f.result(service.OpApplyDiscounts)
}

func (f *fakeCartService) GenerateReceipt(ctx context.Context, cartID uuid.UUID) (*pricing.Receipt, error) {
	f.calls = append(f.calls, service.OpGenerateReceipt)
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

type fakeProductService struct {
	product   *domain.Product
	err       error
	gotInput  service.ProductInput
	gotFilter repository.ProductFilter
	gotActive bool
}

var _ service.ProductService = (*fakeProductService)(nil)

func (f *fakeProductService) CreateProduct(ctx context.Context, input service.ProductInput) (*domain.Product, error) {
	f.gotInput = input
	return f.product, f.err
}

func (f *fakeProductService) UpdateProduct(ctx context.Context, id uuid.UUID, input service.ProductInput) (*domain.Product, error) {
	f.gotInput = input
	return f.product, f.err
}

func (f *fakeProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return f.err
}

func (f *fakeProductService) GetProduct(ctx context.Context, id uuid.UUID, activeOnly bool) (*domain.Product, error) {
	f.gotActive = activeOnly
	if f.err != nil {
		return nil, f.err
	}
	return f.product, nil
}

func (f *fakeProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	f.gotFilter = filter
	if f.err != nil {
		return nil, 0, f.err
	}
	return []*domain.Product{f.product}, 1, nil
}

type fakeDiscountService struct {
	discount *domain.Discount
	err      error
	gotInput service.DiscountInput
	called   bool
}

var _ service.DiscountService = (*fakeDiscountService)(nil)

func (f *fakeDiscountService) CreateDiscount(ctx context.Context, input service.DiscountInput) (*domain.Discount, error) {
	f.called, f.gotInput = true, input
	return f.discount, f.err
}

func (f *fakeDiscountService) UpdateDiscount(ctx context.Context, id uuid.UUID, input service.DiscountInput) (*domain.Discount, error) {
	f.called, f.gotInput = true, input
	return f.discount, f.err
}

func (f *fakeDiscountService) DeleteDiscount(ctx context.Context, id uuid.UUID) error {
	f.called = true
	return f.err
}

func (f *fakeDiscountService) GetDiscount(ctx context.Context, id uuid.UUID) (*domain.Discount, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	return f.discount, nil
}

func (f *fakeDiscountService) ListDiscounts(ctx context.Context) ([]domain.Discount, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Discount{*f.discount}, nil
}
