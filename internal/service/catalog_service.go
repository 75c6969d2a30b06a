package service

import (
	"context"
	"time"

	"checkout-api/internal/cache"
	"checkout-api/internal/domain"
	"checkout-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DiscountCatalog reads the discount catalog through the Redis cache.
// Cache failures are logged and fall through to the database.
type DiscountCatalog struct {
	cache  *cache.DiscountCache
	logger *zap.Logger
}

// NewDiscountCatalog creates a catalog reader; a nil cache disables caching
func NewDiscountCatalog(c *cache.DiscountCache, logger *zap.Logger) *DiscountCatalog {
	return &DiscountCatalog{cache: c, logger: logger}
}

// Load returns every discount in catalog order
func (c *DiscountCatalog) Load(ctx context.Context, repo repository.DiscountRepository) ([]domain.Discount, error) {
	cached, ok, err := c.cache.Get(ctx)
	if err != nil {
		c.logger.Warn("Discount cache read failed", zap.Error(err))
	}
	if ok {
		return cached, nil
	}

	discounts, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, discounts); err != nil {
		c.logger.Warn("Discount cache write failed", zap.Error(err))
	}
	return discounts, nil
}

// Invalidate drops the cached catalog after a write
func (c *DiscountCatalog) Invalidate(ctx context.Context) {
	if err := c.cache.Invalidate(ctx); err != nil {
		c.logger.Warn("Discount cache invalidation failed", zap.Error(err))
	}
}

// ProductInput carries the administrator-editable product fields
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	IsActive    *bool
}

// ProductService defines the interface for product catalog administration
type ProductService interface {
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID, activeOnly bool) (*domain.Product, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)
}

type productService struct {
	products repository.ProductRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewProductService creates a new instance of ProductService
func NewProductService(products repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{
		products: products,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *productService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	now := s.now()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		IsActive:    input.IsActive == nil || *input.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("name", product.Name))
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.Stock = input.Stock
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	product.UpdatedAt = s.now()
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product updated", zap.String("product_id", id.String()))
	return product, nil
}

// DeleteProduct deactivates a product. Existing cart lines keep referencing it.
func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return err
	}

	product.IsActive = false
	product.UpdatedAt = s.now()
	if err := s.products.Update(ctx, product); err != nil {
		return err
	}

	s.logger.Info("Product deactivated", zap.String("product_id", id.String()))
	return nil
}

// GetProduct retrieves a product; with activeOnly an inactive product is reported as not found
func (s *productService) GetProduct(ctx context.Context, id uuid.UUID, activeOnly bool) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if activeOnly && !product.IsActive {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	return s.products.List(ctx, filter)
}

// DiscountInput carries the administrator-editable discount fields
type DiscountInput struct {
	Name        string
	Description string
	Type        domain.DiscountType
	Value       decimal.Decimal
	MinQuantity *int
	StartDate   *time.Time
	EndDate     *time.Time
	IsActive    *bool
}

// DiscountService defines the interface for discount catalog administration
type DiscountService interface {
	CreateDiscount(ctx context.Context, input DiscountInput) (*domain.Discount, error)
	UpdateDiscount(ctx context.Context, id uuid.UUID, input DiscountInput) (*domain.Discount, error)
	DeleteDiscount(ctx context.Context, id uuid.UUID) error
	GetDiscount(ctx context.Context, id uuid.UUID) (*domain.Discount, error)
	ListDiscounts(ctx context.Context) ([]domain.Discount, error)
}

type discountService struct {
	discounts repository.DiscountRepository
	catalog   *DiscountCatalog
	logger    *zap.Logger
	now       func() time.Time
}

// NewDiscountService creates a new instance of DiscountService
func NewDiscountService(discounts repository.DiscountRepository, catalog *DiscountCatalog, logger *zap.Logger) DiscountService {
	return &discountService{
		discounts: discounts,
		catalog:   catalog,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func applyDiscountInput(d *domain.Discount, input DiscountInput) {
	d.Name = input.Name
	d.Description = input.Description
	d.Type = input.Type
	d.Value = input.Value
	d.MinQuantity = input.MinQuantity
	d.StartDate = input.StartDate
	d.EndDate = input.EndDate
	if input.IsActive != nil {
		d.IsActive = *input.IsActive
	}
}

func (s *discountService) CreateDiscount(ctx context.Context, input DiscountInput) (*domain.Discount, error) {
	now := s.now()
	d := &domain.Discount{ID: uuid.New(), IsActive: true, CreatedAt: now, UpdatedAt: now}
	applyDiscountInput(d, input)
	if err := d.Validate(); err != nil {
		return nil, err
	}

	if err := s.discounts.Create(ctx, d); err != nil {
		return nil, err
	}
	s.catalog.Invalidate(ctx)

	s.logger.Info("Discount created",
		zap.String("discount_id", d.ID.String()),
		zap.String("type", string(d.Type)),
	)
	return d, nil
}

func (s *discountService) UpdateDiscount(ctx context.Context, id uuid.UUID, input DiscountInput) (*domain.Discount, error) {
	d, err := s.discounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyDiscountInput(d, input)
	d.UpdatedAt = s.now()
	if err := d.Validate(); err != nil {
		return nil, err
	}

	if err := s.discounts.Update(ctx, d); err != nil {
		return nil, err
	}
	s.catalog.Invalidate(ctx)

	s.logger.Info("Discount updated", zap.String("discount_id", id.String()))
	return d, nil
}

// DeleteDiscount deactivates a discount so previously applied lines still resolve it
func (s *discountService) DeleteDiscount(ctx context.Context, id uuid.UUID) error {
	if err := s.discounts.Deactivate(ctx, id); err != nil {
		return err
	}
	s.catalog.Invalidate(ctx)

	s.logger.Info("Discount deactivated", zap.String("discount_id", id.String()))
	return nil
}

func (s *discountService) GetDiscount(ctx context.Context, id uuid.UUID) (*domain.Discount, error) {
	return s.discounts.FindByID(ctx, id)
}

func (s *discountService) ListDiscounts(ctx context.Context) ([]domain.Discount, error) {
	return s.discounts.List(ctx)
}
