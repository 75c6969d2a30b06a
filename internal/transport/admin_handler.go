package transport

import (
	"net/http"
	"time"

	"checkout-api/internal/domain"
	"checkout-api/internal/middleware"
	"checkout-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest represents the create/update product request payload
type ProductRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

func (req ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		IsActive:    req.IsActive,
	}
}

// DiscountRequest represents the create/update discount request payload
type DiscountRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=2000"`
	Type        string          `json:"type" validate:"required,oneof=PERCENTAGE FIXED_AMOUNT BUY_X_GET_Y_FREE SECOND_UNIT_PERCENTAGE"`
	Value       decimal.Decimal `json:"value" validate:"gte=0"`
	MinQuantity *int            `json:"min_quantity,omitempty" validate:"omitempty,gte=1"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

func (req DiscountRequest) input() service.DiscountInput {
	return service.DiscountInput{
		Name:        req.Name,
		Description: req.Description,
		Type:        domain.DiscountType(req.Type),
		Value:       req.Value,
		MinQuantity: req.MinQuantity,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    req.IsActive,
	}
}

// AdminHandler handles HTTP requests for catalog administration
type AdminHandler struct {
	products  service.ProductService
	discounts service.DiscountService
	logger    *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(products service.ProductService, discounts service.DiscountService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		products:  products,
		discounts: discounts,
		logger:    logger,
	}
}

// RegisterRoutes registers all admin routes behind the given middlewares
func (h *AdminHandler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middlewares...)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/{id}", h.GetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})

		r.Route("/discounts", func(r chi.Router) {
			r.Get("/", h.ListDiscounts)
			r.Post("/", h.CreateDiscount)
			r.Get("/{id}", h.GetDiscount)
			r.Put("/{id}", h.UpdateDiscount)
			r.Delete("/{id}", h.DeleteDiscount)
		})
	})
}

// ListProducts handles listing products including inactive ones
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := productFilterFromQuery(r)

	products, total, err := h.products.ListProducts(r.Context(), filter)
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{
		Products: products,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	product, err := h.products.CreateProduct(r.Context(), req.input())
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *AdminHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	product, err := h.products.GetProduct(r.Context(), id, false)
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct deactivates a product
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts, err := h.discounts.ListDiscounts(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, discounts)
}

func (h *AdminHandler) CreateDiscount(w http.ResponseWriter, r *http.Request) {
	var req DiscountRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	discount, err := h.discounts.CreateDiscount(r.Context(), req.input())
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, discount)
}

func (h *AdminHandler) GetDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	discount, err := h.discounts.GetDiscount(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, discount)
}

func (h *AdminHandler) UpdateDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req DiscountRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	discount, err := h.discounts.UpdateDiscount(r.Context(), id, req.input())
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, discount)
}

// DeleteDiscount deactivates a discount
func (h *AdminHandler) DeleteDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.discounts.DeleteDiscount(r.Context(), id); err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
