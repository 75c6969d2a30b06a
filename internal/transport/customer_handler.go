package transport

import (
	"net/http"
	"strconv"

	"checkout-api/internal/domain"
	"checkout-api/internal/middleware"
	"checkout-api/internal/repository"
	"checkout-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddItemRequest represents the add-to-cart request payload
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// UpdateQuantityRequest represents the change-quantity request payload
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// ProductListResponse represents a page of products
type ProductListResponse struct {
	Products []*domain.Product `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// CustomerHandler handles HTTP requests for shoppers: product browsing and cart operations
type CustomerHandler struct {
	carts    service.CartService
	products service.ProductService
	logger   *zap.Logger
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(carts service.CartService, products service.ProductService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// RegisterRoutes registers all customer routes behind the given middlewares
func (h *CustomerHandler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.Route("/api/customer", func(r chi.Router) {
		r.Use(middlewares...)

		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)

		r.Post("/cart", h.CreateCart)
		r.Get("/carts", h.ListCarts)
		r.Get("/cart/{cartId}", h.GetCart)
		r.Delete("/cart/{cartId}", h.DeleteCart)

		r.Post("/cart/{cartId}/items", h.AddItem)
		r.Put("/cart/{cartId}/items/{itemId}", h.UpdateItemQuantity)
		r.Delete("/cart/{cartId}/items/{itemId}", h.RemoveItem)

		r.Post("/cart/{cartId}/apply-discounts", h.ApplyDiscounts)
		r.Get("/cart/{cartId}/receipt", h.GenerateReceipt)
	})
}

// ListProducts handles listing active products with optional search, paging and sorting
func (h *CustomerHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := productFilterFromQuery(r)
	filter.ActiveOnly = true

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

// GetProduct handles fetching one active product
func (h *CustomerHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	product, err := h.products.GetProduct(r.Context(), id, true)
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// CreateCart handles creating an empty cart
func (h *CustomerHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.CreateCart(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, cart)
}

// ListCarts handles listing every cart
func (h *CustomerHandler) ListCarts(w http.ResponseWriter, r *http.Request) {
	carts, err := h.carts.ListCarts(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, carts)
}

// GetCart handles fetching one cart
func (h *CustomerHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cartID, ok := uuidParam(w, r, "cartId")
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(r.Context(), cartID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

// DeleteCart handles deleting a cart and releasing its stock
func (h *CustomerHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	cartID, ok := uuidParam(w, r, "cartId")
	if !ok {
		return
	}

	if err := h.carts.DeleteCart(r.Context(), cartID); err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles adding units of a product to a cart
func (h *CustomerHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := uuidParam(w, r, "cartId")
	if !ok {
		return
	}

	var req AddItemRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	productID, ok := parseUUID(w, req.ProductID, "product_id")
	if !ok {
		return
	}

	cart, err := h.carts.AddItem(r.Context(), cartID, productID, req.Quantity)
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

// UpdateItemQuantity handles changing a cart line's quantity
func (h *CustomerHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	cartID, ok := uuidParam(w, r, "cartId")
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemId")
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	cart, err := h.carts.UpdateItemQuantity(r.Context(), cartID, itemID, req.Quantity)
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

// RemoveItem handles deleting a cart line
func (h *CustomerHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := uuidParam(w, r, "cartId")
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemId")
	if !ok {
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), cartID, itemID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

// ApplyDiscounts handles repricing a cart against the discount catalog
func (h *CustomerHandler) ApplyDiscounts(w http.ResponseWriter, r *http.Request) {
	cartID, ok := uuidParam(w, r, "cartId")
	if !ok {
		return
	}

	cart, err := h.carts.ApplyDiscounts(r.Context(), cartID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

// GenerateReceipt handles producing a freshly priced receipt
func (h *CustomerHandler) GenerateReceipt(w http.ResponseWriter, r *http.Request) {
	cartID, ok := uuidParam(w, r, "cartId")
	if !ok {
		return
	}

	receipt, err := h.carts.GenerateReceipt(r.Context(), cartID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, receipt)
}

func productFilterFromQuery(r *http.Request) repository.ProductFilter {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	return repository.ProductFilter{
		Query:     q.Get("q"),
		Page:      page,
		PageSize:  pageSize,
		SortBy:    q.Get("sort_by"),
		SortOrder: repository.SortOrder(q.Get("sort_order")),
	}
}
