package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"checkout-api/internal/domain"
	"checkout-api/internal/middleware"
	"checkout-api/internal/pricing"
	"checkout-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCustomerRouter(carts *fakeCartService, products *fakeProductService) http.Handler {
	r := chi.NewRouter()
	NewCustomerHandler(carts, products, zap.NewNop()).RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorResponse {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func sampleCart() *domain.Cart {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Cart{ID: uuid.New(), TotalAmount: decimal.Zero, CreatedAt: now, UpdatedAt: now}
}

func TestCustomerHandler_CreateCart(t *testing.T) {
	carts := &fakeCartService{cart: sampleCart()}
	rec := doRequest(t, newCustomerRouter(carts, &fakeProductService{}), http.MethodPost, "/api/customer/cart", nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got domain.Cart
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Equal(t, carts.cart.ID, got.ID)
	require.Equal(t, []string{service.OpCreateCart}, carts.calls)
}

func TestCustomerHandler_AddItem(t *testing.T) {
	carts := &fakeCartService{cart: sampleCart()}
	router := newCustomerRouter(carts, &fakeProductService{})
	productID := uuid.New()

	rec := doRequest(t, router, http.MethodPost, "/api/customer/cart/"+carts.cart.ID.String()+"/items",
		AddItemRequest{ProductID: productID.String(), Quantity: 3})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, productID, carts.gotProduct)
	require.Equal(t, 3, carts.gotQuantity)
}

func TestCustomerHandler_AddItemErrors(t *testing.T) {
	cartPath := "/api/customer/cart/" + uuid.NewString() + "/items"

	tests := []struct {
		name       string
		path       string
		body       interface{}
		serviceErr error
		wantStatus int
		wantCalled bool
	}{
		{
			name:       "malformed cart id",
			path:       "/api/customer/cart/not-a-uuid/items",
			body:       AddItemRequest{ProductID: uuid.NewString(), Quantity: 1},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed product id",
			path:       cartPath,
			body:       AddItemRequest{ProductID: "espresso", Quantity: 1},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "zero quantity",
			path:       cartPath,
			body:       AddItemRequest{ProductID: uuid.NewString(), Quantity: 0},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown cart",
			path:       cartPath,
			body:       AddItemRequest{ProductID: uuid.NewString(), Quantity: 1},
			serviceErr: domain.ErrCartNotFound,
			wantStatus: http.StatusNotFound,
			wantCalled: true,
		},
		{
			name:       "not enough stock",
			path:       cartPath,
			body:       AddItemRequest{ProductID: uuid.NewString(), Quantity: 50},
			serviceErr: fmt.Errorf("product x: %w", domain.ErrInsufficientStock),
			wantStatus: http.StatusConflict,
			wantCalled: true,
		},
		{
			name:       "inactive product",
			path:       cartPath,
			body:       AddItemRequest{ProductID: uuid.NewString(), Quantity: 1},
			serviceErr: domain.ErrProductInactive,
			wantStatus: http.StatusBadRequest,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carts := &fakeCartService{cart: sampleCart(), err: tt.serviceErr}
			rec := doRequest(t, newCustomerRouter(carts, &fakeProductService{}), http.MethodPost, tt.path, tt.body)

			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantCalled, len(carts.calls) > 0)
			require.NotEmpty(t, decodeError(t, rec).Error.Message)
		})
	}
}

func TestCustomerHandler_UpdateAndRemoveItem(t *testing.T) {
	carts := &fakeCartService{cart: sampleCart()}
	router := newCustomerRouter(carts, &fakeProductService{})
	itemID := uuid.New()
	path := "/api/customer/cart/" + carts.cart.ID.String() + "/items/" + itemID.String()

	rec := doRequest(t, router, http.MethodPut, path, UpdateQuantityRequest{Quantity: 4})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, itemID, carts.gotItem)
	require.Equal(t, 4, carts.gotQuantity)

	rec = doRequest(t, router, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{service.OpUpdateQuantity, service.OpRemoveItem}, carts.calls)
}

func TestCustomerHandler_DeleteCart(t *testing.T) {
	carts := &fakeCartService{}
	rec := doRequest(t, newCustomerRouter(carts, &fakeProductService{}), http.MethodDelete, "/api/customer/cart/"+uuid.NewString(), nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, []string{service.OpDeleteCart}, carts.calls)
}

func TestCustomerHandler_ApplyDiscountsAndReceipt(t *testing.T) {
	cart := sampleCart()
	discountID := uuid.New()
	carts := &fakeCartService{
		cart: cart,
		receipt: &pricing.Receipt{
			CartID:      cart.ID,
			TotalAmount: decimal.RequireFromString("18.00"),
			Items: []pricing.ReceiptItem{{
				ProductID:   uuid.New(),
				ProductName: "Espresso",
				Quantity:    2,
				UnitPrice:   decimal.RequireFromString("10.00"),
				TotalPrice:  decimal.RequireFromString("18.00"),
				AppliedDiscount: &pricing.ReceiptDiscount{
					DiscountID:     discountID,
					DiscountName:   "10% off",
					DiscountType:   domain.DiscountPercentage,
					DiscountAmount: decimal.RequireFromString("2.00"),
				},
			}},
		},
	}
	router := newCustomerRouter(carts, &fakeProductService{})
	base := "/api/customer/cart/" + cart.ID.String()

	rec := doRequest(t, router, http.MethodPost, base+"/apply-discounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, base+"/receipt", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "18", body["totalAmount"])
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	applied := items[0].(map[string]interface{})["appliedDiscount"].(map[string]interface{})
	require.Equal(t, discountID.String(), applied["discountId"])

	require.Equal(t, []string{service.OpApplyDiscounts, service.OpGenerateReceipt}, carts.calls)
}

func TestCustomerHandler_InternalErrorsAreHidden(t *testing.T) {
	carts := &fakeCartService{err: fmt.Errorf("dial tcp 10.0.0.1:5432: connection refused")}
	rec := doRequest(t, newCustomerRouter(carts, &fakeProductService{}), http.MethodGet, "/api/customer/cart/"+uuid.NewString(), nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, decodeError(t, rec).Error.Message, "10.0.0.1")
}

func TestCustomerHandler_ListProductsOnlyShowsActive(t *testing.T) {
	products := &fakeProductService{product: &domain.Product{ID: uuid.New(), Name: "Tea", Price: decimal.NewFromInt(3), IsActive: true}}
	router := newCustomerRouter(&fakeCartService{}, products)

	rec := doRequest(t, router, http.MethodGet, "/api/customer/products?q=tea&page=2&page_size=500&sort_by=price&sort_order=desc", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.True(t, products.gotFilter.ActiveOnly)
	require.Equal(t, "tea", products.gotFilter.Query)
	require.Equal(t, 2, products.gotFilter.Page)
	require.Equal(t, 20, products.gotFilter.PageSize)
	require.Equal(t, "price", products.gotFilter.SortBy)

	var resp ProductListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 1, resp.Total)

	rec = doRequest(t, router, http.MethodGet, "/api/customer/products/"+products.product.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, products.gotActive)
}

func TestProperty_NonPositiveQuantitiesAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("add and update with quantity < 1 return 400 without reaching the service", prop.ForAll(
		func(quantity int, update bool) bool {
			carts := &fakeCartService{cart: sampleCart()}
			router := newCustomerRouter(carts, &fakeProductService{})
			base := "/api/customer/cart/" + carts.cart.ID.String() + "/items"

			var rec *httptest.ResponseRecorder
			if update {
				rec = doRequest(t, router, http.MethodPut, base+"/"+uuid.NewString(), UpdateQuantityRequest{Quantity: quantity})
			} else {
				rec = doRequest(t, router, http.MethodPost, base, AddItemRequest{ProductID: uuid.NewString(), Quantity: quantity})
			}

			return rec.Code == http.StatusBadRequest && len(carts.calls) == 0
		},
		gen.IntRange(-1000, 0),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
