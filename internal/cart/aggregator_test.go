package cart

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"checkout-api/internal/domain"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func product(price string, stock int) domain.Product {
	return domain.Product{
		ID:       uuid.New(),
		Name:     "Widget",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "expected %s, got %s", want, got)
}

func TestNew(t *testing.T) {
	c := New(uuid.New(), now)
	require.Empty(t, c.Items)
	require.True(t, c.TotalAmount.IsZero())
	require.Equal(t, now, c.CreatedAt)
	require.Equal(t, now, c.UpdatedAt)
}

func TestAddItem(t *testing.T) {
	p := product("10.00", 5)
	c := New(uuid.New(), now)

	c, p, err := AddItem(c, p, 3, uuid.New(), now)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	requireDecimal(t, "30.00", c.Items[0].TotalPrice)
	requireDecimal(t, "30.00", c.TotalAmount)
	require.Equal(t, 2, p.Stock)
	require.Equal(t, c.ID, c.Items[0].CartID)
}

func TestAddItem_ExistingProductGrowsLineAndRefreshesPrice(t *testing.T) {
	p := product("10.00", 10)
	c := New(uuid.New(), now)

	c, p, err := AddItem(c, p, 2, uuid.New(), now)
	require.NoError(t, err)
	firstID := c.Items[0].ID

	p.Price = decimal.RequireFromString("12.00")
	later := now.Add(time.Minute)
	c, p, err = AddItem(c, p, 1, uuid.New(), later)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	require.Equal(t, firstID, c.Items[0].ID)
	require.Equal(t, 3, c.Items[0].Quantity)
	requireDecimal(t, "12.00", c.Items[0].UnitPrice)
	requireDecimal(t, "36.00", c.TotalAmount)
	require.Equal(t, 7, p.Stock)
	require.Equal(t, later, c.UpdatedAt)
}

func TestAddItem_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		product domain.Product
		qty     int
		wantErr error
	}{
		{name: "zero quantity", product: product("1.00", 5), qty: 0, wantErr: domain.ErrInvalidArgument},
		{name: "negative quantity", product: product("1.00", 5), qty: -2, wantErr: domain.ErrInvalidArgument},
		{name: "not enough stock", product: product("1.00", 2), qty: 3, wantErr: domain.ErrInsufficientStock},
		{name: "inactive product", product: func() domain.Product {
			p := product("1.00", 5)
			p.IsActive = false
			return p
		}(), qty: 1, wantErr: domain.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(uuid.New(), now)
			gotCart, gotProduct, err := AddItem(c, tt.product, tt.qty, uuid.New(), now)
			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, c, gotCart)
			require.Equal(t, tt.product, gotProduct)
		})
	}
}

func TestUpdateItemQuantity(t *testing.T) {
	p := product("10.00", 5)
	c, p, err := AddItem(New(uuid.New(), now), p, 3, uuid.New(), now)
	require.NoError(t, err)
	itemID := c.Items[0].ID

	t.Run("growing past stock fails without mutation", func(t *testing.T) {
		gotCart, gotProduct, err := UpdateItemQuantity(c, p, itemID, 10, now)
		require.ErrorIs(t, err, domain.ErrInsufficientStock)
		require.Equal(t, 2, gotProduct.Stock)
		require.Equal(t, 3, gotCart.Items[0].Quantity)
		require.Equal(t, c, gotCart)
	})

	t.Run("growing within stock reserves the difference", func(t *testing.T) {
		gotCart, gotProduct, err := UpdateItemQuantity(c, p, itemID, 5, now)
		require.NoError(t, err)
		require.Equal(t, 0, gotProduct.Stock)
		require.Equal(t, 5, gotCart.Items[0].Quantity)
		requireDecimal(t, "50.00", gotCart.TotalAmount)
	})

	t.Run("shrinking releases the difference", func(t *testing.T) {
		gotCart, gotProduct, err := UpdateItemQuantity(c, p, itemID, 1, now)
		require.NoError(t, err)
		require.Equal(t, 4, gotProduct.Stock)
		requireDecimal(t, "10.00", gotCart.TotalAmount)
	})

	t.Run("unknown line", func(t *testing.T) {
		_, _, err := UpdateItemQuantity(c, p, uuid.New(), 1, now)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		_, _, err := UpdateItemQuantity(c, p, itemID, 0, now)
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("wrong product", func(t *testing.T) {
		_, _, err := UpdateItemQuantity(c, product("1.00", 1), itemID, 1, now)
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestRemoveItem(t *testing.T) {
	p := product("10.00", 5)
	other := product("2.50", 5)
	c, p, err := AddItem(New(uuid.New(), now), p, 3, uuid.New(), now)
	require.NoError(t, err)
	c, _, err = AddItem(c, other, 2, uuid.New(), now)
	require.NoError(t, err)
	requireDecimal(t, "35.00", c.TotalAmount)

	gotCart, gotProduct, err := RemoveItem(c, p, c.Items[0].ID, now)
	require.NoError(t, err)
	require.Len(t, gotCart.Items, 1)
	require.Equal(t, other.ID, gotCart.Items[0].ProductID)
	requireDecimal(t, "5.00", gotCart.TotalAmount)
	require.Equal(t, 5, gotProduct.Stock)
	require.Len(t, c.Items, 2, "input cart must not change")

	_, _, err = RemoveItem(c, p, uuid.New(), now)
	require.ErrorIs(t, err, domain.ErrCartItemNotFound)
}

func TestReleaseAll(t *testing.T) {
	a := product("1.00", 10)
	b := product("1.00", 10)
	c, a, _ := AddItem(New(uuid.New(), now), a, 4, uuid.New(), now)
	c, b, _ = AddItem(c, b, 6, uuid.New(), now)
	require.Equal(t, 10, TotalQuantity(c))

	released, err := ReleaseAll(c, map[uuid.UUID]domain.Product{a.ID: a, b.ID: b})
	require.NoError(t, err)
	require.Equal(t, 10, released[a.ID].Stock)
	require.Equal(t, 10, released[b.ID].Stock)

	_, err = ReleaseAll(c, map[uuid.UUID]domain.Product{a.ID: a})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProperty_StockIsConserved(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("adding then removing a line restores product stock", prop.ForAll(
		func(stock int, qty int) bool {
			p := product("3.99", stock)
			c, reserved, err := AddItem(New(uuid.New(), now), p, qty, uuid.New(), now)
			if qty > stock {
				return err != nil && reserved.Stock == stock && len(c.Items) == 0
			}
			if err != nil {
				return false
			}
			c, restored, err := RemoveItem(c, reserved, c.Items[0].ID, now)
			if err != nil {
				return false
			}
			return restored.Stock == stock && len(c.Items) == 0 && c.TotalAmount.IsZero()
		},
		gen.IntRange(0, 50),
		gen.IntRange(1, 60),
	))

	properties.Property("quantity updates move stock by exactly the difference", prop.ForAll(
		func(stock int, first int, second int) bool {
			p := product("1.25", stock+first)
			c, p, err := AddItem(New(uuid.New(), now), p, first, uuid.New(), now)
			if err != nil {
				return false
			}
			c2, p2, err := UpdateItemQuantity(c, p, c.Items[0].ID, second, now)
			if second-first > p.Stock {
				return err != nil && p2.Stock == p.Stock && c2.Items[0].Quantity == first
			}
			if err != nil {
				return false
			}
			return p2.Stock+c2.Items[0].Quantity == stock+first
		},
		gen.IntRange(0, 20),
		gen.IntRange(1, 20),
		gen.IntRange(1, 40),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
