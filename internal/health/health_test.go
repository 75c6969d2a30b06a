package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func serve(t *testing.T, h *Handler, path string) (int, Report) {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	return rec.Code, report
}

func ok(context.Context) error { return nil }

func count(n int) CountFunc {
	return func(context.Context) (int, error) { return n, nil }
}

func TestBasicHealthy(t *testing.T) {
	h := NewHandler(zap.NewNop())
	h.now = func() time.Time { return time.UnixMilli(1700000000000) }
	h.RegisterCheck("database", ok)
	h.RegisterTable("products", count(3))

	code, report := serve(t, h, "/health")

	require.Equal(t, http.StatusOK, code)
	require.Equal(t, StatusUp, report.Status)
	require.True(t, report.IsHealthy)
	require.Equal(t, int64(1700000000000), report.Timestamp)
	require.Contains(t, report.Components, "database")
	require.Contains(t, report.Components, "api")
	require.Contains(t, report.Components, "memory")
	require.NotContains(t, report.Components, "products_table")
	require.NotContains(t, report.Components, "system")
}

func TestBasicUnhealthy(t *testing.T) {
	h := NewHandler(zap.NewNop())
	h.RegisterCheck("database", ok)
	h.RegisterCheck("redis", func(context.Context) error { return errors.New("connection refused") })

	code, report := serve(t, h, "/health")

	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, StatusDown, report.Status)
	require.False(t, report.IsHealthy)
	require.Equal(t, StatusUp, report.Components["database"].Status)
	require.Equal(t, StatusDown, report.Components["redis"].Status)
	require.Equal(t, "connection refused", report.Components["redis"].Details)
}

func TestDetailReportsTableCounts(t *testing.T) {
	h := NewHandler(zap.NewNop())
	h.RegisterCheck("database", ok)
	h.RegisterTable("products", count(12))
	h.RegisterTable("cart_items", count(0))

	code, report := serve(t, h, "/health/detail")

	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, report.Components["products_table"].Count)
	require.Equal(t, 12, *report.Components["products_table"].Count)
	require.Equal(t, 0, *report.Components["cart_items_table"].Count)
	require.Contains(t, report.Components["system"].Info, "go_version")
}

func TestDetailTableFailureIsUnhealthy(t *testing.T) {
	h := NewHandler(zap.NewNop())
	h.RegisterCheck("database", ok)
	h.RegisterTable("discounts", func(context.Context) (int, error) {
		return 0, errors.New(`relation "discounts" does not exist`)
	})

	code, report := serve(t, h, "/health/detail")

	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, StatusDown, report.Components["discounts_table"].Status)
	require.Nil(t, report.Components["discounts_table"].Count)
}

func TestDetailSkipsTablesWhenDatabaseIsDown(t *testing.T) {
	counted := false
	h := NewHandler(zap.NewNop())
	h.RegisterCheck("database", func(context.Context) error { return errors.New("timeout") })
	h.RegisterTable("carts", func(context.Context) (int, error) {
		counted = true
		return 1, nil
	})

	code, report := serve(t, h, "/health/detail")

	require.Equal(t, http.StatusServiceUnavailable, code)
	require.False(t, counted)
	require.NotContains(t, report.Components, "carts_table")
}

func TestChecksRunWithDeadline(t *testing.T) {
	h := NewHandler(zap.NewNop())
	h.RegisterCheck("database", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		if !ok {
			return errors.New("no deadline")
		}
		return nil
	})

	code, _ := serve(t, h, "/health")
	require.Equal(t, http.StatusOK, code)
}
