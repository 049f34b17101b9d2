package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"posledger/internal/domain"
)

func newTestRedisCache(t *testing.T) (*RedisReportCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisReportCache(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisReportCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedisCache(t)

	_, ok, err := c.Get(ctx, "report:missing")
	require.NoError(t, err)
	require.False(t, ok)

	report := &domain.SalesReport{
		StartDate:         "2024-05-01",
		EndDate:           "2024-05-01",
		TotalSales:        7,
		TotalTransactions: 1,
		Sales: []domain.ReportLine{
			{SaleID: 1, ProductName: "Coffee", Quantity: 2, EmployeeName: "Alice", TotalPrice: 7, Timestamp: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		},
	}
	require.NoError(t, c.Set(ctx, "report:a", report, time.Minute))

	got, ok, err := c.Get(ctx, "report:a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, report.TotalSales, got.TotalSales)
	require.Len(t, got.Sales, 1)
	require.Equal(t, "Coffee", got.Sales[0].ProductName)
}

func TestRedisReportCacheEntriesExpire(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	require.NoError(t, c.Set(ctx, "report:ttl", &domain.SalesReport{}, 30*time.Second))
	mr.FastForward(31 * time.Second)

	_, ok, err := c.Get(ctx, "report:ttl")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisReportCacheGenerationBumps(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedisCache(t)

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), gen)

	require.NoError(t, c.Bump(ctx))
	require.NoError(t, c.Bump(ctx))

	gen, err = c.Generation(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), gen)
}
