package admin

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mateoherrera/threadline-backend/pkg/db/models"
)

func TestTrendPercent(t *testing.T) {
	cases := []struct {
		name    string
		current int64
		last    int64
		want    string
	}{
		{"growth", 15000, 10000, "50"},
		{"decline", 5000, 10000, "-50"},
		{"flat", 10000, 10000, "0"},
		{"noBaselineWithSales", 5000, 0, "100"},
		{"noBaselineNoSales", 0, 0, "0"},
		{"fractional", 10000, 30000, "-66.67"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := trendPercent(tc.current, tc.last)
			want, err := decimal.NewFromString(tc.want)
			if err != nil {
				t.Fatalf("bad case value: %v", err)
			}
			if !got.Equal(want) {
				t.Fatalf("trendPercent(%d, %d) = %s, want %s", tc.current, tc.last, got, tc.want)
			}
		})
	}
}

func TestDashboardAggregates(t *testing.T) {
	repo := &fakeStatsRepo{
		users:    counts{total: 120, today: 3, month: 25},
		products: counts{total: 40, today: 1, month: 4},
		orders:   counts{total: 300, today: 7, month: 60},
		revenue: map[string]int64{
			"all":       2_500_000,
			"today":     40_000,
			"thisMonth": 600_000,
			"lastMonth": 400_000,
		},
		recent: []models.Order{{OrderNumber: "ORD-20260314AAAA1111"}},
	}
	catalog := &fakeLowStock{rows: []models.Product{{Name: "Almost Gone Tee"}}}

	svc, err := NewService(repo, catalog)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	svc.(*service).now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }

	dto, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if dto.Users.Total != 120 || dto.Users.Today != 3 || dto.Users.ThisMonth != 25 {
		t.Fatalf("unexpected user counts: %+v", dto.Users)
	}
	if dto.Orders.ThisMonth != 60 {
		t.Fatalf("unexpected order counts: %+v", dto.Orders)
	}
	if dto.Revenue.ThisMonthCents != 600_000 || dto.Revenue.LastMonthCents != 400_000 {
		t.Fatalf("unexpected revenue windows: %+v", dto.Revenue)
	}
	if !dto.Revenue.TrendPercent.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected 50%% trend, got %s", dto.Revenue.TrendPercent)
	}
	if len(dto.LowStock) != 1 || dto.LowStock[0].Name != "Almost Gone Tee" {
		t.Fatalf("unexpected low stock list: %+v", dto.LowStock)
	}
	if len(dto.RecentOrders) != 1 {
		t.Fatalf("expected one recent order, got %d", len(dto.RecentOrders))
	}

	// Window boundaries derived from the pinned clock.
	if repo.lastDayStart == nil || !repo.lastDayStart.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected day window start: %v", repo.lastDayStart)
	}
	if repo.lastMonthFrom == nil || !repo.lastMonthFrom.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected last month window start: %v", repo.lastMonthFrom)
	}
}

type counts struct {
	total, today, month int64
}

func (c counts) pick(since *time.Time, dayStart time.Time) int64 {
	if since == nil {
		return c.total
	}
	if since.Equal(dayStart) {
		return c.today
	}
	return c.month
}

type fakeStatsRepo struct {
	users    counts
	products counts
	orders   counts
	revenue  map[string]int64
	recent   []models.Order

	lastDayStart  *time.Time
	lastMonthFrom *time.Time
}

var fakeDayStart = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func (r *fakeStatsRepo) CountUsersSince(_ context.Context, since *time.Time) (int64, error) {
	if since != nil && since.Equal(fakeDayStart) {
		r.lastDayStart = since
	}
	return r.users.pick(since, fakeDayStart), nil
}

func (r *fakeStatsRepo) CountProductsSince(_ context.Context, since *time.Time) (int64, error) {
	return r.products.pick(since, fakeDayStart), nil
}

func (r *fakeStatsRepo) CountOrdersSince(_ context.Context, since *time.Time) (int64, error) {
	return r.orders.pick(since, fakeDayStart), nil
}

func (r *fakeStatsRepo) RevenueCentsBetween(_ context.Context, from, to *time.Time) (int64, error) {
	switch {
	case from == nil && to == nil:
		return r.revenue["all"], nil
	case to == nil && from.Equal(fakeDayStart):
		return r.revenue["today"], nil
	case to == nil:
		return r.revenue["thisMonth"], nil
	default:
		r.lastMonthFrom = from
		return r.revenue["lastMonth"], nil
	}
}

func (r *fakeStatsRepo) RecentOrders(_ context.Context, _ int) ([]models.Order, error) {
	return r.recent, nil
}

type fakeLowStock struct {
	rows []models.Product
}

func (f *fakeLowStock) ListLowStock(_ context.Context, _ int) ([]models.Product, error) {
	return f.rows, nil
}
