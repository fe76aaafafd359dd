package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mateoherrera/threadline-backend/internal/orders"
	"github.com/mateoherrera/threadline-backend/internal/products"
	"github.com/mateoherrera/threadline-backend/pkg/db/models"
	pkgerrors "github.com/mateoherrera/threadline-backend/pkg/errors"
)

const (
	lowStockLimit    = 10
	recentOrderLimit = 10
)

// Service exposes the read-only dashboard aggregate.
type Service interface {
	Dashboard(ctx context.Context) (*DashboardDTO, error)
}

type statsRepository interface {
	CountUsersSince(ctx context.Context, since *time.Time) (int64, error)
	CountProductsSince(ctx context.Context, since *time.Time) (int64, error)
	CountOrdersSince(ctx context.Context, since *time.Time) (int64, error)
	RevenueCentsBetween(ctx context.Context, from, to *time.Time) (int64, error)
	RecentOrders(ctx context.Context, limit int) ([]models.Order, error)
}

type lowStockLister interface {
	ListLowStock(ctx context.Context, limit int) ([]models.Product, error)
}

type service struct {
	repo    statsRepository
	catalog lowStockLister
	now     func() time.Time
}

// NewService builds the dashboard service.
func NewService(repo statsRepository, catalog lowStockLister) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stats repository is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("low stock lister is required")
	}
	return &service{
		repo:    repo,
		catalog: catalog,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Dashboard(ctx context.Context) (*DashboardDTO, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	users, err := s.counts(ctx, s.repo.CountUsersSince, dayStart, monthStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users")
	}
	productCounts, err := s.counts(ctx, s.repo.CountProductsSince, dayStart, monthStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	orderCounts, err := s.counts(ctx, s.repo.CountOrdersSince, dayStart, monthStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}

	revenue, err := s.revenue(ctx, dayStart, monthStart, lastMonthStart)
	if err != nil {
		return nil, err
	}

	lowStock, err := s.catalog.ListLowStock(ctx, lowStockLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	recent, err := s.repo.RecentOrders(ctx, recentOrderLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent orders")
	}

	return &DashboardDTO{
		Users:        users,
		Products:     productCounts,
		Orders:       orderCounts,
		Revenue:      *revenue,
		LowStock:     products.FromModels(lowStock),
		RecentOrders: orders.FromModels(recent),
	}, nil
}

func (s *service) counts(
	ctx context.Context,
	count func(context.Context, *time.Time) (int64, error),
	dayStart, monthStart time.Time,
) (EntityCounts, error) {
	total, err := count(ctx, nil)
	if err != nil {
		return EntityCounts{}, err
	}
	today, err := count(ctx, &dayStart)
	if err != nil {
		return EntityCounts{}, err
	}
	thisMonth, err := count(ctx, &monthStart)
	if err != nil {
		return EntityCounts{}, err
	}
	return EntityCounts{Total: total, Today: today, ThisMonth: thisMonth}, nil
}

func (s *service) revenue(ctx context.Context, dayStart, monthStart, lastMonthStart time.Time) (*RevenueStats, error) {
	total, err := s.repo.RevenueCentsBetween(ctx, nil, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue")
	}
	today, err := s.repo.RevenueCentsBetween(ctx, &dayStart, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue today")
	}
	thisMonth, err := s.repo.RevenueCentsBetween(ctx, &monthStart, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue this month")
	}
	lastMonth, err := s.repo.RevenueCentsBetween(ctx, &lastMonthStart, &monthStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue last month")
	}

	return &RevenueStats{
		TotalCents:     total,
		TodayCents:     today,
		ThisMonthCents: thisMonth,
		LastMonthCents: lastMonth,
		TrendPercent:   trendPercent(thisMonth, lastMonth),
	}, nil
}

// trendPercent is (current - last) / last expressed as a percentage. A month
// with no baseline counts as full growth when anything sold, and flat
// otherwise.
func trendPercent(currentCents, lastCents int64) decimal.Decimal {
	if lastCents == 0 {
		if currentCents == 0 {
			return decimal.Zero
		}
		return decimal.NewFromInt(100)
	}
	current := decimal.NewFromInt(currentCents)
	last := decimal.NewFromInt(lastCents)
	return current.Sub(last).
		Div(last).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}
