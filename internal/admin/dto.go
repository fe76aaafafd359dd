package admin

import (
	"github.com/shopspring/decimal"

	"github.com/mateoherrera/threadline-backend/internal/orders"
	"github.com/mateoherrera/threadline-backend/internal/products"
)

// EntityCounts reports totals over the standard reporting windows.
type EntityCounts struct {
	Total     int64 `json:"total"`
	Today     int64 `json:"today"`
	ThisMonth int64 `json:"this_month"`
}

// RevenueStats sums delivered-order totals per window. TrendPercent is the
// month-over-month change.
type RevenueStats struct {
	TotalCents     int64           `json:"total_cents"`
	TodayCents     int64           `json:"today_cents"`
	ThisMonthCents int64           `json:"this_month_cents"`
	LastMonthCents int64           `json:"last_month_cents"`
	TrendPercent   decimal.Decimal `json:"trend_percent"`
}

// DashboardDTO is the read-only admin overview payload.
type DashboardDTO struct {
	Users        EntityCounts          `json:"users"`
	Products     EntityCounts          `json:"products"`
	Orders       EntityCounts          `json:"orders"`
	Revenue      RevenueStats          `json:"revenue"`
	LowStock     []products.ProductDTO `json:"low_stock_alerts"`
	RecentOrders []orders.OrderDTO     `json:"recent_orders"`
}
