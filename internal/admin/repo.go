package admin

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mateoherrera/threadline-backend/pkg/db/models"
	"github.com/mateoherrera/threadline-backend/pkg/enums"
)

// Repository runs the read-only aggregate queries behind the dashboard.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CountUsersSince counts users created at or after since; a nil since counts
// everything.
func (r *Repository) CountUsersSince(ctx context.Context, since *time.Time) (int64, error) {
	return r.countSince(ctx, &models.User{}, since)
}

// CountProductsSince counts products created at or after since.
func (r *Repository) CountProductsSince(ctx context.Context, since *time.Time) (int64, error) {
	return r.countSince(ctx, &models.Product{}, since)
}

// CountOrdersSince counts orders created at or after since.
func (r *Repository) CountOrdersSince(ctx context.Context, since *time.Time) (int64, error) {
	return r.countSince(ctx, &models.Order{}, since)
}

func (r *Repository) countSince(ctx context.Context, model any, since *time.Time) (int64, error) {
	qb := r.db.WithContext(ctx).Model(model)
	if since != nil {
		qb = qb.Where("created_at >= ?", *since)
	}
	var total int64
	err := qb.Count(&total).Error
	return total, err
}

// RevenueCentsBetween sums delivered-order totals created inside the window.
// Nil bounds leave that side open.
func (r *Repository) RevenueCentsBetween(ctx context.Context, from, to *time.Time) (int64, error) {
	qb := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ?", enums.OrderStatusDelivered)
	if from != nil {
		qb = qb.Where("created_at >= ?", *from)
	}
	if to != nil {
		qb = qb.Where("created_at < ?", *to)
	}
	var total *int64
	if err := qb.Select("SUM(total_cents)").Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// RecentOrders returns the newest orders with their lines.
func (r *Repository) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}
