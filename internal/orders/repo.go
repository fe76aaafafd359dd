package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mateoherrera/threadline-backend/pkg/db/models"
	"github.com/mateoherrera/threadline-backend/pkg/enums"
	"github.com/mateoherrera/threadline-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an order repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// Create inserts the order row together with its line items.
func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads an order with its lines.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns a customer's orders, newest first.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, query ListQuery) ([]models.Order, int64, error) {
	qb := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	if query.Status != "" {
		qb = qb.Where("status = ?", query.Status)
	}
	return r.page(ctx, qb, query.Pagination)
}

// ListAll returns the admin order listing with optional filters.
func (r *repository) ListAll(ctx context.Context, query AdminListQuery) ([]models.Order, int64, error) {
	qb := r.db.WithContext(ctx).Model(&models.Order{})
	if query.Status != "" {
		qb = qb.Where("status = ?", query.Status)
	}
	if query.PaymentStatus != "" {
		qb = qb.Where("payment_status = ?", query.PaymentStatus)
	}
	if query.UserID != nil {
		qb = qb.Where("user_id = ?", *query.UserID)
	}
	return r.page(ctx, qb, query.Pagination)
}

func (r *repository) page(ctx context.Context, qb *gorm.DB, params pagination.Params) ([]models.Order, int64, error) {
	params = pagination.Normalize(params)

	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Order
	err := qb.
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Save persists the order columns without touching the line items.
func (r *repository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Save(order).
		Error
}

// CompletePayment records a successful charge. The predicate re-checks the
// payment status so a concurrent completion loses cleanly; callers must
// treat zero affected rows as already paid.
func (r *repository) CompletePayment(ctx context.Context, order *models.Order) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", order.ID, enums.PaymentStatusCompleted).
		Updates(map[string]any{
			"payment_status": order.PaymentStatus,
			"transaction_id": order.TransactionID,
			"paid_at":        order.PaidAt,
			"status":         order.Status,
			"status_history": order.StatusHistory,
		})
	return result.RowsAffected, result.Error
}

// FailPayment marks the charge failed. Orders that completed in the
// meantime are left alone.
func (r *repository) FailPayment(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", orderID, enums.PaymentStatusCompleted).
		Update("payment_status", enums.PaymentStatusFailed).
		Error
}

// FindActiveCart loads the user's active cart with its lines.
func (r *repository) FindActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&cart, "user_id = ? AND status = ?", userID, enums.CartStatusActive).
		Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// ConvertCart flips the cart to converted. The status predicate makes a
// double checkout lose the race; zero affected rows surfaces as not found.
func (r *repository) ConvertCart(ctx context.Context, cartID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusActive).
		Update("status", enums.CartStatusConverted)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
