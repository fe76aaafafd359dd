package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mateoherrera/threadline-backend/pkg/db/models"
)

// Repository defines persistence for checkout and order rows. The cart
// lookups live here too because checkout converts a cart and creates the
// order inside one transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, query ListQuery) ([]models.Order, int64, error)
	ListAll(ctx context.Context, query AdminListQuery) ([]models.Order, int64, error)
	Save(ctx context.Context, order *models.Order) error
	CompletePayment(ctx context.Context, order *models.Order) (int64, error)
	FailPayment(ctx context.Context, orderID uuid.UUID) error

	FindActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ConvertCart(ctx context.Context, cartID uuid.UUID) error
}
