package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mateoherrera/threadline-backend/pkg/enums"
)

// Cart is the single mutable basket per user. Uniqueness of the active cart
// per user is enforced by a partial unique index plus find-or-create access.
type Cart struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	Status           enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	TotalItems       int              `gorm:"column:total_items;not null;default:0"`
	TotalAmountCents int              `gorm:"column:total_amount_cents;not null;default:0"`
	Items            []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// RecomputeTotals derives total_items and total_amount_cents from the item
// list. It must run before every persist that touched Items.
func (c *Cart) RecomputeTotals() {
	items := 0
	amount := 0
	for _, item := range c.Items {
		items += item.Quantity
		amount += item.UnitPriceCents * item.Quantity
	}
	c.TotalItems = items
	c.TotalAmountCents = amount
}

// FindItem returns the index of the line matching the (product, size, color)
// triple, or -1 when absent.
func (c *Cart) FindItem(productID uuid.UUID, size, color string) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.Size == size && item.Color == color {
			return i
		}
	}
	return -1
}
