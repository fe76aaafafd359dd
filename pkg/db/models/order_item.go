package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mateoherrera/threadline-backend/pkg/types"
)

// OrderItem is a purchased line with name and price snapshotted at order
// time.
type OrderItem struct {
	ID             uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID     `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID     `gorm:"column:product_id;type:uuid;not null"`
	Name           string        `gorm:"column:name;not null"`
	UnitPriceCents int           `gorm:"column:unit_price_cents;not null"`
	Quantity       int           `gorm:"column:quantity;not null"`
	Size           string        `gorm:"column:size;not null"`
	Color          string        `gorm:"column:color;not null"`
	Customization  types.JSONMap `gorm:"column:customization;type:jsonb"`
	CreatedAt      time.Time     `gorm:"column:created_at;autoCreateTime"`
}
