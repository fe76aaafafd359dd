package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mateoherrera/threadline-backend/pkg/types"
)

// Design is a customer-saved customization that can be attached to a cart
// line or order item later.
type Design struct {
	ID         uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID     `gorm:"column:user_id;type:uuid;not null;index"`
	ProductID  *uuid.UUID    `gorm:"column:product_id;type:uuid"`
	Name       string        `gorm:"column:name;not null"`
	Payload    types.JSONMap `gorm:"column:payload;type:jsonb"`
	PreviewURL *string       `gorm:"column:preview_url"`
	CreatedAt  time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
