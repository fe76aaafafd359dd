package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mateoherrera/threadline-backend/pkg/enums"
	"github.com/mateoherrera/threadline-backend/pkg/types"
)

// CODSurchargeCents is the fixed cash-on-delivery fee, applied exactly once
// when the order is created.
const CODSurchargeCents = 5000

// Order is the immutable record of a checkout. OrderNumber never changes
// after creation, StatusHistory only grows, and orders are cancelled by
// status rather than deleted.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string    `gorm:"column:order_number;not null;uniqueIndex"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`

	Items        []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingInfo types.ShippingInfo `gorm:"column:shipping_info;type:jsonb;not null"`

	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	TransactionID *string             `gorm:"column:transaction_id"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`

	SubtotalCents  int `gorm:"column:subtotal_cents;not null"`
	DiscountCents  int `gorm:"column:discount_cents;not null;default:0"`
	ShippingCents  int `gorm:"column:shipping_cents;not null;default:0"`
	CODChargeCents int `gorm:"column:cod_charge_cents;not null;default:0"`
	TotalCents     int `gorm:"column:total_cents;not null"`

	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	StatusHistory types.StatusHistory `gorm:"column:status_history;type:jsonb"`

	TrackingNumber    *string    `gorm:"column:tracking_number"`
	EstimatedDelivery *time.Time `gorm:"column:estimated_delivery"`
	DeliveredAt       *time.Time `gorm:"column:delivered_at"`
	CancelledAt       *time.Time `gorm:"column:cancelled_at"`
	CancelReason      *string    `gorm:"column:cancel_reason"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// RecomputeTotal restores the monetary invariant
// total = subtotal - discount + shipping + cod.
func (o *Order) RecomputeTotal() {
	o.TotalCents = o.SubtotalCents - o.DiscountCents + o.ShippingCents + o.CODChargeCents
}

// TotalConsistent reports whether the stored total satisfies the invariant.
func (o *Order) TotalConsistent() bool {
	return o.TotalCents == o.SubtotalCents-o.DiscountCents+o.ShippingCents+o.CODChargeCents
}
