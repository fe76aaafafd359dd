package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/mateoherrera/threadline-backend/pkg/db/models"
	"github.com/mateoherrera/threadline-backend/pkg/pagination"
	"github.com/mateoherrera/threadline-backend/pkg/types"
)

// OrderItemDTO is one purchased line in the order payload.
type OrderItemDTO struct {
	ID             uuid.UUID     `json:"id"`
	ProductID      uuid.UUID     `json:"product_id"`
	Name           string        `json:"name"`
	UnitPriceCents int           `json:"unit_price_cents"`
	Quantity       int           `json:"quantity"`
	Size           string        `json:"size"`
	Color          string        `json:"color"`
	Customization  types.JSONMap `json:"customization,omitempty"`
	LineTotalCents int           `json:"line_total_cents"`
}

// OrderDTO is the full order payload.
type OrderDTO struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`

	Items        []OrderItemDTO     `json:"items"`
	ShippingInfo types.ShippingInfo `json:"shipping_info"`

	PaymentMethod string     `json:"payment_method"`
	PaymentStatus string     `json:"payment_status"`
	TransactionID *string    `json:"transaction_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`

	SubtotalCents  int `json:"subtotal_cents"`
	DiscountCents  int `json:"discount_cents"`
	ShippingCents  int `json:"shipping_cents"`
	CODChargeCents int `json:"cod_charge_cents"`
	TotalCents     int `json:"total_cents"`

	Status        string                     `json:"status"`
	StatusHistory []types.StatusHistoryEntry `json:"status_history"`

	TrackingNumber    *string    `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	CancelReason      *string    `json:"cancel_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromModel maps an order row and its lines into the API payload.
func FromModel(order *models.Order) *OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			Size:           item.Size,
			Color:          item.Color,
			Customization:  item.Customization,
			LineTotalCents: item.UnitPriceCents * item.Quantity,
		})
	}
	history := order.StatusHistory
	if history == nil {
		history = types.StatusHistory{}
	}
	return &OrderDTO{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		UserID:            order.UserID,
		Items:             items,
		ShippingInfo:      order.ShippingInfo,
		PaymentMethod:     order.PaymentMethod.String(),
		PaymentStatus:     order.PaymentStatus.String(),
		TransactionID:     order.TransactionID,
		PaidAt:            order.PaidAt,
		SubtotalCents:     order.SubtotalCents,
		DiscountCents:     order.DiscountCents,
		ShippingCents:     order.ShippingCents,
		CODChargeCents:    order.CODChargeCents,
		TotalCents:        order.TotalCents,
		Status:            order.Status.String(),
		StatusHistory:     history,
		TrackingNumber:    order.TrackingNumber,
		EstimatedDelivery: order.EstimatedDelivery,
		DeliveredAt:       order.DeliveredAt,
		CancelledAt:       order.CancelledAt,
		CancelReason:      order.CancelReason,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

// FromModels maps a slice of rows, never returning nil.
func FromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

// CreateOrderRequest converts the caller's active cart into an order.
// ClientTotalCents, when present, is cross-checked against the server-side
// recomputation.
type CreateOrderRequest struct {
	ShippingInfo     types.ShippingInfo `json:"shipping_info" validate:"required"`
	PaymentMethod    string             `json:"payment_method" validate:"required,oneof=card upi wallet cod"`
	DiscountCents    int                `json:"discount_cents" validate:"gte=0"`
	ClientTotalCents *int               `json:"client_total_cents"`
}

// CancelOrderRequest optionally carries the customer's reason.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// AdminStatusRequest moves an order through the fulfillment lifecycle.
// Override bypasses the transition table for administrative corrections.
type AdminStatusRequest struct {
	Status         string  `json:"status" validate:"required"`
	TrackingNumber *string `json:"tracking_number"`
	Note           string  `json:"note"`
	Override       bool    `json:"override"`
}

// ListQuery filters a customer's own orders.
type ListQuery struct {
	Status     string
	Pagination pagination.Params
}

// AdminListQuery filters the admin order listing.
type AdminListQuery struct {
	Status        string
	PaymentStatus string
	UserID        *uuid.UUID
	Pagination    pagination.Params
}

// ListResponse is the paged order listing payload.
type ListResponse struct {
	Orders []OrderDTO      `json:"orders"`
	Page   pagination.Page `json:"pagination"`
}
