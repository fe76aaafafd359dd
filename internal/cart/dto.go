package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/mateoherrera/threadline-backend/pkg/db/models"
)

// CartItemDTO is one basket line in the cart payload.
type CartItemDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	ImageURL       *string   `json:"image_url,omitempty"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
	Size           string    `json:"size"`
	Color          string    `json:"color"`
	LineTotalCents int       `json:"line_total_cents"`
}

// CartDTO is the full basket payload.
type CartDTO struct {
	ID               uuid.UUID     `json:"id"`
	Status           string        `json:"status"`
	TotalItems       int           `json:"total_items"`
	TotalAmountCents int           `json:"total_amount_cents"`
	Items            []CartItemDTO `json:"items"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// FromModel maps a cart row and its lines into the API payload.
func FromModel(cart *models.Cart) *CartDTO {
	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Name:           item.Name,
			ImageURL:       item.ImageURL,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			Size:           item.Size,
			Color:          item.Color,
			LineTotalCents: item.UnitPriceCents * item.Quantity,
		})
	}
	return &CartDTO{
		ID:               cart.ID,
		Status:           cart.Status.String(),
		TotalItems:       cart.TotalItems,
		TotalAmountCents: cart.TotalAmountCents,
		Items:            items,
		UpdatedAt:        cart.UpdatedAt,
	}
}

// AddItemRequest adds a line or merges into an existing one.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
	Size      string    `json:"size" validate:"required"`
	Color     string    `json:"color" validate:"required"`
}

// UpdateItemRequest sets the quantity for an existing line. A quantity of
// zero or less removes the line.
type UpdateItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size" validate:"required"`
	Color     string    `json:"color" validate:"required"`
}
