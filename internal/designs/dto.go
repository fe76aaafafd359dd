package designs

import (
	"time"

	"github.com/google/uuid"

	"github.com/mateoherrera/threadline-backend/pkg/db/models"
	"github.com/mateoherrera/threadline-backend/pkg/types"
)

// DesignDTO is the saved customization payload returned to its owner.
type DesignDTO struct {
	ID         uuid.UUID     `json:"id"`
	ProductID  *uuid.UUID    `json:"product_id,omitempty"`
	Name       string        `json:"name"`
	Payload    types.JSONMap `json:"payload"`
	PreviewURL *string       `json:"preview_url,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// FromModel maps a design row into its API payload.
func FromModel(design *models.Design) *DesignDTO {
	return &DesignDTO{
		ID:         design.ID,
		ProductID:  design.ProductID,
		Name:       design.Name,
		Payload:    design.Payload,
		PreviewURL: design.PreviewURL,
		CreatedAt:  design.CreatedAt,
		UpdatedAt:  design.UpdatedAt,
	}
}

// FromModels maps a slice of rows, never returning nil.
func FromModels(rows []models.Design) []DesignDTO {
	out := make([]DesignDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

// CreateDesignRequest is the payload for saving a new design.
type CreateDesignRequest struct {
	Name       string        `json:"name" validate:"required,min=1"`
	ProductID  *uuid.UUID    `json:"product_id"`
	Payload    types.JSONMap `json:"payload" validate:"required"`
	PreviewURL *string       `json:"preview_url"`
}

// UpdateDesignRequest carries a partial update; nil fields are left
// untouched.
type UpdateDesignRequest struct {
	Name       *string       `json:"name" validate:"omitempty,min=1"`
	ProductID  *uuid.UUID    `json:"product_id"`
	Payload    types.JSONMap `json:"payload"`
	PreviewURL *string       `json:"preview_url"`
}
