package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/mateoherrera/threadline-backend/pkg/db/models"
	"github.com/mateoherrera/threadline-backend/pkg/pagination"
)

// CategoryRef is the slim category projection embedded in product payloads.
type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// ProductDTO is the public product payload.
type ProductDTO struct {
	ID                  uuid.UUID    `json:"id"`
	Name                string       `json:"name"`
	Slug                string       `json:"slug"`
	Description         string       `json:"description"`
	PriceCents          int          `json:"price_cents"`
	SalePriceCents      *int         `json:"sale_price_cents,omitempty"`
	OnSale              bool         `json:"on_sale"`
	EffectivePriceCents int          `json:"effective_price_cents"`
	StockQuantity       int          `json:"stock_quantity"`
	LowStockThreshold   int          `json:"low_stock_threshold"`
	StockStatus         string       `json:"stock_status"`
	ImageURL            *string      `json:"image_url,omitempty"`
	Sizes               []string     `json:"sizes"`
	Colors              []string     `json:"colors"`
	IsActive            bool         `json:"is_active"`
	IsFeatured          bool         `json:"is_featured"`
	Category            *CategoryRef `json:"category,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// FromModel maps a product row into its API payload.
func FromModel(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:                  product.ID,
		Name:                product.Name,
		Slug:                product.Slug,
		Description:         product.Description,
		PriceCents:          product.PriceCents,
		SalePriceCents:      product.SalePriceCents,
		OnSale:              product.OnSale(),
		EffectivePriceCents: product.EffectivePriceCents(),
		StockQuantity:       product.StockQuantity,
		LowStockThreshold:   product.LowStockThreshold,
		StockStatus:         product.StockStatus.String(),
		ImageURL:            product.ImageURL,
		Sizes:               product.Sizes,
		Colors:              product.Colors,
		IsActive:            product.IsActive,
		IsFeatured:          product.IsFeatured,
		CreatedAt:           product.CreatedAt,
		UpdatedAt:           product.UpdatedAt,
	}
	if dto.Sizes == nil {
		dto.Sizes = []string{}
	}
	if dto.Colors == nil {
		dto.Colors = []string{}
	}
	if product.Category != nil {
		dto.Category = &CategoryRef{
			ID:   product.Category.ID,
			Name: product.Category.Name,
			Slug: product.Category.Slug,
		}
	}
	return dto
}

// FromModels maps a slice of rows, never returning nil.
func FromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

// ListFilters narrows the storefront and admin product listings.
type ListFilters struct {
	CategorySlug    string
	Featured        *bool
	OnSale          *bool
	Search          string
	IncludeInactive bool
}

// ListQuery bundles filters with pagination for the listing endpoint.
type ListQuery struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// ListResponse is the paged listing payload.
type ListResponse struct {
	Products []ProductDTO    `json:"products"`
	Page     pagination.Page `json:"pagination"`
}

// CreateProductRequest is the admin create payload. Slug is derived from the
// name when omitted.
type CreateProductRequest struct {
	Name              string     `json:"name" validate:"required,min=2"`
	Slug              string     `json:"slug" validate:"omitempty,min=2"`
	Description       string     `json:"description"`
	PriceCents        int        `json:"price_cents" validate:"required,gt=0"`
	SalePriceCents    *int       `json:"sale_price_cents" validate:"omitempty,gt=0"`
	CategoryID        *uuid.UUID `json:"category_id"`
	StockQuantity     int        `json:"stock_quantity" validate:"gte=0"`
	LowStockThreshold *int       `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	ImageURL          *string    `json:"image_url"`
	Sizes             []string   `json:"sizes"`
	Colors            []string   `json:"colors"`
	IsActive          *bool      `json:"is_active"`
	IsFeatured        bool       `json:"is_featured"`
}

// UpdateProductRequest carries a partial update; nil fields are left
// untouched.
type UpdateProductRequest struct {
	Name              *string    `json:"name" validate:"omitempty,min=2"`
	Slug              *string    `json:"slug" validate:"omitempty,min=2"`
	Description       *string    `json:"description"`
	PriceCents        *int       `json:"price_cents" validate:"omitempty,gt=0"`
	SalePriceCents    *int       `json:"sale_price_cents" validate:"omitempty,gte=0"`
	CategoryID        *uuid.UUID `json:"category_id"`
	StockQuantity     *int       `json:"stock_quantity" validate:"omitempty,gte=0"`
	LowStockThreshold *int       `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	ImageURL          *string    `json:"image_url"`
	Sizes             []string   `json:"sizes"`
	Colors            []string   `json:"colors"`
	IsActive          *bool      `json:"is_active"`
	IsFeatured        *bool      `json:"is_featured"`
}
