package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mateoherrera/threadline-backend/pkg/enums"
)

// Product represents a catalog listing. StockStatus is derived; call
// Normalize before every save so it stays consistent with the quantity and
// threshold.
type Product struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID        *uuid.UUID        `gorm:"column:category_id;type:uuid"`
	Name              string            `gorm:"column:name;not null"`
	Slug              string            `gorm:"column:slug;not null;uniqueIndex"`
	Description       string            `gorm:"column:description;not null;default:''"`
	PriceCents        int               `gorm:"column:price_cents;not null"`
	SalePriceCents    *int              `gorm:"column:sale_price_cents"`
	StockQuantity     int               `gorm:"column:stock_quantity;not null;default:0"`
	LowStockThreshold int               `gorm:"column:low_stock_threshold;not null;default:5"`
	StockStatus       enums.StockStatus `gorm:"column:stock_status;type:text;not null;default:'out_of_stock'"`
	ImageURL          *string           `gorm:"column:image_url"`
	Sizes             pq.StringArray    `gorm:"column:sizes;type:text[]"`
	Colors            pq.StringArray    `gorm:"column:colors;type:text[]"`
	IsActive          bool              `gorm:"column:is_active;not null;default:true"`
	IsFeatured        bool              `gorm:"column:is_featured;not null;default:false"`
	Category          *Category         `gorm:"foreignKey:CategoryID"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OnSale reports whether a valid sale price undercuts the list price.
func (p *Product) OnSale() bool {
	return p.SalePriceCents != nil && *p.SalePriceCents > 0 && *p.SalePriceCents < p.PriceCents
}

// EffectivePriceCents returns the sale price when on sale, else the list price.
func (p *Product) EffectivePriceCents() int {
	if p.OnSale() {
		return *p.SalePriceCents
	}
	return p.PriceCents
}

// Normalize recomputes the derived fields. It must run before every persist.
func (p *Product) Normalize() {
	if p.LowStockThreshold < 0 {
		p.LowStockThreshold = 0
	}
	if p.SalePriceCents != nil && (*p.SalePriceCents <= 0 || *p.SalePriceCents >= p.PriceCents) {
		p.SalePriceCents = nil
	}
	p.StockStatus = enums.StockStatusFor(p.StockQuantity, p.LowStockThreshold)
}
