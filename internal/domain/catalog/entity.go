// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a catalog product
type Product struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Slug            string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Name            string         `gorm:"not null;size:255" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	Price           int64          `gorm:"not null" json:"price"` // Price in cents
	DiscountedPrice int64          `json:"discounted_price"`      // 0 means no discount
	Images          string         `gorm:"type:text" json:"images"` // Comma-separated URLs
	Rating          float64        `gorm:"default:0" json:"rating"`
	BestSeller      bool           `gorm:"default:false" json:"best_seller"`
	CategoryID      uint           `gorm:"not null;index" json:"category_id"`
	InStock         bool           `gorm:"default:true" json:"in_stock"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
}

// Category represents a product category
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Description string         `gorm:"size:500" json:"description"`
	Image       string         `gorm:"size:500" json:"image"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Products []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

// TableName overrides
func (Product) TableName() string  { return "products" }
func (Category) TableName() string { return "categories" }

// Business methods for Product

// EffectivePrice returns the price a buyer pays right now: the discounted
// price when one is set, the list price otherwise.
func (p *Product) EffectivePrice() int64 {
	if p.DiscountedPrice > 0 {
		return p.DiscountedPrice
	}
	return p.Price
}

// IsPurchasable reports whether the product can be added to a cart or
// converted into an order line at this moment.
func (p *Product) IsPurchasable() bool {
	return p.IsActive && p.InStock
}

// PrimaryImage returns the first image URL, or empty if none
func (p *Product) PrimaryImage() string {
	for i := 0; i < len(p.Images); i++ {
		if p.Images[i] == ',' {
			return p.Images[:i]
		}
	}
	return p.Images
}

// GetFormattedPrice returns the effective price as a float
func (p *Product) GetFormattedPrice() float64 {
	return float64(p.EffectivePrice()) / 100
}
