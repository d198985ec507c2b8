package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductStatus represents the availability of a product on the terminal
type ProductStatus string

const (
	ProductAvailable  ProductStatus = "available"
	ProductLowStock   ProductStatus = "low_stock"
	ProductOutOfStock ProductStatus = "out_of_stock"
)

// Valid reports whether s is one of the known statuses
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductAvailable, ProductLowStock, ProductOutOfStock:
		return true
	}
	return false
}

// Category represents a product category on the sales terminal
type Category struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	DisplayOrder int       `gorm:"index" json:"order"`
	Count        int       `gorm:"-" json:"count"` // Recomputed from live products, never stored
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate assigns an id to new categories
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// VariantOption is a single selectable option of a variant group (e.g. size L)
type VariantOption struct {
	Name          string          `json:"name"`
	PriceModifier decimal.Decimal `json:"priceModifier"` // Can be negative
}

// VariantGroup groups mutually related options (e.g. Size, Topping)
type VariantGroup struct {
	Name    string          `json:"name"`
	Options []VariantOption `json:"options"`
}

// VariantGroups is stored as a JSON column on the product row
type VariantGroups []VariantGroup

// Scan implements sql.Scanner
func (v *VariantGroups) Scan(value interface{}) error {
	var data []byte
	switch val := value.(type) {
	case nil:
		*v = nil
		return nil
	case []byte:
		data = val
	case string:
		data = []byte(val)
	default:
		return fmt.Errorf("unsupported variant groups column type %T", value)
	}
	if len(data) == 0 {
		*v = nil
		return nil
	}
	return json.Unmarshal(data, v)
}

// Value implements driver.Valuer
func (v VariantGroups) Value() (driver.Value, error) {
	if len(v) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Product represents a product in the menu
type Product struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	Name          string          `gorm:"not null" json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CategoryID    string          `gorm:"index;size:36" json:"category"`
	Image         string          `gorm:"type:text" json:"image,omitempty"`
	SKU           string          `gorm:"index" json:"sku,omitempty"`
	Stock         *int            `json:"stock,omitempty"`
	Status        ProductStatus   `gorm:"default:available" json:"status"`
	VariantGroups VariantGroups   `gorm:"type:text" json:"variantGroups,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// BeforeCreate assigns an id to new products
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// ProductPatch carries a partial product update; nil fields are left untouched
type ProductPatch struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	CategoryID    *string          `json:"category,omitempty"`
	Image         *string          `json:"image,omitempty"`
	SKU           *string          `json:"sku,omitempty"`
	Stock         *int             `json:"stock,omitempty"`
	Status        *ProductStatus   `json:"status,omitempty"`
	VariantGroups *VariantGroups   `json:"variantGroups,omitempty"`
}

// Apply copies the set fields of the patch onto p
func (patch ProductPatch) Apply(p *Product) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.Stock != nil {
		stock := *patch.Stock
		p.Stock = &stock
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.VariantGroups != nil {
		p.VariantGroups = *patch.VariantGroups
	}
}
