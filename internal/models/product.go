package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductBasePath is the path under which a single product is served.
const ProductBasePath = "/api/product/"

// Product represents a catalog item in the store.
type Product struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string    `json:"name" gorm:"not null"`
	Description   string    `json:"description" gorm:"type:text"`
	CategoryID    string    `json:"categoryId" gorm:"index;not null"`
	Category      *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;references:ID"`
	Price         float64   `json:"price" gorm:"not null"`
	NumberInStock float64   `json:"numberInStock" gorm:"not null"`
	ProductImage  string    `json:"productImage" gorm:"not null"`
	ImageName     string    `json:"imageName,omitempty"`
	Version       int       `json:"version" gorm:"not null;default:1"`
	URL           string    `json:"url" gorm:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ResourceURL is the address of the product detail endpoint.
func (p *Product) ResourceURL() string {
	return ProductBasePath + p.ID
}

// AfterFind fills the derived URL of every loaded product.
func (p *Product) AfterFind(tx *gorm.DB) error {
	p.URL = p.ResourceURL()
	return nil
}

// AfterCreate fills the derived URL once the id is known.
func (p *Product) AfterCreate(tx *gorm.DB) error {
	p.URL = p.ResourceURL()
	return nil
}
