package models

import "time"

type Product struct {
	ID            string     `bson:"_id" json:"id" gorm:"primaryKey;type:uuid"`
	Name          string     `bson:"name" json:"name"`
	NameAr        string     `bson:"name_ar" json:"name_ar"`
	Description   string     `bson:"description" json:"description"`
	DescriptionAr string     `bson:"description_ar" json:"description_ar"`
	Price         Money      `bson:"price" json:"price" gorm:"type:numeric(12,2);not null"`
	CategoryID    *string    `bson:"category_id" json:"category_id" gorm:"type:uuid;index"`
	Category      *Category  `bson:"-" json:"category,omitempty" gorm:"-"`
	StockQuantity int        `bson:"stock_quantity" json:"stock_quantity" gorm:"not null"`
	Images        StringList `bson:"images" json:"images" gorm:"type:jsonb"`
	IsActive      bool       `bson:"is_active" json:"is_active" gorm:"not null;index"`
	InStock       bool       `bson:"in_stock" json:"in_stock" gorm:"not null"`
	Tags          StringList `bson:"tags" json:"tags" gorm:"type:jsonb"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
}

// ProductSnapshot is the product view embedded in order items.
type ProductSnapshot struct {
	ID     string     `bson:"_id" json:"id"`
	NameAr string     `bson:"name_ar" json:"name_ar"`
	Price  Money      `bson:"price" json:"price"`
	Images StringList `bson:"images" json:"images"`
}

// Sort keys accepted by the catalog.
const (
	SortName      = "name"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortNewest    = "newest"
)

// ProductQuery is a normalized catalog request. Page is always >= 1 and
// Limit always positive by the time a store sees it.
type ProductQuery struct {
	Search      string
	CategoryIDs []string
	MinPrice    *Money
	MaxPrice    *Money
	InStockOnly bool
	SortBy      string
	Page        int
	Limit       int
}

func (q ProductQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type ProductPage struct {
	Products []Product `json:"products"`
	HasMore  bool      `json:"hasMore"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}
