package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is owned by the external catalog. This service only reads it and
// mutates stock_quantity: decrement on reservation, increment on
// cancellation restock. Stock is touched exclusively under a row lock.
type Product struct {
	ID                 string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name               string         `gorm:"type:varchar(200);not null" json:"name"`
	Price              float64        `gorm:"type:decimal(10,2);not null" json:"price"`
	DiscountPercentage float64        `gorm:"type:decimal(5,2);default:0" json:"discount_percentage"`
	StockQuantity      int            `gorm:"not null;default:0" json:"stock_quantity"`
	IsActive           bool           `gorm:"default:true" json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}
