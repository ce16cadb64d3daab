package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a catalog listing. Products are read-only to the cart.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Title     string          `gorm:"column:title;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Image     string          `gorm:"column:image;not null"`
	Image2    *string         `gorm:"column:image2"`
	Category  string          `gorm:"column:category;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
