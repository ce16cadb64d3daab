package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one (user, product) pair in a user's cart.
type CartLine struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int       `gorm:"column:quantity;not null;default:1"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Subtotal returns quantity × product price. A line without a loaded product
// contributes zero.
func (l CartLine) Subtotal() decimal.Decimal {
	if l.Product == nil {
		return decimal.Zero
	}
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
