package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartRow is one persisted line of an authenticated shopper's cart. Display
// attributes are not stored; they are joined from products on load.
type CartRow struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID       string    `gorm:"column:user_id;not null;index:idx_cart_rows_user"`
	LineItemID   string    `gorm:"column:line_item_id;not null"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	VariantIndex int       `gorm:"column:variant_index;not null"`
	Size         string    `gorm:"column:size;not null"`
	Quantity     int       `gorm:"column:quantity;not null"`
	Position     int       `gorm:"column:position;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *CartRow) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
