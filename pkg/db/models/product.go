package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a menu item customers can add to their cart.
type Product struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string          `gorm:"column:name;not null"`
	Description     *string         `gorm:"column:description"`
	CategoryID      uuid.UUID       `gorm:"column:category_id;type:uuid;not null"`
	Category        *Category       `gorm:"foreignKey:CategoryID"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	ImageURL        *string         `gorm:"column:image_url"`
	WeightGrams     *int            `gorm:"column:weight_grams"`
	Pieces          *int            `gorm:"column:pieces"`
	Tags            pq.StringArray  `gorm:"column:tags;type:text[]"`
	IsVeg           bool            `gorm:"column:is_veg;not null;default:true"`
	IsSpecial       bool            `gorm:"column:is_special;not null;default:false"`
	NewArrivalUntil *time.Time      `gorm:"column:new_arrival_until"`
	IsActive        bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
