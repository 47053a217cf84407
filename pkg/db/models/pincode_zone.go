package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PincodeZone marks a PIN code the kitchen delivers to.
type PincodeZone struct {
	Pincode               string           `gorm:"column:pincode;primaryKey"`
	ZoneName              string           `gorm:"column:zone_name;not null"`
	EstimatedDeliveryFee  *decimal.Decimal `gorm:"column:estimated_delivery_fee;type:numeric(12,2)"`
	EstimatedDeliveryTime *string          `gorm:"column:estimated_delivery_time"`
	IsServiceable         bool             `gorm:"column:is_serviceable;not null;default:true"`
	CreatedAt             time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
