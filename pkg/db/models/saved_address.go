package models

import (
	"time"

	"github.com/google/uuid"
)

// SavedAddress is one of a customer's stored delivery addresses. The service
// layer enforces a hard cap per customer.
type SavedAddress struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index:ix_saved_addresses_customer"`
	Label      string    `gorm:"column:label;not null;default:'home'"`
	PlotHouse  string    `gorm:"column:plot_house;not null"`
	Street     string    `gorm:"column:street;not null"`
	Landmark   *string   `gorm:"column:landmark"`
	City       string    `gorm:"column:city;not null"`
	State      string    `gorm:"column:state;not null"`
	Pincode    string    `gorm:"column:pincode;not null"`
	IsDefault  bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
