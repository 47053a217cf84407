package models

import "time"

// StoreSetting is a loosely-typed key/value row edited from the admin panel.
// Values are TEXT on purpose; the settings service coerces them defensively.
type StoreSetting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the table name explicit.
func (StoreSetting) TableName() string {
	return "store_settings"
}
