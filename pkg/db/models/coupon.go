package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/zaika-foods/zaika-backend/pkg/enums"
)

// Coupon is an admin-managed discount code.
type Coupon struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code             string             `gorm:"column:code;not null;uniqueIndex:ux_coupons_code"`
	DiscountType     enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountValue    decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MinOrderAmount   decimal.Decimal    `gorm:"column:min_order_amount;type:numeric(12,2);not null;default:0"`
	ExpiresAt        *time.Time         `gorm:"column:expires_at"`
	UsageLimit       *int               `gorm:"column:usage_limit"`
	PerCustomerLimit *int               `gorm:"column:per_customer_limit"`
	CategorySlugs    pq.StringArray     `gorm:"column:category_slugs;type:text[]"`
	IsActive         bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// CouponRedemption records one successful use of a coupon on a placed order.
type CouponRedemption struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CouponID    uuid.UUID `gorm:"column:coupon_id;type:uuid;not null;index:ix_coupon_redemptions_coupon"`
	CustomerRef string    `gorm:"column:customer_ref;not null;index:ix_coupon_redemptions_customer"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
