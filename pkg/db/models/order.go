package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zaika-foods/zaika-backend/pkg/enums"
	"github.com/zaika-foods/zaika-backend/pkg/types"
)

// Order is a placed order with its pricing snapshot frozen at placement time.
type Order struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber    string              `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	CustomerRef    string              `gorm:"column:customer_ref;not null;index:ix_orders_customer_ref"`
	ContactName    string              `gorm:"column:contact_name;not null"`
	ContactEmail   string              `gorm:"column:contact_email;not null"`
	ContactPhone   string              `gorm:"column:contact_phone;not null"`
	Address        types.Address       `gorm:"column:address;type:jsonb;serializer:json"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;not null"`
	PaymentStatus  enums.PaymentStatus `gorm:"column:payment_status;not null;default:'unpaid'"`
	Status         enums.OrderStatus   `gorm:"column:status;not null;default:'pending';index:ix_orders_status"`
	GatewayOrderID *string             `gorm:"column:gateway_order_id"`
	CouponCode     *string             `gorm:"column:coupon_code"`
	Subtotal       decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax            decimal.Decimal     `gorm:"column:tax;type:numeric(12,2);not null"`
	DeliveryFee    decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	CODFee         decimal.Decimal     `gorm:"column:cod_fee;type:numeric(12,2);not null;default:0"`
	Discount       decimal.Decimal     `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Total          decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	Items          []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PlacedAt       time.Time           `gorm:"column:placed_at;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is one frozen product line on a placed order.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index:ix_order_items_order"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
