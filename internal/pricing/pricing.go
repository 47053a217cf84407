package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zaika-foods/zaika-backend/internal/settings"
	"github.com/zaika-foods/zaika-backend/pkg/enums"
)

// LineItem is one cart or order line as the pricing pipeline sees it. Prices
// are the snapshot values captured when the item entered the cart, not the
// live product price.
type LineItem struct {
	ProductID    uuid.UUID
	Name         string
	UnitPrice    decimal.Decimal
	Quantity     int
	CategorySlug string
}

// LineTotal is the extended price of the line.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// AppliedCoupon is a coupon the coupon service has already resolved and
// validated. Pricing only turns it into a discount amount.
type AppliedCoupon struct {
	Code  string
	Type  enums.DiscountType
	Value decimal.Decimal
}

// Snapshot is the full pricing breakdown for a cart or an order.
type Snapshot struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	DeliveryFee  decimal.Decimal `json:"delivery_fee"`
	FreeDelivery bool            `json:"free_delivery"`
	CODFee       decimal.Decimal `json:"cod_fee"`
	Discount     decimal.Decimal `json:"discount"`
	CouponCode   string          `json:"coupon_code,omitempty"`
	Total        decimal.Decimal `json:"total"`
}

// MinOrderStatus reports progress toward the minimum order amount.
type MinOrderStatus struct {
	Met       bool            `json:"met"`
	Required  decimal.Decimal `json:"required"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// Subtotal sums the extended line prices.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range items {
		sum = sum.Add(li.LineTotal())
	}
	return sum
}

// Compute derives the full pricing snapshot from the cart lines, the store
// settings, an optional already-validated coupon and the chosen payment
// method. It is a pure function; callers pass enums.PaymentMethod("") while
// the method is not yet chosen.
func Compute(items []LineItem, s settings.Settings, coupon *AppliedCoupon, method enums.PaymentMethod) Snapshot {
	subtotal := Subtotal(items)

	tax := subtotal.Mul(s.TaxRatePercent).Div(decimal.NewFromInt(100)).Round(2)

	deliveryFee := s.DeliveryCharge
	freeDelivery := subtotal.GreaterThanOrEqual(s.FreeDeliveryThreshold)
	if freeDelivery || len(items) == 0 {
		deliveryFee = decimal.Zero
	}

	discount := decimal.Zero
	couponCode := ""
	if coupon != nil {
		couponCode = coupon.Code
		switch coupon.Type {
		case enums.DiscountTypePercentage:
			discount = subtotal.Mul(coupon.Value).Div(decimal.NewFromInt(100)).Round(2)
		case enums.DiscountTypeFixed:
			discount = coupon.Value
		}
		// Never discount below zero payable.
		payableBeforeDiscount := subtotal.Add(tax).Add(deliveryFee)
		if discount.GreaterThan(payableBeforeDiscount) {
			discount = payableBeforeDiscount
		}
		if discount.IsNegative() {
			discount = decimal.Zero
		}
	}

	total := subtotal.Add(tax).Add(deliveryFee).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	codFee := decimal.Zero
	if method == enums.PaymentMethodCOD && s.CODEnabled && total.LessThanOrEqual(s.EffectiveCODThreshold()) {
		codFee = s.CODCharge
		total = total.Add(codFee)
	}

	return Snapshot{
		Subtotal:     subtotal,
		Tax:          tax,
		DeliveryFee:  deliveryFee,
		FreeDelivery: freeDelivery,
		CODFee:       codFee,
		Discount:     discount,
		CouponCode:   couponCode,
		Total:        total,
	}
}

// MinOrder reports whether the subtotal clears the store minimum and how much
// is still missing. The shortfall never goes negative.
func MinOrder(subtotal decimal.Decimal, s settings.Settings) MinOrderStatus {
	required := s.MinOrderAmount
	shortfall := required.Sub(subtotal)
	if shortfall.IsNegative() {
		shortfall = decimal.Zero
	}
	return MinOrderStatus{
		Met:       subtotal.GreaterThanOrEqual(required),
		Required:  required,
		Shortfall: shortfall,
	}
}

// CODAvailable reports whether cash on delivery may be selected for the given
// payable amount (the total before any COD fee).
func CODAvailable(payable decimal.Decimal, s settings.Settings) bool {
	return s.CODEnabled && payable.LessThanOrEqual(s.EffectiveCODThreshold())
}
