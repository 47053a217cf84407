package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/zaika-foods/zaika-backend/internal/settings"
	"github.com/zaika-foods/zaika-backend/pkg/enums"
)

func storeSettings() settings.Settings {
	return settings.Parse(map[string]string{
		settings.KeyTaxRatePercent:        "5",
		settings.KeyDeliveryCharge:        "50",
		settings.KeyFreeDeliveryThreshold: "500",
		settings.KeyMinOrderAmount:        "300",
		settings.KeyCODEnabled:            "true",
		settings.KeyCODCharge:             "20",
		settings.KeyCODThreshold:          "10000",
	})
}

func items(amounts ...string) []LineItem {
	out := make([]LineItem, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, LineItem{
			Name:      "item",
			UnitPrice: decimal.RequireFromString(a),
			Quantity:  1,
		})
	}
	return out
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeBelowFreeDeliveryThreshold(t *testing.T) {
	t.Parallel()

	snap := Compute(items("400"), storeSettings(), nil, "")

	require.True(t, snap.Subtotal.Equal(dec("400")))
	require.True(t, snap.Tax.Equal(dec("20")))
	require.True(t, snap.DeliveryFee.Equal(dec("50")))
	require.False(t, snap.FreeDelivery)
	require.True(t, snap.Total.Equal(dec("470")))
}

func TestComputeFreeDeliveryAtThresholdInclusive(t *testing.T) {
	t.Parallel()

	snap := Compute(items("500"), storeSettings(), nil, "")
	require.True(t, snap.DeliveryFee.IsZero())
	require.True(t, snap.FreeDelivery)
}

func TestComputeAboveThreshold(t *testing.T) {
	t.Parallel()

	snap := Compute(items("550"), storeSettings(), nil, "")

	require.True(t, snap.Tax.Equal(dec("27.5")))
	require.True(t, snap.DeliveryFee.IsZero())
	require.True(t, snap.Total.Equal(dec("577.5")))
}

func TestComputePercentageCoupon(t *testing.T) {
	t.Parallel()

	coupon := &AppliedCoupon{Code: "SAVE10", Type: enums.DiscountTypePercentage, Value: dec("10")}
	snap := Compute(items("550"), storeSettings(), coupon, "")

	require.True(t, snap.Discount.Equal(dec("55")))
	require.Equal(t, "SAVE10", snap.CouponCode)
	require.True(t, snap.Total.Equal(dec("522.5")))
}

func TestComputeFixedCoupon(t *testing.T) {
	t.Parallel()

	coupon := &AppliedCoupon{Code: "FLAT100", Type: enums.DiscountTypeFixed, Value: dec("100")}
	snap := Compute(items("550"), storeSettings(), coupon, "")

	require.True(t, snap.Discount.Equal(dec("100")))
	require.True(t, snap.Total.Equal(dec("477.5")))
}

func TestComputeDiscountClampedToPayable(t *testing.T) {
	t.Parallel()

	coupon := &AppliedCoupon{Code: "MEGA", Type: enums.DiscountTypeFixed, Value: dec("10000")}
	snap := Compute(items("400"), storeSettings(), coupon, "")

	// subtotal 400 + tax 20 + delivery 50 = 470, discount clamps there.
	require.True(t, snap.Discount.Equal(dec("470")))
	require.True(t, snap.Total.IsZero())
}

func TestComputeCODFee(t *testing.T) {
	t.Parallel()

	coupon := &AppliedCoupon{Code: "SAVE10", Type: enums.DiscountTypePercentage, Value: dec("10")}
	snap := Compute(items("550"), storeSettings(), coupon, enums.PaymentMethodCOD)

	require.True(t, snap.CODFee.Equal(dec("20")))
	require.True(t, snap.Total.Equal(dec("542.5")))
}

func TestComputeNoCODFeeWhenDisabled(t *testing.T) {
	t.Parallel()

	s := storeSettings()
	s.CODEnabled = false
	snap := Compute(items("550"), s, nil, enums.PaymentMethodCOD)

	require.True(t, snap.CODFee.IsZero())
	require.True(t, snap.Total.Equal(dec("577.5")))
}

func TestComputeNoCODFeeAboveThreshold(t *testing.T) {
	t.Parallel()

	s := storeSettings()
	s.CODThreshold = dec("500")
	snap := Compute(items("550"), s, nil, enums.PaymentMethodCOD)

	// payable 577.5 exceeds the 500 threshold, so no fee is added.
	require.True(t, snap.CODFee.IsZero())
}

func TestComputeOnlineNeverAddsCODFee(t *testing.T) {
	t.Parallel()

	snap := Compute(items("550"), storeSettings(), nil, enums.PaymentMethodOnline)
	require.True(t, snap.CODFee.IsZero())
}

func TestComputeEmptyCart(t *testing.T) {
	t.Parallel()

	snap := Compute(nil, storeSettings(), nil, "")
	require.True(t, snap.Subtotal.IsZero())
	require.True(t, snap.Tax.IsZero())
	// No delivery charge on an empty cart.
	require.True(t, snap.DeliveryFee.IsZero())
	require.True(t, snap.Total.IsZero())
}

func TestLineTotalMultipliesQuantity(t *testing.T) {
	t.Parallel()

	li := LineItem{UnitPrice: dec("120"), Quantity: 3}
	require.True(t, li.LineTotal().Equal(dec("360")))
}

func TestMinOrder(t *testing.T) {
	t.Parallel()

	s := storeSettings()

	below := MinOrder(dec("250"), s)
	require.False(t, below.Met)
	require.True(t, below.Shortfall.Equal(dec("50")))

	exact := MinOrder(dec("300"), s)
	require.True(t, exact.Met)
	require.True(t, exact.Shortfall.IsZero())

	above := MinOrder(dec("900"), s)
	require.True(t, above.Met)
	require.True(t, above.Shortfall.IsZero())
}

func TestCODAvailable(t *testing.T) {
	t.Parallel()

	s := storeSettings()
	require.True(t, CODAvailable(dec("9999"), s))
	require.True(t, CODAvailable(dec("10000"), s))
	require.False(t, CODAvailable(dec("10000.01"), s))

	s.CODEnabled = false
	require.False(t, CODAvailable(dec("100"), s))

	s = storeSettings()
	s.CODThreshold = decimal.Zero
	// Unset threshold falls back to the documented default.
	require.True(t, CODAvailable(dec("9000"), s))
}

func requireSameSnapshot(t *testing.T, want, got Snapshot) {
	t.Helper()
	require.True(t, got.Subtotal.Equal(want.Subtotal))
	require.True(t, got.Tax.Equal(want.Tax))
	require.True(t, got.DeliveryFee.Equal(want.DeliveryFee))
	require.Equal(t, want.FreeDelivery, got.FreeDelivery)
	require.True(t, got.CODFee.Equal(want.CODFee))
	require.True(t, got.Discount.Equal(want.Discount))
	require.Equal(t, want.CouponCode, got.CouponCode)
	require.True(t, got.Total.Equal(want.Total))
}

func TestComputePureAndOrderIndependent(t *testing.T) {
	t.Parallel()

	lines := []LineItem{
		{Name: "laddu", UnitPrice: dec("120"), Quantity: 2},
		{Name: "samosa", UnitPrice: dec("35.50"), Quantity: 3},
		{Name: "thali", UnitPrice: dec("249"), Quantity: 1},
	}
	coupon := &AppliedCoupon{Code: "SAVE10", Type: enums.DiscountTypePercentage, Value: dec("10")}

	first := Compute(lines, storeSettings(), coupon, enums.PaymentMethodCOD)
	second := Compute(lines, storeSettings(), coupon, enums.PaymentMethodCOD)
	requireSameSnapshot(t, first, second)

	shuffled := []LineItem{lines[2], lines[0], lines[1]}
	requireSameSnapshot(t, first, Compute(shuffled, storeSettings(), coupon, enums.PaymentMethodCOD))

	reversed := []LineItem{lines[2], lines[1], lines[0]}
	requireSameSnapshot(t, first, Compute(reversed, storeSettings(), coupon, enums.PaymentMethodCOD))
}

func TestComputeTaxRounding(t *testing.T) {
	t.Parallel()

	s := storeSettings()
	snap := Compute(items("333"), s, nil, "")
	// 333 * 5% = 16.65
	require.True(t, snap.Tax.Equal(dec("16.65")))
}
