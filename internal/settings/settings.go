package settings

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Setting keys as stored in store_settings. The admin panel writes free-form
// text; everything here is coerced defensively on read.
const (
	KeyTaxRatePercent        = "tax_rate_percent"
	KeyDeliveryCharge        = "delivery_charge"
	KeyFreeDeliveryThreshold = "free_delivery_threshold"
	KeyMinOrderAmount        = "min_order_amount"
	KeyCODEnabled            = "cod_enabled"
	KeyCODCharge             = "cod_charge"
	KeyCODThreshold          = "cod_threshold"
	KeyCurrencySymbol        = "currency_symbol"
)

const (
	// DefaultMinOrderAmount applies when the row is missing or unparseable.
	DefaultMinOrderAmount = 300
	// DefaultCODThreshold applies when cod_threshold is unset or non-positive.
	DefaultCODThreshold = 10000
)

// Settings is the typed view of store_settings used by the pricing pipeline.
type Settings struct {
	TaxRatePercent        decimal.Decimal `json:"tax_rate_percent"`
	DeliveryCharge        decimal.Decimal `json:"delivery_charge"`
	FreeDeliveryThreshold decimal.Decimal `json:"free_delivery_threshold"`
	MinOrderAmount        decimal.Decimal `json:"min_order_amount"`
	CODEnabled            bool            `json:"cod_enabled"`
	CODCharge             decimal.Decimal `json:"cod_charge"`
	CODThreshold          decimal.Decimal `json:"cod_threshold"`
	CurrencySymbol        string          `json:"currency_symbol"`
}

// Defaults returns the settings used when no rows exist at all.
func Defaults() Settings {
	return Settings{
		TaxRatePercent:        decimal.Zero,
		DeliveryCharge:        decimal.Zero,
		FreeDeliveryThreshold: decimal.Zero,
		MinOrderAmount:        decimal.NewFromInt(DefaultMinOrderAmount),
		CODEnabled:            false,
		CODCharge:             decimal.Zero,
		CODThreshold:          decimal.NewFromInt(DefaultCODThreshold),
		CurrencySymbol:        "₹",
	}
}

// Parse converts raw store_settings rows into typed Settings. Missing and
// non-numeric values fall back to zero, except min_order_amount and
// cod_threshold which carry documented defaults.
func Parse(raw map[string]string) Settings {
	s := Settings{
		TaxRatePercent:        toDecimal(raw[KeyTaxRatePercent]),
		DeliveryCharge:        toDecimal(raw[KeyDeliveryCharge]),
		FreeDeliveryThreshold: toDecimal(raw[KeyFreeDeliveryThreshold]),
		CODEnabled:            toBool(raw[KeyCODEnabled]),
		CODCharge:             toDecimal(raw[KeyCODCharge]),
		CurrencySymbol:        strings.TrimSpace(raw[KeyCurrencySymbol]),
	}

	if v, ok := raw[KeyMinOrderAmount]; ok && isNumeric(v) {
		s.MinOrderAmount = toDecimal(v)
	} else {
		s.MinOrderAmount = decimal.NewFromInt(DefaultMinOrderAmount)
	}

	s.CODThreshold = toDecimal(raw[KeyCODThreshold])
	if s.CODThreshold.LessThanOrEqual(decimal.Zero) {
		s.CODThreshold = decimal.NewFromInt(DefaultCODThreshold)
	}

	if s.CurrencySymbol == "" {
		s.CurrencySymbol = "₹"
	}

	return s
}

// EffectiveCODThreshold resolves the threshold the COD fee rule uses.
func (s Settings) EffectiveCODThreshold() decimal.Decimal {
	if s.CODThreshold.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(DefaultCODThreshold)
	}
	return s.CODThreshold
}

func toDecimal(value string) decimal.Decimal {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toBool(value string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return parsed
}

func isNumeric(value string) bool {
	_, err := decimal.NewFromString(strings.TrimSpace(value))
	return err == nil
}
