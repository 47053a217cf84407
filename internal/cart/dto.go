package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zaika-foods/zaika-backend/internal/pricing"
	"github.com/zaika-foods/zaika-backend/pkg/db/models"
)

// ItemView is one cart line as returned to the client.
type ItemView struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	LineTotal    decimal.Decimal `json:"line_total"`
	CategorySlug string          `json:"category_slug"`
}

// View is the full cart payload: lines, pricing breakdown, minimum-order
// progress and the coupon state. CouponNotice is set when a previously
// applied coupon was auto-cleared by the last mutation.
type View struct {
	Version      int64                  `json:"version"`
	Items        []ItemView             `json:"items"`
	Pricing      pricing.Snapshot       `json:"pricing"`
	MinOrder     pricing.MinOrderStatus `json:"min_order"`
	CouponCode   string                 `json:"coupon_code,omitempty"`
	CouponNotice string                 `json:"coupon_notice,omitempty"`
}

func itemViews(items []models.CartItem) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, item := range items {
		out = append(out, ItemView{
			ProductID:    item.ProductID,
			Name:         item.Name,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			LineTotal:    item.LineTotal,
			CategorySlug: item.CategorySlug,
		})
	}
	return out
}

func lineItems(items []models.CartItem) []pricing.LineItem {
	out := make([]pricing.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, pricing.LineItem{
			ProductID:    item.ProductID,
			Name:         item.Name,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			CategorySlug: item.CategorySlug,
		})
	}
	return out
}

func categorySlugs(items []models.CartItem) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.CategorySlug == "" {
			continue
		}
		if _, ok := seen[item.CategorySlug]; ok {
			continue
		}
		seen[item.CategorySlug] = struct{}{}
		out = append(out, item.CategorySlug)
	}
	return out
}
