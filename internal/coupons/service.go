package coupons

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zaika-foods/zaika-backend/internal/pricing"
	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
)

// CartView is the slice of cart state coupon eligibility depends on.
type CartView struct {
	Subtotal      decimal.Decimal
	CategorySlugs []string
}

// Service validates coupon codes against the current cart.
type Service struct {
	repo *Repository
	now  func() time.Time
}

// NewService constructs the coupon service.
func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &Service{repo: repo, now: time.Now}, nil
}

// Resolve validates the code for this customer and cart and returns the
// coupon in the form the pricing pipeline consumes. Ineligibility comes back
// as a coded validation error carrying the rejection reason.
func (s *Service) Resolve(ctx context.Context, code, customerRef string, cart CartView) (*pricing.AppliedCoupon, error) {
	applied, reason, err := s.evaluate(ctx, code, customerRef, cart)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return nil, Rejection(reason)
	}
	return applied, nil
}

// Recheck re-runs eligibility after a cart mutation. A non-empty reason means
// the coupon no longer qualifies and the caller must clear it; the error is
// only set for infrastructure failures.
func (s *Service) Recheck(ctx context.Context, code, customerRef string, cart CartView) (*pricing.AppliedCoupon, RejectionReason, error) {
	return s.evaluate(ctx, code, customerRef, cart)
}

func (s *Service) evaluate(ctx context.Context, code, customerRef string, cart CartView) (*pricing.AppliedCoupon, RejectionReason, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "coupon lookup failed")
	}
	if coupon == nil || !coupon.IsActive {
		return nil, ReasonNotFound, nil
	}

	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(s.now()) {
		return nil, ReasonExpired, nil
	}

	if cart.Subtotal.LessThan(coupon.MinOrderAmount) {
		return nil, ReasonMinOrderNotMet, nil
	}

	if coupon.UsageLimit != nil {
		total, err := s.repo.CountRedemptions(ctx, coupon.ID)
		if err != nil {
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "coupon usage lookup failed")
		}
		if total >= int64(*coupon.UsageLimit) {
			return nil, ReasonUsageLimitExceeded, nil
		}
	}

	if coupon.PerCustomerLimit != nil && customerRef != "" {
		used, err := s.repo.CountCustomerRedemptions(ctx, coupon.ID, customerRef)
		if err != nil {
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "coupon usage lookup failed")
		}
		if used >= int64(*coupon.PerCustomerLimit) {
			return nil, ReasonUsageLimitExceeded, nil
		}
	}

	if len(coupon.CategorySlugs) > 0 && !anyCategoryMatches(coupon.CategorySlugs, cart.CategorySlugs) {
		return nil, ReasonCategoryNotApplicable, nil
	}

	return &pricing.AppliedCoupon{
		Code:  coupon.Code,
		Type:  coupon.DiscountType,
		Value: coupon.DiscountValue,
	}, "", nil
}

// CouponByCode exposes the raw row for order placement, which needs the
// coupon id to record the redemption.
func (s *Service) CouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "coupon lookup failed")
	}
	if coupon == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return coupon, nil
}

func anyCategoryMatches(allowed []string, present []string) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, slug := range allowed {
		set[slug] = struct{}{}
	}
	for _, slug := range present {
		if _, ok := set[slug]; ok {
			return true
		}
	}
	return false
}
