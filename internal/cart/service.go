package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zaika-foods/zaika-backend/internal/coupons"
	"github.com/zaika-foods/zaika-backend/internal/pricing"
	"github.com/zaika-foods/zaika-backend/internal/settings"
	"github.com/zaika-foods/zaika-backend/pkg/db"
	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
	"github.com/zaika-foods/zaika-backend/pkg/logger"
)

type settingsProvider interface {
	Get(ctx context.Context) (settings.Settings, error)
}

type couponChecker interface {
	Resolve(ctx context.Context, code, customerRef string, cart coupons.CartView) (*pricing.AppliedCoupon, error)
	Recheck(ctx context.Context, code, customerRef string, cart coupons.CartView) (*pricing.AppliedCoupon, coupons.RejectionReason, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service owns all cart mutations. Every mutation recomputes the pricing
// snapshot, re-validates any applied coupon, and bumps the cart version in
// the same transaction.
type Service struct {
	repo     *Repository
	dbClient *db.Client
	settings settingsProvider
	coupons  couponChecker
	products productLoader
	logg     *logger.Logger
}

// NewService constructs the cart service.
func NewService(repo *Repository, dbClient *db.Client, sp settingsProvider, cc couponChecker, pl productLoader, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if sp == nil {
		return nil, fmt.Errorf("settings provider required")
	}
	if cc == nil {
		return nil, fmt.Errorf("coupon checker required")
	}
	if pl == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &Service{repo: repo, dbClient: dbClient, settings: sp, coupons: cc, products: pl, logg: logg}, nil
}

// Get returns the current cart. The snapshot is recomputed against live
// settings so a settings change between mutations never shows stale totals.
func (s *Service) Get(ctx context.Context, customerRef string) (*View, error) {
	stg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	cart, err := s.repo.FindByCustomerRef(ctx, customerRef)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
	}
	if cart == nil {
		snap := pricing.Compute(nil, stg, nil, "")
		return &View{
			Version:  0,
			Items:    []ItemView{},
			Pricing:  snap,
			MinOrder: pricing.MinOrder(snap.Subtotal, stg),
		}, nil
	}

	var applied *pricing.AppliedCoupon
	notice := ""
	if cart.CouponCode != nil && *cart.CouponCode != "" {
		view := coupons.CartView{
			Subtotal:      pricing.Subtotal(lineItems(cart.Items)),
			CategorySlugs: categorySlugs(cart.Items),
		}
		valid, reason, checkErr := s.coupons.Recheck(ctx, *cart.CouponCode, customerRef, view)
		if checkErr != nil {
			return nil, checkErr
		}
		if reason != "" {
			notice = couponClearedNotice(*cart.CouponCode, reason)
		} else {
			applied = valid
		}
	}

	snap := pricing.Compute(lineItems(cart.Items), stg, applied, "")
	out := s.buildView(cart, snap, stg)
	out.CouponNotice = notice
	if notice != "" {
		out.CouponCode = ""
	}
	return out, nil
}

// AddItem adds a product to the cart, or increments the existing line.
func (s *Service) AddItem(ctx context.Context, customerRef string, productID uuid.UUID, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	categorySlug := ""
	if product.Category != nil {
		categorySlug = product.Category.Slug
	}

	return s.mutate(ctx, customerRef, true, func(ctx context.Context, txRepo *Repository, cart *models.Cart) error {
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				cart.Items[i].Quantity += quantity
				cart.Items[i].LineTotal = lineTotal(cart.Items[i].UnitPrice, cart.Items[i].Quantity)
				return txRepo.SaveItem(ctx, &cart.Items[i])
			}
		}
		item := models.CartItem{
			ID:           uuid.New(),
			CartID:       cart.ID,
			ProductID:    productID,
			Name:         product.Name,
			UnitPrice:    product.Price,
			Quantity:     quantity,
			LineTotal:    lineTotal(product.Price, quantity),
			CategorySlug: categorySlug,
		}
		cart.Items = append(cart.Items, item)
		return txRepo.CreateItem(ctx, &item)
	})
}

// UpdateQuantity sets the line quantity; zero removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, customerRef string, productID uuid.UUID, quantity int) (*View, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, customerRef, productID)
	}

	return s.mutate(ctx, customerRef, false, func(ctx context.Context, txRepo *Repository, cart *models.Cart) error {
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				cart.Items[i].Quantity = quantity
				cart.Items[i].LineTotal = lineTotal(cart.Items[i].UnitPrice, quantity)
				return txRepo.SaveItem(ctx, &cart.Items[i])
			}
		}
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	})
}

// RemoveItem deletes the line for the product.
func (s *Service) RemoveItem(ctx context.Context, customerRef string, productID uuid.UUID) (*View, error) {
	return s.mutate(ctx, customerRef, false, func(ctx context.Context, txRepo *Repository, cart *models.Cart) error {
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				itemID := cart.Items[i].ID
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
				return txRepo.DeleteItem(ctx, itemID)
			}
		}
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	})
}

// Clear empties the cart and drops any applied coupon.
func (s *Service) Clear(ctx context.Context, customerRef string) (*View, error) {
	return s.mutate(ctx, customerRef, false, func(ctx context.Context, txRepo *Repository, cart *models.Cart) error {
		cart.Items = nil
		cart.CouponCode = nil
		return txRepo.DeleteAllItems(ctx, cart.ID)
	})
}

// ApplyCoupon validates the code against the current cart and stores it.
func (s *Service) ApplyCoupon(ctx context.Context, customerRef, code string) (*View, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}

	cart, err := s.repo.FindByCustomerRef(ctx, customerRef)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot apply a coupon to an empty cart")
	}

	view := coupons.CartView{
		Subtotal:      pricing.Subtotal(lineItems(cart.Items)),
		CategorySlugs: categorySlugs(cart.Items),
	}
	applied, err := s.coupons.Resolve(ctx, code, customerRef, view)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, customerRef, false, func(ctx context.Context, txRepo *Repository, cart *models.Cart) error {
		cart.CouponCode = &applied.Code
		return nil
	})
}

// RemoveCoupon drops the applied coupon, restoring pre-application totals.
func (s *Service) RemoveCoupon(ctx context.Context, customerRef string) (*View, error) {
	return s.mutate(ctx, customerRef, false, func(ctx context.Context, txRepo *Repository, cart *models.Cart) error {
		cart.CouponCode = nil
		return nil
	})
}

// mutate runs the mutation inside a transaction, then recomputes the pricing
// snapshot, re-validates the coupon, bumps the version and saves. When
// createIfMissing is false a missing cart is a NOT_FOUND.
func (s *Service) mutate(ctx context.Context, customerRef string, createIfMissing bool, fn func(ctx context.Context, txRepo *Repository, cart *models.Cart) error) (*View, error) {
	stg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	var out *View
	txErr := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := txRepo.FindByCustomerRef(ctx, customerRef)
		if err != nil {
			return err
		}
		if cart == nil {
			if !createIfMissing {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
			}
			cart = &models.Cart{
				ID:          uuid.New(),
				CustomerRef: customerRef,
				Subtotal:    decimal.Zero,
				Tax:         decimal.Zero,
				DeliveryFee: decimal.Zero,
				Discount:    decimal.Zero,
				Total:       decimal.Zero,
			}
			if err := txRepo.Create(ctx, cart); err != nil {
				return err
			}
		}

		if err := fn(ctx, txRepo, cart); err != nil {
			return err
		}

		// Re-validate the coupon against the mutated cart.
		notice := ""
		var applied *pricing.AppliedCoupon
		if cart.CouponCode != nil && *cart.CouponCode != "" {
			view := coupons.CartView{
				Subtotal:      pricing.Subtotal(lineItems(cart.Items)),
				CategorySlugs: categorySlugs(cart.Items),
			}
			valid, reason, checkErr := s.coupons.Recheck(ctx, *cart.CouponCode, customerRef, view)
			if checkErr != nil {
				return checkErr
			}
			if reason != "" {
				notice = couponClearedNotice(*cart.CouponCode, reason)
				cart.CouponCode = nil
			} else {
				applied = valid
			}
		}

		snap := pricing.Compute(lineItems(cart.Items), stg, applied, "")
		cart.Subtotal = snap.Subtotal
		cart.Tax = snap.Tax
		cart.DeliveryFee = snap.DeliveryFee
		cart.Discount = snap.Discount
		cart.Total = snap.Total
		cart.Version++

		if err := txRepo.Save(ctx, cart); err != nil {
			return err
		}

		out = s.buildView(cart, snap, stg)
		out.CouponNotice = notice
		return nil
	})
	if txErr != nil {
		if coded := pkgerrors.As(txErr); coded != nil {
			return nil, coded
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "cart update failed")
	}
	return out, nil
}

func (s *Service) buildView(cart *models.Cart, snap pricing.Snapshot, stg settings.Settings) *View {
	code := ""
	if cart.CouponCode != nil {
		code = *cart.CouponCode
	}
	return &View{
		Version:    cart.Version,
		Items:      itemViews(cart.Items),
		Pricing:    snap,
		MinOrder:   pricing.MinOrder(snap.Subtotal, stg),
		CouponCode: code,
	}
}

func couponClearedNotice(code string, reason coupons.RejectionReason) string {
	return fmt.Sprintf("coupon %s was removed: %s", code, reasonNotice(reason))
}

func reasonNotice(reason coupons.RejectionReason) string {
	switch reason {
	case coupons.ReasonMinOrderNotMet:
		return "cart no longer meets the coupon minimum"
	case coupons.ReasonExpired:
		return "the coupon has expired"
	case coupons.ReasonUsageLimitExceeded:
		return "the coupon usage limit was reached"
	case coupons.ReasonCategoryNotApplicable:
		return "no eligible items remain in the cart"
	default:
		return "it is no longer valid"
	}
}

func lineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
