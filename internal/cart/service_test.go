package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zaika-foods/zaika-backend/internal/coupons"
	"github.com/zaika-foods/zaika-backend/internal/pricing"
	"github.com/zaika-foods/zaika-backend/internal/settings"
	"github.com/zaika-foods/zaika-backend/pkg/db"
	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	"github.com/zaika-foods/zaika-backend/pkg/enums"
)

func newCartDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`
		CREATE TABLE carts (
			id TEXT PRIMARY KEY,
			customer_ref TEXT NOT NULL UNIQUE,
			version INTEGER NOT NULL DEFAULT 0,
			coupon_code TEXT,
			subtotal NUMERIC NOT NULL DEFAULT 0,
			tax NUMERIC NOT NULL DEFAULT 0,
			delivery_fee NUMERIC NOT NULL DEFAULT 0,
			discount NUMERIC NOT NULL DEFAULT 0,
			total NUMERIC NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error)
	require.NoError(t, conn.Exec(`
		CREATE TABLE cart_items (
			id TEXT PRIMARY KEY,
			cart_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			name TEXT NOT NULL,
			unit_price NUMERIC NOT NULL,
			quantity INTEGER NOT NULL,
			line_total NUMERIC NOT NULL,
			category_slug TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME,
			UNIQUE (cart_id, product_id)
		)
	`).Error)

	t.Cleanup(func() {
		_ = conn.Exec("DROP TABLE cart_items").Error
		_ = conn.Exec("DROP TABLE carts").Error
	})
	return conn
}

type stubSettings struct{ s settings.Settings }

func (f stubSettings) Get(context.Context) (settings.Settings, error) { return f.s, nil }

type stubCoupons struct {
	code     string
	minOrder decimal.Decimal
	value    decimal.Decimal
}

func (f stubCoupons) applied() *pricing.AppliedCoupon {
	return &pricing.AppliedCoupon{Code: f.code, Type: enums.DiscountTypePercentage, Value: f.value}
}

func (f stubCoupons) Resolve(_ context.Context, code, _ string, cart coupons.CartView) (*pricing.AppliedCoupon, error) {
	if code != f.code {
		return nil, coupons.Rejection(coupons.ReasonNotFound)
	}
	if cart.Subtotal.LessThan(f.minOrder) {
		return nil, coupons.Rejection(coupons.ReasonMinOrderNotMet)
	}
	return f.applied(), nil
}

func (f stubCoupons) Recheck(_ context.Context, code, _ string, cart coupons.CartView) (*pricing.AppliedCoupon, coupons.RejectionReason, error) {
	if code != f.code {
		return nil, coupons.ReasonNotFound, nil
	}
	if cart.Subtotal.LessThan(f.minOrder) {
		return nil, coupons.ReasonMinOrderNotMet, nil
	}
	return f.applied(), "", nil
}

type stubProducts struct{ byID map[uuid.UUID]*models.Product }

func (f stubProducts) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	return f.byID[id], nil
}

func testSettings() settings.Settings {
	return settings.Parse(map[string]string{
		settings.KeyTaxRatePercent:        "5",
		settings.KeyDeliveryCharge:        "50",
		settings.KeyFreeDeliveryThreshold: "500",
		settings.KeyMinOrderAmount:        "300",
	})
}

func testProduct(price string, slug string) *models.Product {
	return &models.Product{
		ID:       uuid.New(),
		Name:     "Paneer Tikka",
		Price:    decimal.RequireFromString(price),
		IsActive: true,
		Category: &models.Category{ID: uuid.New(), Name: "Starters", Slug: slug},
	}
}

func newCartService(t *testing.T, conn *gorm.DB, cc couponChecker, products ...*models.Product) *Service {
	t.Helper()
	byID := map[uuid.UUID]*models.Product{}
	for _, p := range products {
		byID[p.ID] = p
	}
	if cc == nil {
		cc = stubCoupons{code: "SAVE10", minOrder: decimal.RequireFromString("300"), value: decimal.RequireFromString("10")}
	}
	svc, err := NewService(
		NewRepository(conn),
		db.NewWithConn(conn),
		stubSettings{s: testSettings()},
		cc,
		stubProducts{byID: byID},
		nil,
	)
	require.NoError(t, err)
	return svc
}

func TestAddItemCreatesCartAndPrices(t *testing.T) {
	conn := newCartDB(t)
	product := testProduct("200", "starters")
	svc := newCartService(t, conn, nil, product)

	view, err := svc.AddItem(context.Background(), "cust-1", product.ID, 2)
	require.NoError(t, err)

	require.Equal(t, int64(1), view.Version)
	require.Len(t, view.Items, 1)
	require.Equal(t, 2, view.Items[0].Quantity)
	require.True(t, view.Pricing.Subtotal.Equal(decimal.RequireFromString("400")))
	require.True(t, view.Pricing.Tax.Equal(decimal.RequireFromString("20")))
	require.True(t, view.Pricing.DeliveryFee.Equal(decimal.RequireFromString("50")))
	require.True(t, view.Pricing.Total.Equal(decimal.RequireFromString("470")))
	require.True(t, view.MinOrder.Met)
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	conn := newCartDB(t)
	product := testProduct("120", "starters")
	svc := newCartService(t, conn, nil, product)

	ctx := context.Background()
	_, err := svc.AddItem(ctx, "cust-1", product.ID, 1)
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, "cust-1", product.ID, 2)
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	require.Equal(t, 3, view.Items[0].Quantity)
	require.True(t, view.Items[0].LineTotal.Equal(decimal.RequireFromString("360")))
	require.Equal(t, int64(2), view.Version)
}

func TestAddItemRejectsZeroQuantity(t *testing.T) {
	conn := newCartDB(t)
	svc := newCartService(t, conn, nil)

	_, err := svc.AddItem(context.Background(), "cust-1", uuid.New(), 0)
	require.Error(t, err)
}

func TestAddItemUnknownProduct(t *testing.T) {
	conn := newCartDB(t)
	svc := newCartService(t, conn, nil)

	_, err := svc.AddItem(context.Background(), "cust-1", uuid.New(), 1)
	require.Error(t, err)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	conn := newCartDB(t)
	product := testProduct("150", "starters")
	svc := newCartService(t, conn, nil, product)

	ctx := context.Background()
	_, err := svc.AddItem(ctx, "cust-1", product.ID, 2)
	require.NoError(t, err)

	view, err := svc.UpdateQuantity(ctx, "cust-1", product.ID, 0)
	require.NoError(t, err)
	require.Empty(t, view.Items)
	require.True(t, view.Pricing.Subtotal.IsZero())
}

func TestQuantityIncrementThenDecrementRestoresCart(t *testing.T) {
	conn := newCartDB(t)
	product := testProduct("120", "starters")
	svc := newCartService(t, conn, nil, product)

	ctx := context.Background()
	before, err := svc.AddItem(ctx, "cust-1", product.ID, 2)
	require.NoError(t, err)

	bumped, err := svc.AddItem(ctx, "cust-1", product.ID, 3)
	require.NoError(t, err)
	require.Equal(t, 5, bumped.Items[0].Quantity)

	after, err := svc.UpdateQuantity(ctx, "cust-1", product.ID, 2)
	require.NoError(t, err)

	// The line and every derived total are back where they started; only
	// the version keeps moving, one bump per mutation.
	require.Len(t, after.Items, 1)
	require.Equal(t, before.Items[0].Quantity, after.Items[0].Quantity)
	require.True(t, after.Items[0].LineTotal.Equal(before.Items[0].LineTotal))
	require.True(t, after.Pricing.Subtotal.Equal(before.Pricing.Subtotal))
	require.True(t, after.Pricing.Tax.Equal(before.Pricing.Tax))
	require.True(t, after.Pricing.DeliveryFee.Equal(before.Pricing.DeliveryFee))
	require.True(t, after.Pricing.Total.Equal(before.Pricing.Total))
	require.Equal(t, before.MinOrder.Met, after.MinOrder.Met)
	require.Equal(t, before.Version+2, after.Version)
}

func TestUpdateQuantityNegativeRejected(t *testing.T) {
	conn := newCartDB(t)
	svc := newCartService(t, conn, nil)

	_, err := svc.UpdateQuantity(context.Background(), "cust-1", uuid.New(), -1)
	require.Error(t, err)
}

func TestRemoveItemNotInCart(t *testing.T) {
	conn := newCartDB(t)
	product := testProduct("150", "starters")
	svc := newCartService(t, conn, nil, product)

	ctx := context.Background()
	_, err := svc.AddItem(ctx, "cust-1", product.ID, 1)
	require.NoError(t, err)

	_, err = svc.RemoveItem(ctx, "cust-1", uuid.New())
	require.Error(t, err)
}

func TestCouponRoundTripRestoresTotals(t *testing.T) {
	conn := newCartDB(t)
	product := testProduct("550", "starters")
	svc := newCartService(t, conn, nil, product)

	ctx := context.Background()
	before, err := svc.AddItem(ctx, "cust-1", product.ID, 1)
	require.NoError(t, err)
	require.True(t, before.Pricing.Total.Equal(decimal.RequireFromString("577.5")))

	withCoupon, err := svc.ApplyCoupon(ctx, "cust-1", "SAVE10")
	require.NoError(t, err)
	require.Equal(t, "SAVE10", withCoupon.CouponCode)
	require.True(t, withCoupon.Pricing.Discount.Equal(decimal.RequireFromString("55")))
	require.True(t, withCoupon.Pricing.Total.Equal(decimal.RequireFromString("522.5")))

	after, err := svc.RemoveCoupon(ctx, "cust-1")
	require.NoError(t, err)
	require.Empty(t, after.CouponCode)
	require.True(t, after.Pricing.Total.Equal(before.Pricing.Total))
}

func TestCouponAutoClearedWhenIneligible(t *testing.T) {
	conn := newCartDB(t)
	expensive := testProduct("400", "starters")
	cheap := testProduct("100", "starters")
	svc := newCartService(t, conn, nil, expensive, cheap)

	ctx := context.Background()
	_, err := svc.AddItem(ctx, "cust-1", expensive.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "cust-1", cheap.ID, 1)
	require.NoError(t, err)

	_, err = svc.ApplyCoupon(ctx, "cust-1", "SAVE10")
	require.NoError(t, err)

	// Removing the expensive item drops the subtotal below the coupon
	// minimum; the coupon must be cleared with a notice, not kept stale.
	view, err := svc.RemoveItem(ctx, "cust-1", expensive.ID)
	require.NoError(t, err)
	require.Empty(t, view.CouponCode)
	require.NotEmpty(t, view.CouponNotice)
	require.True(t, view.Pricing.Discount.IsZero())

	// The clear is persisted, not display-only.
	reloaded, err := svc.Get(ctx, "cust-1")
	require.NoError(t, err)
	require.Empty(t, reloaded.CouponCode)
	require.Empty(t, reloaded.CouponNotice)
}

func TestApplyCouponEmptyCart(t *testing.T) {
	conn := newCartDB(t)
	svc := newCartService(t, conn, nil)

	_, err := svc.ApplyCoupon(context.Background(), "cust-1", "SAVE10")
	require.Error(t, err)
}

func TestClearEmptiesCartAndCoupon(t *testing.T) {
	conn := newCartDB(t)
	product := testProduct("550", "starters")
	svc := newCartService(t, conn, nil, product)

	ctx := context.Background()
	_, err := svc.AddItem(ctx, "cust-1", product.ID, 1)
	require.NoError(t, err)
	_, err = svc.ApplyCoupon(ctx, "cust-1", "SAVE10")
	require.NoError(t, err)

	view, err := svc.Clear(ctx, "cust-1")
	require.NoError(t, err)
	require.Empty(t, view.Items)
	require.Empty(t, view.CouponCode)
	require.True(t, view.Pricing.Subtotal.IsZero())
	require.True(t, view.Pricing.Total.IsZero())
}

func TestGetEmptyCartForNewCustomer(t *testing.T) {
	conn := newCartDB(t)
	svc := newCartService(t, conn, nil)

	view, err := svc.Get(context.Background(), "nobody")
	require.NoError(t, err)
	require.Equal(t, int64(0), view.Version)
	require.Empty(t, view.Items)
	require.False(t, view.MinOrder.Met)
}
