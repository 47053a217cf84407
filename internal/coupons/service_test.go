package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	"github.com/zaika-foods/zaika-backend/pkg/enums"
)

func newCouponDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`
		CREATE TABLE coupons (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL,
			discount_type TEXT NOT NULL,
			discount_value NUMERIC NOT NULL,
			min_order_amount NUMERIC NOT NULL DEFAULT 0,
			expires_at DATETIME,
			usage_limit INTEGER,
			per_customer_limit INTEGER,
			category_slugs TEXT,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error)
	require.NoError(t, conn.Exec(`
		CREATE TABLE coupon_redemptions (
			id TEXT PRIMARY KEY,
			coupon_id TEXT NOT NULL,
			customer_ref TEXT NOT NULL,
			order_id TEXT NOT NULL,
			created_at DATETIME
		)
	`).Error)

	t.Cleanup(func() {
		_ = conn.Exec("DROP TABLE coupon_redemptions").Error
		_ = conn.Exec("DROP TABLE coupons").Error
	})
	return conn
}

func seedCoupon(t *testing.T, conn *gorm.DB, mutate func(*models.Coupon)) models.Coupon {
	t.Helper()
	coupon := models.Coupon{
		ID:            uuid.New(),
		Code:          "SAVE10",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.RequireFromString("10"),
		IsActive:      true,
	}
	if mutate != nil {
		mutate(&coupon)
	}
	require.NoError(t, conn.Create(&coupon).Error)
	return coupon
}

func cartOf(subtotal string, slugs ...string) CartView {
	return CartView{Subtotal: decimal.RequireFromString(subtotal), CategorySlugs: slugs}
}

func TestResolveValidCoupon(t *testing.T) {
	conn := newCouponDB(t)
	seedCoupon(t, conn, nil)

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	applied, err := svc.Resolve(context.Background(), "save10", "cust-1", cartOf("550"))
	require.NoError(t, err)
	require.Equal(t, "SAVE10", applied.Code)
	require.Equal(t, enums.DiscountTypePercentage, applied.Type)
	require.True(t, applied.Value.Equal(decimal.RequireFromString("10")))
}

func TestResolveUnknownCode(t *testing.T) {
	conn := newCouponDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "NOPE", "cust-1", cartOf("550"))
	require.Error(t, err)
	require.Equal(t, ReasonNotFound, ReasonOf(err))
}

func TestResolveInactiveCouponIsNotFound(t *testing.T) {
	conn := newCouponDB(t)
	seedCoupon(t, conn, func(c *models.Coupon) { c.IsActive = false })

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "SAVE10", "cust-1", cartOf("550"))
	require.Equal(t, ReasonNotFound, ReasonOf(err))
}

func TestResolveExpiredCoupon(t *testing.T) {
	conn := newCouponDB(t)
	past := time.Now().Add(-time.Hour)
	seedCoupon(t, conn, func(c *models.Coupon) { c.ExpiresAt = &past })

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "SAVE10", "cust-1", cartOf("550"))
	require.Equal(t, ReasonExpired, ReasonOf(err))
}

func TestResolveMinOrderNotMet(t *testing.T) {
	conn := newCouponDB(t)
	seedCoupon(t, conn, func(c *models.Coupon) {
		c.MinOrderAmount = decimal.RequireFromString("300")
	})

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "SAVE10", "cust-1", cartOf("250"))
	require.Equal(t, ReasonMinOrderNotMet, ReasonOf(err))

	// Inclusive at the boundary.
	applied, err := svc.Resolve(context.Background(), "SAVE10", "cust-1", cartOf("300"))
	require.NoError(t, err)
	require.NotNil(t, applied)
}

func TestResolveGlobalUsageLimit(t *testing.T) {
	conn := newCouponDB(t)
	limit := 2
	coupon := seedCoupon(t, conn, func(c *models.Coupon) { c.UsageLimit = &limit })

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.Create(&models.CouponRedemption{
			ID:          uuid.New(),
			CouponID:    coupon.ID,
			CustomerRef: "someone-else",
			OrderID:     uuid.New(),
		}).Error)
	}

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "SAVE10", "cust-1", cartOf("550"))
	require.Equal(t, ReasonUsageLimitExceeded, ReasonOf(err))
}

func TestResolvePerCustomerLimit(t *testing.T) {
	conn := newCouponDB(t)
	limit := 1
	coupon := seedCoupon(t, conn, func(c *models.Coupon) { c.PerCustomerLimit = &limit })

	require.NoError(t, conn.Create(&models.CouponRedemption{
		ID:          uuid.New(),
		CouponID:    coupon.ID,
		CustomerRef: "cust-1",
		OrderID:     uuid.New(),
	}).Error)

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "SAVE10", "cust-1", cartOf("550"))
	require.Equal(t, ReasonUsageLimitExceeded, ReasonOf(err))

	// A different customer can still redeem.
	applied, err := svc.Resolve(context.Background(), "SAVE10", "cust-2", cartOf("550"))
	require.NoError(t, err)
	require.NotNil(t, applied)
}

func TestResolveCategoryScoping(t *testing.T) {
	conn := newCouponDB(t)
	seedCoupon(t, conn, func(c *models.Coupon) {
		c.CategorySlugs = pq.StringArray{"sweets", "snacks"}
	})

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "SAVE10", "cust-1", cartOf("550", "beverages"))
	require.Equal(t, ReasonCategoryNotApplicable, ReasonOf(err))

	applied, err := svc.Resolve(context.Background(), "SAVE10", "cust-1", cartOf("550", "beverages", "sweets"))
	require.NoError(t, err)
	require.NotNil(t, applied)
}

func TestRecheckReportsReasonWithoutError(t *testing.T) {
	conn := newCouponDB(t)
	seedCoupon(t, conn, func(c *models.Coupon) {
		c.MinOrderAmount = decimal.RequireFromString("300")
	})

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	applied, reason, err := svc.Recheck(context.Background(), "SAVE10", "cust-1", cartOf("550"))
	require.NoError(t, err)
	require.Empty(t, reason)
	require.NotNil(t, applied)

	// Items removed, subtotal dropped below the coupon minimum.
	applied, reason, err = svc.Recheck(context.Background(), "SAVE10", "cust-1", cartOf("120"))
	require.NoError(t, err)
	require.Equal(t, ReasonMinOrderNotMet, reason)
	require.Nil(t, applied)
}
