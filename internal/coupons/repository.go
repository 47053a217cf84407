package coupons

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zaika-foods/zaika-backend/pkg/db/models"
)

// Repository persists coupons and their redemptions.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByCode loads a coupon by its code, case-insensitively. Returns
// (nil, nil) when no such coupon exists.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("LOWER(code) = ?", strings.ToLower(strings.TrimSpace(code))).
		First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// FindByID loads a coupon by primary key. Returns (nil, nil) when missing.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).First(&coupon, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// CountRedemptions returns the total number of times the coupon was redeemed.
func (r *Repository) CountRedemptions(ctx context.Context, couponID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CouponRedemption{}).
		Where("coupon_id = ?", couponID).
		Count(&count).Error
	return count, err
}

// CountCustomerRedemptions returns how many times one customer redeemed it.
func (r *Repository) CountCustomerRedemptions(ctx context.Context, couponID uuid.UUID, customerRef string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CouponRedemption{}).
		Where("coupon_id = ? AND customer_ref = ?", couponID, customerRef).
		Count(&count).Error
	return count, err
}

// RecordRedemption inserts a redemption row. Callers run this inside the
// order placement transaction.
func (r *Repository) RecordRedemption(ctx context.Context, redemption models.CouponRedemption) error {
	return r.db.WithContext(ctx).Create(&redemption).Error
}

// Create inserts a new coupon (admin path).
func (r *Repository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

// Update saves admin edits to an existing coupon.
func (r *Repository) Update(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Save(coupon).Error
}

// List returns all coupons, newest first (admin path).
func (r *Repository) List(ctx context.Context) ([]models.Coupon, error) {
	var out []models.Coupon
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

// Deactivate soft-disables a coupon without deleting redemption history.
func (r *Repository) Deactivate(ctx context.Context, couponID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ?", couponID).
		Update("is_active", false).Error
}
