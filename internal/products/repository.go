package products

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	"github.com/zaika-foods/zaika-backend/pkg/pagination"
)

// Filter narrows the public product listing.
type Filter struct {
	CategorySlug    string
	Search          string
	PriceMin        *decimal.Decimal
	PriceMax        *decimal.Decimal
	VegOnly         bool
	SpecialsOnly    bool
	NewArrivals     bool
	IncludeInactive bool
}

// Repository persists products and categories.
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

// FindByID loads a product with its category. Returns (nil, nil) when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("id = ?", id).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns products matching the filter with keyset pagination. The
// caller passes limit+1 via pagination.LimitWithBuffer.
func (r *Repository) List(ctx context.Context, filter Filter, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Preload("Category").
		Joins("JOIN categories ON categories.id = products.category_id")

	if !filter.IncludeInactive {
		q = q.Where("products.is_active = ?", true)
	}
	if filter.CategorySlug != "" {
		q = q.Where("categories.slug = ?", filter.CategorySlug)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		q = q.Where("LOWER(products.name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if filter.PriceMin != nil {
		q = q.Where("products.price >= ?", filter.PriceMin)
	}
	if filter.PriceMax != nil {
		q = q.Where("products.price <= ?", filter.PriceMax)
	}
	if filter.VegOnly {
		q = q.Where("products.is_veg = ?", true)
	}
	if filter.SpecialsOnly {
		q = q.Where("products.is_special = ?", true)
	}
	if filter.NewArrivals {
		q = q.Where("products.new_arrival_until >= ?", time.Now())
	}
	if cursor != nil {
		q = q.Where(
			"(products.created_at < ?) OR (products.created_at = ? AND products.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var out []models.Product
	err := q.Order("products.created_at DESC, products.id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Save writes edits to a product.
func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Deactivate soft-deletes a product so existing carts keep their snapshot.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// ListCategories returns categories in display order.
func (r *Repository) ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	q := r.db.WithContext(ctx).Model(&models.Category{})
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var out []models.Category
	err := q.Order("sort_order ASC, name ASC").Find(&out).Error
	return out, err
}

// FindCategoryBySlug returns (nil, nil) when the slug is unknown.
func (r *Repository) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// FindCategoryByID returns (nil, nil) when absent.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateCategory inserts a category.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// SaveCategory writes edits to a category.
func (r *Repository) SaveCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}
