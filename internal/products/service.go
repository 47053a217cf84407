package products

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/zaika-foods/zaika-backend/pkg/db"
	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
	"github.com/zaika-foods/zaika-backend/pkg/pagination"
)

// CreateProductInput is the validated payload for a new menu item.
type CreateProductInput struct {
	Name            string
	Description     *string
	CategoryID      uuid.UUID
	Price           decimal.Decimal
	ImageURL        *string
	WeightGrams     *int
	Pieces          *int
	Tags            []string
	IsVeg           bool
	IsSpecial       bool
	NewArrivalUntil *time.Time
	IsActive        bool
}

// UpdateProductInput holds optional edits; nil fields are left untouched.
type UpdateProductInput struct {
	Name            *string
	Description     *string
	CategoryID      *uuid.UUID
	Price           *decimal.Decimal
	ImageURL        *string
	WeightGrams     *int
	Pieces          *int
	Tags            *[]string
	IsVeg           *bool
	IsSpecial       *bool
	NewArrivalUntil *time.Time
	IsActive        *bool
}

// CategoryInput is the admin payload for a category.
type CategoryInput struct {
	Name      string
	Slug      string
	SortOrder int
	IsActive  bool
}

// Service exposes the catalog: public browsing plus admin management.
type Service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs the catalog service.
func NewService(repo *Repository, dbClient *db.Client) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Service{repo: repo, dbClient: dbClient}, nil
}

// FindByID loads one product with its category; used by the cart to snapshot
// price and category at add time.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "product lookup failed")
	}
	return product, nil
}

// Get returns one active product for the public detail page.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

// List pages through products matching the filter.
func (s *Service) List(ctx context.Context, filter Filter, params pagination.Params) (*pagination.Page[models.Product], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, filter, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "product listing failed")
	}

	page := pagination.BuildPage(rows, params.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return &page, nil
}

// Categories returns the public category list in display order.
func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	out, err := s.repo.ListCategories(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "category listing failed")
	}
	return out, nil
}

// CreateProduct inserts a menu item (admin path).
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	category, err := s.repo.FindCategoryByID(ctx, input.CategoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "category lookup failed")
	}
	if category == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown category")
	}

	product := &models.Product{
		ID:              uuid.New(),
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		CategoryID:      input.CategoryID,
		Price:           input.Price,
		ImageURL:        input.ImageURL,
		WeightGrams:     input.WeightGrams,
		Pieces:          input.Pieces,
		Tags:            pq.StringArray(input.Tags),
		IsVeg:           input.IsVeg,
		IsSpecial:       input.IsSpecial,
		NewArrivalUntil: input.NewArrivalUntil,
		IsActive:        input.IsActive,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "product create failed")
	}
	product.Category = category
	return product, nil
}

// UpdateProduct applies partial edits to a menu item (admin path).
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "product lookup failed")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.CategoryID != nil {
		category, err := s.repo.FindCategoryByID(ctx, *input.CategoryID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "category lookup failed")
		}
		if category == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown category")
		}
		product.CategoryID = *input.CategoryID
		product.Category = category
	}
	if input.Price != nil {
		if input.Price.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.Price = *input.Price
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.WeightGrams != nil {
		product.WeightGrams = input.WeightGrams
	}
	if input.Pieces != nil {
		product.Pieces = input.Pieces
	}
	if input.Tags != nil {
		product.Tags = pq.StringArray(*input.Tags)
	}
	if input.IsVeg != nil {
		product.IsVeg = *input.IsVeg
	}
	if input.IsSpecial != nil {
		product.IsSpecial = *input.IsSpecial
	}
	if input.NewArrivalUntil != nil {
		product.NewArrivalUntil = input.NewArrivalUntil
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "product update failed")
	}
	return product, nil
}

// DeactivateProduct hides the item from the menu without breaking carts that
// already snapshot it.
func (s *Service) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "product lookup failed")
	}
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "product deactivate failed")
	}
	return nil
}

// CreateCategory inserts a category (admin path).
func (s *Service) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name and slug are required")
	}

	existing, err := s.repo.FindCategoryBySlug(ctx, input.Slug)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "category lookup failed")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already in use")
	}

	category := &models.Category{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(input.Name),
		Slug:      strings.TrimSpace(input.Slug),
		SortOrder: input.SortOrder,
		IsActive:  input.IsActive,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "category create failed")
	}
	return category, nil
}

// UpdateCategory edits a category (admin path).
func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.Category, error) {
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "category lookup failed")
	}
	if category == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}

	if strings.TrimSpace(input.Name) != "" {
		category.Name = strings.TrimSpace(input.Name)
	}
	if strings.TrimSpace(input.Slug) != "" && input.Slug != category.Slug {
		existing, err := s.repo.FindCategoryBySlug(ctx, input.Slug)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "category lookup failed")
		}
		if existing != nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already in use")
		}
		category.Slug = strings.TrimSpace(input.Slug)
	}
	category.SortOrder = input.SortOrder
	category.IsActive = input.IsActive

	if err := s.repo.SaveCategory(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "category update failed")
	}
	return category, nil
}
