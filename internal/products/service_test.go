package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zaika-foods/zaika-backend/pkg/db"
	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
	"github.com/zaika-foods/zaika-backend/pkg/pagination"
)

func newCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`
		CREATE TABLE categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			sort_order INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error)
	require.NoError(t, conn.Exec(`
		CREATE TABLE products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			category_id TEXT NOT NULL,
			price NUMERIC NOT NULL,
			image_url TEXT,
			weight_grams INTEGER,
			pieces INTEGER,
			tags TEXT,
			is_veg BOOLEAN NOT NULL DEFAULT true,
			is_special BOOLEAN NOT NULL DEFAULT false,
			new_arrival_until DATETIME,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error)

	t.Cleanup(func() {
		_ = conn.Exec("DROP TABLE products").Error
		_ = conn.Exec("DROP TABLE categories").Error
	})
	return conn
}

func newCatalogService(t *testing.T, conn *gorm.DB) *Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), db.NewWithConn(conn))
	require.NoError(t, err)
	return svc
}

func seedCategory(t *testing.T, svc *Service, name, slug string) *models.Category {
	t.Helper()
	category, err := svc.CreateCategory(context.Background(), CategoryInput{
		Name: name, Slug: slug, IsActive: true,
	})
	require.NoError(t, err)
	return category
}

func seedProduct(t *testing.T, svc *Service, categoryID uuid.UUID, name, price string, mutate func(*CreateProductInput)) *models.Product {
	t.Helper()
	input := CreateProductInput{
		Name:       name,
		CategoryID: categoryID,
		Price:      decimal.RequireFromString(price),
		IsVeg:      true,
		IsActive:   true,
	}
	if mutate != nil {
		mutate(&input)
	}
	product, err := svc.CreateProduct(context.Background(), input)
	require.NoError(t, err)
	return product
}

func TestCreateProductValidations(t *testing.T) {
	conn := newCatalogDB(t)
	svc := newCatalogService(t, conn)
	category := seedCategory(t, svc, "Sweets", "sweets")
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{
		Name: "", CategoryID: category.ID, Price: decimal.RequireFromString("100"),
	})
	require.Error(t, err)

	_, err = svc.CreateProduct(ctx, CreateProductInput{
		Name: "Ladoo", CategoryID: category.ID, Price: decimal.Zero,
	})
	require.Error(t, err)

	_, err = svc.CreateProduct(ctx, CreateProductInput{
		Name: "Ladoo", CategoryID: uuid.New(), Price: decimal.RequireFromString("100"),
	})
	require.Error(t, err)
}

func TestListFiltersByCategoryAndActive(t *testing.T) {
	conn := newCatalogDB(t)
	svc := newCatalogService(t, conn)
	sweets := seedCategory(t, svc, "Sweets", "sweets")
	snacks := seedCategory(t, svc, "Snacks", "snacks")
	ctx := context.Background()

	seedProduct(t, svc, sweets.ID, "Gulab Jamun", "150", nil)
	seedProduct(t, svc, snacks.ID, "Samosa", "40", nil)
	hidden := seedProduct(t, svc, sweets.ID, "Old Special", "200", nil)
	require.NoError(t, svc.DeactivateProduct(ctx, hidden.ID))

	page, err := svc.List(ctx, Filter{CategorySlug: "sweets"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "Gulab Jamun", page.Items[0].Name)

	all, err := svc.List(ctx, Filter{}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
}

func TestListSearchAndPriceRange(t *testing.T) {
	conn := newCatalogDB(t)
	svc := newCatalogService(t, conn)
	sweets := seedCategory(t, svc, "Sweets", "sweets")
	ctx := context.Background()

	seedProduct(t, svc, sweets.ID, "Kaju Katli", "450", nil)
	seedProduct(t, svc, sweets.ID, "Ladoo Box", "250", nil)

	bySearch, err := svc.List(ctx, Filter{Search: "kaju"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, bySearch.Items, 1)

	min := decimal.RequireFromString("300")
	byPrice, err := svc.List(ctx, Filter{PriceMin: &min}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, byPrice.Items, 1)
	require.Equal(t, "Kaju Katli", byPrice.Items[0].Name)
}

func TestListNewArrivalsWindow(t *testing.T) {
	conn := newCatalogDB(t)
	svc := newCatalogService(t, conn)
	sweets := seedCategory(t, svc, "Sweets", "sweets")
	ctx := context.Background()

	future := time.Now().Add(48 * time.Hour)
	past := time.Now().Add(-48 * time.Hour)
	seedProduct(t, svc, sweets.ID, "Fresh Item", "100", func(in *CreateProductInput) {
		in.NewArrivalUntil = &future
	})
	seedProduct(t, svc, sweets.ID, "Stale Item", "100", func(in *CreateProductInput) {
		in.NewArrivalUntil = &past
	})

	page, err := svc.List(ctx, Filter{NewArrivals: true}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "Fresh Item", page.Items[0].Name)
}

func TestListPaginates(t *testing.T) {
	conn := newCatalogDB(t)
	svc := newCatalogService(t, conn)
	sweets := seedCategory(t, svc, "Sweets", "sweets")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		product := seedProduct(t, svc, sweets.ID, "Item", "100", nil)
		// Distinct created_at so keyset ordering is deterministic.
		require.NoError(t, conn.Exec(
			"UPDATE products SET created_at = ? WHERE id = ?",
			time.Now().Add(time.Duration(i)*time.Second), product.ID,
		).Error)
	}

	first, err := svc.List(ctx, Filter{}, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	require.NotNil(t, first.NextCursor)

	second, err := svc.List(ctx, Filter{}, pagination.Params{Limit: 3, Cursor: *first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	require.Nil(t, second.NextCursor)
}

func TestUpdateProductPartial(t *testing.T) {
	conn := newCatalogDB(t)
	svc := newCatalogService(t, conn)
	sweets := seedCategory(t, svc, "Sweets", "sweets")
	ctx := context.Background()

	product := seedProduct(t, svc, sweets.ID, "Ladoo", "100", nil)

	newPrice := decimal.RequireFromString("120")
	special := true
	updated, err := svc.UpdateProduct(ctx, product.ID, UpdateProductInput{
		Price:     &newPrice,
		IsSpecial: &special,
	})
	require.NoError(t, err)
	require.True(t, updated.Price.Equal(newPrice))
	require.True(t, updated.IsSpecial)
	require.Equal(t, "Ladoo", updated.Name)
}

func TestCategorySlugConflict(t *testing.T) {
	conn := newCatalogDB(t)
	svc := newCatalogService(t, conn)
	seedCategory(t, svc, "Sweets", "sweets")

	_, err := svc.CreateCategory(context.Background(), CategoryInput{
		Name: "Other Sweets", Slug: "sweets", IsActive: true,
	})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeConflict, coded.Code())
}

func TestGetHidesInactiveProduct(t *testing.T) {
	conn := newCatalogDB(t)
	svc := newCatalogService(t, conn)
	sweets := seedCategory(t, svc, "Sweets", "sweets")
	ctx := context.Background()

	product := seedProduct(t, svc, sweets.ID, "Ladoo", "100", nil)
	require.NoError(t, svc.DeactivateProduct(ctx, product.ID))

	_, err := svc.Get(ctx, product.ID)
	require.Error(t, err)

	// The cart path still resolves it for existing snapshots.
	raw, err := svc.FindByID(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, raw)
}
