package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zaika-foods/zaika-backend/api/responses"
	"github.com/zaika-foods/zaika-backend/api/validators"
	"github.com/zaika-foods/zaika-backend/internal/products"
	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
	"github.com/zaika-foods/zaika-backend/pkg/logger"
	"github.com/zaika-foods/zaika-backend/pkg/pagination"
)

type categoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	SortOrder int       `json:"sort_order"`
	IsActive  bool      `json:"is_active"`
}

type productResponse struct {
	ID              uuid.UUID         `json:"id"`
	Name            string            `json:"name"`
	Description     *string           `json:"description,omitempty"`
	CategoryID      uuid.UUID         `json:"category_id"`
	Category        *categoryResponse `json:"category,omitempty"`
	Price           decimal.Decimal   `json:"price"`
	ImageURL        *string           `json:"image_url,omitempty"`
	WeightGrams     *int              `json:"weight_grams,omitempty"`
	Pieces          *int              `json:"pieces,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	IsVeg           bool              `json:"is_veg"`
	IsSpecial       bool              `json:"is_special"`
	NewArrivalUntil *time.Time        `json:"new_arrival_until,omitempty"`
	IsActive        bool              `json:"is_active"`
	CreatedAt       time.Time         `json:"created_at"`
}

func toCategoryResponse(category *models.Category) categoryResponse {
	return categoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		Slug:      category.Slug,
		SortOrder: category.SortOrder,
		IsActive:  category.IsActive,
	}
}

func toProductResponse(product *models.Product) productResponse {
	resp := productResponse{
		ID:              product.ID,
		Name:            product.Name,
		Description:     product.Description,
		CategoryID:      product.CategoryID,
		Price:           product.Price,
		ImageURL:        product.ImageURL,
		WeightGrams:     product.WeightGrams,
		Pieces:          product.Pieces,
		Tags:            product.Tags,
		IsVeg:           product.IsVeg,
		IsSpecial:       product.IsSpecial,
		NewArrivalUntil: product.NewArrivalUntil,
		IsActive:        product.IsActive,
		CreatedAt:       product.CreatedAt,
	}
	if product.Category != nil {
		category := toCategoryResponse(product.Category)
		resp.Category = &category
	}
	return resp
}

func toProductPage(page *pagination.Page[models.Product]) pagination.Page[productResponse] {
	out := pagination.Page[productResponse]{
		Items:      make([]productResponse, 0, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for i := range page.Items {
		out.Items = append(out.Items, toProductResponse(&page.Items[i]))
	}
	return out
}

// ListProducts serves the browsable menu with filters and cursor paging.
func ListProducts(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		filter, err := parseProductFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), filter, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toProductPage(page))
	}
}

func GetProduct(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toProductResponse(product))
	}
}

func ListCategories(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]categoryResponse, 0, len(categories))
		for i := range categories {
			out = append(out, toCategoryResponse(&categories[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func parseProductFilter(r *http.Request) (products.Filter, error) {
	query := r.URL.Query()
	filter := products.Filter{
		CategorySlug: strings.TrimSpace(query.Get("category")),
		Search:       strings.TrimSpace(query.Get("search")),
		VegOnly:      queryBool(query.Get("veg")),
		SpecialsOnly: queryBool(query.Get("specials")),
		NewArrivals:  queryBool(query.Get("new_arrivals")),
	}

	priceMin, err := queryDecimal(query.Get("price_min"), "price_min")
	if err != nil {
		return products.Filter{}, err
	}
	priceMax, err := queryDecimal(query.Get("price_max"), "price_max")
	if err != nil {
		return products.Filter{}, err
	}
	filter.PriceMin = priceMin
	filter.PriceMax = priceMax

	if priceMin != nil && priceMax != nil && priceMin.GreaterThan(*priceMax) {
		return products.Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "price_min cannot exceed price_max")
	}
	return filter, nil
}

func queryBool(raw string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && parsed
}

func queryDecimal(raw, field string) (*decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	if value.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" cannot be negative")
	}
	return &value, nil
}
