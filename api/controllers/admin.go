package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zaika-foods/zaika-backend/api/middleware"
	"github.com/zaika-foods/zaika-backend/api/responses"
	"github.com/zaika-foods/zaika-backend/api/validators"
	"github.com/zaika-foods/zaika-backend/internal/coupons"
	"github.com/zaika-foods/zaika-backend/internal/orders"
	"github.com/zaika-foods/zaika-backend/internal/products"
	"github.com/zaika-foods/zaika-backend/internal/settings"
	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	"github.com/zaika-foods/zaika-backend/pkg/enums"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
	"github.com/zaika-foods/zaika-backend/pkg/logger"
	"github.com/zaika-foods/zaika-backend/pkg/outbox"
	"github.com/zaika-foods/zaika-backend/pkg/pagination"
)

func actorFromContext(r *http.Request) *outbox.ActorRef {
	return &outbox.ActorRef{
		CustomerRef: middleware.CustomerRefFromContext(r.Context()),
		Role:        middleware.RoleFromContext(r.Context()),
	}
}

type updateSettingsRequest struct {
	Values map[string]string `json:"values" validate:"required,min=1"`
}

// AdminUpdateSettings writes store_settings rows and busts the cache.
func AdminUpdateSettings(svc *settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		var payload updateSettingsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), actorFromContext(r), payload.Values)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

type couponRequest struct {
	Code             string          `json:"code" validate:"required"`
	DiscountType     string          `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue    decimal.Decimal `json:"discount_value" validate:"required"`
	MinOrderAmount   decimal.Decimal `json:"min_order_amount"`
	ExpiresAt        *time.Time      `json:"expires_at,omitempty"`
	UsageLimit       *int            `json:"usage_limit,omitempty" validate:"omitempty,min=1"`
	PerCustomerLimit *int            `json:"per_customer_limit,omitempty" validate:"omitempty,min=1"`
	CategorySlugs    []string        `json:"category_slugs,omitempty"`
	IsActive         *bool           `json:"is_active,omitempty"`
}

func (c couponRequest) apply(coupon *models.Coupon) error {
	discountType, err := enums.ParseDiscountType(strings.TrimSpace(c.DiscountType))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	if c.DiscountValue.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if discountType == enums.DiscountTypePercentage && c.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if c.MinOrderAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "min order amount cannot be negative")
	}

	coupon.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	coupon.DiscountType = discountType
	coupon.DiscountValue = c.DiscountValue
	coupon.MinOrderAmount = c.MinOrderAmount
	coupon.ExpiresAt = c.ExpiresAt
	coupon.UsageLimit = c.UsageLimit
	coupon.PerCustomerLimit = c.PerCustomerLimit
	coupon.CategorySlugs = c.CategorySlugs
	if c.IsActive != nil {
		coupon.IsActive = *c.IsActive
	}
	return nil
}

type couponResponse struct {
	ID               uuid.UUID       `json:"id"`
	Code             string          `json:"code"`
	DiscountType     string          `json:"discount_type"`
	DiscountValue    decimal.Decimal `json:"discount_value"`
	MinOrderAmount   decimal.Decimal `json:"min_order_amount"`
	ExpiresAt        *time.Time      `json:"expires_at,omitempty"`
	UsageLimit       *int            `json:"usage_limit,omitempty"`
	PerCustomerLimit *int            `json:"per_customer_limit,omitempty"`
	CategorySlugs    []string        `json:"category_slugs,omitempty"`
	IsActive         bool            `json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
}

func toCouponResponse(coupon *models.Coupon) couponResponse {
	return couponResponse{
		ID:               coupon.ID,
		Code:             coupon.Code,
		DiscountType:     string(coupon.DiscountType),
		DiscountValue:    coupon.DiscountValue,
		MinOrderAmount:   coupon.MinOrderAmount,
		ExpiresAt:        coupon.ExpiresAt,
		UsageLimit:       coupon.UsageLimit,
		PerCustomerLimit: coupon.PerCustomerLimit,
		CategorySlugs:    coupon.CategorySlugs,
		IsActive:         coupon.IsActive,
		CreatedAt:        coupon.CreatedAt,
	}
}

// AdminCreateCoupon inserts a coupon; codes are stored uppercase.
func AdminCreateCoupon(repo *coupons.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon repository unavailable"))
			return
		}

		var payload couponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		existing, err := repo.FindByCode(r.Context(), payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup coupon"))
			return
		}
		if existing != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists"))
			return
		}

		coupon := models.Coupon{ID: uuid.New(), IsActive: true}
		if err := payload.apply(&coupon); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := repo.Create(r.Context(), &coupon); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toCouponResponse(&coupon))
	}
}

func AdminListCoupons(repo *coupons.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon repository unavailable"))
			return
		}

		list, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons"))
			return
		}

		out := make([]couponResponse, 0, len(list))
		for i := range list {
			out = append(out, toCouponResponse(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func AdminUpdateCoupon(repo *coupons.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon repository unavailable"))
			return
		}

		couponID, err := pathUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload couponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := repo.FindByID(r.Context(), couponID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup coupon"))
			return
		}
		if coupon == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found"))
			return
		}

		if err := payload.apply(coupon); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := repo.Update(r.Context(), coupon); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon"))
			return
		}

		responses.WriteSuccess(w, toCouponResponse(coupon))
	}
}

func AdminDeactivateCoupon(repo *coupons.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon repository unavailable"))
			return
		}

		couponID, err := pathUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := repo.FindByID(r.Context(), couponID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup coupon"))
			return
		}
		if coupon == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found"))
			return
		}

		if err := repo.Deactivate(r.Context(), couponID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate coupon"))
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

type createProductRequest struct {
	Name            string          `json:"name" validate:"required"`
	Description     *string         `json:"description,omitempty"`
	CategoryID      string          `json:"category_id" validate:"required,uuid4"`
	Price           decimal.Decimal `json:"price" validate:"required"`
	ImageURL        *string         `json:"image_url,omitempty"`
	WeightGrams     *int            `json:"weight_grams,omitempty" validate:"omitempty,min=1"`
	Pieces          *int            `json:"pieces,omitempty" validate:"omitempty,min=1"`
	Tags            []string        `json:"tags,omitempty"`
	IsVeg           bool            `json:"is_veg"`
	IsSpecial       bool            `json:"is_special"`
	NewArrivalUntil *time.Time      `json:"new_arrival_until,omitempty"`
	IsActive        *bool           `json:"is_active,omitempty"`
}

func (p createProductRequest) toInput() (products.CreateProductInput, error) {
	categoryID, err := uuid.Parse(p.CategoryID)
	if err != nil {
		return products.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
	}
	isActive := true
	if p.IsActive != nil {
		isActive = *p.IsActive
	}
	return products.CreateProductInput{
		Name:            p.Name,
		Description:     p.Description,
		CategoryID:      categoryID,
		Price:           p.Price,
		ImageURL:        p.ImageURL,
		WeightGrams:     p.WeightGrams,
		Pieces:          p.Pieces,
		Tags:            p.Tags,
		IsVeg:           p.IsVeg,
		IsSpecial:       p.IsSpecial,
		NewArrivalUntil: p.NewArrivalUntil,
		IsActive:        isActive,
	}, nil
}

type updateProductRequest struct {
	Name            *string          `json:"name,omitempty"`
	Description     *string          `json:"description,omitempty"`
	CategoryID      *string          `json:"category_id,omitempty" validate:"omitempty,uuid4"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	ImageURL        *string          `json:"image_url,omitempty"`
	WeightGrams     *int             `json:"weight_grams,omitempty" validate:"omitempty,min=1"`
	Pieces          *int             `json:"pieces,omitempty" validate:"omitempty,min=1"`
	Tags            *[]string        `json:"tags,omitempty"`
	IsVeg           *bool            `json:"is_veg,omitempty"`
	IsSpecial       *bool            `json:"is_special,omitempty"`
	NewArrivalUntil *time.Time       `json:"new_arrival_until,omitempty"`
	IsActive        *bool            `json:"is_active,omitempty"`
}

func (p updateProductRequest) toInput() (products.UpdateProductInput, error) {
	input := products.UpdateProductInput{
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		ImageURL:        p.ImageURL,
		WeightGrams:     p.WeightGrams,
		Pieces:          p.Pieces,
		Tags:            p.Tags,
		IsVeg:           p.IsVeg,
		IsSpecial:       p.IsSpecial,
		NewArrivalUntil: p.NewArrivalUntil,
		IsActive:        p.IsActive,
	}
	if p.CategoryID != nil {
		categoryID, err := uuid.Parse(*p.CategoryID)
		if err != nil {
			return products.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
		}
		input.CategoryID = &categoryID
	}
	return input, nil
}

func AdminCreateProduct(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toProductResponse(product))
	}
}

func AdminUpdateProduct(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toProductResponse(product))
	}
}

// AdminDeactivateProduct hides the product from the storefront; existing
// order lines keep their frozen copy.
func AdminDeactivateProduct(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.DeactivateProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// AdminListProducts includes inactive products, unlike the public menu.
func AdminListProducts(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
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
		filter.IncludeInactive = true

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

type categoryRequest struct {
	Name      string `json:"name" validate:"required"`
	Slug      string `json:"slug" validate:"required"`
	SortOrder int    `json:"sort_order"`
	IsActive  *bool  `json:"is_active,omitempty"`
}

func (c categoryRequest) toInput() products.CategoryInput {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}
	return products.CategoryInput{
		Name:      c.Name,
		Slug:      c.Slug,
		SortOrder: c.SortOrder,
		IsActive:  isActive,
	}
}

func AdminCreateCategory(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload categoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.CreateCategory(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toCategoryResponse(category))
	}
}

func AdminUpdateCategory(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		categoryID, err := pathUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload categoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.UpdateCategory(r.Context(), categoryID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toCategoryResponse(category))
	}
}

// AdminListOrders filters the order book by status for the back office.
func AdminListOrders(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		statuses, err := parseStatusFilter(r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.Queue(r.Context(), statuses)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]orderResponse, 0, len(list))
		for i := range list {
			out = append(out, toOrderResponse(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func AdminGetOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toOrderResponse(order))
	}
}

func parseStatusFilter(raw string) ([]enums.OrderStatus, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	var statuses []enums.OrderStatus
	for _, part := range strings.Split(trimmed, ",") {
		status, err := enums.ParseOrderStatus(strings.TrimSpace(part))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
