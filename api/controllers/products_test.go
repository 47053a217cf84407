package controllers

import (
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
)

func TestParseProductFilterReadsQueryParams(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/products?category=sweets&search=laddu&veg=true&specials=1&price_min=50&price_max=300", nil)

	filter, err := parseProductFilter(req)
	require.NoError(t, err)
	require.Equal(t, "sweets", filter.CategorySlug)
	require.Equal(t, "laddu", filter.Search)
	require.True(t, filter.VegOnly)
	require.True(t, filter.SpecialsOnly)
	require.False(t, filter.NewArrivals)
	require.NotNil(t, filter.PriceMin)
	require.True(t, filter.PriceMin.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, filter.PriceMax)
	require.True(t, filter.PriceMax.Equal(decimal.NewFromInt(300)))
}

func TestParseProductFilterDefaults(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/products", nil)

	filter, err := parseProductFilter(req)
	require.NoError(t, err)
	require.Empty(t, filter.CategorySlug)
	require.False(t, filter.VegOnly)
	require.Nil(t, filter.PriceMin)
	require.Nil(t, filter.PriceMax)
}

func TestParseProductFilterRejectsInvertedPriceRange(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/products?price_min=300&price_max=50", nil)

	_, err := parseProductFilter(req)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestParseProductFilterRejectsNegativePrice(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/products?price_min=-10", nil)

	_, err := parseProductFilter(req)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestParseProductFilterRejectsMalformedPrice(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/products?price_max=abc", nil)

	_, err := parseProductFilter(req)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
