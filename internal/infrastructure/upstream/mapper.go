package upstream

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/affilifind/backend/internal/domain"
)

// DefaultSimilarLimit is used when a caller asks for a non-positive limit
const DefaultSimilarLimit = 6

// affiliateParams maps a product to the affiliate-links query.
// Empty values are omitted; sku falls back to mpn.
func affiliateParams(product *domain.Product) url.Values {
	params := url.Values{}
	if product == nil {
		return params
	}
	setParam(params, "url", product.URL)
	setParam(params, "title", product.Title)
	setParam(params, "sku", skuOf(product))
	setParam(params, "upc", product.GTIN)
	setParam(params, "brand", product.Brand)
	if product.Price != nil {
		params.Set("price", strconv.FormatFloat(*product.Price, 'f', -1, 64))
	}
	setParam(params, "currency", product.Currency)
	return params
}

// similarParams maps a product to the similar-products query
func similarParams(product *domain.Product, limit int) url.Values {
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	params := url.Values{}
	if product != nil {
		setParam(params, "url", product.URL)
		setParam(params, "title", product.Title)
		setParam(params, "upc", product.GTIN)
		setParam(params, "sku", skuOf(product))
		setParam(params, "brand", product.Brand)
	}
	params.Set("limit", strconv.Itoa(limit))
	return params
}

// normalizeIntel drops empty locators and stamps the answer time when the
// service did not
func normalizeIntel(intel *domain.RemoteIntel) *domain.RemoteIntel {
	selectors := domain.LocatorTable{}
	for field, locators := range intel.Selectors {
		for _, locator := range locators {
			if locator = strings.TrimSpace(locator); locator != "" {
				selectors[field] = append(selectors[field], locator)
			}
		}
	}
	intel.Selectors = selectors
	if intel.CachedAt == 0 {
		intel.CachedAt = time.Now().UnixMilli()
	}
	return intel
}

func skuOf(product *domain.Product) string {
	if product.SKU != "" {
		return product.SKU
	}
	return product.MPN
}

func setParam(params url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		params.Set(key, value)
	}
}
