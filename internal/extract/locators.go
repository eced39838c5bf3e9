// Package extract reads product data out of a parsed HTML document.
//
// Two extractors are provided: Structured parses schema.org JSON-LD blocks,
// Heuristic walks a locator table through the Field Reader. Neither returns
// errors; a page without product data yields nil.
package extract

import "github.com/affilifind/backend/internal/domain"

// baseLocators is the static locator table. Learned locators are appended
// after these entries and never reorder them.
var baseLocators = domain.LocatorTable{
	domain.FieldTitle: {
		"[itemprop='name']",
		"meta[property='og:title']",
		"meta[name='twitter:title']",
		"#productTitle",
		"h1[data-automation='product-title']",
		"h1[data-test='product-title']",
		"h1",
	},
	domain.FieldPrice: {
		"[itemprop='price']",
		"[property='product:price:amount']",
		"meta[itemprop='price']",
		"#priceblock_ourprice",
		"#priceblock_dealprice",
		"#priceblock_saleprice",
		".a-price .a-offscreen",
		"[data-test*='price']",
		".price",
		".product-price",
	},
	domain.FieldDescription: {
		"#feature-bullets",
		"#productDescription",
		"#bookDescription_feature_div",
		".product-description",
		"[data-feature-name='productDescription']",
		"[itemprop='description']",
		".a-row.stack-container",
		".productOverview",
		"meta[name='description']",
	},
	domain.FieldBrand: {
		"[itemprop='brand']",
		"#bylineInfo",
		".brand",
		"meta[name='brand']",
	},
	domain.FieldSKU: {
		"[itemprop='sku']",
		"meta[name='sku']",
		"meta[property='og:sku']",
		"meta[name='product:retailer_item_id']",
	},
	domain.FieldImage: {
		"meta[property='og:image']",
		"#landingImage",
		"#imgTagWrapperId img",
		".product-image img",
	},
	domain.FieldCurrency: {
		"meta[property='product:price:currency']",
		"meta[itemprop='priceCurrency']",
	},
}

// BaseLocators returns a copy of the static locator table
func BaseLocators() domain.LocatorTable {
	return baseLocators.Clone()
}

// fieldOptions holds the per-field read options
var fieldOptions = map[string]ReadOptions{
	domain.FieldDescription: {HTML: true},
	domain.FieldImage:       {Attribute: "src"},
	domain.FieldCurrency:    {Attribute: "content"},
}

// OptionsFor returns the read options for a logical field
func OptionsFor(field string) ReadOptions {
	return fieldOptions[field]
}
