package domain

import (
	"math"
	"net/url"
)

// MaxHistoryEntries bounds the deal history ledger
const MaxHistoryEntries = 100

// Affiliate is the affiliate offer attached to a deal match
type Affiliate struct {
	URL             string   `json:"url"`
	DiscountPercent *float64 `json:"discountPercent,omitempty"`
	CouponCode      string   `json:"couponCode,omitempty"`
	ExpiresAt       string   `json:"expiresAt,omitempty"`
}

// Match describes which merchant listing the affiliate service matched
type Match struct {
	Merchant string `json:"merchant,omitempty"`
	URL      string `json:"url,omitempty"`
	Title    string `json:"title,omitempty"`
	SKU      string `json:"sku,omitempty"`
	UPC      string `json:"upc,omitempty"`
	Brand    string `json:"brand,omitempty"`
}

// DealMatch is the affiliate service answer for one product
type DealMatch struct {
	Match     *Match     `json:"match"`
	Affiliate *Affiliate `json:"affiliate"`
}

// Usable reports whether the match carries an affiliate link worth presenting
func (d *DealMatch) Usable() bool {
	return d != nil && d.Match != nil && d.Affiliate != nil && d.Affiliate.URL != ""
}

// SimilarItem is one alternative product offered by the similar-products service
type SimilarItem struct {
	Title           string   `json:"title"`
	Merchant        string   `json:"merchant,omitempty"`
	Image           string   `json:"image,omitempty"`
	URL             string   `json:"url,omitempty"`
	AffiliateURL    string   `json:"affiliateUrl,omitempty"`
	DiscountPercent *float64 `json:"discountPercent,omitempty"`
}

// SimilarResult wraps the similar-products response
type SimilarResult struct {
	Items []SimilarItem `json:"items"`
}

// Deal is the reduced deal the content side presents and records
type Deal struct {
	Merchant        string   `json:"merchant"`
	DiscountPercent *float64 `json:"discountPercent"`
	CouponCode      string   `json:"couponCode,omitempty"`
	AffiliateURL    string   `json:"affiliateUrl"`
}

// DealFromMatch reduces a usable match to a Deal. The merchant falls back to
// the product host, then to fallbackHost.
func DealFromMatch(match *DealMatch, product *Product, fallbackHost string) *Deal {
	if !match.Usable() {
		return nil
	}
	merchant := match.Match.Merchant
	if merchant == "" && product != nil && product.URL != "" {
		if u, err := url.Parse(product.URL); err == nil {
			merchant = u.Hostname()
		}
	}
	if merchant == "" {
		merchant = fallbackHost
	}
	return &Deal{
		Merchant:        merchant,
		DiscountPercent: match.Affiliate.DiscountPercent,
		CouponCode:      match.Affiliate.CouponCode,
		AffiliateURL:    match.Affiliate.URL,
	}
}

// ProductSnapshot is the product part of a deal record
type ProductSnapshot struct {
	Title       string   `json:"title"`
	Image       string   `json:"image,omitempty"`
	URL         string   `json:"url"`
	Price       *float64 `json:"price"`
	Currency    string   `json:"currency,omitempty"`
	Description string   `json:"description,omitempty"`
}

// DealRecord is what the content side sends when a deal is applied
type DealRecord struct {
	Product ProductSnapshot `json:"product"`
	Deal    Deal            `json:"deal"`
	Source  string          `json:"source"`
}

// NewDealRecord snapshots the current product and deal
func NewDealRecord(product *Product, deal *Deal, source string) *DealRecord {
	if product == nil || deal == nil {
		return nil
	}
	return &DealRecord{
		Product: ProductSnapshot{
			Title:       product.Title,
			Image:       product.Image,
			URL:         product.URL,
			Price:       product.Price,
			Currency:    product.Currency,
			Description: product.Description,
		},
		Deal:   *deal,
		Source: source,
	}
}

// DealHistoryEntry is one immutable ledger row
type DealHistoryEntry struct {
	ID           string          `json:"id"`
	AddedAt      int64           `json:"addedAt"` // unix milliseconds
	SavingsValue *float64        `json:"savingsValue"`
	Product      ProductSnapshot `json:"product"`
	Deal         Deal            `json:"deal"`
	Source       string          `json:"source"`
}

// ComputeSavings returns round2(price * discount / 100), or nil when either
// input is missing or non-finite or the savings are not positive
func ComputeSavings(price, discountPercent *float64) *float64 {
	if price == nil || discountPercent == nil {
		return nil
	}
	if math.IsNaN(*price) || math.IsInf(*price, 0) || math.IsNaN(*discountPercent) || math.IsInf(*discountPercent, 0) {
		return nil
	}
	savings := *price * *discountPercent / 100
	if math.IsNaN(savings) || math.IsInf(savings, 0) || savings <= 0 {
		return nil
	}
	rounded := math.Round(savings*100) / 100
	return &rounded
}

// SuggestionItem is one search-suggestion result
type SuggestionItem struct {
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	PriceRange string `json:"priceRange"`
	URL        string `json:"url"`
	Image      string `json:"image"`
}

// SuggestionRequest is the payload sent to the search-suggestions service
type SuggestionRequest struct {
	Query         string       `json:"query"`
	Context       string       `json:"context"`
	Product       *Product     `json:"product"`
	DomSnippet    string       `json:"domSnippet,omitempty"`
	SelectorHints LocatorTable `json:"selectorHints,omitempty"`
}

// SuggestionResult wraps the search-suggestions response
type SuggestionResult struct {
	Items []SuggestionItem `json:"items"`
}

// DealKey is the cache key of the affiliate lookup for a product.
// Format: sha256 hex of canonical JSON {t, sku, url, upc}
func DealKey(product *Product) string {
	key := struct {
		Title string `json:"t"`
		SKU   string `json:"sku"`
		URL   string `json:"url"`
		UPC   string `json:"upc"`
	}{}
	if product != nil {
		key.Title, key.SKU, key.URL, key.UPC = product.Title, product.SKU, product.URL, product.GTIN
	}
	return hashJSON(key)
}

// SimilarKey is the cache key of a similar-products lookup.
// Format: sha256 hex of canonical JSON {sim, t, upc, limit}
func SimilarKey(product *Product, limit int) string {
	key := struct {
		Similar bool   `json:"sim"`
		Title   string `json:"t"`
		UPC     string `json:"upc"`
		Limit   int    `json:"limit"`
	}{Similar: true, Limit: limit}
	if product != nil {
		key.Title, key.UPC = product.Title, product.GTIN
	}
	return hashJSON(key)
}
