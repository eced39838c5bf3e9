package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/purell"
)

// Logical product fields understood by the extractors and the locator table
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldCurrency    = "currency"
	FieldBrand       = "brand"
	FieldSKU         = "sku"
	FieldImage       = "image"
)

// CoreFields are the fields a product needs before it is usable downstream
var CoreFields = []string{FieldTitle, FieldDescription}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Product represents product data detected on an e-commerce page
type Product struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	SKU         string   `json:"sku,omitempty"`
	MPN         string   `json:"mpn,omitempty"`
	GTIN        string   `json:"gtin,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Image       string   `json:"image,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// Sufficient reports whether both title and description are present
func (p *Product) Sufficient() bool {
	return p != nil && p.Title != "" && p.Description != ""
}

// Found reports whether the product carries at least a title or a description.
// Anything less is treated as nothing-found.
func (p *Product) Found() bool {
	return p != nil && (p.Title != "" || p.Description != "")
}

// MissingFields lists the core fields that are still empty
func (p *Product) MissingFields() []string {
	missing := []string{}
	if p == nil || p.Title == "" {
		missing = append(missing, FieldTitle)
	}
	if p == nil || p.Description == "" {
		missing = append(missing, FieldDescription)
	}
	return missing
}

// Get returns the string form of a logical field, or "" when it is unknown
func (p *Product) Get(field string) string {
	if p == nil {
		return ""
	}
	switch field {
	case FieldTitle:
		return p.Title
	case FieldDescription:
		return p.Description
	case FieldCurrency:
		return p.Currency
	case FieldBrand:
		return p.Brand
	case FieldSKU:
		return p.SKU
	case FieldImage:
		return p.Image
	}
	return ""
}

// Key derives the identity key used for dedup decisions.
// Format: sha256 hex of canonical JSON {url, sku, gtin, title}
func (p *Product) Key() string {
	if p == nil {
		return ""
	}
	identity := struct {
		URL   string `json:"url"`
		SKU   string `json:"sku"`
		GTIN  string `json:"gtin"`
		Title string `json:"title"`
	}{
		URL:   NormalizeURL(p.URL),
		SKU:   strings.TrimSpace(p.SKU),
		GTIN:  strings.TrimSpace(p.GTIN),
		Title: NormalizeText(p.Title),
	}
	return hashJSON(identity)
}

// NormalizeText lowercases s and collapses runs of whitespace
func NormalizeText(s string) string {
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// CollapseSpace collapses runs of whitespace into one space and trims the result
func CollapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// NormalizeURL applies safe normalizations and drops the fragment.
// Unparseable input is returned trimmed.
func NormalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	normalized, err := purell.NormalizeURLString(rawURL, purell.FlagsSafe|purell.FlagRemoveFragment)
	if err != nil {
		return rawURL
	}
	return normalized
}

// PageKey reduces a page URL to hostname + path, ignoring query, fragment
// and trailing slashes. Remote intel is cached under this key.
func PageKey(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return rawURL
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""

	normalized, err := url.Parse(purell.NormalizeURL(u, purell.FlagsSafe|purell.FlagRemoveDotSegments|purell.FlagRemoveDuplicateSlashes))
	if err != nil {
		return rawURL
	}
	return normalized.Hostname() + strings.TrimRight(normalized.EscapedPath(), "/")
}

func hashJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
