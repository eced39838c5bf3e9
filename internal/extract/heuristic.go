package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/affilifind/backend/internal/domain"
)

// Heuristic reads a product through the locator table. The table is usually
// the base table merged with learned locators. Returns nil when neither a
// title nor a description can be read.
func Heuristic(doc *goquery.Document, table domain.LocatorTable, pageURL string) *domain.Product {
	if doc == nil {
		return nil
	}

	product := &domain.Product{
		Title:       readTitle(doc, table),
		Description: readDescription(doc, table),
		Price:       ParsePrice(ReadField(doc, table[domain.FieldPrice], OptionsFor(domain.FieldPrice))),
		Currency:    ReadField(doc, table[domain.FieldCurrency], OptionsFor(domain.FieldCurrency)),
		SKU:         ReadField(doc, table[domain.FieldSKU], OptionsFor(domain.FieldSKU)),
		Brand:       ReadField(doc, table[domain.FieldBrand], OptionsFor(domain.FieldBrand)),
		Image:       ReadField(doc, table[domain.FieldImage], OptionsFor(domain.FieldImage)),
	}
	if product.Image == "" {
		product.Image = attrOf(doc, "meta[property='og:image']", "content")
	}

	product.URL = CanonicalURL(doc, pageURL)
	if product.URL == "" {
		product.URL = pageURL
	}

	if !product.Found() {
		return nil
	}
	return product
}

func readTitle(doc *goquery.Document, table domain.LocatorTable) string {
	if title := ReadField(doc, table[domain.FieldTitle], OptionsFor(domain.FieldTitle)); title != "" {
		return title
	}
	if title := attrOf(doc, "meta[property='og:title']", "content"); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func readDescription(doc *goquery.Document, table domain.LocatorTable) string {
	raw := ReadField(doc, table[domain.FieldDescription], OptionsFor(domain.FieldDescription))
	if description := domain.CollapseSpace(raw); description != "" {
		return description
	}
	if description := attrOf(doc, "meta[name='description']", "content"); description != "" {
		return description
	}
	return attrOf(doc, "meta[property='og:description']", "content")
}
