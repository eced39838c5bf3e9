package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// fallbackAttributes are tried on a matched element when the field has no
// explicit accessor attribute or it is empty
var fallbackAttributes = []string{"content", "src", "data-src", "href", "value"}

// ReadOptions controls how a matched element is turned into a value
type ReadOptions struct {
	// Attribute is read first when set
	Attribute string
	// HTML returns the inner HTML instead of the text content
	HTML bool
}

// ReadField returns the first non-empty value found by trying each locator
// in order. Invalid locators and elements without a value are skipped.
func ReadField(doc *goquery.Document, locators []string, opts ReadOptions) string {
	if doc == nil {
		return ""
	}
	for _, locator := range locators {
		if strings.TrimSpace(locator) == "" {
			continue
		}
		node := doc.Find(locator).First()
		if node.Length() == 0 {
			continue
		}
		if value := readNode(node, opts); value != "" {
			return value
		}
	}
	return ""
}

func readNode(node *goquery.Selection, opts ReadOptions) string {
	if opts.Attribute != "" {
		if value := strings.TrimSpace(node.AttrOr(opts.Attribute, "")); value != "" {
			return value
		}
	}
	if opts.HTML {
		if html, err := node.Html(); err == nil {
			if value := strings.TrimSpace(html); value != "" {
				return value
			}
		}
	}
	for _, attr := range fallbackAttributes {
		if value := strings.TrimSpace(node.AttrOr(attr, "")); value != "" {
			return value
		}
	}
	return strings.TrimSpace(node.Text())
}

// attrOf returns the trimmed attribute of the first element matching selector
func attrOf(doc *goquery.Document, selector, attr string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr(attr, ""))
}
