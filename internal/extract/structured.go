package extract

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/titanous/json5"

	"github.com/affilifind/backend/internal/domain"
)

const jsonLDSelector = `script[type*="ld+json"]`

// Structured extracts the first schema.org Product node embedded as JSON-LD.
// Blocks are parsed leniently; malformed blocks are skipped. Returns nil when
// no Product node is present.
func Structured(doc *goquery.Document, pageURL string) *domain.Product {
	if doc == nil {
		return nil
	}

	var found *domain.Product
	doc.Find(jsonLDSelector).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		var data interface{}
		if err := json5.Unmarshal([]byte(script.Text()), &data); err != nil {
			return true
		}
		for _, node := range flattenNodes(data) {
			if !hasType(node, "Product") {
				continue
			}
			found = productFromNode(node, doc, pageURL)
			return false
		}
		return true
	})
	return found
}

// flattenNodes unwraps top-level arrays and @graph containers into a flat node list
func flattenNodes(data interface{}) []map[string]interface{} {
	var nodes []map[string]interface{}
	switch v := data.(type) {
	case []interface{}:
		for _, item := range v {
			nodes = append(nodes, flattenNodes(item)...)
		}
	case map[string]interface{}:
		nodes = append(nodes, v)
		if graph, ok := v["@graph"]; ok {
			nodes = append(nodes, flattenNodes(graph)...)
		}
	}
	return nodes
}

// hasType reports whether the node's @type (string or list) contains want
func hasType(node map[string]interface{}, want string) bool {
	matches := func(t interface{}) bool {
		s, ok := t.(string)
		if !ok {
			return false
		}
		return s == want || strings.HasSuffix(s, "/"+want)
	}

	switch t := node["@type"].(type) {
	case string:
		return matches(t)
	case []interface{}:
		for _, item := range t {
			if matches(item) {
				return true
			}
		}
	}
	return false
}

func productFromNode(node map[string]interface{}, doc *goquery.Document, pageURL string) *domain.Product {
	offers, _ := pickFirst(node["offers"]).(map[string]interface{})

	product := &domain.Product{
		Title:       firstString(node, "name", "title"),
		Description: firstString(node, "description"),
		Brand:       brandOf(node["brand"]),
		SKU:         firstString(node, "sku"),
		MPN:         firstString(node, "mpn"),
		GTIN:        firstString(node, "gtin", "gtin13", "gtin12", "gtin14", "gtin8"),
		Image:       imageOf(node["image"]),
	}
	if offers != nil {
		product.Price = ParsePrice(firstString(offers, "price", "lowPrice", "highPrice"))
		product.Currency = firstString(offers, "priceCurrency", "priceCurrencyCode")
	}

	if nodeURL := firstString(node, "url"); nodeURL != "" {
		product.URL = resolveURL(nodeURL, pageURL)
	} else if canonical := CanonicalURL(doc, pageURL); canonical != "" {
		product.URL = canonical
	} else {
		product.URL = pageURL
	}

	return product
}

func pickFirst(v interface{}) interface{} {
	if list, ok := v.([]interface{}); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return v
}

// firstString returns the first key holding a non-empty scalar, as a string
func firstString(node map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s := scalarString(node[key]); s != "" {
			return s
		}
	}
	return ""
}

func scalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func brandOf(v interface{}) string {
	switch t := pickFirst(v).(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]interface{}:
		return firstString(t, "name")
	}
	return ""
}

func imageOf(v interface{}) string {
	switch t := pickFirst(v).(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]interface{}:
		return firstString(t, "url", "contentUrl")
	}
	return ""
}

// CanonicalURL returns the page's declared canonical URL resolved against pageURL
func CanonicalURL(doc *goquery.Document, pageURL string) string {
	if doc == nil {
		return ""
	}
	candidates := []string{
		attrOf(doc, "link[rel='canonical']", "href"),
		attrOf(doc, "link[rel='alternate'][hreflang='x-default']", "href"),
		attrOf(doc, "meta[property='og:url']", "content"),
	}
	for _, candidate := range candidates {
		if candidate != "" {
			return resolveURL(candidate, pageURL)
		}
	}
	return ""
}

func resolveURL(ref, base string) string {
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil || base == "" {
		return refURL.String()
	}
	return baseURL.ResolveReference(refURL).String()
}
