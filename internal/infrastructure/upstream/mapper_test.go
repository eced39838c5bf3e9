package upstream

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/affilifind/backend/internal/domain"
)

func TestAffiliateParams(t *testing.T) {
	price := 5.0
	tests := []struct {
		name    string
		product *domain.Product
		want    url.Values
	}{
		{
			name:    "nil product",
			product: nil,
			want:    url.Values{},
		},
		{
			name:    "sku preferred over mpn",
			product: &domain.Product{Title: "Widget", SKU: "S1", MPN: "M1", Price: &price},
			want:    url.Values{"title": {"Widget"}, "sku": {"S1"}, "price": {"5"}},
		},
		{
			name:    "mpn fallback and empty values dropped",
			product: &domain.Product{Title: "Widget", MPN: "M1", Brand: " ", GTIN: "0001"},
			want:    url.Values{"title": {"Widget"}, "sku": {"M1"}, "upc": {"0001"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, affiliateParams(tt.product))
		})
	}
}

func TestSimilarParams(t *testing.T) {
	params := similarParams(&domain.Product{Title: "Widget"}, -1)
	assert.Equal(t, "6", params.Get("limit"))
	assert.Equal(t, "Widget", params.Get("title"))

	assert.Equal(t, "3", similarParams(nil, 3).Get("limit"))
}

func TestNormalizeIntel(t *testing.T) {
	intel := normalizeIntel(&domain.RemoteIntel{
		Selectors: domain.LocatorTable{
			"title":       {" h1.title ", ""},
			"description": {""},
		},
		CachedAt: 42,
	})

	assert.Equal(t, domain.LocatorTable{"title": {"h1.title"}}, intel.Selectors)
	assert.EqualValues(t, 42, intel.CachedAt)
}
