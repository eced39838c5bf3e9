package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affilifind/backend/internal/domain"
)

const heuristicPage = `<html><head>
<title>Shop | Kettle</title>
<meta name="description" content="Meta description">
<meta property="product:price:currency" content="USD">
<link rel="canonical" href="/p/kettle">
</head><body>
<h1 id="productTitle">  Steel Kettle  </h1>
<span class="price">$1,234.56</span>
<div id="productDescription"><p>Boils   water
  fast</p></div>
<div id="bylineInfo">Acme</div>
<span itemprop="sku">K-100</span>
<img id="landingImage" src="https://img.example/k.jpg">
</body></html>`

func TestHeuristic(t *testing.T) {
	doc := mustDoc(t, heuristicPage)

	got := Heuristic(doc, BaseLocators(), "https://shop.example.com/p/kettle?ref=1")

	want := &domain.Product{
		Title:       "Steel Kettle",
		Description: "<p>Boils water fast</p>",
		Price:       float(1234.56),
		Currency:    "USD",
		SKU:         "K-100",
		Brand:       "Acme",
		Image:       "https://img.example/k.jpg",
		URL:         "https://shop.example.com/p/kettle",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Heuristic() mismatch (-want +got):\n%s", diff)
	}
}

func TestHeuristic_Fallbacks(t *testing.T) {
	doc := mustDoc(t, `<html><head>
<title> Document Title </title>
<meta property="og:description" content="OG description">
<meta property="og:image" content="https://img.example/og.jpg">
</head><body><span class="price">call us</span></body></html>`)

	got := Heuristic(doc, BaseLocators(), "https://shop.example.com/p/thing")

	require.NotNil(t, got)
	assert.Equal(t, "Document Title", got.Title)
	assert.Equal(t, "OG description", got.Description)
	assert.Equal(t, "https://img.example/og.jpg", got.Image)
	assert.Equal(t, "https://shop.example.com/p/thing", got.URL)
	assert.Nil(t, got.Price, "unparseable price must stay absent")
}

func TestHeuristic_LearnedLocators(t *testing.T) {
	doc := mustDoc(t, `<html><body>
<div class="pdp-name">Custom Title</div>
<section class="pdp-copy">Custom   description</section>
</body></html>`)

	table := domain.MergeLocators(BaseLocators(), domain.LocatorTable{
		domain.FieldTitle:       {".pdp-name"},
		domain.FieldDescription: {".pdp-copy"},
	})

	got := Heuristic(doc, table, "https://shop.example.com/p/custom")

	require.NotNil(t, got)
	assert.Equal(t, "Custom Title", got.Title)
	assert.Equal(t, "Custom description", got.Description)
}

func TestHeuristic_NothingFound(t *testing.T) {
	doc := mustDoc(t, `<html><body><div>nothing here</div></body></html>`)

	assert.Nil(t, Heuristic(doc, BaseLocators(), "https://shop.example.com/"))
	assert.Nil(t, Heuristic(nil, BaseLocators(), "https://shop.example.com/"))
}

func TestBaseLocators_ReturnsCopy(t *testing.T) {
	table := BaseLocators()
	table[domain.FieldTitle][0] = "mutated"

	assert.NotEqual(t, "mutated", BaseLocators()[domain.FieldTitle][0])
}
