package detect

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affilifind/backend/internal/domain"
)

func newTestOrchestrator(source IntelSource) (*Orchestrator, *SelectorStore) {
	store := NewSelectorStore(nil)
	return NewOrchestrator(store, NewRemoteFallback(source, store, 0)), store
}

func TestOrchestrator_SufficientSkipsRemote(t *testing.T) {
	source := newMockIntelSource(&domain.RemoteIntel{})
	orchestrator, _ := newTestOrchestrator(source)

	product := orchestrator.Detect(context.Background(), mustPage(t, "https://shop.example/p/widget", sufficientHTML))

	require.NotNil(t, product)
	assert.Equal(t, "Acme Widget", product.Title)
	assert.Equal(t, "A sturdy widget for every workshop", product.Description)
	require.NotNil(t, product.Price)
	assert.Equal(t, 19.99, *product.Price)
	assert.Equal(t, 0, source.Calls())
}

func TestOrchestrator_StructuredWinsOverHeuristic(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">{"@type":"Product","name":"Structured Widget","sku":"W-1","offers":{"price":"12.50","priceCurrency":"EUR"}}</script>
<meta name="description" content="Described">
</head><body><h1>Heading Widget</h1><span class="price">$99.00</span></body></html>`
	orchestrator, _ := newTestOrchestrator(newMockIntelSource(nil))

	product := orchestrator.Detect(context.Background(), mustPage(t, "https://shop.example/p/w1", html))

	require.NotNil(t, product)
	price := 12.5
	want := &domain.Product{
		Title:       "Structured Widget",
		Description: "Described",
		Price:       &price,
		Currency:    "EUR",
		SKU:         "W-1",
		URL:         "https://shop.example/p/w1",
	}
	if diff := cmp.Diff(want, product); diff != "" {
		t.Errorf("Detect() mismatch (-want +got):\n%s", diff)
	}
}

func TestOrchestrator_RemoteFillsGapsWithLearnedLocators(t *testing.T) {
	source := newMockIntelSource(&domain.RemoteIntel{
		Product:   domain.Product{Brand: "Acme"},
		Selectors: domain.LocatorTable{domain.FieldDescription: {".pdp-copy"}},
	})
	orchestrator, store := newTestOrchestrator(source)

	product := orchestrator.Detect(context.Background(), mustPage(t, "https://shop.example/p/widget", insufficientHTML))

	require.NotNil(t, product)
	assert.Equal(t, "Acme Widget", product.Title)
	assert.Equal(t, "Hand built widget", product.Description)
	assert.Equal(t, "Acme", product.Brand)
	assert.Equal(t, "https://shop.example/p/widget", product.URL)

	assert.Equal(t, 1, source.Calls())
	assert.Equal(t, []string{domain.FieldDescription}, source.requests[0].MissingFields)
	assert.Contains(t, store.Learned()[domain.FieldDescription], ".pdp-copy")
}

func TestOrchestrator_RemoteValuesWin(t *testing.T) {
	source := newMockIntelSource(&domain.RemoteIntel{
		Product: domain.Product{Title: "Acme Widget Pro", Description: "From the service"},
	})
	orchestrator, _ := newTestOrchestrator(source)

	product := orchestrator.Detect(context.Background(), mustPage(t, "https://shop.example/p/widget", insufficientHTML))

	require.NotNil(t, product)
	assert.Equal(t, "Acme Widget Pro", product.Title)
	assert.Equal(t, "From the service", product.Description)
}

func TestOrchestrator_RemoteFailureKeepsLocal(t *testing.T) {
	source := newMockIntelSource(nil)
	source.err = errors.New("connection refused")
	orchestrator, _ := newTestOrchestrator(source)

	product := orchestrator.Detect(context.Background(), mustPage(t, "https://shop.example/p/widget", insufficientHTML))

	require.NotNil(t, product)
	assert.Equal(t, "Acme Widget", product.Title)
	assert.Empty(t, product.Description)
	assert.Equal(t, 1, source.Calls())
}

func TestOrchestrator_NothingFound(t *testing.T) {
	tests := []struct {
		name  string
		intel *domain.RemoteIntel
		err   error
	}{
		{name: "remote error", err: errors.New("boom")},
		{name: "remote empty", intel: &domain.RemoteIntel{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := newMockIntelSource(tt.intel)
			source.err = tt.err
			orchestrator, _ := newTestOrchestrator(source)

			product := orchestrator.Detect(context.Background(), mustPage(t, "https://shop.example/", `<html><body><p>hello</p></body></html>`))

			assert.Nil(t, product)
		})
	}
}

func TestOrchestrator_NilPage(t *testing.T) {
	orchestrator, _ := newTestOrchestrator(newMockIntelSource(nil))
	assert.Nil(t, orchestrator.Detect(context.Background(), nil))
}
