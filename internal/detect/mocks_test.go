package detect

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/affilifind/backend/internal/domain"
)

const sufficientHTML = `<html><head><title>Acme Widget | Shop</title>
<meta name="description" content="A sturdy widget for every workshop">
</head><body><h1>Acme Widget</h1><span class="price">$19.99</span></body></html>`

const insufficientHTML = `<html><head><title>Shop</title></head><body>
<h1>Acme Widget</h1>
<div class="pdp-copy">Hand built   widget</div>
</body></html>`

func mustPage(t *testing.T, pageURL, html string) *Page {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return &Page{URL: pageURL, Doc: doc}
}

// mockIntelSource is a mock implementation of IntelSource
type mockIntelSource struct {
	mu       sync.Mutex
	calls    int
	requests []*domain.IntelRequest
	result   *domain.RemoteIntel
	err      error

	started chan struct{}
	release chan struct{}
}

func newMockIntelSource(result *domain.RemoteIntel) *mockIntelSource {
	return &mockIntelSource{result: result, started: make(chan struct{}, 16)}
}

func (m *mockIntelSource) ProductIntel(ctx context.Context, req *domain.IntelRequest) (*domain.RemoteIntel, error) {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	result, err, release := m.result, m.err, m.release
	m.mu.Unlock()

	m.started <- struct{}{}
	if release != nil {
		<-release
	}
	return result, err
}

func (m *mockIntelSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockBackground is a mock implementation of Background
type mockBackground struct {
	*mockIntelSource

	mu        sync.Mutex
	detected  []*domain.Product
	lookups   int
	match     *domain.DealMatch
	lookupErr error
	config    *domain.ExtensionConfig
	applied   []*domain.DealRecord
}

func newMockBackground() *mockBackground {
	discount := 20.0
	return &mockBackground{
		mockIntelSource: newMockIntelSource(nil),
		match: &domain.DealMatch{
			Match:     &domain.Match{Merchant: "Acme Store"},
			Affiliate: &domain.Affiliate{URL: "https://aff.example/acme", DiscountPercent: &discount, CouponCode: "SAVE20"},
		},
		config: &domain.ExtensionConfig{AutoInject: true},
	}
}

func (m *mockBackground) ProductDetected(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detected = append(m.detected, product)
	return nil
}

func (m *mockBackground) LookupAffiliate(ctx context.Context, product *domain.Product) (*domain.DealMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	return m.match, m.lookupErr
}

func (m *mockBackground) Config(ctx context.Context) (*domain.ExtensionConfig, error) {
	return m.config, nil
}

func (m *mockBackground) ApplyAffiliate(ctx context.Context, affiliateURL string, record *domain.DealRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied = append(m.applied, record)
	return nil
}

func (m *mockBackground) Lookups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}

// mockPresenter records presenter calls
type mockPresenter struct {
	mu     sync.Mutex
	shown  []*domain.Deal
	clears int
}

func (m *mockPresenter) Show(product *domain.Product, deal *domain.Deal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown = append(m.shown, deal)
}

func (m *mockPresenter) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
}

func (m *mockPresenter) Shown() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shown)
}

// stubSource serves whatever page was set last. A non-nil gate blocks Load
// until it is closed.
type stubSource struct {
	t    *testing.T
	mu   sync.Mutex
	url  string
	html string
	gate chan struct{}
	hits chan struct{}
}

func newStubSource(t *testing.T, pageURL, html string) *stubSource {
	return &stubSource{t: t, url: pageURL, html: html, hits: make(chan struct{}, 16)}
}

func (s *stubSource) Set(pageURL, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url, s.html = pageURL, html
}

func (s *stubSource) Load(ctx context.Context) (*Page, error) {
	s.mu.Lock()
	pageURL, html, gate := s.url, s.html, s.gate
	s.mu.Unlock()

	s.hits <- struct{}{}
	if gate != nil {
		<-gate
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &Page{URL: pageURL, Doc: doc}, nil
}
