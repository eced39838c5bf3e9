package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/affilifind/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.SessionStore
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string][]byte
	ephemeral bool
	getError  error
	setError  error
	getCalls  int
	setCalls  int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data:      make(map[string][]byte),
		ephemeral: true,
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) DeletePrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

func (m *MockCacheRepository) Ephemeral() bool {
	return m.ephemeral
}

func (m *MockCacheRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// MockAffiliateClient is a mock implementation of domain.AffiliateClient
type MockAffiliateClient struct {
	mu            sync.Mutex
	dealResult    *domain.DealMatch
	dealError     error
	similarResult *domain.SimilarResult
	similarError  error
	dealCalls     int
	similarCalls  int
	lastLimit     int
}

func NewMockAffiliateClient() *MockAffiliateClient {
	discount := 20.0
	return &MockAffiliateClient{
		dealResult: &domain.DealMatch{
			Match:     &domain.Match{Merchant: "Acme Store"},
			Affiliate: &domain.Affiliate{URL: "https://aff.example/acme", DiscountPercent: &discount},
		},
		similarResult: &domain.SimilarResult{Items: []domain.SimilarItem{{Title: "Widget Pro"}}},
	}
}

func (m *MockAffiliateClient) AffiliateLinks(ctx context.Context, product *domain.Product) (*domain.DealMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dealCalls++
	if m.dealError != nil {
		return nil, m.dealError
	}
	return m.dealResult, nil
}

func (m *MockAffiliateClient) Similar(ctx context.Context, product *domain.Product, limit int) (*domain.SimilarResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.similarCalls++
	m.lastLimit = limit
	if m.similarError != nil {
		return nil, m.similarError
	}
	return m.similarResult, nil
}

// MockIntelClient is a mock implementation of domain.IntelClient
type MockIntelClient struct {
	mu      sync.Mutex
	result  *domain.RemoteIntel
	err     error
	calls   int
	release chan struct{}
}

func (m *MockIntelClient) ProductIntel(ctx context.Context, req *domain.IntelRequest) (*domain.RemoteIntel, error) {
	m.mu.Lock()
	m.calls++
	release := m.release
	m.mu.Unlock()
	if release != nil {
		<-release
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *MockIntelClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockSuggestionClient is a mock implementation of domain.SuggestionClient
type MockSuggestionClient struct {
	result   *domain.SuggestionResult
	err      error
	calls    int
	requests []domain.SuggestionRequest
}

func (m *MockSuggestionClient) SearchSuggestions(ctx context.Context, req *domain.SuggestionRequest) (*domain.SuggestionResult, error) {
	m.calls++
	m.requests = append(m.requests, *req)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// MockKeyValueStore is a mock implementation of domain.KeyValueStore
type MockKeyValueStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	getError error
}

func NewMockKeyValueStore() *MockKeyValueStore {
	return &MockKeyValueStore{data: make(map[string][]byte)}
}

func (m *MockKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	value, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return value, nil
}

func (m *MockKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockKeyValueStore) Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := fn(m.data[key])
	if err != nil {
		return err
	}
	m.data[key] = next
	return nil
}

func testProduct() *domain.Product {
	price := 100.0
	return &domain.Product{
		Title:    "Acme Widget",
		Brand:    "Acme",
		Price:    &price,
		Currency: "USD",
		URL:      "https://shop.example/widget",
		SKU:      "W-1",
	}
}
