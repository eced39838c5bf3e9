package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/affilifind/backend/internal/domain"
)

const (
	// DefaultSuggestionCacheSize bounds the number of cached suggestion answers
	DefaultSuggestionCacheSize = 256

	// DefaultSuggestionTTL is how long a suggestion answer is reused
	DefaultSuggestionTTL = 10 * time.Minute
)

// ErrNoQuery is returned when neither a query nor a product title is given
var ErrNoQuery = fmt.Errorf("%w: no query provided", domain.ErrInvalidRequest)

// SuggestionService answers search-suggestion requests through an LRU
type SuggestionService struct {
	client       domain.SuggestionClient
	preprocessor *QueryPreprocessor
	cache        *expirable.LRU[string, *domain.SuggestionResult]
}

// NewSuggestionService creates a suggestion service. Non-positive size or
// ttl select the defaults.
func NewSuggestionService(client domain.SuggestionClient, preprocessor *QueryPreprocessor, size int, ttl time.Duration) *SuggestionService {
	if size <= 0 {
		size = DefaultSuggestionCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultSuggestionTTL
	}
	if preprocessor == nil {
		preprocessor = NewQueryPreprocessor(false)
	}
	return &SuggestionService{
		client:       client,
		preprocessor: preprocessor,
		cache:        expirable.NewLRU[string, *domain.SuggestionResult](size, nil, ttl),
	}
}

// Suggest resolves req. The query defaults to the product title and the
// context to the product brand. Items without an https URL are dropped.
func (s *SuggestionService) Suggest(ctx context.Context, req *domain.SuggestionRequest) (*domain.SuggestionResult, error) {
	if req == nil {
		return nil, ErrNoQuery
	}

	query := strings.TrimSpace(req.Query)
	if query == "" && req.Product != nil {
		query = strings.TrimSpace(req.Product.Title)
	}
	query = s.preprocessor.PreprocessQuery(query)
	if query == "" {
		return nil, ErrNoQuery
	}

	searchContext := strings.TrimSpace(req.Context)
	if searchContext == "" && req.Product != nil {
		searchContext = req.Product.Brand
	}

	productURL := ""
	if req.Product != nil {
		productURL = req.Product.URL
	}
	key := strings.ToLower(query) + "::" + searchContext + "::" + productURL

	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	upstreamReq := *req
	upstreamReq.Query = query
	upstreamReq.Context = searchContext
	result, err := s.client.SearchSuggestions(ctx, &upstreamReq)
	if err != nil {
		if !errors.Is(err, domain.ErrUpstream) && !errors.Is(err, domain.ErrInvalidRequest) {
			err = fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		return nil, err
	}

	filtered := &domain.SuggestionResult{Items: []domain.SuggestionItem{}}
	if result != nil {
		for _, item := range result.Items {
			if isHTTPS(item.URL) {
				filtered.Items = append(filtered.Items, item)
			}
		}
	}
	s.cache.Add(key, filtered)
	return filtered, nil
}

// Len returns the number of cached answers
func (s *SuggestionService) Len() int {
	return s.cache.Len()
}

func isHTTPS(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && u.Scheme == "https" && u.Host != ""
}
