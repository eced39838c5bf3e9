package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/affilifind/backend/internal/domain"
)

// DefaultSimilarLimit is the similar-products limit when none is given
const DefaultSimilarLimit = 6

const dealKeyPrefix = "deal:"

// DealServiceConfig holds configuration for the deal service
type DealServiceConfig struct {
	// CacheTTL applies to both tiers; zero keeps entries for the life of the tier
	CacheTTL time.Duration
}

// DealService resolves affiliate deals and similar products through a
// memory tier, an ephemeral session tier and the affiliate API
type DealService struct {
	memory   domain.CacheRepository
	session  domain.SessionStore
	client   domain.AffiliateClient
	cacheTTL time.Duration
}

// NewDealService creates a new deal service. session may be nil.
func NewDealService(
	memory domain.CacheRepository,
	session domain.SessionStore,
	client domain.AffiliateClient,
	config DealServiceConfig,
) *DealService {
	return &DealService{
		memory:   memory,
		session:  session,
		client:   client,
		cacheTTL: config.CacheTTL,
	}
}

// LookupDeal returns the affiliate match for a product.
// Flow: memory -> session (ephemeral only) -> API -> write both tiers
func (s *DealService) LookupDeal(ctx context.Context, product *domain.Product) (*domain.DealMatch, error) {
	if product == nil {
		return nil, fmt.Errorf("%w: product is required", domain.ErrInvalidRequest)
	}
	return resolve(ctx, s, dealKeyPrefix+domain.DealKey(product), func(ctx context.Context) (*domain.DealMatch, error) {
		return s.client.AffiliateLinks(ctx, product)
	})
}

// LookupSimilar returns up to limit similar products
func (s *DealService) LookupSimilar(ctx context.Context, product *domain.Product, limit int) (*domain.SimilarResult, error) {
	if product == nil {
		return nil, fmt.Errorf("%w: product is required", domain.ErrInvalidRequest)
	}
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	return resolve(ctx, s, dealKeyPrefix+domain.SimilarKey(product, limit), func(ctx context.Context) (*domain.SimilarResult, error) {
		return s.client.Similar(ctx, product, limit)
	})
}

// resolve walks the cache tiers for key and falls back to fetch. Upstream
// errors are returned and never cached.
func resolve[T any](ctx context.Context, s *DealService, key string, fetch func(ctx context.Context) (*T, error)) (*T, error) {
	if value, ok := s.getCached(ctx, s.memory, key, "memory"); ok {
		var out T
		if err := json.Unmarshal(value, &out); err == nil {
			return &out, nil
		}
	}

	if s.sessionEnabled() {
		if value, ok := s.getCached(ctx, s.session, key, "session"); ok {
			var out T
			if err := json.Unmarshal(value, &out); err == nil {
				s.setCached(ctx, s.memory, key, value, "memory")
				return &out, nil
			}
		}
	}

	result, err := fetch(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrUpstream) {
			err = fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		return nil, err
	}

	value, err := json.Marshal(result)
	if err != nil {
		slog.Warn("encode deal for cache failed", "key", key, "err", err)
		return result, nil
	}
	s.setCached(ctx, s.memory, key, value, "memory")
	if s.sessionEnabled() {
		s.setCached(ctx, s.session, key, value, "session")
	}
	return result, nil
}

// sessionEnabled reports whether deals may be cached in the session tier.
// A persistent session tier would keep stale deals across restarts.
func (s *DealService) sessionEnabled() bool {
	return s.session != nil && s.session.Ephemeral()
}

func (s *DealService) getCached(ctx context.Context, tier domain.CacheRepository, key, name string) ([]byte, bool) {
	value, err := tier.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			slog.Warn("cache read failed", "tier", name, "key", key, "err", err)
		}
		return nil, false
	}
	return value, true
}

func (s *DealService) setCached(ctx context.Context, tier domain.CacheRepository, key string, value []byte, name string) {
	if err := tier.Set(ctx, key, value, s.cacheTTL); err != nil {
		slog.Warn("cache write failed", "tier", name, "key", key, "err", err)
	}
}
