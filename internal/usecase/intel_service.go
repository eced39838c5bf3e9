package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/affilifind/backend/internal/domain"
)

const intelKeyPrefix = "intel:"

// IntelService caches remote product intelligence per page
type IntelService struct {
	memory   domain.CacheRepository
	client   domain.IntelClient
	cacheTTL time.Duration
	group    singleflight.Group
}

// NewIntelService creates a new intel service
func NewIntelService(memory domain.CacheRepository, client domain.IntelClient, cacheTTL time.Duration) *IntelService {
	return &IntelService{
		memory:   memory,
		client:   client,
		cacheTTL: cacheTTL,
	}
}

// Fetch returns the remote intel for the page in req. Concurrent requests for
// the same page share one upstream call.
func (s *IntelService) Fetch(ctx context.Context, req *domain.IntelRequest) (*domain.RemoteIntel, error) {
	if req == nil || strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("%w: url is required", domain.ErrInvalidRequest)
	}
	key := intelKeyPrefix + domain.PageKey(req.URL)

	if data, err := s.memory.Get(ctx, key); err == nil {
		var intel domain.RemoteIntel
		if err := json.Unmarshal(data, &intel); err == nil {
			return &intel, nil
		}
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		slog.Warn("cache read failed", "tier", "memory", "key", key, "err", err)
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		intel, err := s.client.ProductIntel(ctx, req)
		if err != nil {
			return nil, err
		}
		if intel == nil {
			return nil, fmt.Errorf("%w: %w: no intel for page", domain.ErrUpstream, domain.ErrNotFound)
		}
		if data, err := json.Marshal(intel); err == nil {
			if err := s.memory.Set(ctx, key, data, s.cacheTTL); err != nil {
				slog.Warn("cache write failed", "tier", "memory", "key", key, "err", err)
			}
		}
		return intel, nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrUpstream) {
			err = fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		return nil, err
	}
	if shared {
		slog.Debug("remote intel shared", "key", key)
	}
	return v.(*domain.RemoteIntel), nil
}
