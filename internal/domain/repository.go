package domain

import (
	"context"
	"time"
)

// CacheRepository defines one cache tier holding serialized values
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// SessionStore is a cache tier meant to survive a background restart.
// Ephemeral reports whether it is cleared when the session ends.
type SessionStore interface {
	CacheRepository
	Ephemeral() bool
}

// AffiliateClient defines the affiliate lookup service
type AffiliateClient interface {
	AffiliateLinks(ctx context.Context, product *Product) (*DealMatch, error)
	Similar(ctx context.Context, product *Product, limit int) (*SimilarResult, error)
}

// IntelClient defines the remote product-intelligence service
type IntelClient interface {
	ProductIntel(ctx context.Context, req *IntelRequest) (*RemoteIntel, error)
}

// SuggestionClient defines the search-suggestions service
type SuggestionClient interface {
	SearchSuggestions(ctx context.Context, req *SuggestionRequest) (*SuggestionResult, error)
}

// KeyValueStore is the durable store backing the ledger and the extension config
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Update runs fn as a read-modify-write of one key inside a transaction.
	// old is nil when the key does not exist.
	Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error
}
