package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/affilifind/backend/internal/domain"
)

const tabKeyPrefix = "tab:"

// tabScope is the key prefix owning every session entry of one tab. The
// trailing separator keeps tab 1 from matching tab 10.
func tabScope(tabID string) string {
	return tabKeyPrefix + tabID + ":"
}

func tabProductKey(tabID string) string {
	return tabScope(tabID) + "product"
}

// TabRegistry remembers the last detected product per tab. The session tier
// lets the popup recover a product after a background restart.
type TabRegistry struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	session  domain.SessionStore
}

// NewTabRegistry creates a registry. session may be nil.
func NewTabRegistry(session domain.SessionStore) *TabRegistry {
	return &TabRegistry{
		products: make(map[string]*domain.Product),
		session:  session,
	}
}

// Record stores product for tabID
func (r *TabRegistry) Record(ctx context.Context, tabID string, product *domain.Product) error {
	if tabID == "" {
		return fmt.Errorf("%w: tab id is required", domain.ErrInvalidRequest)
	}
	if product == nil {
		return fmt.Errorf("%w: product is required", domain.ErrInvalidRequest)
	}
	stored := *product

	r.mu.Lock()
	r.products[tabID] = &stored
	r.mu.Unlock()

	if r.session == nil {
		return nil
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	if err := r.session.Set(ctx, tabProductKey(tabID), data, 0); err != nil {
		slog.Warn("session write failed", "tab", tabID, "err", err)
	}
	return nil
}

// Product returns the product for tabID, or nil when none was recorded
func (r *TabRegistry) Product(ctx context.Context, tabID string) *domain.Product {
	if tabID == "" {
		return nil
	}

	r.mu.RLock()
	product, ok := r.products[tabID]
	r.mu.RUnlock()
	if ok {
		copied := *product
		return &copied
	}

	if r.session == nil {
		return nil
	}
	data, err := r.session.Get(ctx, tabProductKey(tabID))
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			slog.Warn("session read failed", "tab", tabID, "err", err)
		}
		return nil
	}
	var restored domain.Product
	if err := json.Unmarshal(data, &restored); err != nil {
		slog.Warn("discarding malformed tab entry", "tab", tabID, "err", err)
		return nil
	}

	r.mu.Lock()
	if _, ok := r.products[tabID]; !ok {
		copied := restored
		r.products[tabID] = &copied
	}
	r.mu.Unlock()
	return &restored
}

// Close forgets tabID in both tiers, dropping every session entry under its scope
func (r *TabRegistry) Close(ctx context.Context, tabID string) error {
	if tabID == "" {
		return fmt.Errorf("%w: tab id is required", domain.ErrInvalidRequest)
	}

	r.mu.Lock()
	delete(r.products, tabID)
	r.mu.Unlock()

	if r.session == nil {
		return nil
	}
	return r.session.DeletePrefix(ctx, tabScope(tabID))
}

// Len returns the number of tabs held in memory
func (r *TabRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products)
}
