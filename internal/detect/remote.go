package detect

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/affilifind/backend/internal/domain"
	"github.com/affilifind/backend/internal/extract"
)

// RemoteFallback asks the remote intelligence service for product data when
// local extraction is insufficient. Answers are cached per page key for the
// current navigation and concurrent requests for one key share a single call.
type RemoteFallback struct {
	source IntelSource
	store  *SelectorStore
	budget int

	mu         sync.Mutex
	generation uint64
	group      *singleflight.Group
	cache      map[string]*domain.RemoteIntel
}

// NewRemoteFallback creates a remote fallback client. budget is the DOM
// snapshot byte budget; zero selects extract.DefaultSnapshotBudget.
func NewRemoteFallback(source IntelSource, store *SelectorStore, budget int) *RemoteFallback {
	if budget <= 0 {
		budget = extract.DefaultSnapshotBudget
	}
	return &RemoteFallback{
		source: source,
		store:  store,
		budget: budget,
		group:  &singleflight.Group{},
		cache:  make(map[string]*domain.RemoteIntel),
	}
}

// Fetch returns remote intel for the page, or nil when the service fails or
// the navigation changed while the call was in flight. Learned locators from
// a successful answer are merged into the selector store before returning.
func (r *RemoteFallback) Fetch(ctx context.Context, page *Page, missing []string) *domain.RemoteIntel {
	if page == nil || page.URL == "" {
		return nil
	}
	key := domain.PageKey(page.URL)

	r.mu.Lock()
	if intel, ok := r.cache[key]; ok {
		r.mu.Unlock()
		r.store.Learn(intel.Selectors)
		return intel
	}
	group, generation := r.group, r.generation
	r.mu.Unlock()

	value, err, shared := group.Do(key, func() (interface{}, error) {
		req := &domain.IntelRequest{
			URL:           page.URL,
			DOM:           extract.Snapshot(page.Doc, page.URL, r.budget),
			MissingFields: missing,
		}
		slog.Debug("requesting remote product intel", "key", key, "missing", missing, "dom_bytes", len(req.DOM))

		intel, err := r.source.ProductIntel(ctx, req)
		if err != nil {
			return nil, err
		}
		if intel == nil {
			return nil, domain.ErrNotFound
		}

		r.mu.Lock()
		if r.generation == generation {
			r.cache[key] = intel
		}
		r.mu.Unlock()
		return intel, nil
	})
	if err != nil {
		slog.Warn("remote detection failed", "key", key, "err", err)
		return nil
	}

	r.mu.Lock()
	stale := r.generation != generation
	r.mu.Unlock()
	if stale {
		slog.Debug("discarding remote intel from previous navigation", "key", key)
		return nil
	}

	intel := value.(*domain.RemoteIntel)
	if shared {
		slog.Debug("remote intel call shared", "key", key)
	}
	r.store.Learn(intel.Selectors)
	return intel
}

// Reset forgets cached answers and detaches in-flight calls from the new navigation
func (r *RemoteFallback) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.group = &singleflight.Group{}
	r.cache = make(map[string]*domain.RemoteIntel)
}
