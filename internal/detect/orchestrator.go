package detect

import (
	"context"

	"github.com/affilifind/backend/internal/domain"
	"github.com/affilifind/backend/internal/extract"
)

// Orchestrator combines structured, heuristic and remote extraction into one
// detection decision
type Orchestrator struct {
	store  *SelectorStore
	remote *RemoteFallback
}

// NewOrchestrator creates an orchestrator over the given store and remote fallback
func NewOrchestrator(store *SelectorStore, remote *RemoteFallback) *Orchestrator {
	return &Orchestrator{store: store, remote: remote}
}

// Detect returns the best product found on the page, or nil.
//
// Structured data wins over heuristic reads where both are present. The
// remote fallback is only consulted when title or description is missing;
// its non-empty values win, and fields it leaves empty are re-read locally
// with the just-learned locators.
func (o *Orchestrator) Detect(ctx context.Context, page *Page) *domain.Product {
	if page == nil || page.Doc == nil {
		return nil
	}

	local := o.detectLocally(page)
	if local.Sufficient() {
		return local
	}

	intel := o.remote.Fetch(ctx, page, local.MissingFields())
	if intel == nil {
		return found(local)
	}

	combined := domain.Merge(valueOf(local), intel.Product)
	if relocal := extract.Heuristic(page.Doc, o.store.Table(), page.URL); relocal != nil {
		combined = domain.FillGaps(combined, *relocal)
	}
	if combined.URL == "" {
		combined.URL = page.URL
	}

	if combined.Found() {
		return &combined
	}
	return found(local)
}

// detectLocally merges structured data over the heuristic read
func (o *Orchestrator) detectLocally(page *Page) *domain.Product {
	structured := extract.Structured(page.Doc, page.URL)
	heuristic := extract.Heuristic(page.Doc, o.store.Table(), page.URL)
	if structured == nil && heuristic == nil {
		return nil
	}
	merged := domain.Merge(valueOf(heuristic), valueOf(structured))
	return found(&merged)
}

func valueOf(p *domain.Product) domain.Product {
	if p == nil {
		return domain.Product{}
	}
	return *p
}

func found(p *domain.Product) *domain.Product {
	if !p.Found() {
		return nil
	}
	return p
}
