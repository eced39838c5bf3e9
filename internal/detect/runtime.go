package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/affilifind/backend/internal/domain"
	"github.com/affilifind/backend/internal/extract"
)

// PageContextBudget is the snapshot budget used for page-context requests
const PageContextBudget = 120000

// DealRecordSource tags history entries created by the content runtime
const DealRecordSource = "content"

// RuntimeOptions configures a Runtime
type RuntimeOptions struct {
	MutationDebounce   time.Duration
	NavigationDebounce time.Duration
	SnapshotBudget     int
	Base               domain.LocatorTable
}

// PageContext is what the runtime reports about the current page on request
type PageContext struct {
	Product    *domain.Product     `json:"product"`
	DomSnippet string              `json:"domSnippet"`
	Selectors  domain.LocatorTable `json:"selectors"`
}

// Runtime is the content side of one browsing context. It owns the
// per-navigation state and drives detection through the scheduler.
type Runtime struct {
	source       PageSource
	background   Background
	presenter    Presenter
	store        *SelectorStore
	remote       *RemoteFallback
	orchestrator *Orchestrator
	scheduler    *Scheduler

	mu         sync.Mutex
	generation uint64
	lastKey    string
	product    *domain.Product
	deal       *domain.Deal
	page       *Page
}

// NewRuntime wires a runtime around a page source and the background service
func NewRuntime(source PageSource, background Background, presenter Presenter, opts RuntimeOptions) *Runtime {
	store := NewSelectorStore(opts.Base)
	remote := NewRemoteFallback(background, store, opts.SnapshotBudget)
	r := &Runtime{
		source:       source,
		background:   background,
		presenter:    presenter,
		store:        store,
		remote:       remote,
		orchestrator: NewOrchestrator(store, remote),
	}
	r.scheduler = NewScheduler(r.scan, SchedulerOptions{
		MutationDebounce:   opts.MutationDebounce,
		NavigationDebounce: opts.NavigationDebounce,
		OnNavigate:         r.resetForNavigation,
	})
	return r
}

// Start runs the initial scan in the background
func (r *Runtime) Start(ctx context.Context) {
	r.scheduler.Start(ctx)
}

// Stop cancels pending debounced scans and waits for the running one
func (r *Runtime) Stop() {
	r.scheduler.Stop()
	r.scheduler.Wait()
}

// Wait blocks until the scheduler is idle
func (r *Runtime) Wait() {
	r.scheduler.Wait()
}

// NotifyMutation reports a document change
func (r *Runtime) NotifyMutation() {
	r.scheduler.NotifyMutation()
}

// NotifyNavigation reports that the document moved to a new URL
func (r *Runtime) NotifyNavigation(pageURL string) {
	r.scheduler.NotifyNavigation(pageURL)
}

// ScanOnce runs one scan synchronously, outside the scheduler.
// Callers must not mix it with Start.
func (r *Runtime) ScanOnce(ctx context.Context) {
	r.scan(ctx)
}

// Product returns the last detected product
func (r *Runtime) Product() *domain.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.product
}

// Deal returns the deal resolved for the last detected product
func (r *Runtime) Deal() *domain.Deal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deal
}

// SelectorHints returns the merged locator table when anything was learned
func (r *Runtime) SelectorHints() domain.LocatorTable {
	if len(r.store.Learned()) == 0 {
		return nil
	}
	return r.store.Table()
}

// PageContext reports the current product, a DOM snippet and selector hints.
// When no product was detected yet a local-only detection is attempted.
func (r *Runtime) PageContext(ctx context.Context) (*PageContext, error) {
	page, err := r.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}

	product := r.Product()
	if product == nil {
		product = r.orchestrator.detectLocally(page)
	}
	return &PageContext{
		Product:    product,
		DomSnippet: extract.Snapshot(page.Doc, page.URL, PageContextBudget),
		Selectors:  r.SelectorHints(),
	}, nil
}

// DealRecord snapshots the current product and deal, or returns nil
func (r *Runtime) DealRecord() *domain.DealRecord {
	r.mu.Lock()
	product, deal, page := r.product, r.deal, r.page
	r.mu.Unlock()
	if product == nil || deal == nil {
		return nil
	}

	snapshot := *product
	if page != nil {
		if snapshot.Title == "" && page.Doc != nil {
			snapshot.Title = strings.TrimSpace(page.Doc.Find("title").First().Text())
		}
		if snapshot.URL == "" {
			snapshot.URL = page.URL
		}
	}
	return domain.NewDealRecord(&snapshot, deal, DealRecordSource)
}

// Apply records the current deal as applied
func (r *Runtime) Apply(ctx context.Context) (*domain.DealRecord, error) {
	record := r.DealRecord()
	if record == nil {
		return nil, fmt.Errorf("%w: no deal to apply", domain.ErrNotFound)
	}
	if err := r.background.ApplyAffiliate(ctx, record.Deal.AffiliateURL, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *Runtime) resetForNavigation(pageURL string) {
	slog.Debug("navigation detected, resetting detection state", "url", pageURL)
	r.store.Reset()
	r.remote.Reset()

	r.mu.Lock()
	r.generation++
	r.lastKey = ""
	r.mu.Unlock()

	r.presenter.Clear()
}

func (r *Runtime) scan(ctx context.Context) {
	r.mu.Lock()
	generation := r.generation
	r.mu.Unlock()

	page, err := r.source.Load(ctx)
	if err != nil {
		slog.Warn("load page failed", "err", err)
		return
	}

	product := r.orchestrator.Detect(ctx, page)

	r.mu.Lock()
	if r.generation != generation {
		r.mu.Unlock()
		slog.Debug("discarding scan from previous navigation", "url", page.URL)
		return
	}
	r.page = page
	if product == nil {
		r.product = nil
		r.mu.Unlock()
		slog.Debug("no product detected, will retry", "url", page.URL)
		return
	}
	key := product.Key()
	if key == r.lastKey {
		r.product = product
		r.mu.Unlock()
		return
	}
	r.lastKey = key
	r.product = product
	r.deal = nil
	r.mu.Unlock()

	r.presenter.Clear()
	slog.Info("product detected", "title", product.Title, "url", product.URL)

	if err := r.background.ProductDetected(ctx, product); err != nil {
		slog.Warn("report detected product failed", "err", err)
	}

	match, err := r.background.LookupAffiliate(ctx, product)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Warn("affiliate lookup failed", "err", err)
		}
		return
	}
	deal := domain.DealFromMatch(match, product, hostOf(page.URL))

	r.mu.Lock()
	if r.generation != generation || r.lastKey != key {
		r.mu.Unlock()
		return
	}
	r.deal = deal
	r.mu.Unlock()

	if deal == nil {
		return
	}

	autoInject := true
	if cfg, err := r.background.Config(ctx); err != nil {
		slog.Debug("read extension config failed, assuming auto-inject", "err", err)
	} else if cfg != nil {
		autoInject = cfg.AutoInject
	}
	if autoInject {
		r.presenter.Show(product, deal)
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
