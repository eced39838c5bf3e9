// Package detect runs the adaptive product detection pipeline for one
// browsing context: extraction, remote fallback, selector learning and the
// mutation-driven rescan state machine.
package detect

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"github.com/affilifind/backend/internal/domain"
)

// Page is one observation of the live document
type Page struct {
	URL string
	Doc *goquery.Document
}

// PageSource loads the current state of the document
type PageSource interface {
	Load(ctx context.Context) (*Page, error)
}

// IntelSource answers remote product-intelligence requests
type IntelSource interface {
	ProductIntel(ctx context.Context, req *domain.IntelRequest) (*domain.RemoteIntel, error)
}

// Background is the part of the background service the content runtime talks to
type Background interface {
	IntelSource
	ProductDetected(ctx context.Context, product *domain.Product) error
	LookupAffiliate(ctx context.Context, product *domain.Product) (*domain.DealMatch, error)
	Config(ctx context.Context) (*domain.ExtensionConfig, error)
	ApplyAffiliate(ctx context.Context, affiliateURL string, record *domain.DealRecord) error
}

// Presenter renders the deal UI. Implementations must tolerate Clear
// without a prior Show.
type Presenter interface {
	Show(product *domain.Product, deal *domain.Deal)
	Clear()
}
