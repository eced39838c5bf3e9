package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/affilifind/backend/internal/domain"
)

// Background dispatches content-side messages to the services behind them
type Background struct {
	deals       *DealService
	intel       *IntelService
	suggestions *SuggestionService
	history     *HistoryService
	config      *ConfigService
	tabs        *TabRegistry

	now func() time.Time
}

// BackgroundServices groups the dependencies of a Background
type BackgroundServices struct {
	Deals       *DealService
	Intel       *IntelService
	Suggestions *SuggestionService
	History     *HistoryService
	Config      *ConfigService
	Tabs        *TabRegistry
}

// NewBackground creates a dispatcher over services
func NewBackground(services BackgroundServices) *Background {
	return &Background{
		deals:       services.Deals,
		intel:       services.Intel,
		suggestions: services.Suggestions,
		history:     services.History,
		config:      services.Config,
		tabs:        services.Tabs,
		now:         time.Now,
	}
}

// Handle answers one message. Operation failures are returned as errors;
// a message type the background does not know wraps domain.ErrUnknownMessage.
func (b *Background) Handle(ctx context.Context, msg *domain.Message) (interface{}, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: empty message", domain.ErrUnknownMessage)
	}

	switch msg.Type {
	case domain.MessageProductDetected:
		if err := b.tabs.Record(ctx, msg.TabID, msg.Product); err != nil {
			return nil, err
		}
		return domain.AckResponse{OK: true}, nil

	case domain.MessageLookupAffiliate:
		return b.deals.LookupDeal(ctx, msg.Product)

	case domain.MessageSimilarProducts:
		return b.deals.LookupSimilar(ctx, msg.Product, msg.Limit)

	case domain.MessageRemoteIntel:
		return b.intel.Fetch(ctx, msg.Payload)

	case domain.MessageSearchSuggestions:
		return b.suggestions.Suggest(ctx, &domain.SuggestionRequest{
			Query:         msg.Query,
			Context:       msg.Context,
			Product:       msg.Product,
			DomSnippet:    msg.DomSnippet,
			SelectorHints: msg.SelectorHints,
		})

	case domain.MessageApplyAffiliate:
		return b.apply(ctx, msg)

	case domain.MessageSetConfig:
		if msg.Updates == nil {
			return nil, fmt.Errorf("%w: updates are required", domain.ErrInvalidRequest)
		}
		if _, err := b.config.Set(ctx, *msg.Updates); err != nil {
			return nil, err
		}
		return domain.AckResponse{OK: true}, nil

	case domain.MessageGetConfig:
		return b.config.Config(ctx)

	case domain.MessageGetDealHistory:
		items, err := b.history.List(ctx)
		if err != nil {
			return nil, err
		}
		return domain.HistoryResponse{Items: items}, nil

	case domain.MessageGetPopupData:
		return b.popupData(ctx, msg.TabID), nil

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMessage, msg.Type)
	}
}

// CloseTab forgets everything held for tabID
func (b *Background) CloseTab(ctx context.Context, tabID string) error {
	return b.tabs.Close(ctx, tabID)
}

func (b *Background) apply(ctx context.Context, msg *domain.Message) (interface{}, error) {
	if strings.TrimSpace(msg.AffiliateURL) == "" {
		return nil, fmt.Errorf("%w: affiliateUrl is required", domain.ErrInvalidRequest)
	}
	if msg.DealRecord != nil {
		if _, err := b.history.Append(ctx, msg.DealRecord); err != nil {
			return nil, err
		}
	}
	slog.Info("affiliate applied", "tab", msg.TabID, "url", msg.AffiliateURL)
	return domain.AckResponse{OK: true, AppliedAt: b.now().UnixMilli()}, nil
}

// popupData never fails: missing pieces are reported as nil or empty
func (b *Background) popupData(ctx context.Context, tabID string) *domain.PopupData {
	data := &domain.PopupData{}

	cfg, err := b.config.Config(ctx)
	if err != nil {
		slog.Warn("popup config unavailable", "err", err)
	}
	data.Config = cfg

	product := b.tabs.Product(ctx, tabID)
	if product == nil {
		return data
	}
	data.Product = product

	deal, err := b.deals.LookupDeal(ctx, product)
	if err != nil {
		slog.Warn("popup deal lookup failed", "tab", tabID, "err", err)
	}
	data.Deal = deal

	similar, err := b.deals.LookupSimilar(ctx, product, DefaultSimilarLimit)
	if err != nil {
		slog.Warn("popup similar lookup failed", "tab", tabID, "err", err)
		similar = &domain.SimilarResult{Items: []domain.SimilarItem{}}
	}
	data.Similar = similar
	return data
}
