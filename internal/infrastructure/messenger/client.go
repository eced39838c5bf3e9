// Package messenger is the content side of the messaging protocol: it posts
// message envelopes to the background service over HTTP.
package messenger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/affilifind/backend/internal/domain"
)

const (
	messagesPath = "/api/v1/messages"
	tabsPath     = "/api/v1/tabs/{id}"
)

// Client sends messages on behalf of one tab
type Client struct {
	http  *resty.Client
	tabID string
}

// NewClient creates a messenger for the background service at baseURL
func NewClient(baseURL, tabID string) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("User-Agent", "AffiliFind-CLI/1.0")
	client.SetTimeout(45 * time.Second)
	client.OnError(func(req *resty.Request, err error) {
		slog.Debug("background request failed", "url", req.URL, "err", err)
	})

	return &Client{http: client, tabID: tabID}
}

// TabID returns the tab this client reports as
func (c *Client) TabID() string {
	return c.tabID
}

// ProductDetected reports a detected product for this tab
func (c *Client) ProductDetected(ctx context.Context, product *domain.Product) error {
	return c.send(ctx, domain.Message{Type: domain.MessageProductDetected, Product: product}, &domain.AckResponse{})
}

// LookupAffiliate resolves the affiliate deal for a product
func (c *Client) LookupAffiliate(ctx context.Context, product *domain.Product) (*domain.DealMatch, error) {
	var match domain.DealMatch
	if err := c.send(ctx, domain.Message{Type: domain.MessageLookupAffiliate, Product: product}, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

// SimilarProducts fetches alternatives for a product
func (c *Client) SimilarProducts(ctx context.Context, product *domain.Product, limit int) (*domain.SimilarResult, error) {
	var result domain.SimilarResult
	msg := domain.Message{Type: domain.MessageSimilarProducts, Product: product, Limit: limit}
	if err := c.send(ctx, msg, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ProductIntel forwards a remote detection request through the background
func (c *Client) ProductIntel(ctx context.Context, req *domain.IntelRequest) (*domain.RemoteIntel, error) {
	var intel domain.RemoteIntel
	if err := c.send(ctx, domain.Message{Type: domain.MessageRemoteIntel, Payload: req}, &intel); err != nil {
		return nil, err
	}
	return &intel, nil
}

// SearchSuggestions asks for search suggestions. An empty query means the
// product title and an empty context means the product brand.
func (c *Client) SearchSuggestions(ctx context.Context, req *domain.SuggestionRequest) (*domain.SuggestionResult, error) {
	if req == nil {
		req = &domain.SuggestionRequest{}
	}
	var result domain.SuggestionResult
	msg := domain.Message{
		Type:          domain.MessageSearchSuggestions,
		Query:         req.Query,
		Context:       req.Context,
		Product:       req.Product,
		DomSnippet:    req.DomSnippet,
		SelectorHints: req.SelectorHints,
	}
	if err := c.send(ctx, msg, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ApplyAffiliate records an applied deal
func (c *Client) ApplyAffiliate(ctx context.Context, affiliateURL string, record *domain.DealRecord) error {
	msg := domain.Message{Type: domain.MessageApplyAffiliate, AffiliateURL: affiliateURL, DealRecord: record}
	return c.send(ctx, msg, &domain.AckResponse{})
}

// Config reads the persisted extension configuration
func (c *Client) Config(ctx context.Context) (*domain.ExtensionConfig, error) {
	var cfg domain.ExtensionConfig
	if err := c.send(ctx, domain.Message{Type: domain.MessageGetConfig}, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetConfig applies a partial configuration update
func (c *Client) SetConfig(ctx context.Context, update domain.ConfigUpdate) error {
	return c.send(ctx, domain.Message{Type: domain.MessageSetConfig, Updates: &update}, &domain.AckResponse{})
}

// DealHistory returns the deal history ledger, newest first
func (c *Client) DealHistory(ctx context.Context) ([]domain.DealHistoryEntry, error) {
	var history domain.HistoryResponse
	if err := c.send(ctx, domain.Message{Type: domain.MessageGetDealHistory}, &history); err != nil {
		return nil, err
	}
	return history.Items, nil
}

// PopupData returns the product, deal, similar items and config for this tab
func (c *Client) PopupData(ctx context.Context) (*domain.PopupData, error) {
	var data domain.PopupData
	if err := c.send(ctx, domain.Message{Type: domain.MessageGetPopupData}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// CloseTab tells the background the tab is gone
func (c *Client) CloseTab(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", c.tabID).
		Delete(tabsPath)
	if err != nil {
		return fmt.Errorf("%w: close tab: %v", domain.ErrUpstream, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: close tab: status %d", domain.ErrUpstream, resp.StatusCode())
	}
	return nil
}

// send posts msg and decodes the reply into out. A reply carrying an error
// field is returned as an error wrapping domain.ErrUpstream.
func (c *Client) send(ctx context.Context, msg domain.Message, out interface{}) error {
	msg.TabID = c.tabID

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(msg).
		Post(messagesPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrUpstream, msg.Type, err)
	}

	body := resp.Body()
	var failure domain.ErrorResponse
	if err := json.Unmarshal(body, &failure); err == nil && failure.Error != "" {
		return fmt.Errorf("%w: %s: %s", domain.ErrUpstream, msg.Type, failure.Error)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: %s: status %d", domain.ErrUpstream, msg.Type, resp.StatusCode())
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: decode reply: %v", domain.ErrUpstream, msg.Type, err)
	}
	return nil
}
