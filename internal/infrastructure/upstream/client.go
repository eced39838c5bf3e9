package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/affilifind/backend/internal/domain"
)

const (
	maxAttempts = 3
	// maxErrorBody bounds how much of a failed response is kept for the error message
	maxErrorBody = 4096
	// maxResponseBody bounds decoded success responses
	maxResponseBody = 8 << 20
)

// ConfigProvider supplies the current API base URL and key. It is consulted
// on every call so configuration changes apply immediately.
type ConfigProvider interface {
	Config(ctx context.Context) (*domain.ExtensionConfig, error)
}

// Client talks to the affiliate, similar-products, product-intel and
// search-suggestion endpoints of the AffiliFind API
type Client struct {
	httpClient  *http.Client
	config      ConfigProvider
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new upstream API client limited to requestsPerHour
func NewClient(config ConfigProvider, requestsPerHour int) *Client {
	if requestsPerHour <= 0 {
		requestsPerHour = 1000
	}
	// rate.Limit is requests per second
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerHour)/3600), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config:      config,
		rateLimiter: limiter,
	}
}

// SetDebug toggles request/response debug logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// AffiliateLinks looks up the affiliate offer for a product
func (c *Client) AffiliateLinks(ctx context.Context, product *domain.Product) (*domain.DealMatch, error) {
	var match domain.DealMatch
	if err := c.do(ctx, http.MethodGet, "/v1/affiliate-links", affiliateParams(product), nil, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

// Similar fetches up to limit alternative products
func (c *Client) Similar(ctx context.Context, product *domain.Product, limit int) (*domain.SimilarResult, error) {
	var result domain.SimilarResult
	if err := c.do(ctx, http.MethodGet, "/v1/similar", similarParams(product, limit), nil, &result); err != nil {
		return nil, err
	}
	if result.Items == nil {
		result.Items = []domain.SimilarItem{}
	}
	return &result, nil
}

// ProductIntel asks the intelligence service to read a product out of a DOM snapshot
func (c *Client) ProductIntel(ctx context.Context, req *domain.IntelRequest) (*domain.RemoteIntel, error) {
	if req == nil || req.URL == "" {
		return nil, fmt.Errorf("%w: url is required for remote intel", domain.ErrInvalidRequest)
	}
	var intel domain.RemoteIntel
	if err := c.do(ctx, http.MethodPost, "/v1/product-intel", nil, req, &intel); err != nil {
		return nil, err
	}
	return normalizeIntel(&intel), nil
}

// SearchSuggestions asks the search service for product suggestions
func (c *Client) SearchSuggestions(ctx context.Context, req *domain.SuggestionRequest) (*domain.SuggestionResult, error) {
	if req == nil || strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query is required for search suggestions", domain.ErrInvalidRequest)
	}
	var result domain.SuggestionResult
	if err := c.do(ctx, http.MethodPost, "/v1/search-suggestions", nil, req, &result); err != nil {
		return nil, err
	}
	if result.Items == nil {
		result.Items = []domain.SuggestionItem{}
	}
	return &result, nil
}

// do executes one API call with rate limiting and retries on 5xx and 429
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	reqURL, header, err := c.endpoint(ctx, path, params)
	if err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("%w: encode request: %v", domain.ErrInvalidRequest, err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, exponentialBackoff(attempt-1)); err != nil {
				return err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			slog.Warn("upstream rate limiter wait failed", "path", path, "err", err)
			return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}

		c.debugLog("%s %s (attempt %d)", method, reqURL, attempt)
		resp, err := c.doRequest(ctx, method, reqURL, header, payload)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %v", domain.ErrUpstream, ctx.Err())
			}
			slog.Warn("upstream request error", "path", path, "attempt", attempt, "err", err)
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			errBody, _ := readLimitedBody(resp.Body, maxErrorBody)
			resp.Body.Close()
			slog.Warn("upstream API error", "path", path, "attempt", attempt, "status", resp.StatusCode, "body", string(errBody))

			lastErr = fmt.Errorf("%w: API %d: %s", domain.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(errBody)))
			if retryable(resp.StatusCode) {
				continue
			}
			if resp.StatusCode == http.StatusNotFound {
				return fmt.Errorf("%w: %w", domain.ErrNotFound, lastErr)
			}
			return lastErr
		}

		data, err := readLimitedBody(resp.Body, maxResponseBody)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%w: read response: %v", domain.ErrUpstream, err)
		}
		c.debugLog("%s %s -> %d bytes", method, path, len(data))

		if err := json.Unmarshal(data, out); err != nil {
			slog.Warn("upstream JSON decode error", "path", path, "err", err)
			return fmt.Errorf("%w: failed to decode response: %v", domain.ErrUpstream, err)
		}
		return nil
	}

	slog.Error("upstream retries exhausted", "path", path, "attempts", maxAttempts)
	return lastErr
}

// endpoint resolves path against the configured API base and builds auth headers
func (c *Client) endpoint(ctx context.Context, path string, params url.Values) (string, http.Header, error) {
	cfg, err := c.config.Config(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("read api config: %w", err)
	}

	base, err := url.Parse(cfg.APIBase)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", nil, fmt.Errorf("%w: invalid api base %q", domain.ErrInvalidRequest, cfg.APIBase)
	}
	u, err := base.Parse(path)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("User-Agent", "AffiliFind/1.0")
	if cfg.APIKey != "" {
		header.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	return u.String(), header, nil
}

// doRequest executes a single HTTP request
func (c *Client) doRequest(ctx context.Context, method, reqURL string, header http.Header, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = header.Clone()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	return resp, nil
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if !c.debug {
		return
	}
	slog.Debug(fmt.Sprintf(format, args...), "component", "upstream")
}

// exponentialBackoff returns the wait before retry number attempt: 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrUpstream, ctx.Err())
	case <-timer.C:
		return nil
	}
}
