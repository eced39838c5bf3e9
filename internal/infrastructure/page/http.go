package page

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/affilifind/backend/internal/detect"
	"github.com/affilifind/backend/internal/domain"
)

// DefaultPollInterval is how often a remote page is re-fetched
const DefaultPollInterval = 30 * time.Second

// HTTPSource fetches the live document from a URL
type HTTPSource struct {
	http    *resty.Client
	url     string
	tracker tracker
}

// NewHTTPSource creates a source for pageURL
func NewHTTPSource(pageURL string) *HTTPSource {
	client := resty.New()
	client.SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	client.SetHeader("Accept", "text/html,application/xhtml+xml")
	client.SetTimeout(30 * time.Second)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	return &HTTPSource{http: client, url: pageURL}
}

// Load fetches and parses the page. The page URL follows redirects.
func (s *HTTPSource) Load(ctx context.Context) (*detect.Page, error) {
	data, finalURL, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return parse(data, finalURL)
}

// Poll re-fetches the page every interval and reports changes to obs until
// ctx is done
func (s *HTTPSource) Poll(ctx context.Context, interval time.Duration, obs Observer) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.check(ctx, obs)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.check(ctx, obs)
		}
	}
}

func (s *HTTPSource) check(ctx context.Context, obs Observer) {
	data, finalURL, err := s.fetch(ctx)
	if err != nil {
		slog.Warn("poll page failed", "url", s.url, "err", err)
		return
	}
	page, err := parse(data, finalURL)
	if err != nil {
		slog.Warn("parse polled page failed", "url", finalURL, "err", err)
		return
	}
	notify(obs, s.tracker.observe(page.URL, data), page.URL)
}

func (s *HTTPSource) fetch(ctx context.Context) ([]byte, string, error) {
	resp, err := s.http.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return nil, "", fmt.Errorf("%w: fetch %s: %v", domain.ErrUpstream, s.url, err)
	}
	if resp.IsError() {
		return nil, "", fmt.Errorf("%w: fetch %s: status %d", domain.ErrUpstream, s.url, resp.StatusCode())
	}

	finalURL := s.url
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		finalURL = raw.Request.URL.String()
	}
	return resp.Body(), finalURL, nil
}
