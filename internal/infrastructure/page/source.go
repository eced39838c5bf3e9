// Package page provides document sources for the content runtime: a local
// HTML file watched for changes, or a remote URL polled over HTTP.
package page

import (
	"bytes"
	"crypto/sha256"

	"github.com/PuerkitoBio/goquery"

	"github.com/affilifind/backend/internal/detect"
	"github.com/affilifind/backend/internal/extract"
)

// Observer receives change notifications from a watched source
type Observer interface {
	NotifyMutation()
	NotifyNavigation(url string)
}

// parse builds a page from raw HTML. The page URL is the document's
// canonical URL when it declares one, else fallbackURL.
func parse(data []byte, fallbackURL string) (*detect.Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	pageURL := fallbackURL
	if canonical := extract.CanonicalURL(doc, fallbackURL); canonical != "" {
		pageURL = canonical
	}
	return &detect.Page{URL: pageURL, Doc: doc}, nil
}

// change classifies a new observation against the previous one
type change int

const (
	changeNone change = iota
	changeMutation
	changeNavigation
)

// tracker remembers the last observed location and content digest
type tracker struct {
	url    string
	digest [sha256.Size]byte
	seen   bool
}

func (t *tracker) observe(pageURL string, data []byte) change {
	digest := sha256.Sum256(data)
	defer func() {
		t.url, t.digest, t.seen = pageURL, digest, true
	}()

	switch {
	case !t.seen:
		return changeNone
	case pageURL != t.url:
		return changeNavigation
	case digest != t.digest:
		return changeMutation
	}
	return changeNone
}

func notify(obs Observer, c change, pageURL string) {
	switch c {
	case changeNavigation:
		obs.NotifyNavigation(pageURL)
	case changeMutation:
		obs.NotifyMutation()
	}
}
