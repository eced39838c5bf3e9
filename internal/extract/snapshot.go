package extract

import (
	"bytes"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// DefaultSnapshotBudget is the byte budget of a DOM snapshot
	DefaultSnapshotBudget = 160000

	// TruncationMarker marks the elided middle of an oversized snapshot
	TruncationMarker = "<!-- AFFILIFIND_DOM_TRUNCATED -->"
)

// snapshotCandidates are the containers most likely to hold the product
var snapshotCandidates = []string{"#dp", "#centerCol", "#ppd", "#dp-container", "main", "body"}

// Snapshot serializes the page head info and candidate content containers.
// Output over budget keeps the head and the tail around TruncationMarker.
func Snapshot(doc *goquery.Document, pageURL string, budget int) string {
	if doc == nil {
		return ""
	}
	if budget <= 0 {
		budget = DefaultSnapshotBudget
	}

	parts := []string{headInfo(doc, pageURL)}
	for _, selector := range snapshotCandidates {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		outer, err := goquery.OuterHtml(container)
		if err != nil {
			slog.Debug("snapshot container render failed", "selector", selector, "err", err)
			continue
		}
		parts = append(parts, outer)
	}

	return truncateMiddle(strings.Join(parts, "\n"), budget)
}

// headInfo renders <title> and the canonical link with proper escaping
func headInfo(doc *goquery.Document, pageURL string) string {
	var buf bytes.Buffer

	title := &html.Node{Type: html.ElementNode, Data: "title", DataAtom: atom.Title}
	title.AppendChild(&html.Node{Type: html.TextNode, Data: strings.TrimSpace(doc.Find("title").First().Text())})
	if err := html.Render(&buf, title); err != nil {
		return ""
	}

	if canonical := CanonicalURL(doc, pageURL); canonical != "" {
		link := &html.Node{
			Type:     html.ElementNode,
			Data:     "link",
			DataAtom: atom.Link,
			Attr: []html.Attribute{
				{Key: "rel", Val: "canonical"},
				{Key: "href", Val: canonical},
			},
		}
		buf.WriteString("\n")
		if err := html.Render(&buf, link); err != nil {
			return buf.String()
		}
	}
	return buf.String()
}

// truncateMiddle keeps budget/2 bytes from each end, cut on rune boundaries
func truncateMiddle(s string, budget int) string {
	if len(s) <= budget {
		return s
	}
	half := budget / 2

	headEnd := half
	for headEnd > 0 && !utf8.RuneStart(s[headEnd]) {
		headEnd--
	}
	tailStart := len(s) - half
	for tailStart < len(s) && !utf8.RuneStart(s[tailStart]) {
		tailStart++
	}

	return s[:headEnd] + "\n" + TruncationMarker + "\n" + s[tailStart:]
}
