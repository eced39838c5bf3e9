package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot_IncludesHeadInfoAndCandidates(t *testing.T) {
	doc := mustDoc(t, `<html><head><title>A &amp; B</title>
<link rel="canonical" href="https://shop.example.com/p/ab"></head>
<body><main id="content"><h1>A &amp; B</h1></main></body></html>`)

	got := Snapshot(doc, "https://shop.example.com/p/ab", DefaultSnapshotBudget)

	assert.True(t, strings.HasPrefix(got, "<title>A &amp; B</title>"))
	assert.Contains(t, got, `<link rel="canonical" href="https://shop.example.com/p/ab"/>`)
	assert.Contains(t, got, `<main id="content">`)
	assert.Contains(t, got, "<body>")
	assert.NotContains(t, got, TruncationMarker)
}

func TestSnapshot_TruncatesMiddle(t *testing.T) {
	body := strings.Repeat("<p>filler paragraph</p>", 500)
	doc := mustDoc(t, `<html><head><title>Big</title></head><body>`+body+`<footer>END</footer></body></html>`)

	got := Snapshot(doc, "https://shop.example.com/p/big", 1000)

	assert.Contains(t, got, TruncationMarker)
	assert.True(t, strings.HasPrefix(got, "<title>Big</title>"))
	assert.True(t, strings.HasSuffix(got, "</html>") || strings.HasSuffix(got, "</body>"))
	assert.LessOrEqual(t, len(got), 1000+len(TruncationMarker)+2)
}

func TestTruncateMiddle_RuneBoundaries(t *testing.T) {
	s := strings.Repeat("é", 100)

	got := truncateMiddle(s, 51)

	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, TruncationMarker)
}

func TestTruncateMiddle_UnderBudget(t *testing.T) {
	assert.Equal(t, "short", truncateMiddle("short", 100))
}
