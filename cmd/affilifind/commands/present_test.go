package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/affilifind/backend/internal/domain"
	"github.com/affilifind/backend/internal/infrastructure/page"
)

func f(v float64) *float64 { return &v }

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "", formatPercent(nil))
	assert.Equal(t, "20%", formatPercent(f(20)))
	assert.Equal(t, "12.5%", formatPercent(f(12.5)))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "", formatMoney(nil, "USD"))
	assert.Equal(t, "20.00 USD", formatMoney(f(20), "USD"))
	assert.Equal(t, "3.10", formatMoney(f(3.1), ""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "héll…", truncate("héllo wörld", 5))
}

func TestTotalSavings(t *testing.T) {
	items := []domain.DealHistoryEntry{
		{SavingsValue: f(20)},
		{SavingsValue: nil},
		{SavingsValue: f(2.5)},
	}
	assert.Equal(t, 22.5, *totalSavings(items))
}

func TestOpenSource(t *testing.T) {
	remote, err := openSource("https://shop.example/widget", "")
	assert.NoError(t, err)
	assert.IsType(t, &page.HTTPSource{}, remote)

	local, err := openSource("testdata/page.html", "https://shop.example/widget")
	assert.NoError(t, err)
	assert.IsType(t, &page.FileSource{}, local)
}
