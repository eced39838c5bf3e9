package commands

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/affilifind/backend/internal/domain"
)

// tablePresenter renders detected deals as tables on stdout
type tablePresenter struct {
	mu    sync.Mutex
	shown bool
}

func (p *tablePresenter) Show(product *domain.Product, deal *domain.Deal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = true

	t := newTable()
	t.SetTitle("Deal found")
	t.AppendRows([]table.Row{
		{"Product", product.Title},
		{"Merchant", deal.Merchant},
		{"Discount", formatPercent(deal.DiscountPercent)},
		{"Coupon", deal.CouponCode},
		{"Link", deal.AffiliateURL},
	})
	t.Render()
}

func (p *tablePresenter) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shown {
		fmt.Println("(deal cleared)")
		p.shown = false
	}
}

func renderProduct(product *domain.Product) {
	if product == nil {
		fmt.Println("No product detected.")
		return
	}
	t := newTable()
	t.SetTitle("Product")
	rows := []table.Row{}
	for _, row := range []struct{ name, value string }{
		{"title", product.Title},
		{"description", product.Description},
		{"price", formatMoney(product.Price, product.Currency)},
		{"brand", product.Brand},
		{"sku", product.SKU},
		{"mpn", product.MPN},
		{"gtin", product.GTIN},
		{"image", product.Image},
		{"url", product.URL},
	} {
		if row.value != "" {
			rows = append(rows, table.Row{row.name, truncate(row.value, 80)})
		}
	}
	t.AppendRows(rows)
	t.Render()
}

func renderHistory(items []domain.DealHistoryEntry) {
	t := newTable()
	t.AppendHeader(table.Row{"Added", "Product", "Merchant", "Discount", "Savings"})
	for _, item := range items {
		t.AppendRow(table.Row{
			time.UnixMilli(item.AddedAt).Format(time.DateTime),
			truncate(item.Product.Title, 50),
			item.Deal.Merchant,
			formatPercent(item.Deal.DiscountPercent),
			formatMoney(item.SavingsValue, item.Product.Currency),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", formatMoney(totalSavings(items), "")})
	t.Render()
}

func renderSimilar(items []domain.SimilarItem) {
	t := newTable()
	t.SetTitle("Similar products")
	t.AppendHeader(table.Row{"Title", "Merchant", "Discount", "Link"})
	for _, item := range items {
		link := item.AffiliateURL
		if link == "" {
			link = item.URL
		}
		t.AppendRow(table.Row{truncate(item.Title, 50), item.Merchant, formatPercent(item.DiscountPercent), link})
	}
	t.Render()
}

func renderSuggestions(items []domain.SuggestionItem) {
	t := newTable()
	t.SetTitle("Suggestions")
	t.AppendHeader(table.Row{"Title", "Price", "Summary", "Link"})
	for _, item := range items {
		t.AppendRow(table.Row{truncate(item.Title, 40), item.PriceRange, truncate(item.Summary, 60), item.URL})
	}
	t.Render()
}

func renderConfig(cfg *domain.ExtensionConfig) {
	key := "(none)"
	if cfg.APIKey != "" {
		key = "(set)"
	}
	t := newTable()
	t.AppendRows([]table.Row{
		{"apiBase", cfg.APIBase},
		{"apiKey", key},
		{"autoInject", strconv.FormatBool(cfg.AutoInject)},
	})
	t.Render()
}

func totalSavings(items []domain.DealHistoryEntry) *float64 {
	var total float64
	for _, item := range items {
		if item.SavingsValue != nil {
			total += *item.SavingsValue
		}
	}
	return &total
}

func formatPercent(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + "%"
}

func formatMoney(v *float64, currency string) string {
	if v == nil {
		return ""
	}
	s := strconv.FormatFloat(*v, 'f', 2, 64)
	if currency != "" {
		s += " " + currency
	}
	return s
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
