package usecase

import (
	"log/slog"
	"regexp"
	"strings"
)

// maxQueryLength bounds the search query sent upstream
const maxQueryLength = 100

// QueryPreprocessor turns noisy product titles into focused search queries
type QueryPreprocessor struct {
	enableDebugLogging bool
}

// Compiled regex patterns for query preprocessing
var (
	// Matches size/quantity patterns like "128 fl oz", "12 oz", "1.5 liter", "2 lb", "500 GB"
	sizeQuantityPattern = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s*(?:fl\s*oz|oz|ounces?|lbs?|pounds?|ml|liters?|litres?|gallons?|quarts?|pints?|kg|grams?|mm|cm|inch(?:es)?|ft|[mgt]b)\b`)

	// Matches pack/count patterns like "12 pack", "pack of 6", "6-pack", "24 count", "6 ct"
	packCountPattern = regexp.MustCompile(`(?i)\b\d+[-\s]*(?:pack|pk|count|ct|pcs|pieces?)\b|\bpack\s*of\s*\d+\b|\bset\s*of\s*\d+\b`)

	// Matches standalone numbers with no unit at the boundaries (e.g., ", 128", "- 12")
	standaloneNumberPattern = regexp.MustCompile(`[,\-]\s*\d+\.?\d*\s*$|^\d+\.?\d*\s*[,\-]`)

	// Site name suffixes such as "Acme Widget | Shop" or "Acme Widget - Amazon.com"
	siteSuffixPattern = regexp.MustCompile(`(?i)\s+(?:\||–|—|-)\s+[^|–—-]*(?:\.com|\.[a-z]{2,3}|shop|store)\s*$`)

	// Orphaned punctuation left after removals
	lonePunctuationPattern     = regexp.MustCompile(`\s+[,\-;:|]+\s+`)
	trailingPunctuationPattern = regexp.MustCompile(`[\s,\-;:|]+$`)
	leadingPunctuationPattern  = regexp.MustCompile(`^[\s,\-;:|]+`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// queryNoiseWords are retail and marketing terms that do not help a product search
var queryNoiseWords = map[string]bool{
	// Marketing terms
	"new":         true,
	"sale":        true,
	"hot":         true,
	"bestseller":  true,
	"best-seller": true,
	"bestselling": true,
	"official":    true,
	"genuine":     true,
	"authentic":   true,
	"premium":     true,
	"deal":        true,
	"deals":       true,
	"exclusive":   true,
	"limited":     true,
	"edition":     true,
	"discount":    true,
	"clearance":   true,

	// Shipping and stock noise
	"free":     true,
	"shipping": true,
	"delivery": true,
	"instock":  true,

	// Generic terms that don't help narrow down
	"item":    true,
	"product": true,
	"buy":     true,
	"online":  true,
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(enableDebugLogging bool) *QueryPreprocessor {
	return &QueryPreprocessor{
		enableDebugLogging: enableDebugLogging,
	}
}

// PreprocessQuery cleans a product title for the search-suggestions service.
// Removes the site name suffix, size and pack info, and marketing terms.
// Word case is preserved. A title that would clean to nothing is returned trimmed.
func (p *QueryPreprocessor) PreprocessQuery(title string) string {
	original := strings.TrimSpace(title)
	if original == "" {
		return ""
	}

	// Step 1: Drop the site name suffix
	cleaned := siteSuffixPattern.ReplaceAllString(original, "")

	// Step 2: Remove size/quantity patterns (e.g., "128 fl oz", "1.5 liter")
	cleaned = sizeQuantityPattern.ReplaceAllString(cleaned, " ")

	// Step 3: Remove pack/count patterns (e.g., "12 pack", "pack of 6")
	cleaned = packCountPattern.ReplaceAllString(cleaned, " ")

	// Step 4: Remove standalone numbers at boundaries
	cleaned = standaloneNumberPattern.ReplaceAllString(cleaned, " ")

	// Step 5: Remove noise words
	cleaned = p.removeNoiseWords(cleaned)

	// Step 6: Clean up punctuation that's now orphaned
	cleaned = cleanOrphanedPunctuation(cleaned)

	// Step 7: Normalize whitespace
	cleaned = strings.TrimSpace(multiSpacePattern.ReplaceAllString(cleaned, " "))

	// Step 8: Limit query length, cutting at a word boundary when possible
	if len(cleaned) > maxQueryLength {
		cut := cleaned[:maxQueryLength]
		for !utf8Boundary(cleaned, len(cut)) {
			cut = cut[:len(cut)-1]
		}
		if lastSpace := strings.LastIndex(cut, " "); lastSpace > maxQueryLength/2 {
			cut = cut[:lastSpace]
		}
		cleaned = cut
	}

	if cleaned == "" {
		cleaned = original
	}

	if p.enableDebugLogging {
		slog.Debug("preprocessed search query", "input", original, "output", cleaned)
	}

	return cleaned
}

// removeNoiseWords removes marketing and generic terms from the query
func (p *QueryPreprocessor) removeNoiseWords(s string) string {
	words := strings.Fields(s)
	var kept []string

	for _, word := range words {
		// Clean punctuation from word for checking
		cleanWord := strings.ToLower(strings.Trim(word, ",.!?;:-'\"()[]"))

		if !queryNoiseWords[cleanWord] {
			// Preserve original word (with punctuation)
			kept = append(kept, word)
		}
	}

	return strings.Join(kept, " ")
}

// cleanOrphanedPunctuation removes punctuation that's now alone (e.g., lone commas)
func cleanOrphanedPunctuation(s string) string {
	result := lonePunctuationPattern.ReplaceAllString(s, " ")
	result = trailingPunctuationPattern.ReplaceAllString(result, "")
	return leadingPunctuationPattern.ReplaceAllString(result, "")
}

// utf8Boundary reports whether byte offset i of s starts a rune
func utf8Boundary(s string, i int) bool {
	return i == 0 || i >= len(s) || s[i]&0xC0 != 0x80
}
