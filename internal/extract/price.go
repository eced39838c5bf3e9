package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var nonPriceCharsRegex = regexp.MustCompile(`[^0-9.,]`)

// ParsePrice normalizes a displayed price into a number.
//
// Everything but digits, comma and dot is stripped. When both separators
// appear the later one is the decimal separator. A lone comma is decimal only
// when exactly two digits follow the last comma. Returns nil when no finite
// number remains.
func ParsePrice(raw string) *float64 {
	digits := nonPriceCharsRegex.ReplaceAllString(raw, "")
	if digits == "" {
		return nil
	}

	hasComma := strings.Contains(digits, ",")
	hasDot := strings.Contains(digits, ".")
	normalized := digits

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(digits, ".") > strings.LastIndex(digits, ",") {
			normalized = strings.ReplaceAll(digits, ",", "")
		} else {
			normalized = strings.ReplaceAll(digits, ".", "")
			normalized = strings.ReplaceAll(normalized, ",", ".")
		}
	case hasComma:
		parts := strings.Split(digits, ",")
		last := parts[len(parts)-1]
		if len(last) == 2 {
			normalized = strings.Join(parts[:len(parts)-1], "") + "." + last
		} else {
			normalized = strings.ReplaceAll(digits, ",", "")
		}
	}

	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	return &value
}
