package domain

import (
	"log/slog"

	"dario.cat/mergo"
)

// Merge layers override on top of base and returns a new Product.
// Non-empty override fields win; empty override fields never clear base values.
// Neither argument is modified.
func Merge(base, override Product) Product {
	out := base
	if base.Price != nil {
		price := *base.Price
		out.Price = &price
	}
	if override.Price != nil {
		price := *override.Price
		override.Price = &price
	}

	if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
		// Only reachable on a type mismatch, which Product cannot produce
		slog.Error("merge products", "err", err)
		return base
	}
	return out
}

// FillGaps copies values from fallback into the fields of p that are still empty
func FillGaps(p, fallback Product) Product {
	return Merge(fallback, p)
}
