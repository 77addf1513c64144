package catalog

import (
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/shopspring/decimal"
)

const (
	fallbackPriceMin  = 1.99
	fallbackPriceSpan = 20.0
)

// FallbackPrice returns a pseudo-random price in [1.99, 21.99] seeded
// from the product name, so repeated syncs of the same row derive the
// same price.
func FallbackPrice(name string) decimal.Decimal {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	price := fallbackPriceMin + rng.Float64()*fallbackPriceSpan
	return decimal.NewFromFloat(price).Round(2)
}

// FormatSKU renders the canonical SKU for an external source id.
func FormatSKU(sourceID int64) string {
	return fmt.Sprintf("PROD-%07d", sourceID)
}

// saleFields derives the sale flags from a compare-at price. A row is on
// sale only when compareAtPrice is strictly above the selling price.
func saleFields(price decimal.Decimal, compareAt *decimal.Decimal) (bool, decimal.Decimal) {
	if compareAt == nil || !compareAt.GreaterThan(price) || !compareAt.IsPositive() {
		return false, decimal.Zero
	}
	pct := compareAt.Sub(price).
		Div(*compareAt).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	return true, pct
}
