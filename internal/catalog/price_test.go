package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFallbackPriceIsDeterministic(t *testing.T) {
	t.Parallel()

	first := FallbackPrice("Organic Bananas")
	second := FallbackPrice("Organic Bananas")
	if !first.Equal(second) {
		t.Fatalf("fallback price not deterministic: %s vs %s", first, second)
	}
	if FallbackPrice("Whole Milk").Equal(first) {
		t.Log("different names produced equal prices; allowed but unexpected")
	}
}

func TestFallbackPriceStaysInRange(t *testing.T) {
	t.Parallel()

	names := []string{"", "a", "Organic Bananas", "Sourdough Loaf", "Free Range Eggs", "Cold Brew Coffee"}
	lo := decimal.RequireFromString("1.99")
	hi := decimal.RequireFromString("21.99")
	for _, name := range names {
		price := FallbackPrice(name)
		if price.LessThan(lo) || price.GreaterThan(hi) {
			t.Fatalf("price %s for %q outside [1.99, 21.99]", price, name)
		}
	}
}

func TestFormatSKU(t *testing.T) {
	t.Parallel()

	if got := FormatSKU(42); got != "PROD-0000042" {
		t.Fatalf("sku = %s", got)
	}
	if got := FormatSKU(1234567); got != "PROD-1234567" {
		t.Fatalf("sku = %s", got)
	}
}

func TestSaleFields(t *testing.T) {
	t.Parallel()

	price := decimal.RequireFromString("8.00")

	compareAt := decimal.RequireFromString("10.00")
	onSale, pct := saleFields(price, &compareAt)
	if !onSale {
		t.Fatal("expected on sale")
	}
	if !pct.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("sale percentage = %s", pct)
	}

	// compare-at equal to price is not a sale
	equal := decimal.RequireFromString("8.00")
	if onSale, _ := saleFields(price, &equal); onSale {
		t.Fatal("equal compare-at must not be a sale")
	}

	// compare-at below price is not a sale
	lower := decimal.RequireFromString("5.00")
	if onSale, _ := saleFields(price, &lower); onSale {
		t.Fatal("lower compare-at must not be a sale")
	}

	if onSale, pct := saleFields(price, nil); onSale || !pct.IsZero() {
		t.Fatal("nil compare-at must not be a sale")
	}
}
