package pricing

import (
	"testing"

	"github.com/avelasquez/freshbasket-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return d
}

func TestEffectivePrice(t *testing.T) {
	cases := []struct {
		name    string
		price   string
		onSale  bool
		salePct string
		want    string
	}{
		{"no sale", "10.00", false, "0", "10"},
		{"sale flag without percentage", "10.00", true, "0", "10"},
		{"quarter off", "10.00", true, "25", "7.5"},
		{"fractional percentage rounds", "19.99", true, "12.5", "17.49"},
		{"full discount", "8.00", true, "100", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			product := &models.Product{
				Price:          dec(t, tc.price),
				IsOnSale:       tc.onSale,
				SalePercentage: dec(t, tc.salePct),
			}
			got := EffectivePrice(product)
			if !got.Equal(dec(t, tc.want)) {
				t.Fatalf("EffectivePrice = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestHasSufficientStock(t *testing.T) {
	tracked := &models.Product{Stock: 5, TrackInventory: true}
	if !HasSufficientStock(tracked, 5) {
		t.Fatal("exact stock should satisfy the request")
	}
	if HasSufficientStock(tracked, 6) {
		t.Fatal("over-stock request should fail")
	}

	untracked := &models.Product{Stock: 0, TrackInventory: false}
	if !HasSufficientStock(untracked, 100) {
		t.Fatal("untracked inventory bypasses stock checks")
	}

	if HasSufficientStock(nil, 1) {
		t.Fatal("nil product can never satisfy stock")
	}
}

func TestLineTotalRounds(t *testing.T) {
	got := LineTotal(dec(t, "3.333"), 3)
	if !got.Equal(dec(t, "10.00")) {
		t.Fatalf("LineTotal = %s, want 10.00", got)
	}
}

func TestCartTotals(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec(t, "10.00"), Quantity: 3},
		{UnitPrice: dec(t, "2.50"), Quantity: 2},
	}
	totals := CartTotals(lines, dec(t, "0.08"))

	if totals.ItemCount != 5 {
		t.Fatalf("ItemCount = %d", totals.ItemCount)
	}
	if !totals.Subtotal.Equal(dec(t, "35.00")) {
		t.Fatalf("Subtotal = %s", totals.Subtotal)
	}
	if !totals.Tax.Equal(dec(t, "2.80")) {
		t.Fatalf("Tax = %s", totals.Tax)
	}
	if !totals.Total.Equal(dec(t, "37.80")) {
		t.Fatalf("Total = %s", totals.Total)
	}
}

func TestCartTotalsEmpty(t *testing.T) {
	totals := CartTotals(nil, dec(t, "0.08"))
	if totals.ItemCount != 0 || !totals.Subtotal.IsZero() || !totals.Tax.IsZero() || !totals.Total.IsZero() {
		t.Fatalf("empty cart totals should be zero, got %+v", totals)
	}
}
