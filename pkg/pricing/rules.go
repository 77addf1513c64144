package pricing

import (
	"github.com/avelasquez/freshbasket-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// EffectivePrice returns the sale-adjusted unit price rounded to two
// decimals. The value is always derived from the product row, never
// stored.
func EffectivePrice(product *models.Product) decimal.Decimal {
	if product == nil {
		return decimal.Zero
	}
	if !product.IsOnSale || !product.SalePercentage.IsPositive() {
		return product.Price.Round(2)
	}
	discount := product.SalePercentage.Div(oneHundred)
	return product.Price.Mul(decimal.NewFromInt(1).Sub(discount)).Round(2)
}

// HasSufficientStock reports whether requestedQty can be satisfied.
// Products that do not track inventory always satisfy the check.
func HasSufficientStock(product *models.Product, requestedQty int) bool {
	if product == nil {
		return false
	}
	if !product.TrackInventory {
		return true
	}
	return product.Stock >= requestedQty
}

// LineTotal multiplies a unit price by a quantity, rounded to two
// decimals.
func LineTotal(unitPrice decimal.Decimal, qty int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

// Line is the minimal shape CartTotals needs from a cart item.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the recomputed money view of a cart. Callers never compute
// totals themselves.
type Totals struct {
	ItemCount int
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
}

// CartTotals recomputes item count, subtotal, tax, and total from the
// current lines. Nothing here is cached, so the result can never go
// stale.
func CartTotals(lines []Line, taxRate decimal.Decimal) Totals {
	totals := Totals{
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Total:    decimal.Zero,
	}
	for _, line := range lines {
		totals.ItemCount += line.Quantity
		totals.Subtotal = totals.Subtotal.Add(LineTotal(line.UnitPrice, line.Quantity))
	}
	totals.Subtotal = totals.Subtotal.Round(2)
	totals.Tax = totals.Subtotal.Mul(taxRate).Round(2)
	totals.Total = totals.Subtotal.Add(totals.Tax).Round(2)
	return totals
}
