package cart

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelasquez/freshbasket-backend/pkg/db/models"
	"github.com/avelasquez/freshbasket-backend/pkg/pricing"
)

// View is the cart read model with recomputed totals.
type View struct {
	CartID uuid.UUID
	UserID uuid.UUID
	Lines  []ViewLine
	Totals pricing.Totals
}

// ViewLine is one priced cart line.
type ViewLine struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

func buildView(cart *models.Cart, taxRate decimal.Decimal) *View {
	view := &View{
		CartID: cart.ID,
		UserID: cart.UserID,
		Lines:  make([]ViewLine, 0, len(cart.Items)),
	}

	// Lines keep insertion order no matter how the rows came back.
	items := make([]models.CartItem, len(cart.Items))
	copy(items, cart.Items)
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID.String() < items[j].ID.String()
	})

	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		view.Lines = append(view.Lines, ViewLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: pricing.LineTotal(item.UnitPrice, item.Quantity),
		})
		lines = append(lines, pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity})
	}
	view.Totals = pricing.CartTotals(lines, taxRate)
	return view
}

func emptyView(userID uuid.UUID, taxRate decimal.Decimal) *View {
	return &View{
		UserID: userID,
		Lines:  []ViewLine{},
		Totals: pricing.CartTotals(nil, taxRate),
	}
}
