package baskets

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/avelasquez/freshbasket-backend/pkg/db/models"
	"github.com/avelasquez/freshbasket-backend/pkg/enums"
)

// View is the predicted basket read model, items in prediction order.
type View struct {
	BasketID        uuid.UUID
	UserID          uuid.UUID
	WeekOf          time.Time
	Status          enums.BasketStatus
	ConfidenceScore float64
	Items           []ViewItem
}

// ViewItem is one predicted line.
type ViewItem struct {
	ProductID       uuid.UUID
	Quantity        int
	ConfidenceScore float64
	IsAccepted      bool
}

// NewView builds the read model from the persisted basket.
func NewView(basket *models.PredictedBasket) *View {
	view := &View{
		BasketID:        basket.ID,
		UserID:          basket.UserID,
		WeekOf:          basket.WeekOf,
		Status:          basket.Status,
		ConfidenceScore: basket.ConfidenceScore,
		Items:           make([]ViewItem, 0, len(basket.Items)),
	}
	items := make([]models.PredictedBasketItem, len(basket.Items))
	copy(items, basket.Items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})
	for _, item := range items {
		view.Items = append(view.Items, ViewItem{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			ConfidenceScore: item.ConfidenceScore,
			IsAccepted:      item.IsAccepted,
		})
	}
	return view
}
