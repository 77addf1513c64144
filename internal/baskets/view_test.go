package baskets

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/avelasquez/freshbasket-backend/pkg/db/models"
	"github.com/avelasquez/freshbasket-backend/pkg/enums"
)

func TestNewViewOrdersItemsByPosition(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	basket := &models.PredictedBasket{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		WeekOf:          time.Date(2025, 4, 13, 0, 0, 0, 0, time.UTC),
		Status:          enums.BasketStatusGenerated,
		ConfidenceScore: 0.65,
		Items: []models.PredictedBasketItem{
			{ProductID: second, Quantity: 2, ConfidenceScore: 0.5, IsAccepted: false, Position: 1},
			{ProductID: first, Quantity: 1, ConfidenceScore: 0.8, IsAccepted: true, Position: 0},
		},
	}

	view := NewView(basket)
	if view.BasketID != basket.ID || view.Status != enums.BasketStatusGenerated {
		t.Fatalf("unexpected header %+v", view)
	}
	if view.ConfidenceScore != 0.65 {
		t.Fatalf("confidence = %v", view.ConfidenceScore)
	}
	if len(view.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(view.Items))
	}
	if view.Items[0].ProductID != first || view.Items[1].ProductID != second {
		t.Fatal("items not ordered by position")
	}
	if view.Items[1].IsAccepted {
		t.Fatal("excluded item reported as accepted")
	}
	// the input slice is left untouched
	if basket.Items[0].ProductID != second {
		t.Fatal("NewView mutated the basket items")
	}
}

func TestNewViewEmptyBasket(t *testing.T) {
	view := NewView(&models.PredictedBasket{ID: uuid.New()})
	if len(view.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(view.Items))
	}
}
