package cart

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelasquez/freshbasket-backend/pkg/db/models"
)

func TestBuildViewOrdersLinesByInsertion(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	third := uuid.New()
	base := time.Date(2025, 4, 16, 10, 0, 0, 0, time.UTC)
	cart := &models.Cart{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Items: []models.CartItem{
			{ID: uuid.New(), ProductID: third, Quantity: 1, UnitPrice: decimal.NewFromFloat(1.50), CreatedAt: base.Add(2 * time.Minute)},
			{ID: uuid.New(), ProductID: first, Quantity: 2, UnitPrice: decimal.NewFromFloat(3.25), CreatedAt: base},
			{ID: uuid.New(), ProductID: second, Quantity: 1, UnitPrice: decimal.NewFromFloat(0.99), CreatedAt: base.Add(time.Minute)},
		},
	}

	view := buildView(cart, decimal.NewFromFloat(0.1))
	if len(view.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(view.Lines))
	}
	got := []uuid.UUID{view.Lines[0].ProductID, view.Lines[1].ProductID, view.Lines[2].ProductID}
	want := []uuid.UUID{first, second, third}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %s, want %s", i, got[i], want[i])
		}
	}
	// the input slice is left untouched
	if cart.Items[0].ProductID != third {
		t.Fatal("buildView mutated the cart items")
	}
}

func TestBuildViewBreaksCreatedAtTiesByID(t *testing.T) {
	at := time.Date(2025, 4, 16, 10, 0, 0, 0, time.UTC)
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("ffffffff-0000-0000-0000-000000000001")
	cart := &models.Cart{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Items: []models.CartItem{
			{ID: high, ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromFloat(2.00), CreatedAt: at},
			{ID: low, ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromFloat(2.00), CreatedAt: at},
		},
	}

	view := buildView(cart, decimal.Zero)
	if view.Lines[0].ProductID != cart.Items[1].ProductID {
		t.Fatal("ties on created_at must order by id")
	}
}
