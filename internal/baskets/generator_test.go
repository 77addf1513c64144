package baskets

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelasquez/freshbasket-backend/pkg/config"
	"github.com/avelasquez/freshbasket-backend/pkg/db/models"
	"github.com/avelasquez/freshbasket-backend/pkg/enums"
	"github.com/avelasquez/freshbasket-backend/pkg/logger"
	"github.com/avelasquez/freshbasket-backend/pkg/outbox"
	"github.com/avelasquez/freshbasket-backend/pkg/prediction"
)

type fakeBasketRepo struct {
	users          []models.User
	usersErr       error
	existing       map[uuid.UUID]bool
	products       map[uuid.UUID]models.Product
	created        []*models.PredictedBasket
	createErr      error
	createErrFor   map[uuid.UUID]error
	deletedBefore  time.Time
	deleteReturned int64
}

func newFakeBasketRepo() *fakeBasketRepo {
	return &fakeBasketRepo{
		existing:     map[uuid.UUID]bool{},
		products:     map[uuid.UUID]models.Product{},
		createErrFor: map[uuid.UUID]error{},
	}
}

func (f *fakeBasketRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeBasketRepo) EligibleUsers(ctx context.Context) ([]models.User, error) {
	return f.users, f.usersErr
}

func (f *fakeBasketRepo) BasketExists(ctx context.Context, userID uuid.UUID, weekOf time.Time) (bool, error) {
	return f.existing[userID], nil
}

func (f *fakeBasketRepo) ActiveProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeBasketRepo) CreateBasket(ctx context.Context, basket *models.PredictedBasket) error {
	if err := f.createErrFor[basket.UserID]; err != nil {
		return err
	}
	if f.createErr != nil {
		return f.createErr
	}
	basket.ID = uuid.New()
	f.created = append(f.created, basket)
	return nil
}

func (f *fakeBasketRepo) DeleteStaleOpenBaskets(ctx context.Context, weekOfBefore time.Time) (int64, error) {
	f.deletedBefore = weekOfBefore
	return f.deleteReturned, nil
}

type fakePredictor struct {
	baskets map[uuid.UUID]*prediction.Basket
	errs    map[uuid.UUID]error
	calls   []uuid.UUID
}

func (f *fakePredictor) PredictBasket(ctx context.Context, userID uuid.UUID) (*prediction.Basket, error) {
	f.calls = append(f.calls, userID)
	if err := f.errs[userID]; err != nil {
		return nil, err
	}
	basket := f.baskets[userID]
	if basket == nil {
		return &prediction.Basket{}, nil
	}
	return basket, nil
}

type stubGenTx struct {
	calls int
	err   error
}

func (s *stubGenTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return fn(&gorm.DB{})
}

type recordingGenEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (r *recordingGenEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

type generatorFixture struct {
	repo      *fakeBasketRepo
	predictor *fakePredictor
	tx        *stubGenTx
	emitter   *recordingGenEmitter
	gen       *Generator
	sleeps    []time.Duration
}

func newGeneratorFixture(t *testing.T, delay time.Duration) *generatorFixture {
	t.Helper()
	fx := &generatorFixture{
		repo:      newFakeBasketRepo(),
		predictor: &fakePredictor{baskets: map[uuid.UUID]*prediction.Basket{}, errs: map[uuid.UUID]error{}},
		tx:        &stubGenTx{},
		emitter:   &recordingGenEmitter{},
	}
	gen, err := NewGenerator(GeneratorParams{
		Repo:      fx.repo,
		Tx:        fx.tx,
		Predictor: fx.predictor,
		Events:    fx.emitter,
		Config:    config.BasketsConfig{InterUserDelay: delay},
		Logger:    testLogger(),
		Now: func() time.Time {
			return time.Date(2025, 4, 16, 10, 0, 0, 0, time.UTC)
		},
	})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	gen.sleep = func(ctx context.Context, d time.Duration) error {
		fx.sleeps = append(fx.sleeps, d)
		return nil
	}
	fx.gen = gen
	return fx
}

func (fx *generatorFixture) addUser() uuid.UUID {
	id := uuid.New()
	fx.repo.users = append(fx.repo.users, models.User{
		ID: id, IsActive: true, EmailVerified: true, AutoBasketEnabled: true,
	})
	return id
}

func (fx *generatorFixture) addActiveProduct() uuid.UUID {
	id := uuid.New()
	fx.repo.products[id] = models.Product{ID: id, IsActive: true}
	return id
}

func TestGeneratorRunCreatesBasketPerUser(t *testing.T) {
	fx := newGeneratorFixture(t, 0)
	user := fx.addUser()
	p1 := fx.addActiveProduct()
	p2 := fx.addActiveProduct()
	fx.predictor.baskets[user] = &prediction.Basket{
		ProductIDs:      []uuid.UUID{p1, p2},
		ConfidenceScore: 0.72,
		ProductScores:   map[uuid.UUID]float64{p1: 0.8, p2: 0.64},
	}

	summary, err := fx.gen.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Generated != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(fx.repo.created) != 1 {
		t.Fatalf("expected 1 basket, got %d", len(fx.repo.created))
	}

	basket := fx.repo.created[0]
	wantWeek := time.Date(2025, 4, 13, 0, 0, 0, 0, time.UTC)
	if !basket.WeekOf.Equal(wantWeek) {
		t.Fatalf("weekOf = %s, want %s", basket.WeekOf, wantWeek)
	}
	if basket.Status != enums.BasketStatusGenerated {
		t.Fatalf("status = %s", basket.Status)
	}
	if basket.ConfidenceScore != 0.72 {
		t.Fatalf("confidence = %v", basket.ConfidenceScore)
	}
	if len(basket.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(basket.Items))
	}
	for i, item := range basket.Items {
		if item.Quantity != 1 {
			t.Fatalf("item %d quantity = %d", i, item.Quantity)
		}
		if item.Position != i {
			t.Fatalf("item %d position = %d", i, item.Position)
		}
		if !item.IsAccepted {
			t.Fatalf("item %d not accepted by default", i)
		}
	}
	if basket.Items[0].ConfidenceScore != 0.8 {
		t.Fatalf("item score = %v", basket.Items[0].ConfidenceScore)
	}
}

func TestGeneratorRunEmitsGeneratedEvent(t *testing.T) {
	fx := newGeneratorFixture(t, 0)
	user := fx.addUser()
	p1 := fx.addActiveProduct()
	fx.predictor.baskets[user] = &prediction.Basket{
		ProductIDs:    []uuid.UUID{p1},
		ProductScores: map[uuid.UUID]float64{p1: 0.5},
	}

	if _, err := fx.gen.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fx.emitter.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(fx.emitter.events))
	}
	event := fx.emitter.events[0]
	if event.EventType != enums.EventBasketGenerated {
		t.Fatalf("event type = %s", event.EventType)
	}
	if event.AggregateType != enums.AggregatePredictedBasket {
		t.Fatalf("aggregate type = %s", event.AggregateType)
	}
	data, ok := event.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected event data %T", event.Data)
	}
	if data["itemCount"] != 1 {
		t.Fatalf("itemCount = %v", data["itemCount"])
	}
	if data["weekOf"] != "2025-04-13" {
		t.Fatalf("weekOf = %v", data["weekOf"])
	}
}

func TestGeneratorRunMeanConfidenceFallback(t *testing.T) {
	fx := newGeneratorFixture(t, 0)
	user := fx.addUser()
	p1 := fx.addActiveProduct()
	p2 := fx.addActiveProduct()
	fx.predictor.baskets[user] = &prediction.Basket{
		ProductIDs:    []uuid.UUID{p1, p2},
		ProductScores: map[uuid.UUID]float64{p1: 0.9, p2: 0.5},
	}

	if _, err := fx.gen.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := fx.repo.created[0].ConfidenceScore
	if got < 0.699 || got > 0.701 {
		t.Fatalf("confidence = %v, want mean 0.7", got)
	}
}

func TestGeneratorRunSkipsExistingBasket(t *testing.T) {
	fx := newGeneratorFixture(t, 0)
	user := fx.addUser()
	fx.repo.existing[user] = true

	summary, err := fx.gen.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.SkippedExisting != 1 || summary.Generated != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(fx.predictor.calls) != 0 {
		t.Fatal("prediction called for user with existing basket")
	}
}

func TestGeneratorRunSkipsWhenNoActiveProducts(t *testing.T) {
	fx := newGeneratorFixture(t, 0)
	user := fx.addUser()
	inactive := uuid.New()
	fx.predictor.baskets[user] = &prediction.Basket{
		ProductIDs:    []uuid.UUID{inactive},
		ProductScores: map[uuid.UUID]float64{inactive: 0.4},
	}

	summary, err := fx.gen.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.SkippedEmpty != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if fx.tx.calls != 0 {
		t.Fatal("transaction opened for empty basket")
	}
}

func TestGeneratorRunFiltersInactiveProducts(t *testing.T) {
	fx := newGeneratorFixture(t, 0)
	user := fx.addUser()
	active := fx.addActiveProduct()
	inactive := uuid.New()
	fx.predictor.baskets[user] = &prediction.Basket{
		ProductIDs:    []uuid.UUID{inactive, active},
		ProductScores: map[uuid.UUID]float64{inactive: 0.9, active: 0.6},
	}

	if _, err := fx.gen.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	basket := fx.repo.created[0]
	if len(basket.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(basket.Items))
	}
	if basket.Items[0].ProductID != active {
		t.Fatal("kept the inactive product")
	}
	if basket.Items[0].Position != 0 {
		t.Fatalf("position = %d", basket.Items[0].Position)
	}
}

func TestGeneratorRunIsolatesUserFailures(t *testing.T) {
	fx := newGeneratorFixture(t, 0)
	failing := fx.addUser()
	healthy := fx.addUser()
	fx.predictor.errs[failing] = errors.New("prediction service unavailable")
	product := fx.addActiveProduct()
	fx.predictor.baskets[healthy] = &prediction.Basket{
		ProductIDs:    []uuid.UUID{product},
		ProductScores: map[uuid.UUID]float64{product: 0.5},
	}

	summary, err := fx.gen.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 1 || summary.Generated != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(fx.repo.created) != 1 || fx.repo.created[0].UserID != healthy {
		t.Fatal("healthy user basket missing")
	}
}

func TestGeneratorRunTreatsDuplicateInsertAsExisting(t *testing.T) {
	fx := newGeneratorFixture(t, 0)
	user := fx.addUser()
	product := fx.addActiveProduct()
	fx.predictor.baskets[user] = &prediction.Basket{
		ProductIDs:    []uuid.UUID{product},
		ProductScores: map[uuid.UUID]float64{product: 0.5},
	}
	fx.repo.createErrFor[user] = fmt.Errorf(
		"duplicate key value violates unique constraint %q", basketUserWeekConstraint)

	summary, err := fx.gen.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.SkippedExisting != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestGeneratorRunDelaysBetweenUsers(t *testing.T) {
	fx := newGeneratorFixture(t, 150*time.Millisecond)
	first := fx.addUser()
	second := fx.addUser()
	third := fx.addUser()
	fx.repo.existing[first] = true
	fx.repo.existing[second] = true
	fx.repo.existing[third] = true

	if _, err := fx.gen.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fx.sleeps) != 2 {
		t.Fatalf("expected 2 delays for 3 users, got %d", len(fx.sleeps))
	}
	for _, d := range fx.sleeps {
		if d != 150*time.Millisecond {
			t.Fatalf("delay = %s", d)
		}
	}
}

func TestGeneratorRunStopsOnCancelledContext(t *testing.T) {
	fx := newGeneratorFixture(t, 0)
	fx.addUser()
	fx.addUser()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := fx.gen.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(fx.repo.created) != 0 {
		t.Fatal("baskets created after cancellation")
	}
}
