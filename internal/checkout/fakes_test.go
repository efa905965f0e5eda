package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MoonSoon24/coffee-shop/internal/cart"
	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/MoonSoon24/coffee-shop/internal/promotion"
	"go.uber.org/zap"
)

type fakeOrders struct {
	mu         sync.Mutex
	orders     map[string]*domain.Order
	lines      []domain.OrderLine
	createErrs []error
	linesErr   error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: make(map[string]*domain.Order)}
}

func (f *fakeOrders) Create(_ context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := f.orders[order.ID]; ok {
		return &domain.ConflictError{OrderID: order.ID}
	}
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrders) CreateLines(_ context.Context, lines []domain.OrderLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.linesErr != nil {
		return f.linesErr
	}
	f.lines = append(f.lines, lines...)
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) GetLines(_ context.Context, orderID string) ([]domain.OrderLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.OrderLine
	for _, l := range f.lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeOrders) ListByUser(context.Context, string, domain.OrderStatus) ([]domain.Order, error) {
	return nil, nil
}

func (f *fakeOrders) ListNeedingReconciliation(context.Context, int) ([]domain.Order, error) {
	return nil, nil
}

func (f *fakeOrders) UpdateStatus(context.Context, string, domain.OrderStatus, domain.OrderStatus) error {
	return nil
}

func (f *fakeOrders) FlagReconciliation(_ context.Context, id, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	o, ok := f.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.NeedsReconciliation = true
	o.ReconciliationNote = note
	return nil
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type fakePoints struct {
	mu      sync.Mutex
	entries []domain.PointsEntry
	err     error
	listErr error
}

func (f *fakePoints) ListByUser(_ context.Context, userID string) ([]domain.PointsEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.PointsEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakePoints) ListByOrder(_ context.Context, orderID string) ([]domain.PointsEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.PointsEntry
	for _, e := range f.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakePoints) Append(_ context.Context, entries ...domain.PointsEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entries...)
	return nil
}

// fakeTx only runs fn; rollback is not simulated.
type fakeTx struct {
	atomic bool
}

func (f fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f fakeTx) Atomic() bool { return f.atomic }

type fakeBalances struct {
	mu          sync.Mutex
	balances    map[string]int64
	err         error
	invalidated []string
}

func (f *fakeBalances) Balance(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return 0, f.err
	}
	return f.balances[userID], nil
}

func (f *fakeBalances) Invalidate(_ context.Context, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, userID)
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []domain.OrderPlacedEvent
	err    error
}

func (f *fakeNotifier) Notify(_ context.Context, event domain.OrderPlacedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

type harness struct {
	orders    *fakeOrders
	points    *fakePoints
	balances  *fakeBalances
	notifier  *fakeNotifier
	tx        fakeTx
	ids       []string
	generated []string
}

func newHarness() *harness {
	return &harness{
		orders:   newFakeOrders(),
		points:   &fakePoints{},
		balances: &fakeBalances{balances: make(map[string]int64)},
		notifier: &fakeNotifier{},
		tx:       fakeTx{atomic: true},
	}
}

// grant gives the user points both in the ledger and in the balance source.
func (h *harness) grant(userID string, points int64) {
	h.balances.balances[userID] = points
	h.points.entries = append(h.points.entries, domain.PointsEntry{
		UserID:      userID,
		Kind:        domain.EntryAdjustment,
		PointsDelta: points,
		CreatedAt:   testNow.AddDate(0, 0, -1),
	})
}

func (h *harness) orderEntries(orderID string) []domain.PointsEntry {
	entries, _ := h.points.ListByOrder(context.Background(), orderID)
	return entries
}

func (h *harness) nextID(now time.Time) string {
	var id string
	if len(h.ids) > 0 {
		id = h.ids[0]
		h.ids = h.ids[1:]
	} else {
		id = NewOrderID(now)
	}
	h.generated = append(h.generated, id)
	return id
}

func (h *harness) orchestrator() *Orchestrator {
	pricer := NewPricer(promotion.NewEvaluator(func() time.Time { return testNow }), 50)
	return NewOrchestrator(
		h.orders,
		h.points,
		h.tx,
		h.balances,
		h.notifier,
		pricer,
		zap.NewNop().Sugar(),
		WithIDGenerator(h.nextID),
		WithClock(func() time.Time { return testNow }),
	)
}

func coffee(id int64, name string, price int64) domain.Product {
	return domain.Product{ID: id, Name: name, Category: "Coffee", Price: price, IsAvailable: true}
}

func pastry(id int64, name string, price int64) domain.Product {
	return domain.Product{ID: id, Name: name, Category: "Pastry", Price: price, IsAvailable: true}
}

type cartItem struct {
	product  domain.Product
	quantity int
}

func cartWith(items ...cartItem) *cart.Cart {
	c := cart.New()
	for _, it := range items {
		if _, err := c.Add(it.product, it.quantity, nil, ""); err != nil {
			panic(err)
		}
	}
	return c
}

func orderPromo(kind domain.DiscountKind, value int64) *domain.Promotion {
	return &domain.Promotion{
		Code:     "NGOPI",
		Kind:     kind,
		Value:    value,
		Scope:    domain.OrderScope{},
		StartsAt: testNow.Add(-time.Hour),
		IsActive: true,
	}
}
