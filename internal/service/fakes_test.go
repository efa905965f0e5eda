package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/MoonSoon24/coffee-shop/internal/parser"
	"github.com/MoonSoon24/coffee-shop/internal/queue"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var testLogger = zap.NewNop().Sugar()

type fakeProductRepo struct {
	mu        sync.Mutex
	products  map[int64]domain.Product
	listCalls int
	upsertErr error
}

func newFakeProductRepo(products ...domain.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[int64]domain.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (r *fakeProductRepo) GetByIDs(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[int64]domain.Product)
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *fakeProductRepo) List(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listCalls++
	var out []domain.Product
	for _, p := range r.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.AvailableOnly && !p.IsAvailable {
			continue
		}
		if filter.BundlesOnly && !p.IsBundle {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeProductRepo) Upsert(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.products[product.ID] = *product
	return nil
}

// fakeTx never rolls back; nonAtomic only changes what it reports.
type fakeTx struct {
	nonAtomic bool
}

func (fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (t fakeTx) Atomic() bool { return !t.nonAtomic }

type fakePointsRepo struct {
	mu      sync.Mutex
	entries []domain.PointsEntry
	listErr error
	// appendErrs fail the next Append calls in order.
	appendErrs []error
}

func (r *fakePointsRepo) ListByUser(_ context.Context, userID string) ([]domain.PointsEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.PointsEntry
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakePointsRepo) ListByOrder(_ context.Context, orderID string) ([]domain.PointsEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.PointsEntry
	for _, e := range r.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakePointsRepo) Append(_ context.Context, entries ...domain.PointsEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.appendErrs) > 0 {
		err := r.appendErrs[0]
		r.appendErrs = r.appendErrs[1:]
		return err
	}
	r.entries = append(r.entries, entries...)
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	lines  []domain.OrderLine
}

func newFakeOrderRepo(orders ...domain.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: make(map[string]*domain.Order)}
	for i := range orders {
		o := orders[i]
		r.orders[o.ID] = &o
	}
	return r
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; ok {
		return &domain.ConflictError{OrderID: order.ID}
	}
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) CreateLines(_ context.Context, lines []domain.OrderLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = append(r.lines, lines...)
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetLines(_ context.Context, orderID string) ([]domain.OrderLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.OrderLine
	for _, l := range r.lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListByUser(_ context.Context, userID string, status domain.OrderStatus) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Order
	for _, o := range r.orders {
		if o.UserID == userID && (status == "" || o.Status == status) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeOrderRepo) ListNeedingReconciliation(_ context.Context, limit int) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Order
	for _, o := range r.orders {
		if o.NeedsReconciliation && len(out) < limit {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return fmt.Errorf("order %s not in status %s: %w", id, from, domain.ErrConflict)
	}
	o.Status = to
	return nil
}

func (r *fakeOrderRepo) FlagReconciliation(_ context.Context, id, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.NeedsReconciliation = true
	o.ReconciliationNote = note
	return nil
}

func (r *fakeOrderRepo) status(id string) domain.OrderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id].Status
}

func (r *fakeOrderRepo) get(id string) domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.orders[id]
}

type fakeAuditRepo struct {
	mu     sync.Mutex
	audits []domain.OrderStatusAudit
}

func (r *fakeAuditRepo) Create(_ context.Context, audit *domain.OrderStatusAudit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	audit.ID = primitive.NewObjectID()
	r.audits = append(r.audits, *audit)
	return nil
}

func (r *fakeAuditRepo) GetByOrderID(_ context.Context, orderID string, limit int) ([]domain.OrderStatusAudit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.OrderStatusAudit
	for _, a := range r.audits {
		if a.OrderID == orderID {
			out = append(out, a)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type published struct {
	queue   string
	message []byte
}

type fakeBroker struct {
	mu         sync.Mutex
	messages   []published
	publishErr error
}

func (b *fakeBroker) Publish(_ context.Context, queueName string, message []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.publishErr != nil {
		return b.publishErr
	}
	b.messages = append(b.messages, published{queue: queueName, message: message})
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, string, queue.MessageHandler) error {
	return errors.New("not supported")
}

func (b *fakeBroker) Close() error { return nil }

type fakeInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userID)
}

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[primitive.ObjectID]*domain.ImportTask
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[primitive.ObjectID]*domain.ImportTask)}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.ImportTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task.ID = primitive.NewObjectID()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	cp := *task
	r.tasks[task.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ImportTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("import task %s: %w", id.Hex(), domain.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.ImportTaskStatus, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Status = status
	t.ErrorMessage = errorMsg
	return nil
}

func (r *fakeTaskRepo) Complete(_ context.Context, id primitive.ObjectID, imported, skipped int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Status = domain.StatusCompleted
	t.ProductCount = imported
	t.SkippedCount = skipped
	return nil
}

type fakeSource struct {
	result *parser.Result
	err    error
	calls  int
}

func (s *fakeSource) ParseCatalog(context.Context, string) (*parser.Result, error) {
	s.calls++
	return s.result, s.err
}

type fakePromotionRepo struct {
	promos map[string]domain.Promotion
	err    error
}

func (r *fakePromotionRepo) GetByCode(_ context.Context, code string) (*domain.Promotion, error) {
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.promos[code]
	if !ok {
		return nil, nil
	}
	return &p, nil
}
