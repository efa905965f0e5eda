package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// OrderStatusAuditRepository keeps one row per applied status change. Rows are
// never updated; the order document holds the current status.
type OrderStatusAuditRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewOrderStatusAuditRepository(db *mongo.Database) *OrderStatusAuditRepository {
	return &OrderStatusAuditRepository{
		collection: db.Collection(collectionStatusAudit),
		now:        time.Now,
	}
}

func (r *OrderStatusAuditRepository) Create(ctx context.Context, audit *domain.OrderStatusAudit) error {
	if err := r.prepare(audit); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, audit); err != nil {
		return fmt.Errorf("failed to record status change for order %s: %w", audit.OrderID, err)
	}
	return nil
}

// prepare rejects rows describing a move the order lifecycle does not allow
// and fills the fields the writer may leave empty.
func (r *OrderStatusAuditRepository) prepare(audit *domain.OrderStatusAudit) error {
	if audit.OrderID == "" {
		return domain.NewValidationError(domain.ValidationInvalidInput, "order_id", "audit row needs an order id")
	}
	if !audit.OldStatus.CanTransitionTo(audit.NewStatus) {
		return domain.NewValidationError(domain.ValidationInvalidInput, "new_status",
			fmt.Sprintf("%s cannot follow %s", audit.NewStatus, audit.OldStatus))
	}

	if audit.ID.IsZero() {
		audit.ID = primitive.NewObjectID()
	}
	if audit.EventType == "" {
		audit.EventType = domain.EventOrderStatusChanged
	}
	if audit.Timestamp.IsZero() {
		audit.Timestamp = r.now()
	}
	audit.Timestamp = audit.Timestamp.UTC()
	return nil
}

// GetByOrderID returns the latest limit status changes of the order, oldest
// first, so the result reads as a timeline.
func (r *OrderStatusAuditRepository) GetByOrderID(ctx context.Context, orderID string, limit int) ([]domain.OrderStatusAudit, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter, opts := historyQuery(orderID, limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get history of order %s: %w", orderID, err)
	}
	defer cursor.Close(ctx)

	audits := []domain.OrderStatusAudit{}
	if err := cursor.All(ctx, &audits); err != nil {
		return nil, fmt.Errorf("failed to decode history of order %s: %w", orderID, err)
	}
	return chronological(audits), nil
}

// historyQuery reads newest first so the limit keeps the most recent rows.
// _id breaks ties between changes written in the same millisecond.
func historyQuery(orderID string, limit int) (bson.M, *options.FindOptions) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return bson.M{"order_id": orderID}, opts
}

func chronological(newestFirst []domain.OrderStatusAudit) []domain.OrderStatusAudit {
	for i, j := 0, len(newestFirst)-1; i < j; i, j = i+1, j-1 {
		newestFirst[i], newestFirst[j] = newestFirst[j], newestFirst[i]
	}
	return newestFirst
}
