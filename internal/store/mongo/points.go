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

// PointsRepository is append-only. Corrections are new entries, never updates.
type PointsRepository struct {
	collection *mongo.Collection
}

func NewPointsRepository(db *mongo.Database) *PointsRepository {
	return &PointsRepository{
		collection: db.Collection(collectionPoints),
	}
}

func (r *PointsRepository) ListByUser(ctx context.Context, userID string) ([]domain.PointsEntry, error) {
	return r.list(ctx, bson.M{"user_id": userID})
}

func (r *PointsRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.PointsEntry, error) {
	return r.list(ctx, bson.M{"order_id": orderID})
}

func (r *PointsRepository) list(ctx context.Context, filter bson.M) ([]domain.PointsEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list points entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []domain.PointsEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode points entries: %w", err)
	}

	return entries, nil
}

func (r *PointsRepository) Append(ctx context.Context, entries ...domain.PointsEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := time.Now()
	docs := make([]interface{}, 0, len(entries))
	for i := range entries {
		if entries[i].ID.IsZero() {
			entries[i].ID = primitive.NewObjectID()
		}
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
		docs = append(docs, entries[i])
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to append points entries: %w", err)
	}

	return nil
}
