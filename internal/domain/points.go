package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EntryKind string

const (
	EntryEarn       EntryKind = "earn"
	EntryRedeem     EntryKind = "redeem"
	EntryExpire     EntryKind = "expire"
	EntryAdjustment EntryKind = "adjustment"
	EntryRefund     EntryKind = "refund"
)

// PointsEntry is an immutable ledger row. Redemptions are stored as negative deltas.
type PointsEntry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	OrderID     string             `bson:"order_id,omitempty" json:"order_id,omitempty"`
	Kind        EntryKind          `bson:"entry_type" json:"entry_type"`
	PointsDelta int64              `bson:"points_delta" json:"points_delta"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
