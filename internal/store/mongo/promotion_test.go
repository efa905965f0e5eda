package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPromotionDocument_ToDomain(t *testing.T) {
	id := primitive.NewObjectID()
	starts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	raw, err := bson.Marshal(bson.M{
		"_id":               id,
		"code":              "PASTRY20",
		"discount_type":     "percentage",
		"discount_value":    20,
		"scope":             "category",
		"target_category":   "Pastry",
		"min_quantity":      2,
		"starts_at":         starts,
		"is_active":         true,
		"target_product_id": 0,
	})
	require.NoError(t, err)

	var doc promotionDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))

	p := doc.toDomain()
	assert.Equal(t, id.Hex(), p.ID)
	assert.Equal(t, domain.DiscountPercentage, p.Kind)
	assert.Equal(t, int64(20), p.Value)
	assert.Equal(t, domain.CategoryScope{Category: "Pastry"}, p.Scope)
	assert.Equal(t, 2, p.MinQuantity)
	assert.True(t, p.StartsAt.Equal(starts))
	assert.Nil(t, p.EndsAt)
	assert.True(t, p.IsActive)
}

func TestPromotionDocument_Scopes(t *testing.T) {
	tests := []struct {
		name string
		doc  promotionDocument
		want domain.Scope
	}{
		{"missing scope is order wide", promotionDocument{}, domain.OrderScope{}},
		{"order", promotionDocument{Scope: "order"}, domain.OrderScope{}},
		{"product", promotionDocument{Scope: "product", TargetProductID: 7}, domain.ProductScope{ProductID: 7}},
		{"unknown", promotionDocument{Scope: "weekday"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.doc.toDomain().Scope)
		})
	}
}

func TestStorage_WithoutTransactions(t *testing.T) {
	s := &Storage{config: Config{Transactions: false}}
	assert.False(t, s.Atomic())

	calls := 0
	boom := errors.New("boom")
	err := s.WithTransaction(context.Background(), func(ctx context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
