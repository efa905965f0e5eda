package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// promotionDocument is the stored row. Scope targets are flat optional
// fields here and become a domain.Scope on the way out.
type promotionDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Code            string             `bson:"code"`
	Description     string             `bson:"description,omitempty"`
	DiscountType    string             `bson:"discount_type"`
	DiscountValue   int64              `bson:"discount_value"`
	Scope           string             `bson:"scope"`
	TargetCategory  string             `bson:"target_category,omitempty"`
	TargetProductID int64              `bson:"target_product_id,omitempty"`
	MinOrderValue   int64              `bson:"min_order_value,omitempty"`
	MinQuantity     int                `bson:"min_quantity,omitempty"`
	StartsAt        time.Time          `bson:"starts_at"`
	EndsAt          *time.Time         `bson:"ends_at,omitempty"`
	IsActive        bool               `bson:"is_active"`
}

func (d promotionDocument) toDomain() *domain.Promotion {
	p := &domain.Promotion{
		ID:            d.ID.Hex(),
		Code:          d.Code,
		Description:   d.Description,
		Kind:          domain.DiscountKind(d.DiscountType),
		Value:         d.DiscountValue,
		MinOrderValue: d.MinOrderValue,
		MinQuantity:   d.MinQuantity,
		StartsAt:      d.StartsAt,
		EndsAt:        d.EndsAt,
		IsActive:      d.IsActive,
	}

	// unknown scopes stay nil and are rejected as misconfigured on evaluation
	switch domain.ScopeKind(d.Scope) {
	case domain.ScopeOrder, "":
		p.Scope = domain.OrderScope{}
	case domain.ScopeCategory:
		p.Scope = domain.CategoryScope{Category: d.TargetCategory}
	case domain.ScopeProduct:
		p.Scope = domain.ProductScope{ProductID: d.TargetProductID}
	}

	return p
}

type PromotionRepository struct {
	collection *mongo.Collection
}

func NewPromotionRepository(db *mongo.Database) *PromotionRepository {
	return &PromotionRepository{
		collection: db.Collection(collectionPromotions),
	}
}

func (r *PromotionRepository) GetByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc promotionDocument
	err := r.collection.FindOne(ctx, bson.M{"code": domain.NormalizeCode(code)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}

	return doc.toDomain(), nil
}
