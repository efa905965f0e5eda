package repo

import (
	"context"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
)

type PointsRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.PointsEntry, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.PointsEntry, error)
	Append(ctx context.Context, entries ...domain.PointsEntry) error
}
