package repo

import (
	"context"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
)

type OrderRepository interface {
	// Create returns a *domain.ConflictError when the order id is taken.
	Create(ctx context.Context, order *domain.Order) error
	CreateLines(ctx context.Context, lines []domain.OrderLine) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetLines(ctx context.Context, orderID string) ([]domain.OrderLine, error)
	ListByUser(ctx context.Context, userID string, status domain.OrderStatus) ([]domain.Order, error)
	ListNeedingReconciliation(ctx context.Context, limit int) ([]domain.Order, error)
	// UpdateStatus only succeeds while the order is still in status from.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error
	FlagReconciliation(ctx context.Context, id, note string) error
}

type OrderStatusAuditRepository interface {
	Create(ctx context.Context, audit *domain.OrderStatusAudit) error
	GetByOrderID(ctx context.Context, orderID string, limit int) ([]domain.OrderStatusAudit, error)
}
