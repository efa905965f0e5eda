package repo

import (
	"context"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
)

type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	Upsert(ctx context.Context, product *domain.Product) error
}
