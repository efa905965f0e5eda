package repo

import (
	"context"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
)

type PromotionRepository interface {
	// GetByCode matches the uppercased code exactly and returns nil, nil when
	// no promotion has that code.
	GetByCode(ctx context.Context, code string) (*domain.Promotion, error)
}
