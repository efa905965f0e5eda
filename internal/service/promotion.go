package service

import (
	"context"
	"fmt"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/MoonSoon24/coffee-shop/internal/repo"
)

type PromotionService struct {
	promotions repo.PromotionRepository
}

func NewPromotionService(promotions repo.PromotionRepository) *PromotionService {
	return &PromotionService{promotions: promotions}
}

// Lookup matches the code case-insensitively. Unknown codes are a
// *domain.PromotionError with reason not_found.
func (s *PromotionService) Lookup(ctx context.Context, code string) (*domain.Promotion, error) {
	code = domain.NormalizeCode(code)

	promo, err := s.promotions.GetByCode(ctx, code)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "fetch promotion", Err: fmt.Errorf("code %s: %w", code, err)}
	}
	if promo == nil {
		return nil, domain.NewPromotionError(domain.PromotionNotFound, code, "")
	}

	return promo, nil
}
