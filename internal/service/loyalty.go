package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MoonSoon24/coffee-shop/internal/cache"
	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/MoonSoon24/coffee-shop/internal/loyalty"
	"github.com/MoonSoon24/coffee-shop/internal/repo"
	"go.uber.org/zap"
)

type PointsHistory struct {
	Summary loyalty.Summary                `json:"summary"`
	Entries []domain.PointsEntry           `json:"entries"`
	ByOrder map[string]loyalty.OrderPoints `json:"by_order"`
}

// LoyaltyService serves point balances from the cache and falls back to
// summing the ledger.
type LoyaltyService struct {
	points repo.PointsRepository
	cache  *cache.Cache
	now    func() time.Time
	logger *zap.SugaredLogger
}

func NewLoyaltyService(points repo.PointsRepository, cache *cache.Cache, logger *zap.SugaredLogger) *LoyaltyService {
	return &LoyaltyService{
		points: points,
		cache:  cache,
		now:    time.Now,
		logger: logger,
	}
}

func (s *LoyaltyService) Balance(ctx context.Context, userID string) (int64, error) {
	if s.cache != nil {
		balance, err := s.cache.GetBalance(ctx, userID)
		if err == nil {
			return balance, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warnw("balance cache read failed", "user_id", userID, "error", err)
		}
	}

	entries, err := s.points.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read points ledger: %w", err)
	}
	balance := loyalty.Balance(entries)

	if s.cache != nil {
		if err := s.cache.SetBalance(ctx, userID, balance); err != nil {
			s.logger.Warnw("failed to cache balance", "user_id", userID, "error", err)
		}
	}

	return balance, nil
}

// Invalidate drops the cached balance after the ledger changed.
func (s *LoyaltyService) Invalidate(ctx context.Context, userID string) {
	if s.cache == nil || userID == "" {
		return
	}
	if err := s.cache.DeleteBalance(ctx, userID); err != nil {
		s.logger.Warnw("failed to invalidate balance", "user_id", userID, "error", err)
	}
}

func (s *LoyaltyService) History(ctx context.Context, userID string) (*PointsHistory, error) {
	entries, err := s.points.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read points ledger: %w", err)
	}
	if entries == nil {
		entries = []domain.PointsEntry{}
	}

	return &PointsHistory{
		Summary: loyalty.Summarize(entries, s.now()),
		Entries: entries,
		ByOrder: loyalty.ByOrder(entries),
	}, nil
}
