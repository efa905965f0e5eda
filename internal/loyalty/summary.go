package loyalty

import (
	"time"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
)

type Tier string

const (
	TierBronze Tier = "Bronze"
	TierSilver Tier = "Silver"
	TierGold   Tier = "Gold"
)

const (
	SilverThreshold = 2000
	GoldThreshold   = 5000

	PointsLifetime = 90 * 24 * time.Hour
	ExpiryWarning  = 7 * 24 * time.Hour
)

type Summary struct {
	Balance      int64 `json:"balance"`
	Earned       int64 `json:"earned"`
	Used         int64 `json:"used"`
	Tier         Tier  `json:"tier"`
	ExpiringSoon int64 `json:"expiring_soon"`
}

type OrderPoints struct {
	Earned int64 `json:"earned"`
	Used   int64 `json:"used"`
}

// Summarize reports lifetime totals net of refunds; Balance is the sum of all deltas.
func Summarize(entries []domain.PointsEntry, now time.Time) Summary {
	var s Summary
	for _, e := range entries {
		switch {
		case e.Kind == domain.EntryRefund && e.PointsDelta > 0:
			s.Used = max0(s.Used - e.PointsDelta)
		case e.Kind == domain.EntryRefund:
			s.Earned = max0(s.Earned + e.PointsDelta)
		case e.PointsDelta > 0:
			s.Earned += e.PointsDelta
		case e.PointsDelta < 0:
			s.Used += -e.PointsDelta
		}
	}
	s.Balance = Balance(entries)
	s.Tier = TierFor(s.Earned)
	s.ExpiringSoon = ExpiringSoon(entries, now)
	return s
}

func TierFor(lifetimeEarned int64) Tier {
	switch {
	case lifetimeEarned >= GoldThreshold:
		return TierGold
	case lifetimeEarned >= SilverThreshold:
		return TierSilver
	}
	return TierBronze
}

// ExpiringSoon sums positive entries whose expiry falls within the warning window.
func ExpiringSoon(entries []domain.PointsEntry, now time.Time) int64 {
	horizon := now.Add(ExpiryWarning)
	var total int64
	for _, e := range entries {
		if e.PointsDelta <= 0 || e.CreatedAt.IsZero() {
			continue
		}
		expiresAt := e.CreatedAt.Add(PointsLifetime)
		if !expiresAt.Before(now) && !expiresAt.After(horizon) {
			total += e.PointsDelta
		}
	}
	return total
}

// ByOrder groups earned and used points per order. A positive refund gives
// back used points and a negative refund takes back earned points.
func ByOrder(entries []domain.PointsEntry) map[string]OrderPoints {
	out := make(map[string]OrderPoints)
	for _, e := range entries {
		if e.OrderID == "" {
			continue
		}
		cur := out[e.OrderID]
		switch e.Kind {
		case domain.EntryEarn:
			cur.Earned += max0(e.PointsDelta)
		case domain.EntryRedeem:
			if e.PointsDelta < 0 {
				cur.Used += -e.PointsDelta
			} else {
				cur.Used += e.PointsDelta
			}
		case domain.EntryRefund:
			if e.PointsDelta > 0 {
				cur.Used = max0(cur.Used - e.PointsDelta)
			} else {
				cur.Earned = max0(cur.Earned + e.PointsDelta)
			}
		}
		out[e.OrderID] = cur
	}
	return out
}
