// Package loyalty computes point balances, redemption limits and earnings.
// One point is worth one currency unit at redemption.
package loyalty

import (
	"github.com/MoonSoon24/coffee-shop/internal/domain"
)

// DefaultEarnRateBps is 0.5% of the amount paid, in basis points.
const DefaultEarnRateBps = 50

// Balance nets every delta and never reports less than zero.
func Balance(entries []domain.PointsEntry) int64 {
	var total int64
	for _, e := range entries {
		total += e.PointsDelta
	}
	if total < 0 {
		return 0
	}
	return total
}

// Redeem validates a request against the balance and the amount still payable
// after the promotion discount.
func Redeem(requested, balance, payable int64) (int64, error) {
	if requested <= 0 {
		return 0, &domain.PointsError{Reason: domain.PointsInvalidAmount, Cap: MaxRedeemable(balance, payable)}
	}
	if requested > balance {
		return 0, &domain.PointsError{Reason: domain.PointsInsufficientBalance, Cap: max0(balance)}
	}
	if requested > payable {
		return 0, &domain.PointsError{Reason: domain.PointsExceedsRedeemCap, Cap: max0(payable)}
	}
	return requested, nil
}

// MaxRedeemable is the most points that may be applied right now.
func MaxRedeemable(balance, payable int64) int64 {
	return max0(min(balance, payable))
}

// Clamp lowers an already applied redemption when the cap shrinks. It reports
// whether an adjustment happened.
func Clamp(applied, balance, payable int64) (int64, bool) {
	limit := MaxRedeemable(balance, payable)
	if applied > limit {
		return limit, true
	}
	if applied < 0 {
		return 0, true
	}
	return applied, false
}

// Earn returns floor(finalTotal * rateBps / 10000).
func Earn(finalTotal int64, rateBps int) int64 {
	if finalTotal <= 0 || rateBps <= 0 {
		return 0
	}
	return finalTotal * int64(rateBps) / 10000
}

// OrderEntries builds the ledger rows written together with a new order.
func OrderEntries(userID, orderID string, pointsUsed, pointsEarned int64) []domain.PointsEntry {
	if userID == "" {
		return nil
	}
	var entries []domain.PointsEntry
	if pointsUsed > 0 {
		entries = append(entries, domain.PointsEntry{
			UserID: userID, OrderID: orderID, Kind: domain.EntryRedeem, PointsDelta: -pointsUsed,
		})
	}
	if pointsEarned > 0 {
		entries = append(entries, domain.PointsEntry{
			UserID: userID, OrderID: orderID, Kind: domain.EntryEarn, PointsDelta: pointsEarned,
		})
	}
	return entries
}

// RefundEntries reverses what an order redeemed and earned, net of any refunds
// already recorded for it.
func RefundEntries(orderEntries []domain.PointsEntry) []domain.PointsEntry {
	if len(orderEntries) == 0 {
		return nil
	}
	totals := ByOrder(orderEntries)
	first := orderEntries[0]
	t := totals[first.OrderID]

	var out []domain.PointsEntry
	if t.Used > 0 {
		out = append(out, domain.PointsEntry{
			UserID: first.UserID, OrderID: first.OrderID, Kind: domain.EntryRefund, PointsDelta: t.Used,
		})
	}
	if t.Earned > 0 {
		out = append(out, domain.PointsEntry{
			UserID: first.UserID, OrderID: first.OrderID, Kind: domain.EntryRefund, PointsDelta: -t.Earned,
		})
	}
	return out
}

func max0(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
