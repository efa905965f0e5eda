package loyalty

import (
	"testing"
	"time"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalance(t *testing.T) {
	assert.Zero(t, Balance(nil))

	entries := []domain.PointsEntry{
		{PointsDelta: 300, Kind: domain.EntryEarn},
		{PointsDelta: -120, Kind: domain.EntryRedeem},
		{PointsDelta: 20, Kind: domain.EntryAdjustment},
	}
	assert.Equal(t, int64(200), Balance(entries))

	overdrawn := append(entries, domain.PointsEntry{PointsDelta: -1000, Kind: domain.EntryExpire})
	assert.Zero(t, Balance(overdrawn))
}

func TestRedeem(t *testing.T) {
	tests := []struct {
		name      string
		requested int64
		balance   int64
		payable   int64
		want      int64
		reason    domain.PointsReason
		cap       int64
	}{
		{name: "within limits", requested: 500, balance: 1000, payable: 20000, want: 500},
		{name: "exactly the payable amount", requested: 1000, balance: 5000, payable: 1000, want: 1000},
		{name: "zero", requested: 0, balance: 1000, payable: 800, reason: domain.PointsInvalidAmount, cap: 800},
		{name: "negative", requested: -5, balance: 1000, payable: 20000, reason: domain.PointsInvalidAmount, cap: 1000},
		{name: "over balance", requested: 1500, balance: 1000, payable: 20000, reason: domain.PointsInsufficientBalance, cap: 1000},
		{name: "over payable", requested: 900, balance: 1000, payable: 700, reason: domain.PointsExceedsRedeemCap, cap: 700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Redeem(tt.requested, tt.balance, tt.payable)
			if tt.reason == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}

			var perr *domain.PointsError
			require.ErrorAs(t, err, &perr)
			assert.ErrorIs(t, err, domain.ErrPoints)
			assert.Equal(t, tt.reason, perr.Reason)
			assert.Equal(t, tt.cap, perr.Cap)
			assert.Zero(t, got)
		})
	}
}

func TestClamp(t *testing.T) {
	got, adjusted := Clamp(500, 1000, 20000)
	assert.Equal(t, int64(500), got)
	assert.False(t, adjusted)

	got, adjusted = Clamp(500, 1000, 300)
	assert.Equal(t, int64(300), got)
	assert.True(t, adjusted)

	got, adjusted = Clamp(500, 200, 20000)
	assert.Equal(t, int64(200), got)
	assert.True(t, adjusted)

	got, adjusted = Clamp(500, 1000, -100)
	assert.Zero(t, got)
	assert.True(t, adjusted)
}

func TestEarn(t *testing.T) {
	assert.Equal(t, int64(175), Earn(35000, DefaultEarnRateBps))
	assert.Equal(t, int64(0), Earn(199, DefaultEarnRateBps))
	assert.Equal(t, int64(1), Earn(200, DefaultEarnRateBps))
	assert.Equal(t, int64(0), Earn(0, DefaultEarnRateBps))
	assert.Equal(t, int64(0), Earn(35000, 0))
	assert.Equal(t, int64(3500), Earn(35000, 1000))
}

func TestOrderEntries(t *testing.T) {
	assert.Nil(t, OrderEntries("", "250310-ABCDEF", 100, 50))

	entries := OrderEntries("u1", "250310-ABCDEF", 100, 50)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.EntryRedeem, entries[0].Kind)
	assert.Equal(t, int64(-100), entries[0].PointsDelta)
	assert.Equal(t, domain.EntryEarn, entries[1].Kind)
	assert.Equal(t, int64(50), entries[1].PointsDelta)

	assert.Len(t, OrderEntries("u1", "250310-ABCDEF", 0, 50), 1)
	assert.Empty(t, OrderEntries("u1", "250310-ABCDEF", 0, 0))
}

func TestRefundEntries(t *testing.T) {
	order := OrderEntries("u1", "o1", 400, 90)
	refunds := RefundEntries(order)

	require.Len(t, refunds, 2)
	assert.Equal(t, int64(400), refunds[0].PointsDelta)
	assert.Equal(t, int64(-90), refunds[1].PointsDelta)
	for _, r := range refunds {
		assert.Equal(t, domain.EntryRefund, r.Kind)
		assert.Equal(t, "u1", r.UserID)
		assert.Equal(t, "o1", r.OrderID)
	}

	// refunding twice gives nothing back the second time
	assert.Empty(t, RefundEntries(append(order, refunds...)))
	assert.Nil(t, RefundEntries(nil))

	// the ledger nets to zero for the order
	assert.Zero(t, Balance(append(order, refunds...)))
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	entries := []domain.PointsEntry{
		{OrderID: "o1", Kind: domain.EntryEarn, PointsDelta: 1500, CreatedAt: now.Add(-200 * 24 * time.Hour)},
		{OrderID: "o2", Kind: domain.EntryEarn, PointsDelta: 800, CreatedAt: now.Add(-85 * 24 * time.Hour)},
		{OrderID: "o2", Kind: domain.EntryRedeem, PointsDelta: -300, CreatedAt: now.Add(-85 * 24 * time.Hour)},
		{OrderID: "o3", Kind: domain.EntryEarn, PointsDelta: 100, CreatedAt: now.Add(-time.Hour)},
	}

	s := Summarize(entries, now)
	assert.Equal(t, int64(2400), s.Earned)
	assert.Equal(t, int64(300), s.Used)
	assert.Equal(t, int64(2100), s.Balance)
	assert.Equal(t, TierSilver, s.Tier)
	assert.Equal(t, int64(800), s.ExpiringSoon)

	byOrder := ByOrder(entries)
	assert.Equal(t, OrderPoints{Earned: 800, Used: 300}, byOrder["o2"])

	cancelled := append(entries, RefundEntries(entries[1:3])...)
	s = Summarize(cancelled, now)
	assert.Equal(t, int64(1600), s.Earned)
	assert.Equal(t, int64(0), s.Used)
	assert.Equal(t, int64(1600), s.Balance)
	assert.Equal(t, OrderPoints{}, ByOrder(cancelled)["o2"])
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierBronze, TierFor(0))
	assert.Equal(t, TierBronze, TierFor(SilverThreshold-1))
	assert.Equal(t, TierSilver, TierFor(SilverThreshold))
	assert.Equal(t, TierGold, TierFor(GoldThreshold))
}
