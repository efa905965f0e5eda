package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MoonSoon24/coffee-shop/internal/cart"
	"github.com/MoonSoon24/coffee-shop/internal/checkout"
	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/MoonSoon24/coffee-shop/internal/promotion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

type fakeProducts struct {
	products map[int64]domain.Product
}

func (f *fakeProducts) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (f *fakeProducts) GetProducts(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	out := make(map[int64]domain.Product)
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// fakePromotions blocks on gate when it is set, so tests can act while a
// lookup is in flight.
type fakePromotions struct {
	promos  map[string]domain.Promotion
	started chan struct{}
	gate    chan struct{}
}

func (f *fakePromotions) Lookup(_ context.Context, code string) (*domain.Promotion, error) {
	if f.gate != nil {
		f.started <- struct{}{}
		<-f.gate
	}
	p, ok := f.promos[code]
	if !ok {
		return nil, domain.NewPromotionError(domain.PromotionNotFound, code, "")
	}
	return &p, nil
}

type fakeBalances struct {
	mu       sync.Mutex
	balances map[string]int64
	err      error
}

func (f *fakeBalances) Balance(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.balances[userID], nil
}

func (f *fakeBalances) Invalidate(context.Context, string) {}

type fakeFinalizer struct {
	pricer  *checkout.Pricer
	started chan struct{}
	gate    chan struct{}
	err     error
	mu      sync.Mutex
	reqs    []checkout.Request
}

func (f *fakeFinalizer) FinalizeOrder(_ context.Context, req checkout.Request) (*checkout.Receipt, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()

	if f.gate != nil {
		f.started <- struct{}{}
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}

	q, _ := f.pricer.Quote(req.Cart, checkout.PricingInput{Promotion: req.Promotion, Points: req.PointsToUse, Balance: req.PointsToUse})
	if req.Customer.UserID == "" {
		q.PointsEarnedEstimate = 0
	}
	return &checkout.Receipt{OrderID: "250310-ABC123", FinalTotal: q.FinalTotal, Quote: q}, nil
}

type fixture struct {
	products   *fakeProducts
	promotions *fakePromotions
	balances   *fakeBalances
	finalizer  *fakeFinalizer
	deps       *Deps
}

func newFixture() *fixture {
	pricer := checkout.NewPricer(promotion.NewEvaluator(func() time.Time { return testNow }), 50)

	f := &fixture{
		products: &fakeProducts{products: map[int64]domain.Product{
			1: {ID: 1, Name: "Kopi Susu", Category: "Coffee", Price: 25000, IsAvailable: true},
			2: {ID: 2, Name: "Croissant", Category: "Pastry", Price: 18000, IsAvailable: true},
			3: {ID: 3, Name: "Seasonal Latte", Category: "Coffee", Price: 30000, IsAvailable: false},
			4: {ID: 4, Name: "Iced Tea", Category: "Tea", Price: 15000, IsAvailable: true, Modifiers: []domain.ModifierGroup{{
				ID:            "sugar",
				Name:          "Sugar",
				IsRequired:    true,
				SelectionType: domain.SelectionSingle,
				Options:       []domain.ModifierOption{{ID: "less", Name: "Less"}, {ID: "normal", Name: "Normal"}},
			}}},
		}},
		promotions: &fakePromotions{promos: map[string]domain.Promotion{
			"NGOPI": {Code: "NGOPI", Kind: domain.DiscountPercentage, Value: 10, Scope: domain.OrderScope{},
				StartsAt: testNow.Add(-time.Hour), IsActive: true},
			"BIGSPEND": {Code: "BIGSPEND", Kind: domain.DiscountFixedAmount, Value: 10000, Scope: domain.OrderScope{},
				MinOrderValue: 40000, StartsAt: testNow.Add(-time.Hour), IsActive: true},
			"TEATIME": {Code: "TEATIME", Kind: domain.DiscountPercentage, Value: 50, Scope: domain.CategoryScope{Category: "Tea"},
				StartsAt: testNow.Add(-time.Hour), IsActive: true},
		}},
		balances:  &fakeBalances{balances: map[string]int64{"u1": 30000}},
		finalizer: &fakeFinalizer{pricer: pricer},
	}
	f.deps = &Deps{
		Products:   f.products,
		Promotions: f.promotions,
		Balances:   f.balances,
		Checkout:   f.finalizer,
		Pricer:     pricer,
	}
	return f
}

func (f *fixture) session(userID string) *State {
	return New("s1", userID, f.deps)
}

func addLine(t *testing.T, s *State, productID int64, qty int) View {
	t.Helper()

	v, err := s.AddLine(context.Background(), productID, qty, nil, "")
	require.NoError(t, err)
	return v
}

func TestState_AddLinePricesCart(t *testing.T) {
	s := newFixture().session("")

	addLine(t, s, 1, 2)
	v := addLine(t, s, 2, 1)

	assert.Equal(t, int64(68000), v.Subtotal)
	assert.Equal(t, 3, v.ItemCount)
	assert.Equal(t, int64(68000), v.Pricing.FinalTotal)
	assert.Len(t, v.Lines, 2)

	_, err := s.AddLine(context.Background(), 99, 1, nil, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.AddLine(context.Background(), 3, 1, nil, "")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.ValidationProductUnavailable, verr.Code)

	_, err = s.AddLine(context.Background(), 1, 0, nil, "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.ValidationInvalidQuantity, verr.Code)

	v, err = s.AddLine(context.Background(), 4, 1, cart.Selections{"sugar": {"less"}}, "no ice")
	require.NoError(t, err)
	assert.Len(t, v.Lines, 3)
}

func TestState_ApplyPromotion(t *testing.T) {
	s := newFixture().session("")
	addLine(t, s, 1, 2)

	v, err := s.ApplyPromotion(context.Background(), " ngopi ")
	require.NoError(t, err)
	assert.Equal(t, "NGOPI", v.Pricing.PromoCode)
	assert.Equal(t, int64(5000), v.Pricing.PromoDiscount)
	assert.Equal(t, int64(45000), v.Pricing.FinalTotal)

	t.Run("rejected code keeps the applied one", func(t *testing.T) {
		_, err := s.ApplyPromotion(context.Background(), "TEATIME")

		var perr *domain.PromotionError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, domain.PromotionScopeNotEligible, perr.Reason)

		v, err := s.View()
		require.NoError(t, err)
		assert.Equal(t, "NGOPI", v.Pricing.PromoCode)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := s.ApplyPromotion(context.Background(), "NOPE")

		var perr *domain.PromotionError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, domain.PromotionNotFound, perr.Reason)
	})

	t.Run("blank code", func(t *testing.T) {
		_, err := s.ApplyPromotion(context.Background(), "   ")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	v, err = s.RemovePromotion()
	require.NoError(t, err)
	assert.Empty(t, v.Pricing.PromoCode)
	assert.Equal(t, int64(50000), v.Pricing.FinalTotal)
}

func TestState_PromotionDetachedWhenCartNoLongerQualifies(t *testing.T) {
	s := newFixture().session("")
	v := addLine(t, s, 1, 2)

	_, err := s.ApplyPromotion(context.Background(), "BIGSPEND")
	require.NoError(t, err)

	v, err = s.Decrement(v.Lines[0].Key)
	require.NoError(t, err)

	assert.Equal(t, int64(25000), v.Subtotal)
	assert.Empty(t, v.Pricing.PromoCode)
	assert.Zero(t, v.Pricing.PromoDiscount)
	require.NotNil(t, v.PromotionNotice)
	assert.Equal(t, string(domain.PromotionMinimumOrderNotMet), v.PromotionNotice.Reason)
	assert.Contains(t, v.PromotionNotice.Message, "BIGSPEND")

	// growing the cart again does not bring the promotion back
	v = addLine(t, s, 1, 1)
	assert.Empty(t, v.Pricing.PromoCode)
}

func TestState_RedeemPoints(t *testing.T) {
	f := newFixture()

	t.Run("guests cannot redeem", func(t *testing.T) {
		s := f.session("")
		addLine(t, s, 1, 1)

		_, err := s.RedeemPoints(context.Background(), 100)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("exact amount", func(t *testing.T) {
		s := f.session("u1")
		addLine(t, s, 1, 2)

		v, err := s.RedeemPoints(context.Background(), 12000)
		require.NoError(t, err)
		assert.Equal(t, int64(12000), v.Pricing.PointsUsed)
		assert.Equal(t, int64(38000), v.Pricing.FinalTotal)
		assert.Equal(t, int64(30000), v.PointsBalance)
		assert.Equal(t, int64(30000), v.MaxRedeemable)
	})

	t.Run("over the balance", func(t *testing.T) {
		s := f.session("u1")
		addLine(t, s, 1, 2)

		_, err := s.RedeemPoints(context.Background(), 40000)

		var perr *domain.PointsError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, domain.PointsInsufficientBalance, perr.Reason)
		assert.Equal(t, int64(30000), perr.Cap)
	})

	t.Run("over the payable amount", func(t *testing.T) {
		s := f.session("u1")
		addLine(t, s, 2, 1)

		_, err := s.RedeemPoints(context.Background(), 20000)

		var perr *domain.PointsError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, domain.PointsExceedsRedeemCap, perr.Reason)
		assert.Equal(t, int64(18000), perr.Cap)
	})

	t.Run("use max", func(t *testing.T) {
		s := f.session("u1")
		addLine(t, s, 2, 1)

		v, err := s.RedeemMax(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(18000), v.Pricing.PointsUsed)
		assert.Zero(t, v.Pricing.FinalTotal)

		v, err = s.RemovePoints()
		require.NoError(t, err)
		assert.Zero(t, v.Pricing.PointsUsed)
	})

	t.Run("use max on an empty cart", func(t *testing.T) {
		s := f.session("u1")

		_, err := s.RedeemMax(context.Background())

		var perr *domain.PointsError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, domain.PointsExceedsRedeemCap, perr.Reason)
	})

	t.Run("balance lookup failure", func(t *testing.T) {
		failing := newFixture()
		failing.balances.err = errors.New("ledger unavailable")
		s := failing.session("u1")
		addLine(t, s, 1, 1)

		_, err := s.RedeemPoints(context.Background(), 100)
		assert.Error(t, err)
	})
}

func TestState_PointsClampedWhenCartShrinks(t *testing.T) {
	s := newFixture().session("u1")
	v := addLine(t, s, 1, 2)

	_, err := s.RedeemPoints(context.Background(), 30000)
	require.NoError(t, err)

	v, err = s.Decrement(v.Lines[0].Key)
	require.NoError(t, err)

	assert.Equal(t, int64(25000), v.Pricing.PointsUsed)
	assert.Zero(t, v.Pricing.FinalTotal)
	require.NotNil(t, v.PointsNotice)
	assert.Equal(t, "points_adjusted", v.PointsNotice.Reason)
}

func TestState_PromotionAppliedBeforePoints(t *testing.T) {
	s := newFixture().session("u1")
	addLine(t, s, 1, 2)

	_, err := s.RedeemMax(context.Background())
	require.NoError(t, err)

	v, err := s.ApplyPromotion(context.Background(), "NGOPI")
	require.NoError(t, err)

	assert.Equal(t, int64(5000), v.Pricing.PromoDiscount)
	assert.Equal(t, int64(30000), v.Pricing.PointsUsed)
	assert.Equal(t, int64(15000), v.Pricing.FinalTotal)
}

func TestState_LookupOutlivedByClearIsStale(t *testing.T) {
	f := newFixture()
	f.promotions.started = make(chan struct{})
	f.promotions.gate = make(chan struct{})
	s := f.session("")
	addLine(t, s, 1, 2)

	errc := make(chan error, 1)
	go func() {
		_, err := s.ApplyPromotion(context.Background(), "NGOPI")
		errc <- err
	}()

	<-f.promotions.started
	_, err := s.Clear()
	require.NoError(t, err)
	close(f.promotions.gate)

	assert.ErrorIs(t, <-errc, domain.ErrStaleRequest)

	v, err := s.View()
	require.NoError(t, err)
	assert.Empty(t, v.Pricing.PromoCode)
	assert.Empty(t, v.Lines)
}

func TestState_Checkout(t *testing.T) {
	f := newFixture()
	s := f.session("u1")
	addLine(t, s, 1, 2)

	_, err := s.ApplyPromotion(context.Background(), "NGOPI")
	require.NoError(t, err)
	_, err = s.RedeemPoints(context.Background(), 5000)
	require.NoError(t, err)

	receipt, err := s.Checkout(context.Background(),
		domain.Customer{UserID: "someone-else", Name: "Rani"},
		domain.Fulfillment{Type: domain.FulfillmentTakeaway})
	require.NoError(t, err)

	require.Len(t, f.finalizer.reqs, 1)
	req := f.finalizer.reqs[0]
	assert.Equal(t, "u1", req.Customer.UserID)
	assert.Equal(t, int64(5000), req.PointsToUse)
	assert.Equal(t, "NGOPI", req.Promotion.Code)
	assert.Equal(t, int64(40000), receipt.FinalTotal)

	v, err := s.View()
	require.NoError(t, err)
	assert.Empty(t, v.Lines)
	assert.Empty(t, v.Pricing.PromoCode)
	assert.Zero(t, v.Pricing.PointsUsed)
	assert.Equal(t, int64(30000-5000+200), v.PointsBalance)
}

func TestState_FailedCheckoutKeepsCart(t *testing.T) {
	f := newFixture()
	f.finalizer.err = &domain.PersistenceError{Op: "create order", Err: errors.New("boom")}
	s := f.session("")
	addLine(t, s, 1, 1)

	_, err := s.Checkout(context.Background(), domain.Customer{Name: "Rani"}, domain.Fulfillment{Type: domain.FulfillmentTakeaway})
	assert.ErrorIs(t, err, domain.ErrPersistence)

	v, err := s.View()
	require.NoError(t, err)
	assert.Len(t, v.Lines, 1)

	// the session accepts edits again
	addLine(t, s, 2, 1)
}

func TestState_MutationsBlockedDuringCheckout(t *testing.T) {
	f := newFixture()
	f.finalizer.started = make(chan struct{})
	f.finalizer.gate = make(chan struct{})
	s := f.session("")
	v := addLine(t, s, 1, 1)

	done := make(chan error, 1)
	go func() {
		_, err := s.Checkout(context.Background(), domain.Customer{Name: "Rani"}, domain.Fulfillment{Type: domain.FulfillmentTakeaway})
		done <- err
	}()

	<-f.finalizer.started

	_, err := s.AddLine(context.Background(), 2, 1, nil, "")
	assert.ErrorIs(t, err, ErrCheckoutInProgress)
	_, err = s.Decrement(v.Lines[0].Key)
	assert.ErrorIs(t, err, ErrCheckoutInProgress)
	_, err = s.Checkout(context.Background(), domain.Customer{Name: "Rani"}, domain.Fulfillment{Type: domain.FulfillmentTakeaway})
	assert.ErrorIs(t, err, ErrCheckoutInProgress)

	// reads still work
	_, err = s.View()
	assert.NoError(t, err)

	close(f.finalizer.gate)
	require.NoError(t, <-done)

	v, err = s.View()
	require.NoError(t, err)
	assert.Empty(t, v.Lines)
}

func TestState_CloseDuringCheckoutLeavesSessionClosed(t *testing.T) {
	f := newFixture()
	f.finalizer.started = make(chan struct{})
	f.finalizer.gate = make(chan struct{})
	s := f.session("")
	addLine(t, s, 1, 1)

	done := make(chan error, 1)
	go func() {
		_, err := s.Checkout(context.Background(), domain.Customer{Name: "Rani"}, domain.Fulfillment{Type: domain.FulfillmentTakeaway})
		done <- err
	}()

	<-f.finalizer.started
	s.Close()
	close(f.finalizer.gate)

	// the order was placed even though nobody is left to see the cart clear
	require.NoError(t, <-done)

	_, err := s.View()
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestState_Reorder(t *testing.T) {
	s := newFixture().session("u1")

	res, err := s.Reorder(context.Background(), []domain.OrderLine{
		{ProductID: 1, Quantity: 2, Note: "extra hot"},
		{ProductID: 3, Quantity: 1},
		{ProductID: 42, Quantity: 1},
		{ProductID: 4, Quantity: 1, Modifiers: map[string][]string{"sugar": {"normal"}}},
		{ProductID: 4, Quantity: 1, Modifiers: map[string][]string{"sugar": {"extra"}}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 3, res.Skipped)
	assert.Equal(t, int64(2*25000+15000), res.Cart.Subtotal)
	assert.Equal(t, "extra hot", res.Cart.Lines[0].Note)
}

func TestState_ClosedSessionIsGone(t *testing.T) {
	s := newFixture().session("")
	s.Close()

	_, err := s.View()
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.AddLine(context.Background(), 1, 1, nil, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
