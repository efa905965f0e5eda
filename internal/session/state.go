// Package session holds the per-customer shopping state: the cart plus the
// promotion and points applied to it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MoonSoon24/coffee-shop/internal/cart"
	"github.com/MoonSoon24/coffee-shop/internal/checkout"
	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/MoonSoon24/coffee-shop/internal/loyalty"
)

var ErrCheckoutInProgress = errors.New("checkout already in progress")

type ProductSource interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
}

type PromotionLookup interface {
	// Lookup returns a *domain.PromotionError with reason not_found for unknown codes.
	Lookup(ctx context.Context, code string) (*domain.Promotion, error)
}

type Finalizer interface {
	FinalizeOrder(ctx context.Context, req checkout.Request) (*checkout.Receipt, error)
}

type Deps struct {
	Products   ProductSource
	Promotions PromotionLookup
	Balances   checkout.BalanceSource
	Checkout   Finalizer
	Pricer     *checkout.Pricer
}

// Notice explains why an applied promotion or redemption changed on its own.
type Notice struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type View struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id,omitempty"`
	Lines           []cart.Line    `json:"lines"`
	Subtotal        int64          `json:"subtotal"`
	ItemCount       int            `json:"item_count"`
	Pricing         checkout.Quote `json:"pricing"`
	PointsBalance   int64          `json:"points_balance"`
	MaxRedeemable   int64          `json:"max_redeemable"`
	PromotionNotice *Notice        `json:"promotion_notice,omitempty"`
	PointsNotice    *Notice        `json:"points_notice,omitempty"`
}

type ReorderResult struct {
	Added   int  `json:"added"`
	Skipped int  `json:"skipped"`
	Cart    View `json:"cart"`
}

// State is safe for concurrent use. Every cart mutation reprices the promotion
// and points under the same lock, so readers never see a stale total.
type State struct {
	ID     string
	UserID string

	deps *Deps

	mu           sync.Mutex
	cart         *cart.Cart
	promo        *domain.Promotion
	points       int64
	balance      int64
	promoNotice  *Notice
	pointsNotice *Notice
	// epoch changes whenever the cart is cleared or the session closed.
	epoch       uint64
	checkingOut bool
	closed      bool

	lastSeen atomic.Int64
}

func New(id, userID string, deps *Deps) *State {
	s := &State{
		ID:     id,
		UserID: userID,
		deps:   deps,
		cart:   cart.New(),
	}
	s.touch()
	return s
}

func (s *State) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

func (s *State) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// View returns the cart and pricing read model.
func (s *State) View() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return View{}, err
	}
	return s.view(), nil
}

func (s *State) Pricing() (checkout.Quote, error) {
	v, err := s.View()
	return v.Pricing, err
}

func (s *State) AddLine(ctx context.Context, productID int64, quantity int, selections cart.Selections, note string) (View, error) {
	if quantity <= 0 {
		return View{}, domain.NewValidationError(domain.ValidationInvalidQuantity, "quantity", "quantity must be at least 1")
	}

	product, err := s.deps.Products.GetProduct(ctx, productID)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return View{}, err
	}
	if _, err := s.cart.Add(*product, quantity, selections, note); err != nil {
		return View{}, err
	}
	return s.view(), nil
}

func (s *State) Decrement(lineKey string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return View{}, err
	}
	s.cart.Decrement(lineKey)
	return s.view(), nil
}

// Clear empties the cart and drops the applied promotion and points.
func (s *State) Clear() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return View{}, err
	}
	s.reset()
	return s.view(), nil
}

// ApplyPromotion looks the code up and applies it if the current cart
// qualifies. A rejected code leaves the previously applied promotion in place.
func (s *State) ApplyPromotion(ctx context.Context, code string) (View, error) {
	code = domain.NormalizeCode(code)
	if code == "" {
		return View{}, domain.NewValidationError(domain.ValidationInvalidInput, "code", "please enter a promotion code")
	}

	epoch, err := s.startLookup()
	if err != nil {
		return View{}, err
	}

	promo, err := s.deps.Promotions.Lookup(ctx, code)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stillRelevant(epoch); err != nil {
		return View{}, err
	}

	q, adj := s.deps.Pricer.Quote(s.cart, checkout.PricingInput{Promotion: promo, Points: s.points, Balance: s.balance})
	if adj.PromotionErr != nil {
		return View{}, adj.PromotionErr
	}

	s.promo = promo
	s.promoNotice = nil
	if adj.PointsClamped {
		s.clampPoints(adj.PointsBefore, q.PointsUsed)
	}
	return s.view(), nil
}

func (s *State) RemovePromotion() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return View{}, err
	}
	s.promo = nil
	s.promoNotice = nil
	return s.view(), nil
}

// RedeemPoints refreshes the balance and applies exactly the requested amount
// or fails with a *domain.PointsError reporting the cap.
func (s *State) RedeemPoints(ctx context.Context, requested int64) (View, error) {
	return s.redeem(ctx, func(balance, payable int64) (int64, error) {
		return loyalty.Redeem(requested, balance, payable)
	})
}

// RedeemMax applies as many points as the balance and payable amount allow.
func (s *State) RedeemMax(ctx context.Context) (View, error) {
	return s.redeem(ctx, func(balance, payable int64) (int64, error) {
		n := loyalty.MaxRedeemable(balance, payable)
		switch {
		case n > 0:
			return n, nil
		case balance <= 0:
			return 0, &domain.PointsError{Reason: domain.PointsInsufficientBalance}
		default:
			return 0, &domain.PointsError{Reason: domain.PointsExceedsRedeemCap}
		}
	})
}

func (s *State) RemovePoints() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return View{}, err
	}
	s.points = 0
	s.pointsNotice = nil
	return s.view(), nil
}

// RefreshBalance reloads the points balance for signed in users.
func (s *State) RefreshBalance(ctx context.Context) (View, error) {
	if s.UserID == "" {
		return s.View()
	}

	epoch, err := s.startLookup()
	if err != nil {
		return View{}, err
	}
	balance, err := s.deps.Balances.Balance(ctx, s.UserID)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stillRelevant(epoch); err != nil {
		return View{}, err
	}
	s.balance = balance
	return s.view(), nil
}

func (s *State) redeem(ctx context.Context, pick func(balance, payable int64) (int64, error)) (View, error) {
	if s.UserID == "" {
		return View{}, domain.NewValidationError(domain.ValidationInvalidInput, "points", "sign in to redeem points")
	}

	epoch, err := s.startLookup()
	if err != nil {
		return View{}, err
	}
	balance, err := s.deps.Balances.Balance(ctx, s.UserID)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stillRelevant(epoch); err != nil {
		return View{}, err
	}
	s.balance = balance

	q := s.quote()
	payable := q.Subtotal - q.PromoDiscount
	points, err := pick(balance, payable)
	if err != nil {
		return View{}, err
	}

	s.points = points
	s.pointsNotice = nil
	return s.view(), nil
}

// Checkout submits a snapshot of the cart without holding the lock. The cart
// is cleared only when the session still holds the cart that was submitted.
func (s *State) Checkout(ctx context.Context, customer domain.Customer, fulfillment domain.Fulfillment) (*checkout.Receipt, error) {
	s.mu.Lock()
	if err := s.mutable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	customer.UserID = s.UserID
	req := checkout.Request{
		Cart:        s.cart.Clone(),
		Customer:    customer,
		Fulfillment: fulfillment,
		Promotion:   s.promo,
		PointsToUse: s.points,
	}
	epoch := s.epoch
	s.checkingOut = true
	s.mu.Unlock()

	receipt, err := s.deps.Checkout.FinalizeOrder(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkingOut = false

	if err != nil {
		return nil, err
	}

	if s.epoch == epoch && !s.closed {
		s.reset()
		s.balance = max(0, s.balance-receipt.Quote.PointsUsed+receipt.Quote.PointsEarnedEstimate)
	}
	return receipt, nil
}

// Reorder adds the lines of a past order back into the cart at today's
// prices. Lines whose product is gone, unavailable or no longer accepts the
// stored selections are skipped.
func (s *State) Reorder(ctx context.Context, lines []domain.OrderLine) (ReorderResult, error) {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}

	products, err := s.deps.Products.GetProducts(ctx, ids)
	if err != nil {
		return ReorderResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return ReorderResult{}, err
	}

	var res ReorderResult
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok || !p.IsAvailable || l.Quantity <= 0 {
			res.Skipped++
			continue
		}
		if _, err := s.cart.Add(p, l.Quantity, cart.Selections(l.Modifiers), l.Note); err != nil {
			res.Skipped++
			continue
		}
		res.Added++
	}

	res.Cart = s.view()
	return res, nil
}

// Close tears the session down; in-flight lookups and checkouts will not
// touch it afterwards.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.epoch++
}

func (s *State) startLookup() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return 0, err
	}
	return s.epoch, nil
}

func (s *State) stillRelevant(epoch uint64) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if s.epoch != epoch {
		return domain.ErrStaleRequest
	}
	return nil
}

func (s *State) usable() error {
	if s.closed {
		return fmt.Errorf("session %s: %w", s.ID, domain.ErrNotFound)
	}
	s.touch()
	return nil
}

func (s *State) mutable() error {
	if err := s.usable(); err != nil {
		return err
	}
	if s.checkingOut {
		return ErrCheckoutInProgress
	}
	return nil
}

func (s *State) reset() {
	s.cart.Clear()
	s.promo = nil
	s.points = 0
	s.promoNotice = nil
	s.pointsNotice = nil
	s.epoch++
}

// quote reprices the cart and settles the applied promotion and points
// against it. Callers hold mu.
func (s *State) quote() checkout.Quote {
	q, adj := s.deps.Pricer.Quote(s.cart, checkout.PricingInput{Promotion: s.promo, Points: s.points, Balance: s.balance})

	if adj.PromotionErr != nil {
		s.promoNotice = promotionNotice(s.promo, adj.PromotionErr)
		s.promo = nil
		q, adj = s.deps.Pricer.Quote(s.cart, checkout.PricingInput{Points: s.points, Balance: s.balance})
	}
	if adj.PointsClamped {
		s.clampPoints(adj.PointsBefore, q.PointsUsed)
	}
	return q
}

func (s *State) clampPoints(before, after int64) {
	s.points = after
	s.pointsNotice = &Notice{
		Reason:  "points_adjusted",
		Message: fmt.Sprintf("points lowered from %d to %d to match the new total", before, after),
	}
}

func (s *State) view() View {
	q := s.quote()
	return View{
		ID:              s.ID,
		UserID:          s.UserID,
		Lines:           s.cart.Lines(),
		Subtotal:        q.Subtotal,
		ItemCount:       q.ItemCount,
		Pricing:         q,
		PointsBalance:   s.balance,
		MaxRedeemable:   loyalty.MaxRedeemable(s.balance, q.Subtotal-q.PromoDiscount),
		PromotionNotice: s.promoNotice,
		PointsNotice:    s.pointsNotice,
	}
}

func promotionNotice(p *domain.Promotion, err error) *Notice {
	n := &Notice{Reason: "promotion_removed", Message: err.Error()}

	var perr *domain.PromotionError
	if errors.As(err, &perr) {
		n.Reason = string(perr.Reason)
	}
	if p != nil {
		n.Message = strings.TrimSpace(p.Code + ": " + n.Message)
	}
	return n
}
