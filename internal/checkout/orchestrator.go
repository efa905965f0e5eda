// Package checkout turns a priced cart into a persisted order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MoonSoon24/coffee-shop/internal/cart"
	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/MoonSoon24/coffee-shop/internal/loyalty"
	"github.com/MoonSoon24/coffee-shop/internal/repo"
	"go.uber.org/zap"
)

type BalanceSource interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Invalidate(ctx context.Context, userID string)
}

type Notifier interface {
	Notify(ctx context.Context, event domain.OrderPlacedEvent) error
}

type Request struct {
	Cart        *cart.Cart
	Customer    domain.Customer
	Fulfillment domain.Fulfillment
	Promotion   *domain.Promotion
	PointsToUse int64
}

type Receipt struct {
	OrderID        string                  `json:"order_id"`
	FinalTotal     int64                   `json:"final_total"`
	Quote          Quote                   `json:"pricing"`
	PointsAdjusted bool                    `json:"points_adjusted"`
	Notification   domain.OrderPlacedEvent `json:"notification"`
}

type Orchestrator struct {
	orders   repo.OrderRepository
	points   repo.PointsRepository
	tx       repo.Transactor
	balances BalanceSource
	notifier Notifier
	pricer   *Pricer
	newID    IDGenerator
	now      func() time.Time
	logger   *zap.SugaredLogger
}

type Option func(*Orchestrator)

func WithIDGenerator(gen IDGenerator) Option {
	return func(o *Orchestrator) { o.newID = gen }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func NewOrchestrator(
	orders repo.OrderRepository,
	points repo.PointsRepository,
	tx repo.Transactor,
	balances BalanceSource,
	notifier Notifier,
	pricer *Pricer,
	logger *zap.SugaredLogger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		orders:   orders,
		points:   points,
		tx:       tx,
		balances: balances,
		notifier: notifier,
		pricer:   pricer,
		newID:    NewOrderID,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FinalizeOrder validates the request, reprices the live cart, and persists the
// order header, its lines and ledger entries as one unit. It never mutates the
// cart; the session clears it once this returns successfully.
func (o *Orchestrator) FinalizeOrder(ctx context.Context, req Request) (*Receipt, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	userID := req.Customer.UserID
	var balance int64
	if req.PointsToUse < 0 {
		return nil, &domain.PointsError{Reason: domain.PointsInvalidAmount}
	}
	if req.PointsToUse > 0 {
		if userID == "" {
			return nil, &domain.PointsError{Reason: domain.PointsInvalidAmount}
		}
		b, err := o.balances.Balance(ctx, userID)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "fetch points balance", Err: err}
		}
		if req.PointsToUse > b {
			return nil, &domain.PointsError{Reason: domain.PointsInsufficientBalance, Cap: b}
		}
		balance = b
	}

	quote, adj := o.pricer.Quote(req.Cart, PricingInput{
		Promotion: req.Promotion,
		Points:    req.PointsToUse,
		Balance:   balance,
	})
	if adj.PromotionErr != nil {
		return nil, adj.PromotionErr
	}
	if adj.PointsClamped {
		o.logger.Infow("points clamped at checkout", "requested", adj.PointsBefore, "used", quote.PointsUsed)
	}

	if userID == "" {
		quote.PointsEarnedEstimate = 0
	}

	cartLines := req.Cart.Lines()
	now := o.now()

	var order *domain.Order
	for attempt := 1; ; attempt++ {
		order = buildOrder(o.newID(now), req, quote, now)
		lines := buildLines(order.ID, cartLines)
		entries := loyalty.OrderEntries(userID, order.ID, quote.PointsUsed, quote.PointsEarnedEstimate)
		for i := range entries {
			entries[i].CreatedAt = now
		}

		err := o.persist(ctx, order, lines, entries)
		if err == nil {
			break
		}

		var conflict *domain.ConflictError
		if errors.As(err, &conflict) && attempt == 1 {
			o.logger.Warnw("order id collision, retrying with a new id", "order_id", order.ID)
			continue
		}
		return nil, err
	}

	o.logger.Infow("order placed",
		"order_id", order.ID,
		"subtotal", quote.Subtotal,
		"promo_code", quote.PromoCode,
		"promo_discount", quote.PromoDiscount,
		"points_used", quote.PointsUsed,
		"final_total", quote.FinalTotal,
	)

	if userID != "" && (quote.PointsUsed > 0 || quote.PointsEarnedEstimate > 0) {
		o.balances.Invalidate(ctx, userID)
	}

	event := placedEvent(order, cartLines)
	if err := o.notifier.Notify(ctx, event); err != nil {
		o.logger.Warnw("failed to queue order notification", "order_id", order.ID, "error", err)
	}

	return &Receipt{
		OrderID:        order.ID,
		FinalTotal:     quote.FinalTotal,
		Quote:          quote,
		PointsAdjusted: adj.PointsClamped,
		Notification:   event,
	}, nil
}

func (o *Orchestrator) persist(ctx context.Context, order *domain.Order, lines []domain.OrderLine, entries []domain.PointsEntry) error {
	headerWritten := false

	err := o.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := o.checkLedger(ctx, order.UserID, entries); err != nil {
			return err
		}

		if err := o.orders.Create(ctx, order); err != nil {
			return err
		}
		headerWritten = true

		if err := o.orders.CreateLines(ctx, lines); err != nil {
			return fmt.Errorf("failed to insert order lines: %w", err)
		}
		if len(entries) > 0 {
			if err := o.points.Append(ctx, entries...); err != nil {
				return fmt.Errorf("failed to append points entries: %w", err)
			}
		}
		return nil
	})
	if err == nil {
		return nil
	}

	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return conflict
	}
	var pointsErr *domain.PointsError
	if errors.As(err, &pointsErr) {
		o.balances.Invalidate(ctx, order.UserID)
		return pointsErr
	}

	perr := &domain.PersistenceError{Op: "create order", OrderID: order.ID, Err: err}
	if headerWritten && !o.tx.Atomic() {
		perr.Partial = true
		note := fmt.Sprintf("order saved without all lines or ledger entries: %v", err)
		if ferr := o.orders.FlagReconciliation(context.WithoutCancel(ctx), order.ID, note); ferr != nil {
			o.logger.Errorw("failed to flag order for reconciliation", "order_id", order.ID, "error", ferr)
		}
		o.logger.Errorw("order partially persisted", "order_id", order.ID, "error", err)
	}

	return perr
}

// checkLedger re-reads the ledger inside the unit of work; the balance checked
// before pricing may be a cached value.
func (o *Orchestrator) checkLedger(ctx context.Context, userID string, entries []domain.PointsEntry) error {
	var redeem int64
	for _, e := range entries {
		if e.Kind == domain.EntryRedeem {
			redeem -= e.PointsDelta
		}
	}
	if redeem <= 0 {
		return nil
	}

	ledger, err := o.points.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to read points ledger: %w", err)
	}
	if balance := loyalty.Balance(ledger); redeem > balance {
		o.logger.Warnw("points balance changed during checkout", "user_id", userID, "requested", redeem, "balance", balance)
		return &domain.PointsError{Reason: domain.PointsInsufficientBalance, Cap: balance}
	}
	return nil
}

func validateRequest(req Request) error {
	if req.Cart == nil || req.Cart.IsEmpty() {
		return domain.NewValidationError(domain.ValidationEmptyCart, "cart", "cart is empty")
	}
	if strings.TrimSpace(req.Customer.Name) == "" {
		return domain.NewValidationError(domain.ValidationMissingCustomerInfo, "customer.name", "please enter your name")
	}

	switch req.Fulfillment.Type {
	case domain.FulfillmentTakeaway:
	case domain.FulfillmentDelivery:
		if strings.TrimSpace(req.Customer.Phone) == "" {
			return domain.NewValidationError(domain.ValidationMissingCustomerInfo, "customer.phone", "please enter your phone number")
		}
		if strings.TrimSpace(req.Fulfillment.Address) == "" && strings.TrimSpace(req.Fulfillment.MapsLink) == "" {
			return domain.NewValidationError(domain.ValidationMissingDeliveryLocation, "fulfillment.address", "please add an address or pin your location for delivery")
		}
	default:
		return domain.NewValidationError(domain.ValidationInvalidInput, "fulfillment.type", fmt.Sprintf("unknown fulfillment type %q", req.Fulfillment.Type))
	}

	return nil
}

func buildOrder(id string, req Request, q Quote, now time.Time) *domain.Order {
	order := &domain.Order{
		ID:            id,
		UserID:        req.Customer.UserID,
		CustomerName:  strings.TrimSpace(req.Customer.Name),
		CustomerPhone: strings.TrimSpace(req.Customer.Phone),
		Type:          req.Fulfillment.Type,
		Notes:         strings.TrimSpace(req.Fulfillment.Notes),
		Subtotal:      q.Subtotal,
		PromoDiscount: q.PromoDiscount,
		PointsUsed:    q.PointsUsed,
		DiscountTotal: q.PromoDiscount + q.PointsUsed,
		FinalTotal:    q.FinalTotal,
		PointsEarned:  q.PointsEarnedEstimate,
		PromoCode:     q.PromoCode,
		Status:        domain.OrderPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Fulfillment.Type == domain.FulfillmentDelivery {
		order.Address = strings.TrimSpace(req.Fulfillment.Address)
		order.MapsLink = strings.TrimSpace(req.Fulfillment.MapsLink)
	}
	return order
}

func buildLines(orderID string, lines []cart.Line) []domain.OrderLine {
	out := make([]domain.OrderLine, 0, len(lines))
	for _, l := range lines {
		var mods map[string][]string
		if len(l.Selections) > 0 {
			mods = l.Selections
		}
		out = append(out, domain.OrderLine{
			OrderID:     orderID,
			ProductID:   l.ProductID,
			ProductName: l.Name,
			BasePrice:   l.BasePrice,
			UnitPrice:   l.UnitPrice(),
			Quantity:    l.Quantity,
			Modifiers:   mods,
			Note:        l.Note,
		})
	}
	return out
}

func placedEvent(order *domain.Order, lines []cart.Line) domain.OrderPlacedEvent {
	event := domain.OrderPlacedEvent{
		EventType:     domain.EventOrderPlaced,
		OrderID:       order.ID,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		FinalTotal:    order.FinalTotal,
		PlacedAt:      order.CreatedAt,
	}
	for _, l := range lines {
		event.Lines = append(event.Lines, domain.OrderPlacedLine{
			Name:      l.Name,
			Quantity:  l.Quantity,
			LineTotal: l.Total(),
		})
	}
	return event
}
