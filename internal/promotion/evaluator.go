// Package promotion decides whether a promotion applies to a cart and how much it takes off.
package promotion

import (
	"fmt"
	"time"

	"github.com/MoonSoon24/coffee-shop/internal/cart"
	"github.com/MoonSoon24/coffee-shop/internal/domain"
)

// Cart is the read side of a cart the evaluator needs.
type Cart interface {
	Lines() []cart.Line
	Subtotal() int64
	ItemCount() int
}

type Result struct {
	EligibleAmount int64 `json:"eligible_amount"`
	Discount       int64 `json:"discount"`
}

type Evaluator struct {
	now func() time.Time
}

// NewEvaluator uses time.Now when now is nil.
func NewEvaluator(now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{now: now}
}

// Evaluate runs the eligibility checks in a fixed order and returns the first
// failure as a *domain.PromotionError.
func (e *Evaluator) Evaluate(p domain.Promotion, c Cart) (Result, error) {
	if err := checkConfiguration(p); err != nil {
		return Result{}, err
	}

	now := e.now()
	switch {
	case !p.IsActive:
		return Result{}, fail(p, domain.PromotionInactive, "")
	case now.Before(p.StartsAt):
		return Result{}, fail(p, domain.PromotionNotStarted, "")
	case p.EndsAt != nil && now.After(*p.EndsAt):
		return Result{}, fail(p, domain.PromotionExpired, "")
	}

	subtotal := c.Subtotal()
	if p.MinOrderValue > 0 && subtotal < p.MinOrderValue {
		return Result{}, fail(p, domain.PromotionMinimumOrderNotMet,
			fmt.Sprintf("minimum order of Rp %d required", p.MinOrderValue))
	}

	lines := c.Lines()
	if p.MinQuantity > 0 {
		if qty := scopedQuantity(p.Scope, lines); qty < p.MinQuantity {
			return Result{}, fail(p, domain.PromotionMinimumQuantityNotMet, minQuantityMessage(p))
		}
	}

	eligible := EligibleAmount(p.Scope, lines)
	if eligible <= 0 {
		return Result{}, fail(p, domain.PromotionScopeNotEligible, scopeMessage(p.Scope))
	}

	return Result{EligibleAmount: eligible, Discount: Discount(p.Kind, p.Value, eligible)}, nil
}

// Discount floors percentages and caps fixed amounts at the eligible amount.
func Discount(kind domain.DiscountKind, value, eligible int64) int64 {
	if eligible <= 0 || value <= 0 {
		return 0
	}
	switch kind {
	case domain.DiscountPercentage:
		return eligible * value / 100
	case domain.DiscountFixedAmount:
		if value > eligible {
			return eligible
		}
		return value
	}
	return 0
}

// EligibleAmount sums the totals of lines inside the scope.
func EligibleAmount(scope domain.Scope, lines []cart.Line) int64 {
	var total int64
	for _, l := range lines {
		if scope.Matches(l.ProductID, l.Category) {
			total += l.Total()
		}
	}
	return total
}

func scopedQuantity(scope domain.Scope, lines []cart.Line) int {
	var qty int
	for _, l := range lines {
		if scope.Matches(l.ProductID, l.Category) {
			qty += l.Quantity
		}
	}
	return qty
}

func checkConfiguration(p domain.Promotion) error {
	switch s := p.Scope.(type) {
	case domain.OrderScope:
	case domain.CategoryScope:
		if s.Category == "" {
			return fail(p, domain.PromotionInvalidConfiguration, "invalid promotion category setup")
		}
	case domain.ProductScope:
		if s.ProductID <= 0 {
			return fail(p, domain.PromotionInvalidConfiguration, "invalid promotion product setup")
		}
	default:
		return fail(p, domain.PromotionInvalidConfiguration, "promotion has no scope")
	}

	switch p.Kind {
	case domain.DiscountPercentage:
		if p.Value < 0 || p.Value > 100 {
			return fail(p, domain.PromotionInvalidConfiguration, "percentage must be between 0 and 100")
		}
	case domain.DiscountFixedAmount:
		if p.Value < 0 {
			return fail(p, domain.PromotionInvalidConfiguration, "fixed discount cannot be negative")
		}
	default:
		return fail(p, domain.PromotionInvalidConfiguration, fmt.Sprintf("unknown discount type %q", p.Kind))
	}

	return nil
}

func minQuantityMessage(p domain.Promotion) string {
	switch s := p.Scope.(type) {
	case domain.CategoryScope:
		return fmt.Sprintf("add at least %d item(s) from %s", p.MinQuantity, s.Category)
	case domain.ProductScope:
		return fmt.Sprintf("add at least %d of the required product", p.MinQuantity)
	}
	return fmt.Sprintf("minimum purchase of %d items required", p.MinQuantity)
}

func scopeMessage(scope domain.Scope) string {
	switch s := scope.(type) {
	case domain.CategoryScope:
		return fmt.Sprintf("promotion applies to %s items only", s.Category)
	case domain.ProductScope:
		return "required product is not in cart"
	}
	return ""
}

func fail(p domain.Promotion, reason domain.PromotionReason, msg string) error {
	return domain.NewPromotionError(reason, p.Code, msg)
}
