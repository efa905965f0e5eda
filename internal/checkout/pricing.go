package checkout

import (
	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/MoonSoon24/coffee-shop/internal/loyalty"
	"github.com/MoonSoon24/coffee-shop/internal/promotion"
)

// Quote is the pricing read model shown next to the cart.
type Quote struct {
	Subtotal             int64  `json:"subtotal"`
	ItemCount            int    `json:"item_count"`
	PromoCode            string `json:"promo_code,omitempty"`
	PromoDiscount        int64  `json:"promo_discount"`
	PointsUsed           int64  `json:"points_used"`
	FinalTotal           int64  `json:"final_total"`
	PointsEarnedEstimate int64  `json:"points_earned_estimate"`
}

type PricingInput struct {
	Promotion *domain.Promotion
	// Points is the redemption currently applied; it is clamped, never rejected.
	Points  int64
	Balance int64
}

// Adjustments reports what pricing had to drop or lower to keep the quote valid.
type Adjustments struct {
	PromotionErr  error
	PointsClamped bool
	PointsBefore  int64
}

type Pricer struct {
	evaluator   *promotion.Evaluator
	earnRateBps int
}

func NewPricer(evaluator *promotion.Evaluator, earnRateBps int) *Pricer {
	return &Pricer{evaluator: evaluator, earnRateBps: earnRateBps}
}

func (p *Pricer) EarnRateBps() int {
	return p.earnRateBps
}

// Quote prices the cart from scratch. A promotion that no longer applies is
// left out of the quote and its failure reported in Adjustments.
func (p *Pricer) Quote(c promotion.Cart, in PricingInput) (Quote, Adjustments) {
	var adj Adjustments
	q := Quote{
		Subtotal:  c.Subtotal(),
		ItemCount: c.ItemCount(),
	}

	if in.Promotion != nil {
		res, err := p.evaluator.Evaluate(*in.Promotion, c)
		if err != nil {
			adj.PromotionErr = err
		} else {
			q.PromoCode = in.Promotion.Code
			q.PromoDiscount = res.Discount
		}
	}

	payable := q.Subtotal - q.PromoDiscount
	points, clamped := loyalty.Clamp(in.Points, in.Balance, payable)
	if clamped {
		adj.PointsClamped = true
		adj.PointsBefore = in.Points
	}
	q.PointsUsed = points

	q.FinalTotal = payable - points
	if q.FinalTotal < 0 {
		q.FinalTotal = 0
	}
	q.PointsEarnedEstimate = loyalty.Earn(q.FinalTotal, p.earnRateBps)

	return q, adj
}
