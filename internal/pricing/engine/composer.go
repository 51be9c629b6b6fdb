package engine

import (
	"math"

	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/ticketprice/internal/pricing/domain"
	ruledomain "github.com/smallbiznis/ticketprice/internal/pricingrule/domain"
	"go.uber.org/zap"
)

const DefaultRoundingPlaces int32 = 2

const (
	FallbackInvalidBasePrice  = "invalid_base_price"
	FallbackInvalidMultiplier = "invalid_multiplier"
	FallbackNonFinitePrice    = "non_finite_price"
)

// Engine evaluates, composes and forecasts. It holds no per-call state and
// is safe for concurrent use.
type Engine struct {
	log            *zap.Logger
	roundingPlaces int32
}

func New(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		log:            log.Named("pricing.engine"),
		roundingPlaces: DefaultRoundingPlaces,
	}
}

// WithRoundingPlaces returns a copy that rounds final prices to places.
func (e *Engine) WithRoundingPlaces(places int32) *Engine {
	cp := *e
	cp.roundingPlaces = places
	return &cp
}

// Compose applies every active rule multiplicatively in input order, clamping
// to each rule's bounds right after its multiplier. A free event stays free.
func (e *Engine) Compose(rules []ruledomain.PricingRule, pctx pricingdomain.PricingContext) pricingdomain.PriceQuote {
	base := pctx.BasePrice
	if !finite(base) || base < 0 {
		e.log.Warn("pricing computation fallback",
			zap.String("reason", FallbackInvalidBasePrice),
			zap.Float64("base_price", base),
		)
		return e.fallback(0, FallbackInvalidBasePrice)
	}

	free := base == 0
	price := base
	applied := make([]pricingdomain.AppliedRule, 0, len(rules))
	var lastMin, lastMax *float64

	for _, rule := range rules {
		outcome := Evaluate(rule, pctx)
		if !outcome.Active {
			continue
		}
		if !finite(outcome.Multiplier) || outcome.Multiplier <= 0 {
			e.logFallback(rule, FallbackInvalidMultiplier, base)
			return e.fallback(base, FallbackInvalidMultiplier)
		}

		applied = append(applied, pricingdomain.AppliedRule{
			RuleID:            rule.ID,
			RuleType:          rule.RuleType,
			Description:       outcome.Description,
			MultiplierApplied: outcome.Multiplier,
		})
		if free {
			continue
		}

		price = clamp(price*outcome.Multiplier, rule.MinPrice, rule.MaxPrice)
		lastMin, lastMax = rule.MinPrice, rule.MaxPrice
		if !finite(price) {
			e.logFallback(rule, FallbackNonFinitePrice, base)
			return e.fallback(base, FallbackNonFinitePrice)
		}
	}

	if len(applied) == 0 {
		return pricingdomain.PriceQuote{
			BasePrice:           base,
			FinalPrice:          base,
			AppliedRules:        applied,
			EffectiveMultiplier: 1,
		}
	}
	if price < 0 {
		price = 0
	}

	final := e.roundWithin(price, lastMin, lastMax)
	effective := 1.0
	if base > 0 {
		effective = final / base
	}

	return pricingdomain.PriceQuote{
		BasePrice:           base,
		FinalPrice:          final,
		AppliedRules:        applied,
		EffectiveMultiplier: effective,
	}
}

func (e *Engine) fallback(base float64, reason string) pricingdomain.PriceQuote {
	return pricingdomain.PriceQuote{
		BasePrice:           base,
		FinalPrice:          base,
		AppliedRules:        []pricingdomain.AppliedRule{},
		EffectiveMultiplier: 1,
		FallbackReason:      reason,
	}
}

func (e *Engine) logFallback(rule ruledomain.PricingRule, reason string, base float64) {
	e.log.Warn("pricing computation fallback",
		zap.String("reason", reason),
		zap.String("event_id", rule.EventID.String()),
		zap.String("rule_id", rule.ID.String()),
		zap.String("rule_type", string(rule.RuleType)),
		zap.Float64("price_multiplier", rule.PriceMultiplier),
		zap.Float64("base_price", base),
	)
}

// roundWithin rounds price half away from zero, then snaps it back inside the
// last applied rule's bounds by rounding toward them.
func (e *Engine) roundWithin(price float64, minPrice, maxPrice *float64) float64 {
	rounded, _ := decimal.NewFromFloat(price).Round(e.roundingPlaces).Float64()
	if minPrice != nil && finite(*minPrice) && rounded < *minPrice {
		rounded, _ = decimal.NewFromFloat(*minPrice).RoundCeil(e.roundingPlaces).Float64()
	}
	if maxPrice != nil && finite(*maxPrice) && rounded > *maxPrice {
		rounded, _ = decimal.NewFromFloat(*maxPrice).RoundFloor(e.roundingPlaces).Float64()
	}
	return rounded
}

func clamp(price float64, minPrice, maxPrice *float64) float64 {
	if minPrice != nil && finite(*minPrice) && price < *minPrice {
		price = *minPrice
	}
	if maxPrice != nil && finite(*maxPrice) && price > *maxPrice {
		price = *maxPrice
	}
	return price
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
