package engine

import (
	"math"

	pricingdomain "github.com/smallbiznis/ticketprice/internal/pricing/domain"
	ruledomain "github.com/smallbiznis/ticketprice/internal/pricingrule/domain"
)

// Evaluate decides whether a single rule applies to the context. Disabled
// rules, unknown types and negative thresholds are inactive; it never fails.
func Evaluate(rule ruledomain.PricingRule, pctx pricingdomain.PricingContext) pricingdomain.RuleOutcome {
	if !rule.IsActive {
		return pricingdomain.Inactive()
	}
	if !activates(rule, pctx) {
		return pricingdomain.Inactive()
	}
	return pricingdomain.Active(rule.PriceMultiplier, SanitizeDescription(rule.Description))
}

func activates(rule ruledomain.PricingRule, pctx pricingdomain.PricingContext) bool {
	threshold := rule.ThresholdValue
	if math.IsNaN(threshold) || threshold < 0 {
		return false
	}

	switch rule.RuleType {
	case ruledomain.EarlyBird:
		if !pctx.EventDateTime.After(pctx.Now) {
			return false
		}
		return float64(DaysUntilEvent(pctx)) >= threshold
	case ruledomain.TimeDecay:
		days := DaysUntilEvent(pctx)
		return days >= 0 && float64(days) <= threshold
	case ruledomain.CapacityBased:
		if pctx.MaxAttendees <= 0 {
			return false
		}
		// current/max*100 >= threshold, without the division.
		return float64(pctx.CurrentAttendees)*100 >= threshold*float64(pctx.MaxAttendees)
	case ruledomain.Surge:
		return pctx.DemandScore > threshold
	default:
		return false
	}
}
