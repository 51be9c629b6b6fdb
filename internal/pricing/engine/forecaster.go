package engine

import (
	"math"
	"time"

	pricingdomain "github.com/smallbiznis/ticketprice/internal/pricing/domain"
	ruledomain "github.com/smallbiznis/ticketprice/internal/pricingrule/domain"
)

// Thresholds beyond this many days cannot be expressed as a time.Duration
// offset and have no reachable boundary.
const maxForecastDays = 100_000

// Forecast finds the earliest instant strictly after now at which an
// EarlyBird or TimeDecay rule changes activation, and the composed price at
// that instant. Ties keep input order. It returns nil when nothing flips.
func (e *Engine) Forecast(rules []ruledomain.PricingRule, pctx pricingdomain.PricingContext) *pricingdomain.PriceChangeForecast {
	bestIndex := -1
	var bestAt time.Time
	var activatesAt bool

	for i, rule := range rules {
		if !rule.IsActive || !rule.RuleType.Temporal() {
			continue
		}
		threshold := rule.ThresholdValue
		if !finite(threshold) || threshold < 0 || threshold > maxForecastDays {
			continue
		}

		for _, at := range boundaries(rule, pctx.EventDateTime) {
			if !at.After(pctx.Now) {
				continue
			}
			after := activates(rule, pctx.At(at))
			before := activates(rule, pctx.At(at.Add(-time.Nanosecond)))
			if after == before {
				continue
			}
			if bestIndex < 0 || at.Before(bestAt) {
				bestIndex = i
				bestAt = at
				activatesAt = after
			}
		}
	}

	if bestIndex < 0 {
		return nil
	}

	rule := rules[bestIndex]
	projected := e.Compose(rules, pctx.At(bestAt))

	reason := SanitizeDescription(rule.Description)
	if reason == "" {
		reason = defaultReason(rule.RuleType, activatesAt)
	}

	return &pricingdomain.PriceChangeForecast{
		NextChangeAt:   bestAt,
		ProjectedPrice: projected.FinalPrice,
		Reason:         reason,
		RuleID:         rule.ID,
		RuleType:       rule.RuleType,
	}
}

// boundaries lists the candidate instants where a calendar rule can flip:
// the threshold crossing on either rounding side, the event start and the
// end of the event's day-0 window. Callers verify each by evaluation.
func boundaries(rule ruledomain.PricingRule, event time.Time) []time.Time {
	threshold := rule.ThresholdValue
	earlyBirdDays := math.Ceil(threshold) - 1
	if earlyBirdDays < 0 {
		earlyBirdDays = 0
	}
	return []time.Time{
		event.Add(-time.Duration(earlyBirdDays) * day),
		event.Add(-time.Duration(math.Floor(threshold)) * day),
		event,
		event.Add(day),
	}
}

func defaultReason(ruleType ruledomain.RuleType, activates bool) string {
	switch {
	case ruleType == ruledomain.EarlyBird && !activates:
		return "Early bird pricing ends"
	case ruleType == ruledomain.TimeDecay && activates:
		return "Last-minute pricing starts"
	case ruleType == ruledomain.TimeDecay:
		return "Last-minute pricing ends"
	default:
		return "Price change"
	}
}
