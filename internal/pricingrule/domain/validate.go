package domain

import (
	"math"
	"strings"
	"unicode/utf8"
)

const MaxDescriptionLength = 1000

// Validate checks a complete rule record. It returns nil or a *ValidationError.
func Validate(rule *PricingRule) error {
	if rule == nil {
		return invalid("rule", "is required")
	}
	if rule.EventID == 0 {
		return invalid("event_id", "is required")
	}
	if _, ok := ParseRuleType(string(rule.RuleType)); !ok {
		return invalid("rule_type", "must be one of EARLY_BIRD, SURGE, CAPACITY_BASED, TIME_DECAY")
	}
	if !finite(rule.ThresholdValue) {
		return invalid("threshold_value", "must be a finite number")
	}
	if rule.ThresholdValue < 0 {
		return invalid("threshold_value", "must be greater than or equal to 0")
	}
	if !finite(rule.PriceMultiplier) || rule.PriceMultiplier <= 0 {
		return invalid("price_multiplier", "must be greater than 0")
	}
	if rule.MinPrice != nil && (!finite(*rule.MinPrice) || *rule.MinPrice < 0) {
		return invalid("min_price", "must be a non-negative number")
	}
	if rule.MaxPrice != nil && (!finite(*rule.MaxPrice) || *rule.MaxPrice < 0) {
		return invalid("max_price", "must be a non-negative number")
	}
	if rule.MinPrice != nil && rule.MaxPrice != nil && *rule.MinPrice > *rule.MaxPrice {
		return invalid("min_price", "must be less than or equal to max_price")
	}
	if utf8.RuneCountInString(strings.TrimSpace(rule.Description)) > MaxDescriptionLength {
		return invalid("description", "is too long")
	}
	if rule.Position < 0 {
		return invalid("position", "must be greater than or equal to 0")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
