package domain

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRule() PricingRule {
	return PricingRule{
		EventID:         1,
		RuleType:        EarlyBird,
		ThresholdValue:  14,
		PriceMultiplier: 0.8,
		IsActive:        true,
	}
}

func ptr(v float64) *float64 { return &v }

func TestParseRuleType(t *testing.T) {
	cases := map[string]RuleType{
		"EARLY_BIRD":     EarlyBird,
		"earlybird":      EarlyBird,
		" time-decay ":   TimeDecay,
		"capacity_based": CapacityBased,
		"Surge":          Surge,
	}
	for input, want := range cases {
		got, ok := ParseRuleType(input)
		assert.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}

	_, ok := ParseRuleType("FLASH")
	assert.False(t, ok)
	_, ok = ParseRuleType("")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(ptrRule(validRule())))

	cases := []struct {
		name   string
		mutate func(r *PricingRule)
		field  string
	}{
		{"missing event", func(r *PricingRule) { r.EventID = 0 }, "event_id"},
		{"unknown type", func(r *PricingRule) { r.RuleType = "BOGUS" }, "rule_type"},
		{"negative threshold", func(r *PricingRule) { r.ThresholdValue = -0.5 }, "threshold_value"},
		{"nan threshold", func(r *PricingRule) { r.ThresholdValue = math.NaN() }, "threshold_value"},
		{"zero multiplier", func(r *PricingRule) { r.PriceMultiplier = 0 }, "price_multiplier"},
		{"infinite multiplier", func(r *PricingRule) { r.PriceMultiplier = math.Inf(1) }, "price_multiplier"},
		{"negative min", func(r *PricingRule) { r.MinPrice = ptr(-1) }, "min_price"},
		{"negative max", func(r *PricingRule) { r.MaxPrice = ptr(-1) }, "max_price"},
		{"min above max", func(r *PricingRule) { r.MinPrice = ptr(10); r.MaxPrice = ptr(5) }, "min_price"},
		{"long description", func(r *PricingRule) { r.Description = strings.Repeat("a", MaxDescriptionLength+1) }, "description"},
		{"negative position", func(r *PricingRule) { r.Position = -1 }, "position"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := validRule()
			tc.mutate(&rule)
			err := Validate(&rule)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	equal := validRule()
	equal.MinPrice = ptr(50)
	equal.MaxPrice = ptr(50)
	assert.NoError(t, Validate(&equal))
}

func TestOptionalPriceDistinguishesNullFromAbsent(t *testing.T) {
	var req UpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"min_price": null, "max_price": 99.5}`), &req))
	assert.True(t, req.MinPrice.Set)
	assert.Nil(t, req.MinPrice.Value)
	assert.True(t, req.MaxPrice.Set)
	require.NotNil(t, req.MaxPrice.Value)
	assert.Equal(t, 99.5, *req.MaxPrice.Value)

	var empty UpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.False(t, empty.MinPrice.Set)
}

func ptrRule(r PricingRule) *PricingRule { return &r }
