package engine

import (
	"math"
	"testing"
	"time"

	pricingdomain "github.com/smallbiznis/ticketprice/internal/pricing/domain"
	ruledomain "github.com/smallbiznis/ticketprice/internal/pricingrule/domain"
	"github.com/stretchr/testify/assert"
)

var eventAt = time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)

func contextDaysOut(d time.Duration) pricingdomain.PricingContext {
	return pricingdomain.PricingContext{
		Now:           eventAt.Add(-d),
		EventDateTime: eventAt,
		BasePrice:     100,
		MaxAttendees:  100,
	}
}

func rule(ruleType ruledomain.RuleType, threshold, multiplier float64) ruledomain.PricingRule {
	return ruledomain.PricingRule{
		ID:              1,
		EventID:         7,
		RuleType:        ruleType,
		ThresholdValue:  threshold,
		PriceMultiplier: multiplier,
		IsActive:        true,
	}
}

func TestDaysUntilEvent(t *testing.T) {
	cases := []struct {
		out  time.Duration
		want int64
	}{
		{30 * day, 30},
		{29*day + time.Hour, 30},
		{29 * day, 29},
		{time.Nanosecond, 1},
		{0, 0},
		{-time.Hour, 0},
		{-day, -1},
		{-25 * time.Hour, -1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DaysUntilEvent(contextDaysOut(tc.out)), tc.out.String())
	}
}

func TestEvaluateEarlyBirdBoundary(t *testing.T) {
	r := rule(ruledomain.EarlyBird, 30, 0.8)

	assert.True(t, Evaluate(r, contextDaysOut(30*day)).Active)
	assert.False(t, Evaluate(r, contextDaysOut(29*day)).Active)
	assert.True(t, Evaluate(r, contextDaysOut(29*day+time.Minute)).Active)

	zero := rule(ruledomain.EarlyBird, 0, 0.8)
	assert.True(t, Evaluate(zero, contextDaysOut(time.Minute)).Active)
	assert.False(t, Evaluate(zero, contextDaysOut(0)).Active, "event starting now cannot be early-bird")
	assert.False(t, Evaluate(zero, contextDaysOut(-time.Hour)).Active)
}

func TestEvaluateTimeDecay(t *testing.T) {
	r := rule(ruledomain.TimeDecay, 7, 1.2)

	assert.False(t, Evaluate(r, contextDaysOut(8*day)).Active)
	assert.True(t, Evaluate(r, contextDaysOut(7*day)).Active)
	assert.True(t, Evaluate(r, contextDaysOut(time.Hour)).Active)
	assert.True(t, Evaluate(r, contextDaysOut(-time.Hour)).Active, "day zero still counts")
	assert.False(t, Evaluate(r, contextDaysOut(-day)).Active)
}

func TestEvaluateCapacityBoundary(t *testing.T) {
	r := rule(ruledomain.CapacityBased, 50, 1.25)

	pctx := contextDaysOut(10 * day)
	pctx.CurrentAttendees = 50
	assert.True(t, Evaluate(r, pctx).Active)

	pctx.CurrentAttendees = 49
	assert.False(t, Evaluate(r, pctx).Active)

	odd := rule(ruledomain.CapacityBased, 33.3, 1.1)
	pctx.MaxAttendees = 3
	pctx.CurrentAttendees = 1
	assert.True(t, Evaluate(odd, pctx).Active)
}

func TestEvaluateZeroCapacityIsInactive(t *testing.T) {
	for _, threshold := range []float64{0, 50, 100} {
		pctx := contextDaysOut(day)
		pctx.MaxAttendees = 0
		pctx.CurrentAttendees = 10
		assert.NotPanics(t, func() {
			assert.False(t, Evaluate(rule(ruledomain.CapacityBased, threshold, 2), pctx).Active)
		})
	}
}

func TestEvaluateSurgeIsStrict(t *testing.T) {
	r := rule(ruledomain.Surge, 5, 1.5)

	pctx := contextDaysOut(day)
	pctx.DemandScore = 5
	assert.False(t, Evaluate(r, pctx).Active)

	pctx.DemandScore = 5.01
	assert.True(t, Evaluate(r, pctx).Active)

	pctx.DemandScore = math.NaN()
	assert.False(t, Evaluate(r, pctx).Active)
}

func TestEvaluateInactiveFlagAndBadData(t *testing.T) {
	disabled := rule(ruledomain.EarlyBird, 1, 0.5)
	disabled.IsActive = false
	assert.False(t, Evaluate(disabled, contextDaysOut(30*day)).Active)

	negative := rule(ruledomain.CapacityBased, -10, 2)
	pctx := contextDaysOut(day)
	pctx.CurrentAttendees = 100
	assert.False(t, Evaluate(negative, pctx).Active)

	unknown := rule(ruledomain.RuleType("FLASH_SALE"), 0, 2)
	assert.False(t, Evaluate(unknown, pctx).Active)
}

func TestEvaluateSanitizesDescription(t *testing.T) {
	r := rule(ruledomain.EarlyBird, 1, 0.9)
	r.Description = "  <b>Early</b> bird <script>alert(1)</script>"

	outcome := Evaluate(r, contextDaysOut(10*day))
	assert.True(t, outcome.Active)
	assert.Equal(t, 0.9, outcome.Multiplier)
	assert.NotContains(t, outcome.Description, "<")
	assert.Contains(t, outcome.Description, "Early bird")
}

func TestSanitizeDescriptionKeepsPlainText(t *testing.T) {
	cases := map[string]string{
		"Early bird's deal":                  "Early bird's deal",
		"Buy 2 & save":                       "Buy 2 & save",
		`Say "hi"`:                           `Say "hi"`,
		"Seats < 10 left":                    "Seats < 10 left",
		"<i>Last</i> call &amp; more":        "Last call & more",
		"&lt;script&gt;x&lt;/script&gt;Sale": "Sale",
		"":                                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeDescription(in), in)
	}
}
