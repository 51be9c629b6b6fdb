package engine

import (
	"math"
	"testing"
	"time"

	pricingdomain "github.com/smallbiznis/ticketprice/internal/pricing/domain"
	ruledomain "github.com/smallbiznis/ticketprice/internal/pricingrule/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func bound(v float64) *float64 { return &v }

func alwaysOn(id int64, multiplier float64) ruledomain.PricingRule {
	r := rule(ruledomain.CapacityBased, 0, multiplier)
	r.ID = snowflakeID(id)
	return r
}

func TestComposeNoRulesIsIdentity(t *testing.T) {
	e := New(zap.NewNop())
	for _, base := range []float64{0, 0.004, 0.01, 10.005, 19.999, 42.5, 100, 12345.67} {
		pctx := contextDaysOut(10 * day)
		pctx.BasePrice = base

		quote := e.Compose(nil, pctx)
		assert.Equal(t, base, quote.FinalPrice)
		assert.Empty(t, quote.AppliedRules)
		assert.Equal(t, 1.0, quote.EffectiveMultiplier)
	}
}

func TestComposeInactiveRulesKeepUnroundedBase(t *testing.T) {
	e := New(zap.NewNop())
	pctx := contextDaysOut(10 * day)
	pctx.BasePrice = 10.005

	quote := e.Compose([]ruledomain.PricingRule{rule(ruledomain.Surge, 1000, 2)}, pctx)
	assert.Equal(t, 10.005, quote.FinalPrice)
	assert.Empty(t, quote.AppliedRules)
	assert.Equal(t, 1.0, quote.EffectiveMultiplier)
}

func TestComposeRoundingStaysWithinBounds(t *testing.T) {
	e := New(zap.NewNop())
	pctx := contextDaysOut(10 * day)

	floored := alwaysOn(1, 0.01)
	floored.MinPrice = bound(10.004)
	quote := e.Compose([]ruledomain.PricingRule{floored}, pctx)
	assert.Equal(t, 10.01, quote.FinalPrice)
	assert.GreaterOrEqual(t, quote.FinalPrice, 10.004)

	capped := alwaysOn(2, 3)
	capped.MaxPrice = bound(250.996)
	quote = e.Compose([]ruledomain.PricingRule{capped}, pctx)
	assert.Equal(t, 250.99, quote.FinalPrice)
	assert.LessOrEqual(t, quote.FinalPrice, 250.996)

	// Bounds already on the rounding grid are returned as-is.
	exact := alwaysOn(3, 0.01)
	exact.MinPrice = bound(60)
	quote = e.Compose([]ruledomain.PricingRule{exact}, pctx)
	assert.Equal(t, 60.0, quote.FinalPrice)
}

func TestComposeFreeEventStaysFree(t *testing.T) {
	e := New(zap.NewNop())
	pctx := contextDaysOut(40 * day)
	pctx.BasePrice = 0
	pctx.CurrentAttendees = 90
	pctx.DemandScore = 100

	withFloor := alwaysOn(1, 3)
	withFloor.MinPrice = bound(50)
	rules := []ruledomain.PricingRule{
		withFloor,
		rule(ruledomain.EarlyBird, 10, 0.5),
		rule(ruledomain.Surge, 1, 2),
	}

	quote := e.Compose(rules, pctx)
	assert.Equal(t, 0.0, quote.FinalPrice)
	assert.Equal(t, 1.0, quote.EffectiveMultiplier)
	assert.Len(t, quote.AppliedRules, 3)
}

func TestComposeMultiplierOneIsNoOp(t *testing.T) {
	e := New(zap.NewNop())
	quote := e.Compose([]ruledomain.PricingRule{alwaysOn(9, 1.0)}, contextDaysOut(day))

	assert.Equal(t, 100.0, quote.FinalPrice)
	require.Len(t, quote.AppliedRules, 1)
	assert.Equal(t, snowflakeID(9), quote.AppliedRules[0].RuleID)
	assert.Equal(t, 1.0, quote.AppliedRules[0].MultiplierApplied)
}

func TestComposeClampsAtEachStep(t *testing.T) {
	e := New(zap.NewNop())
	a := alwaysOn(1, 2.0)
	a.MaxPrice = bound(150)
	b := alwaysOn(2, 1.5)

	quote := e.Compose([]ruledomain.PricingRule{a, b}, contextDaysOut(day))
	assert.Equal(t, 225.0, quote.FinalPrice)
	assert.Equal(t, 2.25, quote.EffectiveMultiplier)
	require.Len(t, quote.AppliedRules, 2)
	assert.Equal(t, snowflakeID(1), quote.AppliedRules[0].RuleID)
	assert.Equal(t, snowflakeID(2), quote.AppliedRules[1].RuleID)

	reversed := e.Compose([]ruledomain.PricingRule{b, a}, contextDaysOut(day))
	assert.Equal(t, 150.0, reversed.FinalPrice)
}

func TestComposeMinClampStillListsRule(t *testing.T) {
	e := New(zap.NewNop())
	discount := alwaysOn(3, 0.5)
	discount.MinPrice = bound(100)

	quote := e.Compose([]ruledomain.PricingRule{discount}, contextDaysOut(day))
	assert.Equal(t, 100.0, quote.FinalPrice)
	assert.Len(t, quote.AppliedRules, 1)
}

func TestComposeInactiveFlagNeverApplied(t *testing.T) {
	e := New(zap.NewNop())
	disabled := rule(ruledomain.EarlyBird, 14, 0.5)
	disabled.IsActive = false

	quote := e.Compose([]ruledomain.PricingRule{disabled}, contextDaysOut(30*day))
	assert.Empty(t, quote.AppliedRules)
	assert.Equal(t, 100.0, quote.FinalPrice)
}

func TestComposeEarlyBirdScenario(t *testing.T) {
	e := New(zap.NewNop())
	earlyBird := rule(ruledomain.EarlyBird, 14, 0.8)
	earlyBird.Description = "Early bird"

	quote := e.Compose([]ruledomain.PricingRule{earlyBird}, contextDaysOut(20*day))
	assert.Equal(t, 100.0, quote.BasePrice)
	assert.Equal(t, 80.0, quote.FinalPrice)
	assert.Equal(t, 0.8, quote.EffectiveMultiplier)
	require.Len(t, quote.AppliedRules, 1)
	assert.Equal(t, ruledomain.EarlyBird, quote.AppliedRules[0].RuleType)
	assert.Equal(t, 0.8, quote.AppliedRules[0].MultiplierApplied)
	assert.Equal(t, "Early bird", quote.AppliedRules[0].Description)
	assert.Empty(t, quote.FallbackReason)
}

func TestComposeRoundsFinalPrice(t *testing.T) {
	e := New(zap.NewNop())
	pctx := contextDaysOut(day)
	pctx.BasePrice = 10
	rules := []ruledomain.PricingRule{alwaysOn(1, 1.0/3.0)}

	assert.Equal(t, 3.33, e.Compose(rules, pctx).FinalPrice)
	assert.Equal(t, 3.0, e.WithRoundingPlaces(0).Compose(rules, pctx).FinalPrice)
	assert.Equal(t, 3.333, e.WithRoundingPlaces(3).Compose(rules, pctx).FinalPrice)
}

func TestComposeFallsBackOnBadMultiplier(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := New(zap.New(core))

	for _, multiplier := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		rules := []ruledomain.PricingRule{alwaysOn(1, 1.5), alwaysOn(2, multiplier)}
		quote := e.Compose(rules, contextDaysOut(day))

		assert.Equal(t, 100.0, quote.FinalPrice)
		assert.Equal(t, 1.0, quote.EffectiveMultiplier)
		assert.Empty(t, quote.AppliedRules)
		assert.Equal(t, FallbackInvalidMultiplier, quote.FallbackReason)
	}
	assert.Equal(t, 4, logs.FilterMessage("pricing computation fallback").Len())
}

func TestComposeFallsBackOnOverflow(t *testing.T) {
	e := New(zap.NewNop())
	pctx := contextDaysOut(day)
	pctx.BasePrice = math.MaxFloat64 / 2

	quote := e.Compose([]ruledomain.PricingRule{alwaysOn(1, 10)}, pctx)
	assert.Equal(t, FallbackNonFinitePrice, quote.FallbackReason)
	assert.Equal(t, pctx.BasePrice, quote.FinalPrice)
}

func TestComposeRejectsInvalidBasePrice(t *testing.T) {
	e := New(zap.NewNop())
	pctx := contextDaysOut(day)
	pctx.BasePrice = math.NaN()

	quote := e.Compose([]ruledomain.PricingRule{alwaysOn(1, 2)}, pctx)
	assert.Equal(t, 0.0, quote.FinalPrice)
	assert.Equal(t, FallbackInvalidBasePrice, quote.FallbackReason)
}

func TestComposeIsIndependentOfWallClock(t *testing.T) {
	e := New(zap.NewNop())
	earlyBird := rule(ruledomain.EarlyBird, 14, 0.8)

	past := pricingdomain.PricingContext{
		Now:           time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
		EventDateTime: time.Date(1999, 2, 1, 0, 0, 0, 0, time.UTC),
		BasePrice:     100,
	}
	assert.Equal(t, 80.0, e.Compose([]ruledomain.PricingRule{earlyBird}, past).FinalPrice)
}
