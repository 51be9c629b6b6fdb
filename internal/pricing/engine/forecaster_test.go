package engine

import (
	"testing"
	"time"

	ruledomain "github.com/smallbiznis/ticketprice/internal/pricingrule/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestForecastIgnoresNonTemporalRules(t *testing.T) {
	e := New(zap.NewNop())
	pctx := contextDaysOut(20 * day)
	pctx.CurrentAttendees = 10

	rules := []ruledomain.PricingRule{
		rule(ruledomain.CapacityBased, 50, 1.3),
		rule(ruledomain.Surge, 2, 1.5),
	}
	assert.Nil(t, e.Forecast(rules, pctx))
	assert.Nil(t, e.Forecast(nil, pctx))
}

func TestForecastEarlyBirdExpiry(t *testing.T) {
	e := New(zap.NewNop())
	earlyBird := rule(ruledomain.EarlyBird, 14, 0.8)
	earlyBird.ID = 11
	earlyBird.Description = "<i>Early bird</i> ends soon"

	forecast := e.Forecast([]ruledomain.PricingRule{earlyBird}, contextDaysOut(20*day+3*time.Hour))
	require.NotNil(t, forecast)
	assert.Equal(t, eventAt.Add(-13*day), forecast.NextChangeAt)
	assert.Equal(t, 100.0, forecast.ProjectedPrice)
	assert.Equal(t, "Early bird ends soon", forecast.Reason)
	assert.Equal(t, snowflakeID(11), forecast.RuleID)
	assert.Equal(t, ruledomain.EarlyBird, forecast.RuleType)
}

func TestForecastTimeDecayActivation(t *testing.T) {
	e := New(zap.NewNop())
	decay := rule(ruledomain.TimeDecay, 7, 1.2)

	forecast := e.Forecast([]ruledomain.PricingRule{decay}, contextDaysOut(20*day))
	require.NotNil(t, forecast)
	assert.Equal(t, eventAt.Add(-7*day), forecast.NextChangeAt)
	assert.Equal(t, 120.0, forecast.ProjectedPrice)
	assert.Equal(t, "Last-minute pricing starts", forecast.Reason)
}

func TestForecastTimeDecayExpiryInsideWindow(t *testing.T) {
	e := New(zap.NewNop())
	decay := rule(ruledomain.TimeDecay, 7, 1.2)

	forecast := e.Forecast([]ruledomain.PricingRule{decay}, contextDaysOut(3*day))
	require.NotNil(t, forecast)
	assert.Equal(t, eventAt.Add(day), forecast.NextChangeAt)
	assert.Equal(t, 100.0, forecast.ProjectedPrice)
}

func TestForecastPicksEarliestAcrossRules(t *testing.T) {
	e := New(zap.NewNop())
	earlyBird := rule(ruledomain.EarlyBird, 14, 0.8)
	earlyBird.ID = 1
	decay := rule(ruledomain.TimeDecay, 7, 1.2)
	decay.ID = 2

	forecast := e.Forecast([]ruledomain.PricingRule{decay, earlyBird}, contextDaysOut(20*day))
	require.NotNil(t, forecast)
	assert.Equal(t, snowflakeID(1), forecast.RuleID)
	assert.Equal(t, eventAt.Add(-13*day), forecast.NextChangeAt)
	assert.Equal(t, 100.0, forecast.ProjectedPrice, "early bird gone, decay not yet active")
}

func TestForecastTieKeepsInputOrder(t *testing.T) {
	e := New(zap.NewNop())
	decay := rule(ruledomain.TimeDecay, 13, 1.1)
	decay.ID = 5
	earlyBird := rule(ruledomain.EarlyBird, 14, 0.9)
	earlyBird.ID = 6

	forecast := e.Forecast([]ruledomain.PricingRule{decay, earlyBird}, contextDaysOut(20*day))
	require.NotNil(t, forecast)
	assert.Equal(t, eventAt.Add(-13*day), forecast.NextChangeAt)
	assert.Equal(t, snowflakeID(5), forecast.RuleID)
	assert.Equal(t, 110.0, forecast.ProjectedPrice)
}

func TestForecastFractionalThresholds(t *testing.T) {
	e := New(zap.NewNop())

	earlyBird := rule(ruledomain.EarlyBird, 14.5, 0.8)
	forecast := e.Forecast([]ruledomain.PricingRule{earlyBird}, contextDaysOut(20*day))
	require.NotNil(t, forecast)
	assert.Equal(t, eventAt.Add(-14*day), forecast.NextChangeAt)

	decay := rule(ruledomain.TimeDecay, 7.5, 1.2)
	forecast = e.Forecast([]ruledomain.PricingRule{decay}, contextDaysOut(20*day))
	require.NotNil(t, forecast)
	assert.Equal(t, eventAt.Add(-7*day), forecast.NextChangeAt)
}

func TestForecastIsStrictlyAfterNow(t *testing.T) {
	e := New(zap.NewNop())
	earlyBird := rule(ruledomain.EarlyBird, 14, 0.8)

	// Exactly on the boundary: the flip is happening now, not in the future.
	assert.Nil(t, e.Forecast([]ruledomain.PricingRule{earlyBird}, contextDaysOut(13*day)))
}

func TestForecastNilAfterEvent(t *testing.T) {
	e := New(zap.NewNop())
	rules := []ruledomain.PricingRule{
		rule(ruledomain.EarlyBird, 14, 0.8),
		rule(ruledomain.TimeDecay, 7, 1.2),
	}
	assert.Nil(t, e.Forecast(rules, contextDaysOut(-2*day)))
}

func TestForecastSkipsDisabledAndHugeThresholds(t *testing.T) {
	e := New(zap.NewNop())
	disabled := rule(ruledomain.TimeDecay, 7, 1.2)
	disabled.IsActive = false
	huge := rule(ruledomain.EarlyBird, 1e9, 0.5)

	assert.Nil(t, e.Forecast([]ruledomain.PricingRule{disabled, huge}, contextDaysOut(20*day)))
}

func TestForecastProjectsWithCapacityRules(t *testing.T) {
	e := New(zap.NewNop())
	pctx := contextDaysOut(20 * day)
	pctx.CurrentAttendees = 80

	rules := []ruledomain.PricingRule{
		rule(ruledomain.CapacityBased, 75, 1.5),
		rule(ruledomain.TimeDecay, 7, 1.2),
	}
	forecast := e.Forecast(rules, pctx)
	require.NotNil(t, forecast)
	assert.Equal(t, 180.0, forecast.ProjectedPrice)
}
