package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	ruledomain "github.com/smallbiznis/ticketprice/internal/pricingrule/domain"
)

// PricingContext is the read-only input of one price computation.
type PricingContext struct {
	Now              time.Time
	EventDateTime    time.Time
	BasePrice        float64
	CurrentAttendees int
	MaxAttendees     int
	DemandScore      float64
}

// At returns a copy of the context evaluated at t.
func (c PricingContext) At(t time.Time) PricingContext {
	c.Now = t
	return c
}

// RuleOutcome is either inactive or active with the multiplier to apply.
type RuleOutcome struct {
	Active      bool
	Multiplier  float64
	Description string
}

func Inactive() RuleOutcome { return RuleOutcome{} }

func Active(multiplier float64, description string) RuleOutcome {
	return RuleOutcome{Active: true, Multiplier: multiplier, Description: description}
}

type AppliedRule struct {
	RuleID            snowflake.ID        `json:"rule_id"`
	RuleType          ruledomain.RuleType `json:"rule_type"`
	Description       string              `json:"description"`
	MultiplierApplied float64             `json:"multiplier_applied"`
}

type PriceQuote struct {
	BasePrice           float64       `json:"base_price"`
	FinalPrice          float64       `json:"final_price"`
	AppliedRules        []AppliedRule `json:"applied_rules"`
	EffectiveMultiplier float64       `json:"effective_multiplier"`

	// FallbackReason is set when composition reverted to the base price.
	FallbackReason string `json:"-"`
}

type PriceChangeForecast struct {
	NextChangeAt   time.Time           `json:"next_change_at"`
	ProjectedPrice float64             `json:"projected_price"`
	Reason         string              `json:"reason"`
	RuleID         snowflake.ID        `json:"rule_id"`
	RuleType       ruledomain.RuleType `json:"rule_type"`
}
