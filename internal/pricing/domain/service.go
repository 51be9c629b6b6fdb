package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	ruledomain "github.com/smallbiznis/ticketprice/internal/pricingrule/domain"
)

// RuleStore is the read side of the pricing rule store.
type RuleStore interface {
	ListActiveRules(ctx context.Context, eventID snowflake.ID) ([]ruledomain.PricingRule, error)
}

// DemandSignalProvider supplies the demand score Surge rules compare against.
type DemandSignalProvider interface {
	DemandScore(ctx context.Context, eventID snowflake.ID) (float64, error)
}

type Service interface {
	Quote(ctx context.Context, eventID string) (*QuoteResponse, error)
	Forecast(ctx context.Context, eventID string) (*ForecastResponse, error)
}

type QuoteResponse struct {
	EventID snowflake.ID `json:"event_id"`
	PriceQuote
	Currency    string    `json:"currency"`
	DemandScore float64   `json:"demand_score"`
	QuotedAt    time.Time `json:"quoted_at"`
	Degraded    bool      `json:"degraded"`
	Warnings    []string  `json:"warnings"`
}

// ForecastResponse carries a nil NextChangeAt when no calendar-driven rule
// will flip in the future.
type ForecastResponse struct {
	EventID        snowflake.ID         `json:"event_id"`
	NextChangeAt   *time.Time           `json:"next_change_at"`
	ProjectedPrice *float64             `json:"projected_price,omitempty"`
	Reason         string               `json:"reason,omitempty"`
	RuleID         *snowflake.ID        `json:"rule_id,omitempty"`
	RuleType       *ruledomain.RuleType `json:"rule_type,omitempty"`
	CurrentPrice   float64              `json:"current_price"`
	Currency       string               `json:"currency"`
	ForecastedAt   time.Time            `json:"forecasted_at"`
	Degraded       bool                 `json:"degraded"`
	Warnings       []string             `json:"warnings"`
}

const (
	WarningRulesUnavailable  = "pricing_rules_unavailable"
	WarningDemandUnavailable = "demand_signal_unavailable"
)

var (
	ErrStoreUnavailable = ruledomain.ErrStoreUnavailable
	ErrEventUnavailable = errors.New("event_unavailable")
)
