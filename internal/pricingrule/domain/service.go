package domain

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
)

// Service owns pricing rule CRUD. ListActiveRules and UpsertRule form the
// store contract the pricing engine depends on.
type Service interface {
	Create(ctx context.Context, eventID string, req CreateRequest) (*PricingRule, error)
	Update(ctx context.Context, eventID, ruleID string, req UpdateRequest) (*PricingRule, error)
	Get(ctx context.Context, eventID, ruleID string) (*PricingRule, error)
	List(ctx context.Context, eventID string) ([]PricingRule, error)
	Delete(ctx context.Context, eventID, ruleID string) error

	ListActiveRules(ctx context.Context, eventID snowflake.ID) ([]PricingRule, error)
	UpsertRule(ctx context.Context, rule PricingRule) (*PricingRule, error)
}

type CreateRequest struct {
	RuleType        string         `json:"rule_type"`
	ThresholdValue  *float64       `json:"threshold_value"`
	PriceMultiplier *float64       `json:"price_multiplier"`
	IsActive        *bool          `json:"is_active"`
	MinPrice        *float64       `json:"min_price"`
	MaxPrice        *float64       `json:"max_price"`
	Description     string         `json:"description"`
	Position        *int           `json:"position"`
	Metadata        map[string]any `json:"metadata"`
}

// UpdateRequest carries a partial rule. Absent fields keep their stored value.
type UpdateRequest struct {
	RuleType        *string        `json:"rule_type"`
	ThresholdValue  *float64       `json:"threshold_value"`
	PriceMultiplier *float64       `json:"price_multiplier"`
	IsActive        *bool          `json:"is_active"`
	MinPrice        OptionalPrice  `json:"min_price"`
	MaxPrice        OptionalPrice  `json:"max_price"`
	Description     *string        `json:"description"`
	Position        *int           `json:"position"`
	Metadata        map[string]any `json:"metadata"`
}

// OptionalPrice distinguishes an omitted clamp from an explicit null, which
// clears the bound.
type OptionalPrice struct {
	Set   bool
	Value *float64
}

func (o *OptionalPrice) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Price returns an OptionalPrice that sets the bound to v.
func Price(v float64) OptionalPrice {
	return OptionalPrice{Set: true, Value: &v}
}
