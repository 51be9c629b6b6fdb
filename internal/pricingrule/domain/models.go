package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// RuleType is the closed set of pricing rule kinds. Values outside the set
// are rejected on write and never activate on read.
type RuleType string

const (
	EarlyBird     RuleType = "EARLY_BIRD"
	Surge         RuleType = "SURGE"
	CapacityBased RuleType = "CAPACITY_BASED"
	TimeDecay     RuleType = "TIME_DECAY"
)

// RuleTypes lists every known rule type in declaration order.
var RuleTypes = []RuleType{EarlyBird, Surge, CapacityBased, TimeDecay}

// ParseRuleType accepts the canonical value case-insensitively, with either
// underscores or no separator ("earlybird", "early_bird").
func ParseRuleType(value string) (RuleType, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for _, t := range RuleTypes {
		if normalized == string(t) || normalized == strings.ReplaceAll(string(t), "_", "") {
			return t, true
		}
	}
	return "", false
}

// Temporal reports whether activation depends only on the calendar.
func (t RuleType) Temporal() bool {
	return t == EarlyBird || t == TimeDecay
}

type PricingRule struct {
	ID              snowflake.ID      `json:"id" gorm:"primaryKey"`
	EventID         snowflake.ID      `json:"event_id" gorm:"column:event_id;not null;index:idx_pricing_rules_event_position,priority:1"`
	RuleType        RuleType          `json:"rule_type" gorm:"type:text;not null"`
	ThresholdValue  float64           `json:"threshold_value" gorm:"not null"`
	PriceMultiplier float64           `json:"price_multiplier" gorm:"not null"`
	IsActive        bool              `json:"is_active" gorm:"not null"`
	MinPrice        *float64          `json:"min_price,omitempty"`
	MaxPrice        *float64          `json:"max_price,omitempty"`
	Description     string            `json:"description" gorm:"type:text;not null;default:''"`
	Position        int               `json:"position" gorm:"not null;default:0;index:idx_pricing_rules_event_position,priority:2"`
	Metadata        datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PricingRule) TableName() string { return "pricing_rules" }
