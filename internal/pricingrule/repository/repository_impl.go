package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	ruledomain "github.com/smallbiznis/ticketprice/internal/pricingrule/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ruleColumns = `id, event_id, rule_type, threshold_value, price_multiplier, is_active,
	min_price, max_price, description, position, metadata, created_at, updated_at`

type repo struct{}

func Provide() ruledomain.Repository {
	return &repo{}
}

// Upsert writes the full record, replacing every mutable column on conflict.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, rule *ruledomain.PricingRule) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"rule_type",
				"threshold_value",
				"price_multiplier",
				"is_active",
				"min_price",
				"max_price",
				"description",
				"position",
				"metadata",
				"updated_at",
			}),
		}).
		Create(rule).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, eventID, id snowflake.ID) (*ruledomain.PricingRule, error) {
	var rule ruledomain.PricingRule
	err := db.WithContext(ctx).Raw(
		`SELECT `+ruleColumns+` FROM pricing_rules WHERE event_id = ? AND id = ?`,
		eventID,
		id,
	).Scan(&rule).Error
	if err != nil {
		return nil, err
	}
	if rule.ID == 0 {
		return nil, nil
	}
	return &rule, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]ruledomain.PricingRule, error) {
	var items []ruledomain.PricingRule
	err := db.WithContext(ctx).Raw(
		`SELECT `+ruleColumns+` FROM pricing_rules WHERE event_id = ? ORDER BY position ASC, id ASC`,
		eventID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]ruledomain.PricingRule, error) {
	var items []ruledomain.PricingRule
	err := db.WithContext(ctx).Raw(
		`SELECT `+ruleColumns+` FROM pricing_rules
		 WHERE event_id = ? AND is_active = ?
		 ORDER BY position ASC, id ASC`,
		eventID,
		true,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, eventID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM pricing_rules WHERE event_id = ?`,
		eventID,
	).Scan(&count).Error
	return count, err
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, eventID, id snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`DELETE FROM pricing_rules WHERE event_id = ? AND id = ?`,
		eventID,
		id,
	)
	return res.RowsAffected, res.Error
}
