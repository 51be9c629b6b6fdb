package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, rule *PricingRule) error
	FindByID(ctx context.Context, db *gorm.DB, eventID, id snowflake.ID) (*PricingRule, error)
	List(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]PricingRule, error)
	ListActive(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]PricingRule, error)
	Count(ctx context.Context, db *gorm.DB, eventID snowflake.ID) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, eventID, id snowflake.ID) (int64, error)
}
