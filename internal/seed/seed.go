package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	eventdomain "github.com/smallbiznis/ticketprice/internal/event/domain"
	ruledomain "github.com/smallbiznis/ticketprice/internal/pricingrule/domain"
	"gorm.io/gorm"
)

const (
	demoEventName     = "Demo Conference"
	demoEventSlug     = "demo-conference"
	demoBasePrice     = 100
	demoCurrency      = "USD"
	demoCapacity      = 500
	demoDaysFromStart = 45
)

// EnsureDemoEvent seeds one event with a rule of every type so the quote and
// forecast endpoints have something to price in local environments. It is a
// no-op when the demo slug already exists.
func EnsureDemoEvent(ctx context.Context, db *gorm.DB, node *snowflake.Node, now time.Time) (*eventdomain.Event, error) {
	if db == nil {
		return nil, errors.New("seed database handle is required")
	}
	if node == nil {
		return nil, errors.New("seed id generator is required")
	}

	var event eventdomain.Event
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findDemoEventTx(ctx, tx)
		if err != nil {
			return err
		}
		if existing != nil {
			event = *existing
			return nil
		}

		now = now.UTC()
		event = eventdomain.Event{
			ID:        node.Generate(),
			Name:      demoEventName,
			Slug:      demoEventSlug,
			StartsAt:  now.Add(demoDaysFromStart * 24 * time.Hour).Truncate(time.Hour),
			BasePrice: demoBasePrice,
			Currency:  demoCurrency,
			Capacity:  demoCapacity,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&event).Error; err != nil {
			return err
		}

		for i, rule := range demoRules(event.ID) {
			rule.ID = node.Generate()
			rule.Position = i
			rule.CreatedAt = now
			rule.UpdatedAt = now
			if err := ruledomain.Validate(&rule); err != nil {
				return err
			}
			if err := tx.WithContext(ctx).Create(&rule).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func findDemoEventTx(ctx context.Context, tx *gorm.DB) (*eventdomain.Event, error) {
	var event eventdomain.Event
	err := tx.WithContext(ctx).Where("slug = ?", demoEventSlug).First(&event).Error
	if err == nil {
		return &event, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

func demoRules(eventID snowflake.ID) []ruledomain.PricingRule {
	floor, ceiling := 60.0, 250.0
	return []ruledomain.PricingRule{
		{
			EventID:         eventID,
			RuleType:        ruledomain.EarlyBird,
			ThresholdValue:  30,
			PriceMultiplier: 0.8,
			IsActive:        true,
			MinPrice:        &floor,
			Description:     "Early bird discount",
		},
		{
			EventID:         eventID,
			RuleType:        ruledomain.CapacityBased,
			ThresholdValue:  80,
			PriceMultiplier: 1.2,
			IsActive:        true,
			Description:     "Almost sold out",
		},
		{
			EventID:         eventID,
			RuleType:        ruledomain.Surge,
			ThresholdValue:  50,
			PriceMultiplier: 1.5,
			IsActive:        true,
			MaxPrice:        &ceiling,
			Description:     "High demand",
		},
		{
			EventID:         eventID,
			RuleType:        ruledomain.TimeDecay,
			ThresholdValue:  3,
			PriceMultiplier: 1.3,
			IsActive:        true,
			Description:     "Last-minute pricing",
		},
	}
}
