package demand

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ticketprice/internal/config"
)

var ErrSourceUnavailable = errors.New("demand_source_unavailable")

// Source is a demand backend that can both record and score purchases.
type Source interface {
	RecordPurchase(ctx context.Context, eventID snowflake.ID, quantity int, at time.Time) error
	DemandScore(ctx context.Context, eventID snowflake.ID) (float64, error)
}

// Signal routes demand reads to the source named in the live pricing config,
// so switching demand.source takes effect without a restart. Purchases are
// always recorded when a tracker exists.
type Signal struct {
	config  *config.PricingConfigHolder
	tracker Source
}

func NewSignal(cfg *config.PricingConfigHolder, tracker Source) *Signal {
	return &Signal{config: cfg, tracker: tracker}
}

func (s *Signal) DemandScore(ctx context.Context, eventID snowflake.ID) (float64, error) {
	cfg := s.current()
	if strings.EqualFold(cfg.Demand.Source, config.DemandSourceRedis) {
		if s.tracker == nil {
			return 0, ErrSourceUnavailable
		}
		return s.tracker.DemandScore(ctx, eventID)
	}
	return cfg.Demand.ConstantScore, nil
}

func (s *Signal) RecordPurchase(ctx context.Context, eventID snowflake.ID, quantity int, at time.Time) error {
	if s.tracker == nil {
		return nil
	}
	return s.tracker.RecordPurchase(ctx, eventID, quantity, at)
}

func (s *Signal) current() config.PricingConfig {
	if s.config == nil {
		return config.DefaultPricingConfig()
	}
	return s.config.Get()
}
