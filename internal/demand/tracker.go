package demand

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/ticketprice/internal/clock"
	"github.com/smallbiznis/ticketprice/internal/config"
)

const keyDemandEvent = "demand:event:%s"

// Tracker keeps a sliding window of purchases per event in a redis sorted
// set scored by purchase time in milliseconds.
type Tracker struct {
	client *redis.Client
	config *config.PricingConfigHolder
	clock  clock.Clock
}

func NewTracker(client *redis.Client, cfg *config.PricingConfigHolder, clk clock.Clock) *Tracker {
	if client == nil {
		return nil
	}
	return &Tracker{client: client, config: cfg, clock: clk}
}

func (t *Tracker) RecordPurchase(ctx context.Context, eventID snowflake.ID, quantity int, at time.Time) error {
	if t == nil || t.client == nil {
		return errors.New("demand tracker not configured")
	}
	if quantity <= 0 {
		return nil
	}

	key := fmt.Sprintf(keyDemandEvent, eventID.String())
	window := t.window()

	pipe := t.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: member(ulid.Make().String(), quantity),
	})
	pipe.PExpire(ctx, key, 2*window)
	_, err := pipe.Exec(ctx)
	return err
}

func (t *Tracker) DemandScore(ctx context.Context, eventID snowflake.ID) (float64, error) {
	if t == nil || t.client == nil {
		return 0, errors.New("demand tracker not configured")
	}

	key := fmt.Sprintf(keyDemandEvent, eventID.String())
	window := t.window()
	now := t.clock.Now()
	from := now.Add(-window).UnixMilli()

	pipe := t.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(from, 10))
	members := pipe.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatInt(from, 10),
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	values := members.Val()
	quantities := make([]int, 0, len(values))
	for _, m := range values {
		quantities = append(quantities, quantityFromMember(m))
	}
	return VelocityScore(quantities, window), nil
}

func (t *Tracker) window() time.Duration {
	if t.config == nil {
		return config.DefaultPricingConfig().Demand.Window
	}
	return t.config.Get().Demand.Window
}
