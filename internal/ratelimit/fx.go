package ratelimit

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/ticketprice/internal/config"
	"github.com/smallbiznis/ticketprice/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(provideQuoteLimiter),
)

func provideQuoteLimiter(client *redis.Client, cfg *config.PricingConfigHolder, log *zap.Logger, m *metrics.Metrics) *QuoteLimiter {
	var bucket Allower
	if tb := NewTokenBucket(client); tb != nil {
		bucket = tb
	}
	return NewQuoteLimiter(bucket, cfg, log, m)
}
