package demand

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/ticketprice/internal/clock"
	"github.com/smallbiznis/ticketprice/internal/config"
	eventdomain "github.com/smallbiznis/ticketprice/internal/event/domain"
	pricingdomain "github.com/smallbiznis/ticketprice/internal/pricing/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("demand",
	fx.Provide(provideSignal),
	fx.Provide(
		func(s *Signal) pricingdomain.DemandSignalProvider { return s },
		func(s *Signal) eventdomain.PurchaseRecorder { return s },
	),
)

func provideSignal(client *redis.Client, cfg *config.PricingConfigHolder, clk clock.Clock) *Signal {
	var source Source
	if tracker := NewTracker(client, cfg, clk); tracker != nil {
		source = tracker
	}
	return NewSignal(cfg, source)
}
