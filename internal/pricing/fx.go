package pricing

import (
	pricingdomain "github.com/smallbiznis/ticketprice/internal/pricing/domain"
	"github.com/smallbiznis/ticketprice/internal/pricing/engine"
	"github.com/smallbiznis/ticketprice/internal/pricing/service"
	ruledomain "github.com/smallbiznis/ticketprice/internal/pricingrule/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing.service",
	fx.Provide(engine.New),
	fx.Provide(func(rules ruledomain.Service) pricingdomain.RuleStore { return rules }),
	fx.Provide(service.New),
)
