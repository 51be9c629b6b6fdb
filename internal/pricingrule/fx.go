package pricingrule

import (
	"github.com/smallbiznis/ticketprice/internal/pricingrule/repository"
	"github.com/smallbiznis/ticketprice/internal/pricingrule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricingrule.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
