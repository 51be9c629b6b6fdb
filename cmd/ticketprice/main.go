package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ticketprice/internal/cache"
	"github.com/smallbiznis/ticketprice/internal/clock"
	"github.com/smallbiznis/ticketprice/internal/config"
	"github.com/smallbiznis/ticketprice/internal/demand"
	"github.com/smallbiznis/ticketprice/internal/event"
	"github.com/smallbiznis/ticketprice/internal/migration"
	"github.com/smallbiznis/ticketprice/internal/observability"
	"github.com/smallbiznis/ticketprice/internal/pricing"
	"github.com/smallbiznis/ticketprice/internal/pricingrule"
	"github.com/smallbiznis/ticketprice/internal/ratelimit"
	"github.com/smallbiznis/ticketprice/internal/seed"
	"github.com/smallbiznis/ticketprice/internal/server"
	"github.com/smallbiznis/ticketprice/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		cache.Module,

		// Functional Domains
		event.Module,
		pricingrule.Module,
		demand.Module,
		pricing.Module,
		ratelimit.Module,
		seed.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
