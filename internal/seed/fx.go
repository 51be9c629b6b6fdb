package seed

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ticketprice/internal/clock"
	"github.com/smallbiznis/ticketprice/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Invoke(func(lc fx.Lifecycle, conn *gorm.DB, node *snowflake.Node, clk clock.Clock, cfg config.Config, log *zap.Logger) {
		if !cfg.SeedDemo || cfg.Environment == "production" {
			return
		}
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				event, err := EnsureDemoEvent(ctx, conn, node, clk.Now())
				if err != nil {
					return err
				}
				log.Info("demo event ready",
					zap.String("event_id", event.ID.String()),
					zap.String("slug", event.Slug),
				)
				return nil
			},
		})
	}),
)
