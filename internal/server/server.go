package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/ticketprice/internal/config"
	eventdomain "github.com/smallbiznis/ticketprice/internal/event/domain"
	"github.com/smallbiznis/ticketprice/internal/observability"
	obsmiddleware "github.com/smallbiznis/ticketprice/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/ticketprice/internal/observability/metrics"
	obstracing "github.com/smallbiznis/ticketprice/internal/observability/tracing"
	pricingdomain "github.com/smallbiznis/ticketprice/internal/pricing/domain"
	ruledomain "github.com/smallbiznis/ticketprice/internal/pricingrule/domain"
	"github.com/smallbiznis/ticketprice/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	pricingSvc pricingdomain.Service
	ruleSvc    ruledomain.Service
	eventSvc   eventdomain.Service
	limiter    *ratelimit.QuoteLimiter
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	PricingSvc pricingdomain.Service
	RuleSvc    ruledomain.Service
	EventSvc   eventdomain.Service
	Limiter    *ratelimit.QuoteLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		pricingSvc: p.PricingSvc,
		ruleSvc:    p.RuleSvc,
		eventSvc:   p.EventSvc,
		limiter:    p.Limiter,
	}

	svc.registerEventRoutes()
	svc.registerPricingRoutes()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerEventRoutes() {
	events := s.engine.Group("/events")
	events.POST("", s.CreateEvent)
	events.GET("/:id", s.GetEventByID)
	events.POST("/:id/registrations", s.RegisterAttendees)
}

func (s *Server) registerPricingRoutes() {
	events := s.engine.Group("/events")

	// -------- Quotes --------
	events.GET("/:id/price", s.limiter.Middleware("quote"), s.GetPrice)
	events.GET("/:id/price/forecast", s.limiter.Middleware("forecast"), s.GetPriceForecast)

	// -------- Pricing Rules --------
	events.POST("/:id/pricing-rules", s.CreatePricingRule)
	events.GET("/:id/pricing-rules", s.ListPricingRules)
	events.GET("/:id/pricing-rules/:ruleId", s.GetPricingRule)
	events.PATCH("/:id/pricing-rules/:ruleId", s.UpdatePricingRule)
	events.DELETE("/:id/pricing-rules/:ruleId", s.DeletePricingRule)
}
