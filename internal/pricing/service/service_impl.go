package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/ticketprice/internal/clock"
	"github.com/smallbiznis/ticketprice/internal/config"
	eventdomain "github.com/smallbiznis/ticketprice/internal/event/domain"
	"github.com/smallbiznis/ticketprice/internal/observability/metrics"
	pricingdomain "github.com/smallbiznis/ticketprice/internal/pricing/domain"
	"github.com/smallbiznis/ticketprice/internal/pricing/engine"
	ruledomain "github.com/smallbiznis/ticketprice/internal/pricingrule/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const tracerName = "github.com/smallbiznis/ticketprice/internal/pricing"

type Params struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Events  eventdomain.Service
	Rules   pricingdomain.RuleStore
	Demand  pricingdomain.DemandSignalProvider
	Engine  *engine.Engine
	Config  *config.PricingConfigHolder `optional:"true"`
	Metrics *metrics.Metrics            `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	clock   clock.Clock
	events  eventdomain.Service
	rules   pricingdomain.RuleStore
	demand  pricingdomain.DemandSignalProvider
	engine  *engine.Engine
	config  *config.PricingConfigHolder
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func New(p Params) pricingdomain.Service {
	return &Service{
		log:     p.Log.Named("pricing.service"),
		clock:   p.Clock,
		events:  p.Events,
		rules:   p.Rules,
		demand:  p.Demand,
		engine:  p.Engine,
		config:  p.Config,
		metrics: p.Metrics,
		tracer:  otel.Tracer(tracerName),
	}
}

// snapshot is everything one computation reads, captured once per request.
type snapshot struct {
	event    *eventdomain.Event
	rules    []ruledomain.PricingRule
	pctx     pricingdomain.PricingContext
	degraded bool
	warnings []string
}

func (s *Service) Quote(ctx context.Context, eventID string) (*pricingdomain.QuoteResponse, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.Quote")
	defer span.End()
	started := time.Now()

	snap, err := s.snapshot(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.RecordQuote(ctx, "error", time.Since(started))
		return nil, err
	}

	quote := s.engineForRequest().Compose(snap.rules, snap.pctx)
	outcome := "priced"
	switch {
	case quote.FallbackReason != "":
		outcome = "fallback"
		s.metrics.RecordComputationFallback(ctx, quote.FallbackReason)
	case snap.degraded:
		outcome = "degraded"
	}

	span.SetAttributes(
		attribute.String("event.id", snap.event.ID.String()),
		attribute.Int("pricing.rules", len(snap.rules)),
		attribute.Int("pricing.applied_rules", len(quote.AppliedRules)),
		attribute.Float64("pricing.final_price", quote.FinalPrice),
		attribute.Bool("pricing.degraded", snap.degraded),
	)
	s.metrics.RecordQuote(ctx, outcome, time.Since(started))

	return &pricingdomain.QuoteResponse{
		EventID:     snap.event.ID,
		PriceQuote:  quote,
		Currency:    snap.event.Currency,
		DemandScore: snap.pctx.DemandScore,
		QuotedAt:    snap.pctx.Now,
		Degraded:    snap.degraded,
		Warnings:    snap.warnings,
	}, nil
}

func (s *Service) Forecast(ctx context.Context, eventID string) (*pricingdomain.ForecastResponse, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.Forecast")
	defer span.End()

	snap, err := s.snapshot(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	eng := s.engineForRequest()
	current := eng.Compose(snap.rules, snap.pctx)
	resp := &pricingdomain.ForecastResponse{
		EventID:      snap.event.ID,
		CurrentPrice: current.FinalPrice,
		Currency:     snap.event.Currency,
		ForecastedAt: snap.pctx.Now,
		Degraded:     snap.degraded,
		Warnings:     snap.warnings,
	}

	forecast := eng.Forecast(snap.rules, snap.pctx)
	s.metrics.RecordForecast(ctx, forecast != nil)
	span.SetAttributes(
		attribute.String("event.id", snap.event.ID.String()),
		attribute.Bool("pricing.has_change", forecast != nil),
	)
	if forecast == nil {
		return resp, nil
	}

	nextChangeAt := forecast.NextChangeAt
	projected := forecast.ProjectedPrice
	ruleID := forecast.RuleID
	ruleType := forecast.RuleType
	resp.NextChangeAt = &nextChangeAt
	resp.ProjectedPrice = &projected
	resp.Reason = forecast.Reason
	resp.RuleID = &ruleID
	resp.RuleType = &ruleType
	return resp, nil
}

// snapshot loads the event, the active rule list and the demand signal. Only
// event lookup failures are returned; rule store and demand failures degrade
// the result instead so a pricing outage never blocks a sale.
func (s *Service) snapshot(ctx context.Context, eventID string) (*snapshot, error) {
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, eventdomain.ErrInvalidID) || errors.Is(err, eventdomain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", pricingdomain.ErrEventUnavailable, err)
	}

	snap := &snapshot{
		event:    event,
		warnings: []string{},
		pctx: pricingdomain.PricingContext{
			Now:              s.clock.Now(),
			EventDateTime:    event.StartsAt,
			BasePrice:        event.BasePrice,
			CurrentAttendees: event.AttendeeCount,
			MaxAttendees:     event.Capacity,
		},
	}

	rules, err := s.rules.ListActiveRules(ctx, event.ID)
	if err != nil {
		s.log.Warn("pricing rules unavailable, quoting base price",
			zap.String("event_id", event.ID.String()),
			zap.Error(err),
		)
		s.metrics.RecordStoreUnavailable(ctx)
		snap.degraded = true
		snap.warnings = append(snap.warnings, pricingdomain.WarningRulesUnavailable)
		return snap, nil
	}
	snap.rules = rules

	if !hasRuleType(rules, ruledomain.Surge) {
		return snap, nil
	}

	score, err := s.demand.DemandScore(ctx, event.ID)
	if err != nil {
		source := s.pricingConfig().Demand.Source
		s.log.Warn("demand signal unavailable, using zero demand",
			zap.String("event_id", event.ID.String()),
			zap.String("source", source),
			zap.Error(err),
		)
		s.metrics.RecordDemandSignalFailure(ctx, source)
		snap.degraded = true
		snap.warnings = append(snap.warnings, pricingdomain.WarningDemandUnavailable)
		return snap, nil
	}
	snap.pctx.DemandScore = score
	return snap, nil
}

func (s *Service) engineForRequest() *engine.Engine {
	return s.engine.WithRoundingPlaces(s.pricingConfig().Pricing.RoundingPlaces)
}

func (s *Service) pricingConfig() config.PricingConfig {
	if s.config == nil {
		return config.DefaultPricingConfig()
	}
	return s.config.Get()
}

func hasRuleType(rules []ruledomain.PricingRule, ruleType ruledomain.RuleType) bool {
	for _, r := range rules {
		if r.RuleType == ruleType {
			return true
		}
	}
	return false
}
