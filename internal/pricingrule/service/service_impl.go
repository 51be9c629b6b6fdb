package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ticketprice/internal/clock"
	eventdomain "github.com/smallbiznis/ticketprice/internal/event/domain"
	"github.com/smallbiznis/ticketprice/internal/observability/metrics"
	ruledomain "github.com/smallbiznis/ticketprice/internal/pricingrule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      ruledomain.Repository
	EventRepo eventdomain.Repository
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      ruledomain.Repository
	eventRepo eventdomain.Repository
	metrics   *metrics.Metrics
}

func New(p Params) ruledomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("pricingrule.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		eventRepo: p.EventRepo,
		metrics:   p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, eventID string, req ruledomain.CreateRequest) (*ruledomain.PricingRule, error) {
	evID, err := s.requireEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if req.ThresholdValue == nil {
		return nil, &ruledomain.ValidationError{Field: "threshold_value", Reason: "is required"}
	}
	if req.PriceMultiplier == nil {
		return nil, &ruledomain.ValidationError{Field: "price_multiplier", Reason: "is required"}
	}
	ruleType, ok := ruledomain.ParseRuleType(req.RuleType)
	if !ok {
		return nil, &ruledomain.ValidationError{Field: "rule_type", Reason: "must be one of EARLY_BIRD, SURGE, CAPACITY_BASED, TIME_DECAY"}
	}

	position := 0
	if req.Position != nil {
		position = *req.Position
	} else {
		count, err := s.repo.Count(ctx, s.db, evID)
		if err != nil {
			return nil, err
		}
		position = int(count)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	rule := ruledomain.PricingRule{
		EventID:         evID,
		RuleType:        ruleType,
		ThresholdValue:  *req.ThresholdValue,
		PriceMultiplier: *req.PriceMultiplier,
		IsActive:        active,
		MinPrice:        req.MinPrice,
		MaxPrice:        req.MaxPrice,
		Description:     strings.TrimSpace(req.Description),
		Position:        position,
	}
	if req.Metadata != nil {
		rule.Metadata = datatypes.JSONMap(req.Metadata)
	}

	return s.write(ctx, rule, "create")
}

// Update merges the supplied fields onto the stored rule and writes the full
// record back. Concurrent updates are last-writer-wins.
func (s *Service) Update(ctx context.Context, eventID, ruleID string, req ruledomain.UpdateRequest) (*ruledomain.PricingRule, error) {
	evID, err := s.requireEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	id, err := parseID(ruleID)
	if err != nil {
		return nil, ruledomain.ErrInvalidID
	}

	current, err := s.repo.FindByID(ctx, s.db, evID, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ruledomain.ErrNotFound
	}

	merged := *current
	if req.RuleType != nil {
		ruleType, ok := ruledomain.ParseRuleType(*req.RuleType)
		if !ok {
			return nil, &ruledomain.ValidationError{Field: "rule_type", Reason: "must be one of EARLY_BIRD, SURGE, CAPACITY_BASED, TIME_DECAY"}
		}
		merged.RuleType = ruleType
	}
	if req.ThresholdValue != nil {
		merged.ThresholdValue = *req.ThresholdValue
	}
	if req.PriceMultiplier != nil {
		merged.PriceMultiplier = *req.PriceMultiplier
	}
	if req.IsActive != nil {
		merged.IsActive = *req.IsActive
	}
	if req.MinPrice.Set {
		merged.MinPrice = req.MinPrice.Value
	}
	if req.MaxPrice.Set {
		merged.MaxPrice = req.MaxPrice.Value
	}
	if req.Description != nil {
		merged.Description = strings.TrimSpace(*req.Description)
	}
	if req.Position != nil {
		merged.Position = *req.Position
	}
	if req.Metadata != nil {
		merged.Metadata = datatypes.JSONMap(req.Metadata)
	}

	return s.write(ctx, merged, "update")
}

func (s *Service) Get(ctx context.Context, eventID, ruleID string) (*ruledomain.PricingRule, error) {
	evID, err := parseID(eventID)
	if err != nil {
		return nil, ruledomain.ErrInvalidEvent
	}
	id, err := parseID(ruleID)
	if err != nil {
		return nil, ruledomain.ErrInvalidID
	}

	rule, err := s.repo.FindByID(ctx, s.db, evID, id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ruledomain.ErrNotFound
	}
	return rule, nil
}

func (s *Service) List(ctx context.Context, eventID string) ([]ruledomain.PricingRule, error) {
	evID, err := s.requireEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, s.db, evID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []ruledomain.PricingRule{}
	}
	return items, nil
}

func (s *Service) Delete(ctx context.Context, eventID, ruleID string) error {
	evID, err := parseID(eventID)
	if err != nil {
		return ruledomain.ErrInvalidEvent
	}
	id, err := parseID(ruleID)
	if err != nil {
		return ruledomain.ErrInvalidID
	}

	affected, err := s.repo.Delete(ctx, s.db, evID, id)
	if err != nil {
		s.metrics.RecordRuleWrite(ctx, "delete", "error")
		return err
	}
	if affected == 0 {
		return ruledomain.ErrNotFound
	}

	s.metrics.RecordRuleWrite(ctx, "delete", "ok")
	s.log.Info("pricing rule deleted",
		zap.String("event_id", evID.String()),
		zap.String("rule_id", id.String()),
	)
	return nil
}

// ListActiveRules returns the enabled rules for an event in composition
// order. Any read failure is reported as ErrStoreUnavailable.
func (s *Service) ListActiveRules(ctx context.Context, eventID snowflake.ID) ([]ruledomain.PricingRule, error) {
	items, err := s.repo.ListActive(ctx, s.db, eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ruledomain.ErrStoreUnavailable, err)
	}
	return items, nil
}

// UpsertRule validates and writes a complete rule. A zero ID creates a new
// rule; a non-zero ID must name an existing rule of the same event. Nothing is
// persisted when validation fails.
func (s *Service) UpsertRule(ctx context.Context, rule ruledomain.PricingRule) (*ruledomain.PricingRule, error) {
	if rule.ID == 0 {
		return s.write(ctx, rule, "create")
	}

	existing, err := s.repo.FindByID(ctx, s.db, rule.EventID, rule.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		s.metrics.RecordRuleWrite(ctx, "update", "not_found")
		return nil, ruledomain.ErrNotFound
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = existing.CreatedAt
	}
	return s.write(ctx, rule, "update")
}

func (s *Service) write(ctx context.Context, rule ruledomain.PricingRule, operation string) (*ruledomain.PricingRule, error) {
	if ruleType, ok := ruledomain.ParseRuleType(string(rule.RuleType)); ok {
		rule.RuleType = ruleType
	}
	if err := ruledomain.Validate(&rule); err != nil {
		s.metrics.RecordRuleWrite(ctx, operation, "invalid")
		return nil, err
	}

	now := s.clock.Now()
	if rule.ID == 0 {
		rule.ID = s.genID.Generate()
		rule.CreatedAt = now
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	if err := s.repo.Upsert(ctx, s.db, &rule); err != nil {
		s.metrics.RecordRuleWrite(ctx, operation, "error")
		return nil, err
	}

	s.metrics.RecordRuleWrite(ctx, operation, "ok")
	s.log.Info("pricing rule written",
		zap.String("operation", operation),
		zap.String("event_id", rule.EventID.String()),
		zap.String("rule_id", rule.ID.String()),
		zap.String("rule_type", string(rule.RuleType)),
	)
	return &rule, nil
}

func (s *Service) requireEvent(ctx context.Context, eventID string) (snowflake.ID, error) {
	evID, err := parseID(eventID)
	if err != nil {
		return 0, ruledomain.ErrInvalidEvent
	}
	event, err := s.eventRepo.FindByID(ctx, s.db, evID)
	if err != nil {
		return 0, err
	}
	if event == nil {
		return 0, ruledomain.ErrEventNotFound
	}
	return evID, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errors.New("id must be positive")
	}
	return id, nil
}
