package service

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/ticketprice/internal/clock"
	eventdomain "github.com/smallbiznis/ticketprice/internal/event/domain"
	"github.com/smallbiznis/ticketprice/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxRegistrationQuantity = 100

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     eventdomain.Repository
	Recorder eventdomain.PurchaseRecorder `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     eventdomain.Repository
	recorder eventdomain.PurchaseRecorder
}

func New(p Params) eventdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("event.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		recorder: p.Recorder,
	}
}

func (s *Service) Create(ctx context.Context, req eventdomain.CreateRequest) (*eventdomain.Event, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, eventdomain.ErrInvalidName
	}
	if req.StartsAt.IsZero() {
		return nil, eventdomain.ErrInvalidStartsAt
	}
	if math.IsNaN(req.BasePrice) || math.IsInf(req.BasePrice, 0) || req.BasePrice < 0 {
		return nil, eventdomain.ErrInvalidBasePrice
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}
	if !currencyPattern.MatchString(currency) {
		return nil, eventdomain.ErrInvalidCurrency
	}
	if req.Capacity < 0 || req.Capacity > eventdomain.MaxCapacity {
		return nil, eventdomain.ErrInvalidCapacity
	}

	id := s.genID.Generate()
	eventSlug, err := s.resolveSlug(ctx, id, name, req.Slug)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	entity := &eventdomain.Event{
		ID:        id,
		Name:      name,
		Slug:      eventSlug,
		StartsAt:  req.StartsAt.UTC(),
		BasePrice: req.BasePrice,
		Currency:  currency,
		Capacity:  req.Capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Metadata != nil {
		entity.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, eventdomain.ErrSlugTaken
		}
		return nil, err
	}

	s.log.Info("event created",
		zap.String("event_id", id.String()),
		zap.String("slug", eventSlug),
		zap.Time("starts_at", entity.StartsAt),
	)
	return entity, nil
}

// resolveSlug keeps an explicit slug verbatim and fails when it is taken. A
// derived slug gets the event id appended on collision.
func (s *Service) resolveSlug(ctx context.Context, id snowflake.ID, name, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested != "" {
		if !slug.IsSlug(requested) {
			return "", eventdomain.ErrInvalidSlug
		}
		taken, err := s.repo.SlugExists(ctx, s.db, requested)
		if err != nil {
			return "", err
		}
		if taken {
			return "", eventdomain.ErrSlugTaken
		}
		return requested, nil
	}

	derived := slug.Make(name)
	if derived == "" {
		return id.String(), nil
	}
	taken, err := s.repo.SlugExists(ctx, s.db, derived)
	if err != nil {
		return "", err
	}
	if taken {
		return derived + "-" + id.String(), nil
	}
	return derived, nil
}

func (s *Service) Get(ctx context.Context, id string) (*eventdomain.Event, error) {
	eventID, err := parseID(id)
	if err != nil {
		return nil, eventdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, eventID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, eventdomain.ErrNotFound
	}
	return entity, nil
}

// Register adds attendees under a row lock so concurrent purchases cannot
// push the count past capacity.
func (s *Service) Register(ctx context.Context, id string, req eventdomain.RegisterRequest) (*eventdomain.Registration, error) {
	eventID, err := parseID(id)
	if err != nil {
		return nil, eventdomain.ErrInvalidID
	}
	if req.Quantity <= 0 || req.Quantity > maxRegistrationQuantity {
		return nil, eventdomain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	var registration *eventdomain.Registration
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entity, err := s.repo.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if entity == nil {
			return eventdomain.ErrNotFound
		}
		if !now.Before(entity.StartsAt) {
			return eventdomain.ErrEventStarted
		}
		if remaining := entity.Remaining(); remaining >= 0 && req.Quantity > remaining {
			return eventdomain.ErrEventFull
		}
		if err := s.repo.AddAttendees(ctx, tx, eventID, req.Quantity); err != nil {
			return err
		}

		registration = &eventdomain.Registration{
			EventID:       eventID,
			Quantity:      req.Quantity,
			AttendeeCount: entity.AttendeeCount + req.Quantity,
			Capacity:      entity.Capacity,
			RegisteredAt:  now,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, eventdomain.ErrEventFull) {
			s.log.Info("registration rejected: event full", zap.String("event_id", eventID.String()))
		}
		return nil, err
	}

	if s.recorder != nil {
		if err := s.recorder.RecordPurchase(ctx, eventID, req.Quantity, now); err != nil {
			s.log.Warn("failed to record purchase for demand signal",
				zap.String("event_id", eventID.String()),
				zap.Error(err),
			)
		}
	}

	return registration, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, eventdomain.ErrInvalidID
	}
	return id, nil
}
