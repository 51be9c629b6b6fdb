package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Event, error)
	Get(ctx context.Context, id string) (*Event, error)
	Register(ctx context.Context, id string, req RegisterRequest) (*Registration, error)
}

type CreateRequest struct {
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	StartsAt  time.Time      `json:"starts_at"`
	BasePrice float64        `json:"base_price"`
	Currency  string         `json:"currency"`
	Capacity  int            `json:"capacity"`
	Metadata  map[string]any `json:"metadata"`
}

type RegisterRequest struct {
	Quantity int `json:"quantity"`
}

type Registration struct {
	EventID       snowflake.ID `json:"event_id"`
	Quantity      int          `json:"quantity"`
	AttendeeCount int          `json:"attendee_count"`
	Capacity      int          `json:"capacity"`
	RegisteredAt  time.Time    `json:"registered_at"`
}

// PurchaseRecorder receives every successful registration. The demand
// tracker implements it to feed surge pricing.
type PurchaseRecorder interface {
	RecordPurchase(ctx context.Context, eventID snowflake.ID, quantity int, at time.Time) error
}

const MaxCapacity = 1_000_000

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidSlug      = errors.New("invalid_slug")
	ErrInvalidStartsAt  = errors.New("invalid_starts_at")
	ErrInvalidBasePrice = errors.New("invalid_base_price")
	ErrInvalidCurrency  = errors.New("invalid_currency")
	ErrInvalidCapacity  = errors.New("invalid_capacity")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrSlugTaken        = errors.New("slug_taken")
	ErrEventFull        = errors.New("event_full")
	ErrEventStarted     = errors.New("event_started")
	ErrNotFound         = errors.New("event_not_found")
)
