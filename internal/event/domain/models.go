package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Event is the slice of an event record the pricing flow reads. Capacity 0
// means the venue is unbounded.
type Event struct {
	ID            snowflake.ID      `json:"id" gorm:"primaryKey"`
	Name          string            `json:"name" gorm:"type:text;not null"`
	Slug          string            `json:"slug" gorm:"type:text;not null;uniqueIndex:ux_events_slug"`
	StartsAt      time.Time         `json:"starts_at" gorm:"not null"`
	BasePrice     float64           `json:"base_price" gorm:"not null"`
	Currency      string            `json:"currency" gorm:"type:text;not null"`
	Capacity      int               `json:"capacity" gorm:"not null"`
	AttendeeCount int               `json:"attendee_count" gorm:"not null"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Event) TableName() string { return "events" }

// Remaining returns the seats left, or -1 when capacity is unbounded.
func (e Event) Remaining() int {
	if e.Capacity <= 0 {
		return -1
	}
	if e.AttendeeCount >= e.Capacity {
		return 0
	}
	return e.Capacity - e.AttendeeCount
}
