package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	eventdomain "github.com/smallbiznis/ticketprice/internal/event/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() eventdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, e *eventdomain.Event) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO events (
			id, name, slug, starts_at, base_price, currency, capacity,
			attendee_count, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Name,
		e.Slug,
		e.StartsAt,
		e.BasePrice,
		e.Currency,
		e.Capacity,
		e.AttendeeCount,
		e.Metadata,
		e.CreatedAt,
		e.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*eventdomain.Event, error) {
	var e eventdomain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, starts_at, base_price, currency, capacity,
		 attendee_count, metadata, created_at, updated_at
		 FROM events WHERE id = ?`,
		id,
	).Scan(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

// FindByIDForUpdate locks the event row for the rest of tx. Dialects without
// row locks (sqlite) drop the locking clause.
func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*eventdomain.Event, error) {
	var e eventdomain.Event
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repo) SlugExists(ctx context.Context, db *gorm.DB, slug string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM events WHERE slug = ?`,
		slug,
	).Scan(&count).Error
	return count > 0, err
}

func (r *repo) AddAttendees(ctx context.Context, tx *gorm.DB, id snowflake.ID, quantity int) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE events SET attendee_count = attendee_count + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		quantity,
		id,
	).Error
}
