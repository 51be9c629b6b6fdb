package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *Event) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Event, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Event, error)
	SlugExists(ctx context.Context, db *gorm.DB, slug string) (bool, error)
	AddAttendees(ctx context.Context, tx *gorm.DB, id snowflake.ID, quantity int) error
}
