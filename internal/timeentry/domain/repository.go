package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *TimeEntry) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*TimeEntry, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter) ([]TimeEntry, error)
	Update(ctx context.Context, db *gorm.DB, entry *TimeEntry) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}

type ListFilter struct {
	ProjectID   snowflake.ID
	ProfileName string
	From        *time.Time
	To          *time.Time
}
