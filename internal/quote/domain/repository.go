package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, quote *Quote) error
	// FindByID loads the full aggregate (profiles, abaques, costing tree,
	// transverse levels). Returns nil when no row matches.
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Quote, error)
	// FindLatestAcceptedByProject loads the most recently accepted quote for
	// a project, full aggregate, or nil when the project has none.
	FindLatestAcceptedByProject(ctx context.Context, db *gorm.DB, orgID, projectID snowflake.ID) (*Quote, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter) ([]Quote, error)
	// Replace rewrites the aggregate in place: header update plus delete and
	// re-insert of all child rows, inside one transaction.
	Replace(ctx context.Context, db *gorm.DB, quote *Quote) error
	UpdateStatus(ctx context.Context, db *gorm.DB, quote *Quote) error
	CountByProject(ctx context.Context, db *gorm.DB, orgID, projectID snowflake.ID) (int64, error)
	// ListSentBefore returns sent quotes whose validity window closed before
	// the cutoff, for the expiry sweep.
	ListSentBefore(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]Quote, error)
}

type ListFilter struct {
	ProjectID snowflake.ID
	Status    Status
}
