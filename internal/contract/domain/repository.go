package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, contract *Contract) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Contract, error)
	// FindSignedByProject returns the signed contract for a project, if any.
	// A project carries at most one signed contract at a time.
	FindSignedByProject(ctx context.Context, db *gorm.DB, orgID, projectID snowflake.ID) (*Contract, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter) ([]Contract, error)
	Replace(ctx context.Context, db *gorm.DB, contract *Contract) error
	UpdateStatus(ctx context.Context, db *gorm.DB, contract *Contract) error
	CountByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error)
}

type ListFilter struct {
	ProjectID snowflake.ID
	Status    Status
}
