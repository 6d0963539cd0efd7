package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	contractdomain "github.com/atelierlab/devisio/internal/contract/domain"
)

type Repository interface {
	InsertSnapshot(ctx context.Context, db *gorm.DB, snapshot *Snapshot) error
	ListSnapshots(ctx context.Context, db *gorm.DB, orgID, projectID snowflake.ID) ([]Snapshot, error)
	// ListSignedContracts pages through all signed contracts, across
	// organizations, for the periodic snapshot sweep.
	ListSignedContracts(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]contractdomain.Contract, error)
}
