package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	contractdomain "github.com/atelierlab/devisio/internal/contract/domain"
	financedomain "github.com/atelierlab/devisio/internal/finance/domain"
)

type repo struct{}

func Provide() financedomain.Repository {
	return &repo{}
}

func (r *repo) InsertSnapshot(ctx context.Context, db *gorm.DB, s *financedomain.Snapshot) error {
	return db.WithContext(ctx).Create(s).Error
}

func (r *repo) ListSnapshots(ctx context.Context, db *gorm.DB, orgID, projectID snowflake.ID) ([]financedomain.Snapshot, error) {
	var items []financedomain.Snapshot
	err := db.WithContext(ctx).
		Where("org_id = ? AND project_id = ?", orgID, projectID).
		Order("taken_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListSignedContracts(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]contractdomain.Contract, error) {
	var items []contractdomain.Contract
	err := db.WithContext(ctx).
		Preload("Profiles", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("status = ? AND id > ?", contractdomain.StatusSigned, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
