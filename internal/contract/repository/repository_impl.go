package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	contractdomain "github.com/atelierlab/devisio/internal/contract/domain"
)

type repo struct{}

func Provide() contractdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, c *contractdomain.Contract) error {
	return db.WithContext(ctx).Create(c).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*contractdomain.Contract, error) {
	var c contractdomain.Contract
	err := db.WithContext(ctx).
		Preload("Profiles", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repo) FindSignedByProject(ctx context.Context, db *gorm.DB, orgID, projectID snowflake.ID) (*contractdomain.Contract, error) {
	var c contractdomain.Contract
	err := db.WithContext(ctx).
		Preload("Profiles", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("org_id = ? AND project_id = ? AND status = ?", orgID, projectID, contractdomain.StatusSigned).
		First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter contractdomain.ListFilter) ([]contractdomain.Contract, error) {
	query := db.WithContext(ctx).Where("org_id = ?", orgID)
	if filter.ProjectID != 0 {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var items []contractdomain.Contract
	if err := query.Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Replace(ctx context.Context, db *gorm.DB, c *contractdomain.Contract) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contract_id = ?", c.ID).Delete(&contractdomain.ContractProfile{}).Error; err != nil {
			return err
		}

		err := tx.Model(&contractdomain.Contract{}).
			Where("id = ?", c.ID).
			Updates(map[string]any{
				"type":          c.Type,
				"total_ht":      c.TotalHT,
				"total_ttc":     c.TotalTTC,
				"payment_terms": c.PaymentTerms,
				"notes":         c.Notes,
				"updated_at":    c.UpdatedAt,
			}).Error
		if err != nil {
			return err
		}

		if len(c.Profiles) > 0 {
			return tx.Create(&c.Profiles).Error
		}
		return nil
	})
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, c *contractdomain.Contract) error {
	return db.WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("org_id = ? AND id = ?", c.OrgID, c.ID).
		Updates(map[string]any{
			"status":       c.Status,
			"sent_at":      c.SentAt,
			"signed_at":    c.SignedAt,
			"cancelled_at": c.CancelledAt,
			"updated_at":   c.UpdatedAt,
		}).Error
}

func (r *repo) CountByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("org_id = ?", orgID).
		Count(&count).Error
	return count, err
}
