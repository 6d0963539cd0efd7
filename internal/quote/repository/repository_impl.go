package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	quotedomain "github.com/atelierlab/devisio/internal/quote/domain"
)

type repo struct{}

func Provide() quotedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, q *quotedomain.Quote) error {
	// Create cascades into the child slices (profiles, abaques, the costing
	// tree and transverse levels) in one transaction.
	return db.WithContext(ctx).Create(q).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*quotedomain.Quote, error) {
	var q quotedomain.Quote
	err := withAggregate(db.WithContext(ctx)).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&q).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *repo) FindLatestAcceptedByProject(ctx context.Context, db *gorm.DB, orgID, projectID snowflake.ID) (*quotedomain.Quote, error) {
	var q quotedomain.Quote
	err := withAggregate(db.WithContext(ctx)).
		Where("org_id = ? AND project_id = ? AND status = ?", orgID, projectID, quotedomain.StatusAccepted).
		Order("accepted_at DESC").
		First(&q).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

// withAggregate preloads the full quote aggregate in display order.
func withAggregate(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Profiles", orderByPosition).
		Preload("Abaques").
		Preload("Categories", orderByPosition).
		Preload("Categories.Activities", orderByPosition).
		Preload("Categories.Activities.Components", orderByPosition).
		Preload("TransverseLevels", func(db *gorm.DB) *gorm.DB { return db.Order("level ASC") }).
		Preload("TransverseLevels.Activities", orderByPosition)
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter quotedomain.ListFilter) ([]quotedomain.Quote, error) {
	query := db.WithContext(ctx).Where("org_id = ?", orgID)
	if filter.ProjectID != 0 {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var items []quotedomain.Quote
	if err := query.Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Replace(ctx context.Context, db *gorm.DB, q *quotedomain.Quote) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.deleteChildren(tx, q.ID); err != nil {
			return err
		}

		err := tx.Model(&quotedomain.Quote{}).
			Where("id = ?", q.ID).
			Updates(map[string]any{
				"title":         q.Title,
				"validity_days": q.ValidityDays,
				"payment_terms": q.PaymentTerms,
				"notes":         q.Notes,
				"metadata":      q.Metadata,
				"updated_at":    q.UpdatedAt,
			}).Error
		if err != nil {
			return err
		}

		return r.insertChildren(tx, q)
	})
}

func (r *repo) deleteChildren(tx *gorm.DB, quoteID snowflake.ID) error {
	categoryIDs := tx.Table("quote_costing_categories").Select("id").Where("quote_id = ?", quoteID)
	activityIDs := tx.Table("quote_costing_activities").Select("id").Where("category_id IN (?)", categoryIDs)
	levelIDs := tx.Table("quote_transverse_levels").Select("id").Where("quote_id = ?", quoteID)

	if err := tx.Where("activity_id IN (?)", activityIDs).Delete(&quotedomain.CostingComponent{}).Error; err != nil {
		return err
	}
	if err := tx.Where("category_id IN (?)", categoryIDs).Delete(&quotedomain.CostingActivity{}).Error; err != nil {
		return err
	}
	if err := tx.Where("quote_id = ?", quoteID).Delete(&quotedomain.CostingCategory{}).Error; err != nil {
		return err
	}
	if err := tx.Where("level_id IN (?)", levelIDs).Delete(&quotedomain.TransverseActivity{}).Error; err != nil {
		return err
	}
	if err := tx.Where("quote_id = ?", quoteID).Delete(&quotedomain.TransverseLevel{}).Error; err != nil {
		return err
	}
	if err := tx.Where("quote_id = ?", quoteID).Delete(&quotedomain.AbaqueEntry{}).Error; err != nil {
		return err
	}
	return tx.Where("quote_id = ?", quoteID).Delete(&quotedomain.Profile{}).Error
}

func (r *repo) insertChildren(tx *gorm.DB, q *quotedomain.Quote) error {
	if len(q.Profiles) > 0 {
		if err := tx.Create(&q.Profiles).Error; err != nil {
			return err
		}
	}
	if len(q.Abaques) > 0 {
		if err := tx.Create(&q.Abaques).Error; err != nil {
			return err
		}
	}
	if len(q.Categories) > 0 {
		if err := tx.Create(&q.Categories).Error; err != nil {
			return err
		}
	}
	if len(q.TransverseLevels) > 0 {
		if err := tx.Create(&q.TransverseLevels).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, q *quotedomain.Quote) error {
	return db.WithContext(ctx).
		Model(&quotedomain.Quote{}).
		Where("org_id = ? AND id = ?", q.OrgID, q.ID).
		Updates(map[string]any{
			"status":      q.Status,
			"sent_at":     q.SentAt,
			"accepted_at": q.AcceptedAt,
			"rejected_at": q.RejectedAt,
			"expired_at":  q.ExpiredAt,
			"updated_at":  q.UpdatedAt,
		}).Error
}

func (r *repo) CountByProject(ctx context.Context, db *gorm.DB, orgID, projectID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&quotedomain.Quote{}).
		Where("org_id = ? AND project_id = ?", orgID, projectID).
		Count(&count).Error
	return count, err
}

func (r *repo) ListSentBefore(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]quotedomain.Quote, error) {
	// Coarse filter only: deadline is sent_at + validity_days, which varies
	// per row. The caller re-checks the exact deadline.
	var items []quotedomain.Quote
	err := db.WithContext(ctx).
		Where("status = ? AND sent_at IS NOT NULL AND sent_at <= ?", quotedomain.StatusSent, cutoff).
		Order("sent_at ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
