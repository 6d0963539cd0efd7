package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	timeentrydomain "github.com/atelierlab/devisio/internal/timeentry/domain"
)

type repo struct{}

func Provide() timeentrydomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, e *timeentrydomain.TimeEntry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO time_entries (
			id, org_id, project_id, profile_name, category_name,
			description, entry_date, hours, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.OrgID,
		e.ProjectID,
		e.ProfileName,
		e.CategoryName,
		e.Description,
		e.EntryDate,
		e.Hours,
		e.CreatedAt,
		e.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*timeentrydomain.TimeEntry, error) {
	var e timeentrydomain.TimeEntry
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, project_id, profile_name, category_name,
		 description, entry_date, hours, created_at, updated_at
		 FROM time_entries WHERE org_id = ? AND id = ?`,
		orgID,
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

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter timeentrydomain.ListFilter) ([]timeentrydomain.TimeEntry, error) {
	query := `SELECT id, org_id, project_id, profile_name, category_name,
	 description, entry_date, hours, created_at, updated_at
	 FROM time_entries WHERE org_id = ?`
	args := []any{orgID}
	if filter.ProjectID != 0 {
		query += ` AND project_id = ?`
		args = append(args, filter.ProjectID)
	}
	if filter.ProfileName != "" {
		query += ` AND profile_name = ?`
		args = append(args, filter.ProfileName)
	}
	if filter.From != nil {
		query += ` AND entry_date >= ?`
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		query += ` AND entry_date < ?`
		args = append(args, *filter.To)
	}
	query += ` ORDER BY entry_date ASC, id ASC`

	var items []timeentrydomain.TimeEntry
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, e *timeentrydomain.TimeEntry) error {
	return db.WithContext(ctx).Exec(
		`UPDATE time_entries SET
			profile_name = ?, category_name = ?, description = ?,
			entry_date = ?, hours = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		e.ProfileName,
		e.CategoryName,
		e.Description,
		e.EntryDate,
		e.Hours,
		e.UpdatedAt,
		e.OrgID,
		e.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM time_entries WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Error
}
