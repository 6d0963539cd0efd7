package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	projectdomain "github.com/atelierlab/devisio/internal/project/domain"
)

type repo struct{}

func Provide() projectdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *projectdomain.Project) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO projects (
			id, org_id, client_id, name, description, status,
			start_date, end_date, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.OrgID,
		p.ClientID,
		p.Name,
		p.Description,
		p.Status,
		p.StartDate,
		p.EndDate,
		p.Metadata,
		p.CreatedAt,
		p.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*projectdomain.Project, error) {
	var p projectdomain.Project
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, client_id, name, description, status,
		 start_date, end_date, metadata, created_at, updated_at
		 FROM projects WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter projectdomain.ListFilter) ([]projectdomain.Project, error) {
	query := `SELECT id, org_id, client_id, name, description, status,
	 start_date, end_date, metadata, created_at, updated_at
	 FROM projects WHERE org_id = ?`
	args := []any{orgID}
	if filter.ClientID != 0 {
		query += ` AND client_id = ?`
		args = append(args, filter.ClientID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at ASC`

	var items []projectdomain.Project
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, p *projectdomain.Project) error {
	return db.WithContext(ctx).Exec(
		`UPDATE projects SET
			name = ?, description = ?, status = ?,
			start_date = ?, end_date = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		p.Name,
		p.Description,
		p.Status,
		p.StartDate,
		p.EndDate,
		p.UpdatedAt,
		p.OrgID,
		p.ID,
	).Error
}
