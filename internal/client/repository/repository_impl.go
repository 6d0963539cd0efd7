package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	clientdomain "github.com/atelierlab/devisio/internal/client/domain"
)

const clientColumns = `id, org_id, name, slug, company_name, email, phone,
 address, notes, archived, metadata, created_at, updated_at`

type repo struct{}

func Provide() clientdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, c *clientdomain.Client) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO clients (
			id, org_id, name, slug, company_name, email, phone,
			address, notes, archived, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.OrgID,
		c.Name,
		c.Slug,
		c.CompanyName,
		c.Email,
		c.Phone,
		c.Address,
		c.Notes,
		c.Archived,
		c.Metadata,
		c.CreatedAt,
		c.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*clientdomain.Client, error) {
	var c clientdomain.Client
	err := db.WithContext(ctx).Raw(
		`SELECT `+clientColumns+` FROM clients WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, orgID snowflake.ID, slug string) (*clientdomain.Client, error) {
	var c clientdomain.Client
	err := db.WithContext(ctx).Raw(
		`SELECT `+clientColumns+` FROM clients WHERE org_id = ? AND slug = ?`,
		orgID,
		slug,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, includeArchived bool) ([]clientdomain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE org_id = ?`
	if !includeArchived {
		query += ` AND archived = ?`
	}
	query += ` ORDER BY name ASC`

	args := []any{orgID}
	if !includeArchived {
		args = append(args, false)
	}

	var items []clientdomain.Client
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, c *clientdomain.Client) error {
	return db.WithContext(ctx).Exec(
		`UPDATE clients SET
			name = ?, company_name = ?, email = ?, phone = ?,
			address = ?, notes = ?, archived = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		c.Name,
		c.CompanyName,
		c.Email,
		c.Phone,
		c.Address,
		c.Notes,
		c.Archived,
		c.UpdatedAt,
		c.OrgID,
		c.ID,
	).Error
}
