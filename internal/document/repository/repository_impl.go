package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	documentdomain "github.com/atelierlab/devisio/internal/document/domain"
)

type repo struct{}

func Provide() documentdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, d *documentdomain.Document) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO documents (
			id, org_id, project_id, file_name, content_type,
			size_bytes, object_key, uploaded_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID,
		d.OrgID,
		d.ProjectID,
		d.FileName,
		d.ContentType,
		d.SizeBytes,
		d.ObjectKey,
		d.UploadedBy,
		d.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*documentdomain.Document, error) {
	var d documentdomain.Document
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, project_id, file_name, content_type,
		 size_bytes, object_key, uploaded_by, created_at
		 FROM documents WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&d).Error
	if err != nil {
		return nil, err
	}
	if d.ID == 0 {
		return nil, nil
	}
	return &d, nil
}

func (r *repo) ListByProject(ctx context.Context, db *gorm.DB, orgID, projectID snowflake.ID) ([]documentdomain.Document, error) {
	var items []documentdomain.Document
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, project_id, file_name, content_type,
		 size_bytes, object_key, uploaded_by, created_at
		 FROM documents WHERE org_id = ? AND project_id = ?
		 ORDER BY created_at ASC, id ASC`,
		orgID,
		projectID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM documents WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Error
}
