package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	messagedomain "github.com/atelierlab/devisio/internal/message/domain"
)

type repo struct{}

func Provide() messagedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, m *messagedomain.Message) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO messages (id, org_id, project_id, author, body, read_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.OrgID,
		m.ProjectID,
		m.Author,
		m.Body,
		m.ReadAt,
		m.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*messagedomain.Message, error) {
	var m messagedomain.Message
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, project_id, author, body, read_at, created_at
		 FROM messages WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *repo) ListByProject(ctx context.Context, db *gorm.DB, orgID, projectID snowflake.ID) ([]messagedomain.Message, error) {
	var items []messagedomain.Message
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, project_id, author, body, read_at, created_at
		 FROM messages WHERE org_id = ? AND project_id = ?
		 ORDER BY created_at ASC, id ASC`,
		orgID,
		projectID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE messages SET read_at = ? WHERE org_id = ? AND id = ? AND read_at IS NULL`,
		at,
		orgID,
		id,
	).Error
}
