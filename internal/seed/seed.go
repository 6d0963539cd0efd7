package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const (
	defaultWorkspaceName = "Main"
	defaultWorkspaceSlug = "main"
)

// Workspace is the tenant boundary. Every row in the system carries a
// workspace id (org_id); identities are managed externally and arrive
// with their workspace in the bearer token.
type Workspace struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Slug      string       `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Workspace) TableName() string { return "workspaces" }

// EnsureMainWorkspace seeds the default workspace for startup bootstrap.
func EnsureMainWorkspace(db *gorm.DB) error {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}
	return ensureWorkspace(db, node.Generate())
}

// EnsureMainWorkspaceWithID seeds the default workspace under a fixed id,
// so DEFAULT_ORG and the seeded row agree.
func EnsureMainWorkspaceWithID(db *gorm.DB, id int64) error {
	return ensureWorkspace(db, snowflake.ID(id))
}

func ensureWorkspace(db *gorm.DB, id snowflake.ID) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if id == 0 {
		return errors.New("seed workspace id is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Workspace
		err := tx.WithContext(ctx).
			Where("slug = ?", defaultWorkspaceSlug).
			First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		workspace := Workspace{
			ID:        id,
			Name:      defaultWorkspaceName,
			Slug:      defaultWorkspaceSlug,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.WithContext(ctx).Create(&workspace).Error
	})
}
