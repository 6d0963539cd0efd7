package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, client *Client) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Client, error)
	FindBySlug(ctx context.Context, db *gorm.DB, orgID snowflake.ID, slug string) (*Client, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, includeArchived bool) ([]Client, error)
	Update(ctx context.Context, db *gorm.DB, client *Client) error
}
