package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Document is stored metadata; the bytes live in a BlobStore under ObjectKey.
type Document struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID       snowflake.ID `json:"organization_id" gorm:"column:org_id;not null;index"`
	ProjectID   snowflake.ID `json:"project_id" gorm:"column:project_id;not null;index"`
	FileName    string       `json:"file_name" gorm:"type:text;not null"`
	ContentType string       `json:"content_type" gorm:"type:text;not null"`
	SizeBytes   int64        `json:"size_bytes" gorm:"not null;default:0"`
	ObjectKey   string       `json:"-" gorm:"type:text;not null;uniqueIndex"`
	UploadedBy  string       `json:"uploaded_by,omitempty" gorm:"type:text"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Document) TableName() string { return "documents" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, document *Document) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Document, error)
	ListByProject(ctx context.Context, db *gorm.DB, orgID, projectID snowflake.ID) ([]Document, error)
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}

// BlobStore is the byte-level storage behind documents. The filesystem
// implementation is the default; an S3-compatible one satisfies the same
// interface.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type Service interface {
	Upload(ctx context.Context, req UploadRequest) (*Response, error)
	Download(ctx context.Context, id string) (*Response, io.ReadCloser, error)
	List(ctx context.Context, projectID string) ([]Response, error)
	Delete(ctx context.Context, id string) error
}

type UploadRequest struct {
	ProjectID   string
	FileName    string
	ContentType string
	Content     io.Reader
}

type Response struct {
	ID          snowflake.ID `json:"id"`
	OrgID       snowflake.ID `json:"organization_id"`
	ProjectID   snowflake.ID `json:"project_id"`
	FileName    string       `json:"file_name"`
	ContentType string       `json:"content_type"`
	SizeBytes   int64        `json:"size_bytes"`
	UploadedBy  string       `json:"uploaded_by,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidProject      = errors.New("invalid_project")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidFileName     = errors.New("invalid_file_name")
	ErrEmptyContent        = errors.New("empty_content")
	ErrNotFound            = errors.New("not_found")
)
