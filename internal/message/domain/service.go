package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, message *Message) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Message, error)
	ListByProject(ctx context.Context, db *gorm.DB, orgID, projectID snowflake.ID) ([]Message, error)
	MarkRead(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, at time.Time) error
}

type Service interface {
	Post(ctx context.Context, req PostRequest) (*Response, error)
	List(ctx context.Context, projectID string) ([]Response, error)
	MarkRead(ctx context.Context, id string) (*Response, error)
}

// Notifier fans a posted message out to whatever channels are wired in
// (mail, webhooks). Failures are logged, never surfaced to the poster.
type Notifier interface {
	MessagePosted(ctx context.Context, message Message)
}

type PostRequest struct {
	ProjectID string `json:"project_id"`
	Body      string `json:"body"`
}

type Response struct {
	ID        snowflake.ID `json:"id"`
	OrgID     snowflake.ID `json:"organization_id"`
	ProjectID snowflake.ID `json:"project_id"`
	Author    string       `json:"author"`
	Body      string       `json:"body"`
	ReadAt    *time.Time   `json:"read_at,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidProject      = errors.New("invalid_project")
	ErrInvalidID           = errors.New("invalid_id")
	ErrEmptyBody           = errors.New("empty_body")
	ErrBodyTooLong         = errors.New("body_too_long")
	ErrRateLimited         = errors.New("rate_limited")
	ErrNotFound            = errors.New("not_found")
)
