package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	ProjectID    string    `json:"project_id"`
	ProfileName  string    `json:"profile_name"`
	CategoryName string    `json:"category_name"`
	Description  string    `json:"description"`
	EntryDate    time.Time `json:"entry_date"`
	Hours        float64   `json:"hours"`
}

type UpdateRequest struct {
	ProfileName  *string    `json:"profile_name"`
	CategoryName *string    `json:"category_name"`
	Description  *string    `json:"description"`
	EntryDate    *time.Time `json:"entry_date"`
	Hours        *float64   `json:"hours"`
}

type ListRequest struct {
	ProjectID   string `form:"project_id"`
	ProfileName string `form:"profile_name"`
	From        string `form:"from"`
	To          string `form:"to"`
}

type Response struct {
	ID           snowflake.ID `json:"id"`
	OrgID        snowflake.ID `json:"organization_id"`
	ProjectID    snowflake.ID `json:"project_id"`
	EngineerID   string       `json:"engineer_id,omitempty"`
	ProfileName  string       `json:"profile_name"`
	CategoryName string       `json:"category_name,omitempty"`
	Description  string       `json:"description,omitempty"`
	EntryDate    time.Time    `json:"entry_date"`
	Hours        float64      `json:"hours"`
	Days         float64      `json:"days"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidProject      = errors.New("invalid_project")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidProfile      = errors.New("invalid_profile")
	ErrInvalidHours        = errors.New("invalid_hours")
	ErrInvalidDate         = errors.New("invalid_date")
	ErrInvalidDateRange    = errors.New("invalid_date_range")
	ErrNotFound            = errors.New("not_found")
)
