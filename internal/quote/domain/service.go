package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/atelierlab/devisio/internal/quote/costing"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Send(ctx context.Context, id string) (*Response, error)
	Accept(ctx context.Context, id string) (*Response, error)
	Reject(ctx context.Context, id string) (*Response, error)
	// NewVersion deep-copies a quote into a fresh draft with version+1.
	NewVersion(ctx context.Context, id string) (*Response, error)
	// Totals recomputes the costing engine output for one quote.
	Totals(ctx context.Context, id string) (*TotalsResponse, error)
	// ExpireDue flips sent quotes past their validity window to expired.
	// Returns how many quotes were expired.
	ExpireDue(ctx context.Context, batchSize int) (int, error)
}

type ProfileInput struct {
	Name      string  `json:"name"`
	DailyRate float64 `json:"daily_rate"`
}

type AbaqueInput struct {
	ComponentName string  `json:"component_name"`
	ProfileName   string  `json:"profile_name"`
	DaysTS        float64 `json:"days_ts"`
	DaysS         float64 `json:"days_s"`
	DaysM         float64 `json:"days_m"`
	DaysC         float64 `json:"days_c"`
	DaysTC        float64 `json:"days_tc"`
}

type ComponentInput struct {
	ComponentName string `json:"component_name"`
	Complexity    string `json:"complexity"`
	// Coefficient defaults to 1 when omitted; an explicit 0 zeroes the
	// component out.
	Coefficient *float64 `json:"coefficient"`
}

type ActivityInput struct {
	Name       string           `json:"name"`
	Active     *bool            `json:"active"`
	Components []ComponentInput `json:"components"`
}

type CategoryInput struct {
	Name       string          `json:"name"`
	Activities []ActivityInput `json:"activities"`
}

type TransverseActivityInput struct {
	Name        string  `json:"name"`
	ProfileName string  `json:"profile_name"`
	Kind        string  `json:"kind"`
	Value       float64 `json:"value"`
}

type TransverseLevelInput struct {
	Level      int32                     `json:"level"`
	Activities []TransverseActivityInput `json:"activities"`
}

type CreateRequest struct {
	ProjectID        string                 `json:"project_id"`
	Title            string                 `json:"title"`
	ValidityDays     *int32                 `json:"validity_days"`
	PaymentTerms     string                 `json:"payment_terms"`
	Notes            string                 `json:"notes"`
	Profiles         []ProfileInput         `json:"profiles"`
	Abaques          []AbaqueInput          `json:"abaques"`
	Categories       []CategoryInput        `json:"categories"`
	TransverseLevels []TransverseLevelInput `json:"transverse_levels"`
	Metadata         map[string]any         `json:"metadata"`
}

// UpdateRequest replaces the whole editable surface of a draft quote.
type UpdateRequest struct {
	Title            string                 `json:"title"`
	ValidityDays     *int32                 `json:"validity_days"`
	PaymentTerms     string                 `json:"payment_terms"`
	Notes            string                 `json:"notes"`
	Profiles         []ProfileInput         `json:"profiles"`
	Abaques          []AbaqueInput          `json:"abaques"`
	Categories       []CategoryInput        `json:"categories"`
	TransverseLevels []TransverseLevelInput `json:"transverse_levels"`
	Metadata         map[string]any         `json:"metadata"`
}

type ListRequest struct {
	ProjectID string `form:"project_id"`
	Status    string `form:"status"`
}

type Response struct {
	ID           snowflake.ID      `json:"id"`
	OrgID        snowflake.ID      `json:"organization_id"`
	ProjectID    snowflake.ID      `json:"project_id"`
	Number       string            `json:"number"`
	Title        string            `json:"title"`
	Status       Status            `json:"status"`
	Version      int32             `json:"version"`
	ParentID     *snowflake.ID     `json:"parent_id,omitempty"`
	ValidityDays int32             `json:"validity_days"`
	ExpiresAt    *time.Time        `json:"expires_at,omitempty"`
	PaymentTerms string            `json:"payment_terms,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	Profiles     []Profile         `json:"profiles"`
	Abaques      []AbaqueEntry     `json:"abaques"`
	Categories   []CostingCategory `json:"categories"`
	Transverse   []TransverseLevel `json:"transverse_levels"`
	Totals       costing.Totals    `json:"totals"`
	Warnings     []string          `json:"warnings,omitempty"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	AcceptedAt   *time.Time        `json:"accepted_at,omitempty"`
	RejectedAt   *time.Time        `json:"rejected_at,omitempty"`
	ExpiredAt    *time.Time        `json:"expired_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type TotalsResponse struct {
	QuoteID  snowflake.ID   `json:"quote_id"`
	Totals   costing.Totals `json:"totals"`
	Warnings []string       `json:"warnings,omitempty"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidProject      = errors.New("invalid_project")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidTitle        = errors.New("invalid_title")
	ErrInvalidValidityDays = errors.New("invalid_validity_days")
	ErrInvalidProfile      = errors.New("invalid_profile")
	ErrInvalidDailyRate    = errors.New("invalid_daily_rate")
	ErrInvalidAbaque       = errors.New("invalid_abaque")
	ErrInvalidComplexity   = errors.New("invalid_complexity")
	ErrInvalidCoefficient  = errors.New("invalid_coefficient")
	ErrInvalidTransverse   = errors.New("invalid_transverse")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrNotDraft            = errors.New("quote_not_draft")
	ErrNotSent             = errors.New("quote_not_sent")
	ErrNotFound            = errors.New("not_found")
)

// ParseStatus validates a status filter value.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusExpired:
		return Status(value), nil
	default:
		return "", ErrInvalidStatus
	}
}

// ExpiresAt returns the end of the validity window for a sent quote,
// or nil while the quote is still a draft.
func (q *Quote) ExpiresAt() *time.Time {
	if q.SentAt == nil {
		return nil
	}
	deadline := q.SentAt.AddDate(0, 0, int(q.ValidityDays))
	return &deadline
}
