package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	// CreateFromQuote seeds a contract from an accepted quote: profiles,
	// budgeted days and totals all come from the quote's costing output.
	CreateFromQuote(ctx context.Context, quoteID string, req FromQuoteRequest) (*Response, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Send(ctx context.Context, id string) (*Response, error)
	Sign(ctx context.Context, id string) (*Response, error)
	Cancel(ctx context.Context, id string) (*Response, error)
}

type ProfileInput struct {
	Name       string  `json:"name"`
	DailyRate  float64 `json:"daily_rate"`
	BudgetDays float64 `json:"budget_days"`
}

type CreateRequest struct {
	ProjectID    string         `json:"project_id"`
	Type         string         `json:"type"`
	TotalHT      float64        `json:"total_ht"`
	PaymentTerms string         `json:"payment_terms"`
	Notes        string         `json:"notes"`
	Profiles     []ProfileInput `json:"profiles"`
	Metadata     map[string]any `json:"metadata"`
}

type FromQuoteRequest struct {
	Type         string `json:"type"`
	PaymentTerms string `json:"payment_terms"`
	Notes        string `json:"notes"`
}

type UpdateRequest struct {
	Type         *string        `json:"type"`
	TotalHT      *float64       `json:"total_ht"`
	PaymentTerms *string        `json:"payment_terms"`
	Notes        *string        `json:"notes"`
	Profiles     []ProfileInput `json:"profiles"`
}

type ListRequest struct {
	ProjectID string `form:"project_id"`
	Status    string `form:"status"`
}

type Response struct {
	ID           snowflake.ID      `json:"id"`
	OrgID        snowflake.ID      `json:"organization_id"`
	ProjectID    snowflake.ID      `json:"project_id"`
	QuoteID      *snowflake.ID     `json:"quote_id,omitempty"`
	Reference    string            `json:"reference"`
	Type         Type              `json:"type"`
	Status       Status            `json:"status"`
	TotalHT      float64           `json:"total_ht"`
	TotalTTC     float64           `json:"total_ttc"`
	PaymentTerms string            `json:"payment_terms,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	Profiles     []ContractProfile `json:"profiles"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	SignedAt     *time.Time        `json:"signed_at,omitempty"`
	CancelledAt  *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidProject      = errors.New("invalid_project")
	ErrInvalidQuote        = errors.New("invalid_quote")
	ErrQuoteNotAccepted    = errors.New("quote_not_accepted")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidType         = errors.New("invalid_type")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidProfile      = errors.New("invalid_profile")
	ErrNotDraft            = errors.New("contract_not_draft")
	ErrNotSent             = errors.New("contract_not_sent")
	ErrAlreadySigned       = errors.New("project_already_has_signed_contract")
	ErrNotFound            = errors.New("not_found")
)

func ParseType(value string) (Type, error) {
	switch Type(value) {
	case TypeFixedPrice, TypeTimeAndMaterials:
		return Type(value), nil
	default:
		return "", ErrInvalidType
	}
}

func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusDraft, StatusSent, StatusSigned, StatusCancelled:
		return Status(value), nil
	default:
		return "", ErrInvalidStatus
	}
}
