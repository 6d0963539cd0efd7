package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/atelierlab/devisio/internal/finance/reconcile"
)

type Service interface {
	// ProjectReport reconciles the project's budget source (latest accepted
	// quote, else signed contract) against its logged time, on the fly.
	ProjectReport(ctx context.Context, projectID string) (*ReportResponse, error)
	// Snapshot persists the current report for history.
	Snapshot(ctx context.Context, projectID string) (*Snapshot, error)
	ListSnapshots(ctx context.Context, projectID string) ([]Snapshot, error)
	// SnapshotAll sweeps every signed contract and snapshots its project.
	// Returns how many snapshots were written.
	SnapshotAll(ctx context.Context, batchSize int) (int, error)
}

// BudgetSource identifies which document funded the reconciliation. The
// latest accepted quote wins; a signed contract is the fallback.
type BudgetSource string

var (
	SourceAcceptedQuote  BudgetSource = "accepted_quote"
	SourceSignedContract BudgetSource = "signed_contract"
)

type ReportResponse struct {
	ProjectID       snowflake.ID `json:"project_id"`
	Source          BudgetSource `json:"budget_source"`
	SourceID        snowflake.ID `json:"budget_source_id"`
	SourceReference string       `json:"budget_source_reference"`
	// ContractType is set only for contract-sourced reports.
	ContractType string           `json:"contract_type,omitempty"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Report       reconcile.Report `json:"report"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidProject      = errors.New("invalid_project")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNoBudgetSource      = errors.New("no_budget_source")
	ErrNotFound            = errors.New("not_found")
)
