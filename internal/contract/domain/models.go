package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Type string

var (
	TypeFixedPrice       Type = "fixed_price"
	TypeTimeAndMaterials Type = "time_and_materials"
)

type Status string

var (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusSigned    Status = "signed"
	StatusCancelled Status = "cancelled"
)

// Contract binds a project to agreed commercial terms. The per-profile
// budgets are the reference the finance reconciler consumes against.
type Contract struct {
	ID           snowflake.ID      `json:"id" gorm:"primaryKey"`
	OrgID        snowflake.ID      `json:"organization_id" gorm:"column:org_id;not null;index"`
	ProjectID    snowflake.ID      `json:"project_id" gorm:"column:project_id;not null;index"`
	QuoteID      *snowflake.ID     `json:"quote_id,omitempty" gorm:"column:quote_id;index"`
	Reference    string            `json:"reference" gorm:"type:text;not null"`
	Type         Type              `json:"type" gorm:"type:text;not null"`
	Status       Status            `json:"status" gorm:"type:text;not null;default:draft"`
	TotalHT      float64           `json:"total_ht" gorm:"type:numeric;not null;default:0"`
	TotalTTC     float64           `json:"total_ttc" gorm:"type:numeric;not null;default:0"`
	PaymentTerms string            `json:"payment_terms,omitempty" gorm:"type:text"`
	Notes        string            `json:"notes,omitempty" gorm:"type:text"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	SignedAt     *time.Time        `json:"signed_at,omitempty"`
	CancelledAt  *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Profiles []ContractProfile `json:"profiles" gorm:"foreignKey:ContractID"`
}

func (Contract) TableName() string { return "contracts" }

// ContractProfile fixes the daily rate and the budgeted days for one role.
type ContractProfile struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	ContractID snowflake.ID `json:"contract_id" gorm:"column:contract_id;not null;index"`
	Name       string       `json:"name" gorm:"type:text;not null"`
	DailyRate  float64      `json:"daily_rate" gorm:"type:numeric;not null;default:0"`
	BudgetDays float64      `json:"budget_days" gorm:"type:numeric;not null;default:0"`
	Position   int32        `json:"position" gorm:"not null;default:0"`
}

func (ContractProfile) TableName() string { return "contract_profiles" }
