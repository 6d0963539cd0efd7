package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Snapshot freezes one reconciliation run so consumption history survives
// later edits to time entries.
type Snapshot struct {
	ID                 snowflake.ID   `json:"id" gorm:"primaryKey"`
	OrgID              snowflake.ID   `json:"organization_id" gorm:"column:org_id;not null;index"`
	ProjectID          snowflake.ID   `json:"project_id" gorm:"column:project_id;not null;index"`
	Source             BudgetSource   `json:"budget_source" gorm:"column:budget_source;type:text;not null"`
	SourceID           snowflake.ID   `json:"budget_source_id" gorm:"column:source_id;not null;index"`
	TakenAt            time.Time      `json:"taken_at" gorm:"not null;index"`
	BudgetDays         float64        `json:"budget_days" gorm:"type:numeric;not null;default:0"`
	ConsumedDays       float64        `json:"consumed_days" gorm:"type:numeric;not null;default:0"`
	RemainingDays      float64        `json:"remaining_days" gorm:"type:numeric;not null;default:0"`
	ConsumptionPercent float64        `json:"consumption_percent" gorm:"type:numeric;not null;default:0"`
	BudgetAmountHT     float64        `json:"budget_amount_ht" gorm:"type:numeric;not null;default:0"`
	ConsumedAmountHT   float64        `json:"consumed_amount_ht" gorm:"type:numeric;not null;default:0"`
	Report             datatypes.JSON `json:"report" gorm:"type:jsonb"`
	CreatedAt          time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Snapshot) TableName() string { return "finance_snapshots" }
