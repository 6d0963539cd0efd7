package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TimeEntry is one person-day fragment logged against a project. Hours are
// the unit of capture; conversion to days happens at reporting time with the
// configured hours-per-day.
type TimeEntry struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID     snowflake.ID `json:"organization_id" gorm:"column:org_id;not null;index"`
	ProjectID snowflake.ID `json:"project_id" gorm:"column:project_id;not null;index"`
	// EngineerID is the authenticated subject that logged the entry; empty
	// in single-workspace mode.
	EngineerID   string    `json:"engineer_id,omitempty" gorm:"column:engineer_id;type:text"`
	ProfileName  string    `json:"profile_name" gorm:"type:text;not null"`
	CategoryName string    `json:"category_name,omitempty" gorm:"type:text"`
	Description  string    `json:"description,omitempty" gorm:"type:text"`
	EntryDate    time.Time `json:"entry_date" gorm:"not null;index"`
	Hours        float64   `json:"hours" gorm:"type:numeric;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TimeEntry) TableName() string { return "time_entries" }
