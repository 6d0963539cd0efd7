package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

var (
	StatusActive   Status = "active"
	StatusOnHold   Status = "on_hold"
	StatusDone     Status = "done"
	StatusArchived Status = "archived"
)

type Project struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	OrgID       snowflake.ID      `json:"organization_id" gorm:"column:org_id;not null;index"`
	ClientID    snowflake.ID      `json:"client_id" gorm:"column:client_id;not null;index"`
	Name        string            `json:"name" gorm:"type:text;not null"`
	Description string            `json:"description,omitempty" gorm:"type:text"`
	Status      Status            `json:"status" gorm:"type:text;not null;default:active"`
	StartDate   *time.Time        `json:"start_date,omitempty"`
	EndDate     *time.Time        `json:"end_date,omitempty"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Project) TableName() string { return "projects" }
