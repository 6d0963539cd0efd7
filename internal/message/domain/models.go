package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Message is one entry in a project's discussion thread.
type Message struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID     snowflake.ID `json:"organization_id" gorm:"column:org_id;not null;index"`
	ProjectID snowflake.ID `json:"project_id" gorm:"column:project_id;not null;index"`
	Author    string       `json:"author" gorm:"type:text;not null"`
	Body      string       `json:"body" gorm:"type:text;not null"`
	ReadAt    *time.Time   `json:"read_at,omitempty"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Message) TableName() string { return "messages" }
