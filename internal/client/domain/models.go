package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Client struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	OrgID       snowflake.ID      `json:"organization_id" gorm:"column:org_id;not null;index;uniqueIndex:ux_clients_org_slug"`
	Name        string            `json:"name" gorm:"type:text;not null"`
	Slug        string            `json:"slug" gorm:"type:text;not null;uniqueIndex:ux_clients_org_slug"`
	CompanyName string            `json:"company_name,omitempty" gorm:"type:text"`
	Email       string            `json:"email,omitempty" gorm:"type:text"`
	Phone       string            `json:"phone,omitempty" gorm:"type:text"`
	Address     string            `json:"address,omitempty" gorm:"type:text"`
	Notes       string            `json:"notes,omitempty" gorm:"type:text"`
	Archived    bool              `json:"archived" gorm:"not null;default:false"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Client) TableName() string { return "clients" }
