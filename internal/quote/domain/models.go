package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	"github.com/atelierlab/devisio/internal/quote/costing"
)

type Status string

var (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Quote is the aggregate root. Profiles, abaques, costing categories and
// transverse levels all hang off one quote; nothing is shared across quotes,
// so a new version starts from a deep copy.
type Quote struct {
	ID           snowflake.ID      `json:"id" gorm:"primaryKey"`
	OrgID        snowflake.ID      `json:"organization_id" gorm:"column:org_id;not null;index"`
	ProjectID    snowflake.ID      `json:"project_id" gorm:"column:project_id;not null;index"`
	Number       string            `json:"number" gorm:"type:text;not null"`
	Title        string            `json:"title" gorm:"type:text;not null"`
	Status       Status            `json:"status" gorm:"type:text;not null;default:draft"`
	Version      int32             `json:"version" gorm:"not null;default:1"`
	ParentID     *snowflake.ID     `json:"parent_id,omitempty" gorm:"column:parent_id;index"`
	ValidityDays int32             `json:"validity_days" gorm:"not null;default:30"`
	PaymentTerms string            `json:"payment_terms,omitempty" gorm:"type:text"`
	Notes        string            `json:"notes,omitempty" gorm:"type:text"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	AcceptedAt   *time.Time        `json:"accepted_at,omitempty"`
	RejectedAt   *time.Time        `json:"rejected_at,omitempty"`
	ExpiredAt    *time.Time        `json:"expired_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Profiles         []Profile         `json:"profiles" gorm:"foreignKey:QuoteID"`
	Abaques          []AbaqueEntry     `json:"abaques" gorm:"foreignKey:QuoteID"`
	Categories       []CostingCategory `json:"categories" gorm:"foreignKey:QuoteID"`
	TransverseLevels []TransverseLevel `json:"transverse_levels" gorm:"foreignKey:QuoteID"`
}

func (Quote) TableName() string { return "quotes" }

// Profile is a billable role scoped to one quote. Editing a rate here never
// touches other quotes or versions.
type Profile struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	QuoteID   snowflake.ID `json:"quote_id" gorm:"column:quote_id;not null;index"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	DailyRate float64      `json:"daily_rate" gorm:"type:numeric;not null;default:0"`
	Position  int32        `json:"position" gorm:"not null;default:0"`
}

func (Profile) TableName() string { return "quote_profiles" }

// AbaqueEntry holds the five complexity day costs for one (component,
// profile) pair.
type AbaqueEntry struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	QuoteID       snowflake.ID `json:"quote_id" gorm:"column:quote_id;not null;index"`
	ComponentName string       `json:"component_name" gorm:"type:text;not null"`
	ProfileName   string       `json:"profile_name" gorm:"type:text;not null"`
	DaysTS        float64      `json:"days_ts" gorm:"type:numeric;not null;default:0"`
	DaysS         float64      `json:"days_s" gorm:"type:numeric;not null;default:0"`
	DaysM         float64      `json:"days_m" gorm:"type:numeric;not null;default:0"`
	DaysC         float64      `json:"days_c" gorm:"type:numeric;not null;default:0"`
	DaysTC        float64      `json:"days_tc" gorm:"type:numeric;not null;default:0"`
}

func (AbaqueEntry) TableName() string { return "quote_abaques" }

type CostingCategory struct {
	ID       snowflake.ID `json:"id" gorm:"primaryKey"`
	QuoteID  snowflake.ID `json:"quote_id" gorm:"column:quote_id;not null;index"`
	Name     string       `json:"name" gorm:"type:text;not null"`
	Position int32        `json:"position" gorm:"not null;default:0"`

	Activities []CostingActivity `json:"activities" gorm:"foreignKey:CategoryID"`
}

func (CostingCategory) TableName() string { return "quote_costing_categories" }

type CostingActivity struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	CategoryID snowflake.ID `json:"category_id" gorm:"column:category_id;not null;index"`
	Name       string       `json:"name" gorm:"type:text;not null"`
	// no column default: gorm drops zero-valued fields that have one,
	// which would rewrite Active=false to true on insert
	Active bool `json:"active" gorm:"not null"`
	Position   int32        `json:"position" gorm:"not null;default:0"`

	Components []CostingComponent `json:"components" gorm:"foreignKey:ActivityID"`
}

func (CostingActivity) TableName() string { return "quote_costing_activities" }

type CostingComponent struct {
	ID            snowflake.ID       `json:"id" gorm:"primaryKey"`
	ActivityID    snowflake.ID       `json:"activity_id" gorm:"column:activity_id;not null;index"`
	ComponentName string             `json:"component_name" gorm:"type:text;not null"`
	Complexity    costing.Complexity `json:"complexity" gorm:"type:text;not null"`
	// no column default, so an explicit zero coefficient survives the insert
	Coefficient float64 `json:"coefficient" gorm:"type:numeric;not null"`
	Position      int32              `json:"position" gorm:"not null;default:0"`
}

func (CostingComponent) TableName() string { return "quote_costing_components" }

type TransverseLevel struct {
	ID      snowflake.ID `json:"id" gorm:"primaryKey"`
	QuoteID snowflake.ID `json:"quote_id" gorm:"column:quote_id;not null;index"`
	Level   int32        `json:"level" gorm:"not null;default:1"`

	Activities []TransverseActivity `json:"activities" gorm:"foreignKey:LevelID"`
}

func (TransverseLevel) TableName() string { return "quote_transverse_levels" }

type TransverseActivity struct {
	ID          snowflake.ID           `json:"id" gorm:"primaryKey"`
	LevelID     snowflake.ID           `json:"level_id" gorm:"column:level_id;not null;index"`
	Name        string                 `json:"name" gorm:"type:text;not null"`
	ProfileName string                 `json:"profile_name" gorm:"type:text;not null"`
	Kind        costing.TransverseKind `json:"kind" gorm:"type:text;not null"`
	Value       float64                `json:"value" gorm:"type:numeric;not null;default:0"`
	Position    int32                  `json:"position" gorm:"not null;default:0"`
}

func (TransverseActivity) TableName() string { return "quote_transverse_activities" }

// ToCosting maps the persisted aggregate into the pure engine input.
func (q *Quote) ToCosting() costing.Quote {
	input := costing.Quote{
		Profiles:         make([]costing.Profile, 0, len(q.Profiles)),
		Abaques:          make([]costing.Abaque, 0, len(q.Abaques)),
		Categories:       make([]costing.Category, 0, len(q.Categories)),
		TransverseLevels: make([]costing.TransverseLevel, 0, len(q.TransverseLevels)),
	}
	for _, profile := range q.Profiles {
		input.Profiles = append(input.Profiles, costing.Profile{
			Name:      profile.Name,
			DailyRate: profile.DailyRate,
		})
	}
	for _, entry := range q.Abaques {
		input.Abaques = append(input.Abaques, costing.Abaque{
			ComponentName: entry.ComponentName,
			ProfileName:   entry.ProfileName,
			DaysTS:        entry.DaysTS,
			DaysS:         entry.DaysS,
			DaysM:         entry.DaysM,
			DaysC:         entry.DaysC,
			DaysTC:        entry.DaysTC,
		})
	}
	for _, category := range q.Categories {
		mapped := costing.Category{Name: category.Name}
		for _, activity := range category.Activities {
			mappedActivity := costing.Activity{Name: activity.Name, Active: activity.Active}
			for _, component := range activity.Components {
				mappedActivity.Components = append(mappedActivity.Components, costing.Component{
					ComponentName: component.ComponentName,
					Complexity:    component.Complexity,
					Coefficient:   component.Coefficient,
				})
			}
			mapped.Activities = append(mapped.Activities, mappedActivity)
		}
		input.Categories = append(input.Categories, mapped)
	}
	for _, level := range q.TransverseLevels {
		mapped := costing.TransverseLevel{Level: int(level.Level)}
		for _, activity := range level.Activities {
			mapped.Activities = append(mapped.Activities, costing.TransverseActivity{
				Name:        activity.Name,
				ProfileName: activity.ProfileName,
				Kind:        activity.Kind,
				Value:       activity.Value,
			})
		}
		input.TransverseLevels = append(input.TransverseLevels, mapped)
	}
	return input
}
