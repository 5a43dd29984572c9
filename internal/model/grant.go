package model

import (
	"time"
)

// Grant is a funding program that pays applicants against milestones.
type Grant struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CreatorAddress string `json:"creator_address" gorm:"not null;index"`

	Title       string `json:"title" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`
	RulesText   string `json:"rules_text" gorm:"type:text"`

	// TotalBudget in minor units; milestone template payouts sum to at
	// most this.
	TotalBudget int64 `json:"total_budget" gorm:"not null"`

	Status GrantStatus `json:"status" gorm:"default:'draft'"`

	MilestoneTemplates []GrantMilestoneTemplate `json:"milestone_templates,omitempty" gorm:"foreignKey:GrantId"`
}

// GrantStatus is the grant lifecycle state.
type GrantStatus string

const (
	GrantStatusDraft    GrantStatus = "draft"
	GrantStatusOpen     GrantStatus = "open"
	GrantStatusClosed   GrantStatus = "closed"
	GrantStatusArchived GrantStatus = "archived"
)

func (Grant) TableName() string {
	return "grant"
}

// GrantMilestoneTemplate is one suggested milestone of a grant program.
type GrantMilestoneTemplate struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	GrantId        int64  `json:"grant_id" gorm:"not null;uniqueIndex:idx_grant_tpl_ordinal"`
	OrdinalIndex   int    `json:"ordinal_index" gorm:"not null;uniqueIndex:idx_grant_tpl_ordinal"`
	Title          string `json:"title" gorm:"not null"`
	Description    string `json:"description" gorm:"type:text"`
	ExpectedPayout int64  `json:"expected_payout" gorm:"not null"`
}

func (GrantMilestoneTemplate) TableName() string {
	return "grant_milestone_template"
}
