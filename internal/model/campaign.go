package model

import (
	"time"
)

// Campaign is a fundable initiative backed by a milestone payout
// schedule. It only becomes fundable through the approval gate.
type Campaign struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId      int64  `json:"project_id" gorm:"not null;index"`
	CreatorAddress string `json:"creator_address" gorm:"not null"`

	Title       string `json:"title" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`

	// Amounts in minor units. RaisedAmount only moves through the
	// funding ledger's guarded update; over-funding is allowed.
	GoalAmount      int64 `json:"goal_amount" gorm:"not null"`
	RaisedAmount    int64 `json:"raised_amount" gorm:"default:0"`
	MinContribution int64 `json:"min_contribution" gorm:"default:0"`
	MaxContribution int64 `json:"max_contribution" gorm:"default:0"`

	Deadline time.Time `json:"deadline" gorm:"not null"`

	Status CampaignStatus `json:"status" gorm:"default:'pending_approval'"`

	// Required document references checked at approval.
	WhitepaperURL string `json:"whitepaper_url"`
	PitchDeckURL  string `json:"pitch_deck_url"`

	ApprovedBy string     `json:"approved_by"`
	ApprovedAt *time.Time `json:"approved_at"`

	// Escrow contract reference provisioned at approval.
	EscrowContract string `json:"escrow_contract"`

	Milestones []CampaignMilestone `json:"milestones,omitempty" gorm:"foreignKey:CampaignId"`
}

// CampaignStatus is the campaign lifecycle state.
type CampaignStatus string

const (
	CampaignStatusPendingApproval CampaignStatus = "pending_approval"
	CampaignStatusLive            CampaignStatus = "live"
	CampaignStatusFunded          CampaignStatus = "funded"
	CampaignStatusCancelled       CampaignStatus = "cancelled" // terminal
)

func (Campaign) TableName() string {
	return "campaign"
}

// CampaignMilestone is one ordered step of a campaign's payout schedule.
// Payout percentages across a live campaign sum to exactly 100.
type CampaignMilestone struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId  int64  `json:"campaign_id" gorm:"not null;uniqueIndex:idx_campaign_ordinal"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`

	OrdinalIndex  int   `json:"ordinal_index" gorm:"not null;uniqueIndex:idx_campaign_ordinal"`
	PayoutPercent int   `json:"payout_percent" gorm:"not null"`
	PayoutAmount  int64 `json:"payout_amount" gorm:"default:0"` // goal × percent / 100

	// EscrowIndex mirrors the milestone's position on the settlement
	// contract.
	EscrowIndex int `json:"escrow_index"`
}

func (CampaignMilestone) TableName() string {
	return "campaign_milestone"
}
