package model

import (
	"time"
)

// FundingTargetType distinguishes what a contribution funds.
type FundingTargetType string

const (
	FundingTargetCampaign FundingTargetType = "campaign"
	FundingTargetProject  FundingTargetType = "project"
)

// Valid reports whether the target type is a known value.
func (t FundingTargetType) Valid() bool {
	return t == FundingTargetCampaign || t == FundingTargetProject
}

// Contribution is an immutable record of one funding event. The unique
// index on TxHash is the idempotency guard against replayed settlement
// transactions; it is never scoped to the target.
type Contribution struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	TargetType FundingTargetType `json:"target_type" gorm:"not null;index:idx_contribution_target"`
	TargetId   int64             `json:"target_id" gorm:"not null;index:idx_contribution_target"`

	ContributorAddress string `json:"contributor_address" gorm:"not null;index"`
	Amount             int64  `json:"amount" gorm:"not null"`
	TxHash             string `json:"tx_hash" gorm:"not null;uniqueIndex"`
}

func (Contribution) TableName() string {
	return "contribution"
}
