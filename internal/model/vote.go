package model

import (
	"time"
)

// VoteDirection is the direction of a community vote.
type VoteDirection string

const (
	VoteDirectionUp   VoteDirection = "up"
	VoteDirectionDown VoteDirection = "down"
)

// Value is the signed contribution of the vote to the tally.
func (d VoteDirection) Value() int64 {
	if d == VoteDirectionDown {
		return -1
	}
	return 1
}

// Valid reports whether the direction is a known value.
func (d VoteDirection) Valid() bool {
	return d == VoteDirectionUp || d == VoteDirectionDown
}

// Vote records one voter's current direction on a project. One row per
// (project, voter); changing direction updates the row in place.
type Vote struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId    int64         `json:"project_id" gorm:"not null;uniqueIndex:idx_vote_project_voter"`
	VoterAddress string        `json:"voter_address" gorm:"not null;uniqueIndex:idx_vote_project_voter"`
	Direction    VoteDirection `json:"direction" gorm:"not null"`
}

func (Vote) TableName() string {
	return "vote"
}

// ThresholdStatus is the go/no-go state derived from the vote tally.
type ThresholdStatus string

const (
	ThresholdStatusPending ThresholdStatus = "pending"
	ThresholdStatusMet     ThresholdStatus = "threshold_met"
	ThresholdStatusExpired ThresholdStatus = "expired"
)

// CrowdfundThreshold tracks one voting project's tally against the vote
// count required for promotion. TotalVotes is the signed sum, so a
// flipped vote moves the tally by two.
type CrowdfundThreshold struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId      int64           `json:"project_id" gorm:"not null;uniqueIndex"`
	TotalVotes     int64           `json:"total_votes" gorm:"default:0"`
	ThresholdVotes int64           `json:"threshold_votes" gorm:"not null"`
	Deadline       time.Time       `json:"deadline" gorm:"not null"`
	Status         ThresholdStatus `json:"status" gorm:"default:'pending'"`
}

func (CrowdfundThreshold) TableName() string {
	return "crowdfund_threshold"
}
