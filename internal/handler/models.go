package handler

import (
	"time"

	"github.com/0xdevcollins/boundless-backend/internal/logic"
	"github.com/0xdevcollins/boundless-backend/internal/model"
)

// Request bodies

type CreateProjectRequest struct {
	Title           string   `json:"title" binding:"required"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	MinContribution int64    `json:"min_contribution"`
	MaxContribution int64    `json:"max_contribution"`
	Team            []string `json:"team"`
}

type OpenVotingRequest struct {
	ThresholdVotes int64     `json:"threshold_votes" binding:"required"`
	Deadline       time.Time `json:"deadline" binding:"required"`
}

type OpenFundingRequest struct {
	GoalAmount int64     `json:"goal_amount" binding:"required"`
	EndDate    time.Time `json:"end_date" binding:"required"`
}

type VoteRequest struct {
	Direction string `json:"direction" binding:"required"`
}

type CreateCampaignRequest struct {
	ProjectId       int64                  `json:"project_id" binding:"required"`
	Title           string                 `json:"title" binding:"required"`
	Description     string                 `json:"description"`
	GoalAmount      int64                  `json:"goal_amount" binding:"required"`
	MinContribution int64                  `json:"min_contribution"`
	MaxContribution int64                  `json:"max_contribution"`
	Deadline        time.Time              `json:"deadline" binding:"required"`
	WhitepaperURL   string                 `json:"whitepaper_url"`
	PitchDeckURL    string                 `json:"pitch_deck_url"`
	Milestones      []logic.MilestoneInput `json:"milestones"`
}

type ContributeRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	TxHash string `json:"tx_hash" binding:"required"`
}

type CreateGrantRequest struct {
	Title       string                      `json:"title" binding:"required"`
	Description string                      `json:"description"`
	RulesText   string                      `json:"rules_text"`
	TotalBudget int64                       `json:"total_budget" binding:"required"`
	Milestones  []logic.GrantMilestoneInput `json:"milestones"`
}

type GrantStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type SubmitApplicationRequest struct {
	GrantId int64 `json:"grant_id" binding:"required"`
	logic.ApplicationInput
}

type ReviseMilestonesRequest struct {
	Milestones []logic.ApplicationMilestoneInput `json:"milestones" binding:"required"`
}

type ReviewRequest struct {
	Decision string `json:"decision" binding:"required"`
	Note     string `json:"note"`
}

type EscrowUpdateRequest struct {
	Action         string `json:"action" binding:"required"` // lock, approve, reject, dispute
	Amount         int64  `json:"amount"`
	TxHash         string `json:"tx_hash"`
	MilestoneIndex int    `json:"milestone_index"`
}

// Response bodies

type ThresholdResponse struct {
	ProjectId      int64     `json:"projectId"`
	TotalVotes     int64     `json:"totalVotes"`
	ThresholdVotes int64     `json:"thresholdVotes"`
	Deadline       time.Time `json:"deadline"`
	Status         string    `json:"status"`
}

func ToThresholdResponse(t *model.CrowdfundThreshold) ThresholdResponse {
	return ThresholdResponse{
		ProjectId:      t.ProjectId,
		TotalVotes:     t.TotalVotes,
		ThresholdVotes: t.ThresholdVotes,
		Deadline:       t.Deadline,
		Status:         string(t.Status),
	}
}

type ContributionResponse struct {
	Id          int64     `json:"id"`
	TargetType  string    `json:"targetType"`
	TargetId    int64     `json:"targetId"`
	Contributor string    `json:"contributor"`
	Amount      int64     `json:"amount"`
	TxHash      string    `json:"txHash"`
	CreatedAt   time.Time `json:"createdAt"`
}

func ToContributionResponse(c *model.Contribution) ContributionResponse {
	return ContributionResponse{
		Id:          c.Id,
		TargetType:  string(c.TargetType),
		TargetId:    c.TargetId,
		Contributor: c.ContributorAddress,
		Amount:      c.Amount,
		TxHash:      c.TxHash,
		CreatedAt:   c.CreatedAt,
	}
}

func ToContributionResponseList(records []model.Contribution) []ContributionResponse {
	out := make([]ContributionResponse, len(records))
	for i := range records {
		out[i] = ToContributionResponse(&records[i])
	}
	return out
}

type MilestoneEscrowResponse struct {
	OrdinalIndex   int        `json:"ordinalIndex"`
	Title          string     `json:"title"`
	ExpectedPayout int64      `json:"expectedPayout"`
	EscrowStatus   string     `json:"escrowStatus"`
	EscrowedAmount int64      `json:"escrowedAmount"`
	EscrowTxHash   string     `json:"escrowTxHash"`
	ReleaseTxHash  string     `json:"releaseTxHash"`
	ReleasedAt     *time.Time `json:"releasedAt,omitempty"`
}

func ToMilestoneEscrowResponse(m *model.ApplicationMilestone) MilestoneEscrowResponse {
	return MilestoneEscrowResponse{
		OrdinalIndex:   m.OrdinalIndex,
		Title:          m.Title,
		ExpectedPayout: m.ExpectedPayout,
		EscrowStatus:   string(m.EscrowStatus),
		EscrowedAmount: m.EscrowedAmount,
		EscrowTxHash:   m.EscrowTxHash,
		ReleaseTxHash:  m.ReleaseTxHash,
		ReleasedAt:     m.ReleasedAt,
	}
}
