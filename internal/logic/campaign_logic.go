package logic

import (
	"context"
	"errors"
	"time"

	"github.com/0xdevcollins/boundless-backend/internal/apperr"
	"github.com/0xdevcollins/boundless-backend/internal/auth"
	"github.com/0xdevcollins/boundless-backend/internal/ledger"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"gorm.io/gorm"
)

// CampaignLogic owns campaign creation and the approval gate — the
// single point where an unvetted idea becomes something the funding
// ledger accepts money for.
type CampaignLogic struct {
	db          *gorm.DB
	authorizer  auth.Authorizer
	provisioner EscrowProvisioner
	emitter     EventEmitter
}

func NewCampaignLogic(db *gorm.DB, authorizer auth.Authorizer, provisioner EscrowProvisioner, emitter EventEmitter) *CampaignLogic {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &CampaignLogic{db: db, authorizer: authorizer, provisioner: provisioner, emitter: emitter}
}

// MilestoneInput is one proposed payout step.
type MilestoneInput struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	PayoutPercent int    `json:"payout_percent"`
}

// CreateCampaign validates and persists a campaign in pending_approval
// with its milestone schedule. Payout amounts are computed here so the
// schedule is fixed before any money moves.
func (l *CampaignLogic) CreateCampaign(campaign *model.Campaign, milestones []MilestoneInput) error {
	if campaign.Title == "" {
		return apperr.InvalidArgument("campaign title is required")
	}
	if campaign.GoalAmount <= 0 {
		return apperr.InvalidArgument("goal amount must be positive")
	}
	if err := (ledger.Window{End: campaign.Deadline}).Validate(time.Now()); err != nil {
		return err
	}
	percents := make([]int, len(milestones))
	for i, m := range milestones {
		if m.Title == "" {
			return apperr.InvalidArgument("milestone %d is missing a title", i+1)
		}
		percents[i] = m.PayoutPercent
	}
	if len(milestones) > 0 {
		if err := ledger.ValidatePercents(percents); err != nil {
			return err
		}
	}

	campaign.Status = model.CampaignStatusPendingApproval
	campaign.RaisedAmount = 0

	return l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(campaign).Error; err != nil {
			return apperr.Internal(err)
		}
		for i, m := range milestones {
			row := model.CampaignMilestone{
				CampaignId:    campaign.Id,
				Title:         m.Title,
				Description:   m.Description,
				OrdinalIndex:  i,
				PayoutPercent: m.PayoutPercent,
				PayoutAmount:  ledger.PayoutAmount(campaign.GoalAmount, m.PayoutPercent),
				EscrowIndex:   i,
			}
			if err := tx.Create(&row).Error; err != nil {
				return apperr.Internal(err)
			}
		}
		return nil
	})
}

// Approve runs the approval gate: admin capability, at least one
// milestone summing to 100%, a future deadline, a positive goal and at
// least one required document. On success the campaign goes live with a
// provisioned escrow contract. The status write is a guarded update so
// no window exists where the campaign reads as live before the checks
// held; losing the guard race is a Conflict.
func (l *CampaignLogic) Approve(ctx context.Context, campaignId int64, approver string) (*model.Campaign, error) {
	if !l.authorizer.HasRole(approver, auth.RoleAdmin) {
		return nil, apperr.Forbidden("only administrators can approve campaigns")
	}

	var campaign model.Campaign
	if err := l.db.Preload("Milestones").First(&campaign, campaignId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("campaign %d not found", campaignId)
		}
		return nil, apperr.Internal(err)
	}

	if campaign.Status != model.CampaignStatusPendingApproval {
		return nil, apperr.Conflict("campaign is %s and cannot be approved", campaign.Status)
	}
	if len(campaign.Milestones) == 0 {
		return nil, apperr.PreconditionFailed("campaign has no milestones")
	}
	percents := make([]int, len(campaign.Milestones))
	for i, m := range campaign.Milestones {
		percents[i] = m.PayoutPercent
	}
	if err := ledger.ValidatePercents(percents); err != nil {
		return nil, err
	}
	if !campaign.Deadline.After(time.Now()) {
		return nil, apperr.PreconditionFailed("campaign deadline has passed")
	}
	if campaign.GoalAmount <= 0 {
		return nil, apperr.PreconditionFailed("campaign goal must be positive")
	}
	if campaign.WhitepaperURL == "" && campaign.PitchDeckURL == "" {
		return nil, apperr.PreconditionFailed("campaign requires a whitepaper or pitch deck")
	}

	contractRef, err := l.provisioner.Provision(ctx, campaign.Id, campaign.GoalAmount)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	res := l.db.Model(&model.Campaign{}).
		Where("id = ? AND status = ?", campaign.Id, model.CampaignStatusPendingApproval).
		Updates(map[string]interface{}{
			"status":          model.CampaignStatusLive,
			"approved_by":     approver,
			"approved_at":     now,
			"escrow_contract": contractRef,
		})
	if res.Error != nil {
		return nil, apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict("campaign was updated concurrently and cannot be approved")
	}

	campaign.Status = model.CampaignStatusLive
	campaign.ApprovedBy = approver
	campaign.ApprovedAt = &now
	campaign.EscrowContract = contractRef

	l.emitter.Emit("campaign.approved", "campaign", campaign.Id, map[string]interface{}{
		"approved_by":     approver,
		"escrow_contract": contractRef,
	})
	return &campaign, nil
}

// Cancel moves a campaign to its terminal cancelled state. Only the
// creator or an admin may cancel; funded campaigns stay funded.
func (l *CampaignLogic) Cancel(campaignId int64, actor string) error {
	var campaign model.Campaign
	if err := l.db.First(&campaign, campaignId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("campaign %d not found", campaignId)
		}
		return apperr.Internal(err)
	}
	if campaign.CreatorAddress != actor && !l.authorizer.HasRole(actor, auth.RoleAdmin) {
		return apperr.Forbidden("only the creator or an administrator can cancel a campaign")
	}
	if campaign.Status == model.CampaignStatusCancelled {
		return apperr.Conflict("campaign is already cancelled")
	}
	if campaign.Status == model.CampaignStatusFunded {
		return apperr.Conflict("a funded campaign cannot be cancelled")
	}
	res := l.db.Model(&model.Campaign{}).
		Where("id = ? AND status = ?", campaignId, campaign.Status).
		Update("status", model.CampaignStatusCancelled)
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("campaign was updated concurrently")
	}
	return nil
}

// GetCampaign loads a campaign with its milestone schedule.
func (l *CampaignLogic) GetCampaign(campaignId int64) (*model.Campaign, error) {
	var campaign model.Campaign
	if err := l.db.Preload("Milestones", func(db *gorm.DB) *gorm.DB {
		return db.Order("ordinal_index ASC")
	}).First(&campaign, campaignId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("campaign %d not found", campaignId)
		}
		return nil, apperr.Internal(err)
	}
	return &campaign, nil
}

// GetCampaigns lists campaigns, optionally filtered by status.
func (l *CampaignLogic) GetCampaigns(status string, page, pageSize int) ([]model.Campaign, int64, error) {
	var campaigns []model.Campaign
	var total int64

	query := l.db.Model(&model.Campaign{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&campaigns).Error; err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return campaigns, total, nil
}
