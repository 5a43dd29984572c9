package logic

import (
	"errors"
	"time"

	"github.com/0xdevcollins/boundless-backend/internal/apperr"
	"github.com/0xdevcollins/boundless-backend/internal/ledger"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/0xdevcollins/boundless-backend/internal/settlement"
	"gorm.io/gorm"
)

// FundingLogic is the funding ledger: it accepts contributions against
// live campaigns and projects, deduplicates settlement transactions and
// accumulates totals atomically.
type FundingLogic struct {
	db      *gorm.DB
	bounds  ledger.Bounds
	emitter EventEmitter
}

func NewFundingLogic(db *gorm.DB, bounds ledger.Bounds, emitter EventEmitter) *FundingLogic {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &FundingLogic{db: db, bounds: bounds, emitter: emitter}
}

// fundingTarget is the slice of a campaign or project row the ledger
// needs. Both tables expose the same funding columns.
type fundingTarget struct {
	Id           int64
	Owner        string
	ProjectId    int64 // team lookup key; the id itself for projects
	GoalAmount   int64
	RaisedAmount int64
	Min          int64
	Max          int64
	EndDate      time.Time
	Fundable     bool
	table        string
	liveStatus   string
	fundedStatus string
}

// Contribute records one funding event. All business gates run before
// any write; the contribution insert, the raised-counter increment and
// the funded flip commit as one transaction, with the increment
// expressed as a single guarded UPDATE so concurrent contributions
// never lose updates.
func (f *FundingLogic) Contribute(targetType model.FundingTargetType, targetId int64, contributor string, amount int64, txHash string) (*model.Contribution, error) {
	if !targetType.Valid() {
		return nil, apperr.InvalidArgument("unknown funding target type %q", targetType)
	}
	if amount <= 0 {
		return nil, apperr.InvalidArgument("contribution amount must be positive")
	}
	if err := settlement.ValidateAddress(contributor); err != nil {
		return nil, err
	}
	if err := settlement.ValidateTxHash(txHash); err != nil {
		return nil, err
	}

	contribution := &model.Contribution{
		TargetType:         targetType,
		TargetId:           targetId,
		ContributorAddress: contributor,
		Amount:             amount,
		TxHash:             txHash,
	}
	goalMet := false

	err := f.db.Transaction(func(tx *gorm.DB) error {
		target, err := f.loadTarget(tx, targetType, targetId)
		if err != nil {
			return err
		}

		if err := f.bounds.Narrow(target.Min, target.Max).Check(amount); err != nil {
			return err
		}

		// Global settlement-tx uniqueness is the idempotency guard
		// against replays. A hash already seen for any settlement
		// operation is a duplicate, not just prior contributions;
		// the unique indexes back this check under concurrent inserts.
		var dup int64
		if err := tx.Model(&model.Contribution{}).Where("tx_hash = ?", txHash).Count(&dup).Error; err != nil {
			return apperr.Internal(err)
		}
		if dup == 0 {
			if err := tx.Model(&model.SettlementRecord{}).Where("tx_hash = ?", txHash).Count(&dup).Error; err != nil {
				return apperr.Internal(err)
			}
		}
		if dup > 0 {
			return apperr.Conflict("transaction already processed")
		}

		if !target.Fundable {
			return apperr.PreconditionFailed("target is not open for funding")
		}
		if !target.EndDate.IsZero() && time.Now().After(target.EndDate) {
			return apperr.PreconditionFailed("funding window has closed")
		}
		if err := f.checkSelfFunding(tx, target, contributor); err != nil {
			return err
		}

		if err := tx.Create(contribution).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("transaction already processed")
			}
			return apperr.Internal(err)
		}

		res := tx.Exec(
			"UPDATE "+target.table+" SET raised_amount = raised_amount + ?, "+
				"status = CASE WHEN raised_amount + ? >= goal_amount THEN ? ELSE status END, "+
				"updated_at = ? WHERE id = ? AND status = ?",
			amount, amount, target.fundedStatus, time.Now(), target.Id, target.liveStatus,
		)
		if res.Error != nil {
			return apperr.Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.PreconditionFailed("target is not open for funding")
		}
		goalMet = target.RaisedAmount < target.GoalAmount && target.RaisedAmount+amount >= target.GoalAmount

		record := model.SettlementRecord{
			Kind:       model.SettlementKindContribution,
			TxHash:     txHash,
			TargetType: string(targetType),
			TargetId:   targetId,
			Amount:     amount,
		}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("transaction already processed")
			}
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"contributor": contributor,
		"amount":      amount,
		"tx_hash":     txHash,
	}
	f.emitter.Emit("funding.received", string(targetType), targetId, payload)
	if goalMet {
		f.emitter.Emit("funding.goal_met", string(targetType), targetId, payload)
	}
	return contribution, nil
}

func (f *FundingLogic) loadTarget(tx *gorm.DB, targetType model.FundingTargetType, targetId int64) (*fundingTarget, error) {
	switch targetType {
	case model.FundingTargetCampaign:
		var c model.Campaign
		if err := tx.First(&c, targetId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("campaign %d not found", targetId)
			}
			return nil, apperr.Internal(err)
		}
		return &fundingTarget{
			Id:           c.Id,
			Owner:        c.CreatorAddress,
			ProjectId:    c.ProjectId,
			GoalAmount:   c.GoalAmount,
			RaisedAmount: c.RaisedAmount,
			Min:          c.MinContribution,
			Max:          c.MaxContribution,
			EndDate:      c.Deadline,
			Fundable:     c.Status == model.CampaignStatusLive,
			table:        c.TableName(),
			liveStatus:   string(model.CampaignStatusLive),
			fundedStatus: string(model.CampaignStatusFunded),
		}, nil
	default:
		var p model.Project
		if err := tx.First(&p, targetId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("project %d not found", targetId)
			}
			return nil, apperr.Internal(err)
		}
		return &fundingTarget{
			Id:           p.Id,
			Owner:        p.OwnerAddress,
			ProjectId:    p.Id,
			GoalAmount:   p.GoalAmount,
			RaisedAmount: p.RaisedAmount,
			Min:          p.MinContribution,
			Max:          p.MaxContribution,
			EndDate:      p.EndDate,
			Fundable:     p.Status.Fundable(),
			table:        p.TableName(),
			liveStatus:   string(model.ProjectStatusLive),
			fundedStatus: string(model.ProjectStatusFunded),
		}, nil
	}
}

// checkSelfFunding enforces the ban on owners and team members backing
// their own target.
func (f *FundingLogic) checkSelfFunding(tx *gorm.DB, target *fundingTarget, contributor string) error {
	if equalAddress(target.Owner, contributor) {
		return apperr.PreconditionFailed("owners cannot fund their own target")
	}
	var members int64
	err := tx.Model(&model.ProjectTeamMember{}).
		Where("project_id = ? AND LOWER(member_address) = LOWER(?)", target.ProjectId, contributor).
		Count(&members).Error
	if err != nil {
		return apperr.Internal(err)
	}
	if members > 0 {
		return apperr.PreconditionFailed("team members cannot fund their own target")
	}
	return nil
}

// GetContributions lists the contributions recorded against a target.
func (f *FundingLogic) GetContributions(targetType model.FundingTargetType, targetId int64, page, pageSize int) ([]model.Contribution, int64, error) {
	var contributions []model.Contribution
	var total int64

	query := f.db.Model(&model.Contribution{}).
		Where("target_type = ? AND target_id = ?", targetType, targetId)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&contributions).Error; err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return contributions, total, nil
}
