package logic

import (
	"context"
	"errors"
	"time"

	"github.com/0xdevcollins/boundless-backend/internal/apperr"
	"github.com/0xdevcollins/boundless-backend/internal/auth"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/0xdevcollins/boundless-backend/internal/settlement"
	"gorm.io/gorm"
)

// EscrowLogic is the milestone escrow controller. It mirrors escrow
// state recorded on the external settlement layer; it never moves funds
// itself, and a failed settlement call leaves local state untouched.
type EscrowLogic struct {
	db         *gorm.DB
	authorizer auth.Authorizer
	releaser   EscrowReleaser
	emitter    EventEmitter
}

func NewEscrowLogic(db *gorm.DB, authorizer auth.Authorizer, releaser EscrowReleaser, emitter EventEmitter) *EscrowLogic {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &EscrowLogic{db: db, authorizer: authorizer, releaser: releaser, emitter: emitter}
}

// Lock mirrors an external escrow lock onto the application's next
// pending milestone and flips the application to in_progress on first
// lock. The settlement transaction is already settled externally; the
// tx-hash uniqueness check is what makes retried locks safe.
func (e *EscrowLogic) Lock(applicationId int64, amount int64, txHash string) (*model.ApplicationMilestone, error) {
	if amount <= 0 {
		return nil, apperr.InvalidArgument("escrow amount must be positive")
	}
	if err := settlement.ValidateTxHash(txHash); err != nil {
		return nil, err
	}

	var milestone model.ApplicationMilestone
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var application model.GrantApplication
		if err := tx.First(&application, applicationId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("application %d not found", applicationId)
			}
			return apperr.Internal(err)
		}
		if application.Status != model.ApplicationStatusApproved && application.Status != model.ApplicationStatusInProgress {
			return apperr.PreconditionFailed("application is %s and cannot receive escrow", application.Status)
		}

		var dup int64
		if err := tx.Model(&model.SettlementRecord{}).Where("tx_hash = ?", txHash).Count(&dup).Error; err != nil {
			return apperr.Internal(err)
		}
		if dup > 0 {
			return apperr.Conflict("transaction already processed")
		}

		err := tx.Where("application_id = ? AND escrow_status = ?", applicationId, model.EscrowStatusPending).
			Order("ordinal_index ASC").
			First(&milestone).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.PreconditionFailed("application has no pending milestone to lock")
			}
			return apperr.Internal(err)
		}

		now := time.Now()
		res := tx.Model(&model.ApplicationMilestone{}).
			Where("id = ? AND escrow_status = ?", milestone.Id, model.EscrowStatusPending).
			Updates(map[string]interface{}{
				"escrow_status":   model.EscrowStatusLocked,
				"escrow_tx_hash":  txHash,
				"escrowed_amount": amount,
				"locked_at":       now,
			})
		if res.Error != nil {
			return apperr.Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("milestone was updated concurrently")
		}
		milestone.EscrowStatus = model.EscrowStatusLocked
		milestone.EscrowTxHash = txHash
		milestone.EscrowedAmount = amount
		milestone.LockedAt = &now

		if err := tx.Model(&model.GrantApplication{}).
			Where("id = ?", applicationId).
			Update("escrowed_amount", gorm.Expr("escrowed_amount + ?", amount)).Error; err != nil {
			return apperr.Internal(err)
		}
		if application.Status == model.ApplicationStatusApproved {
			if err := tx.Model(&model.GrantApplication{}).
				Where("id = ? AND status = ?", applicationId, model.ApplicationStatusApproved).
				Update("status", model.ApplicationStatusInProgress).Error; err != nil {
				return apperr.Internal(err)
			}
		}

		record := model.SettlementRecord{
			Kind:       model.SettlementKindLock,
			TxHash:     txHash,
			TargetType: "grant_application",
			TargetId:   applicationId,
			Amount:     amount,
		}
		if err := tx.Create(&record).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.emitter.Emit("escrow.locked", "grant_application", applicationId, map[string]interface{}{
		"milestone_index": milestone.OrdinalIndex,
		"amount":          amount,
		"tx_hash":         txHash,
	})
	return &milestone, nil
}

// ApproveMilestone marks a locked (or dispute-resolved) milestone as
// approved for release. Admin capability required.
func (e *EscrowLogic) ApproveMilestone(applicationId int64, milestoneIndex int, admin string) (*model.ApplicationMilestone, error) {
	return e.judgeMilestone(applicationId, milestoneIndex, admin, model.EscrowStatusApproved)
}

// RejectMilestone marks a locked (or dispute-resolved) milestone as
// rejected. Escrowed funds are not reversed locally; any refund is the
// settlement layer's responsibility and shows up via reconciliation.
func (e *EscrowLogic) RejectMilestone(applicationId int64, milestoneIndex int, admin string) (*model.ApplicationMilestone, error) {
	return e.judgeMilestone(applicationId, milestoneIndex, admin, model.EscrowStatusRejected)
}

func (e *EscrowLogic) judgeMilestone(applicationId int64, milestoneIndex int, admin string, verdict model.EscrowStatus) (*model.ApplicationMilestone, error) {
	if !e.authorizer.HasRole(admin, auth.RoleAdmin) {
		return nil, apperr.Forbidden("only administrators can judge milestones")
	}

	milestone, err := e.loadMilestone(e.db, applicationId, milestoneIndex)
	if err != nil {
		return nil, err
	}
	if milestone.EscrowStatus != model.EscrowStatusLocked && milestone.EscrowStatus != model.EscrowStatusDisputed {
		return nil, apperr.PreconditionFailed("milestone is %s and cannot be judged", milestone.EscrowStatus)
	}

	now := time.Now()
	updates := map[string]interface{}{"escrow_status": verdict}
	if verdict == model.EscrowStatusApproved {
		updates["approved_by"] = admin
		updates["approved_at"] = now
	} else {
		updates["rejected_by"] = admin
		updates["rejected_at"] = now
	}

	res := e.db.Model(&model.ApplicationMilestone{}).
		Where("id = ? AND escrow_status = ?", milestone.Id, milestone.EscrowStatus).
		Updates(updates)
	if res.Error != nil {
		return nil, apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict("milestone was updated concurrently")
	}

	milestone.EscrowStatus = verdict
	if verdict == model.EscrowStatusApproved {
		milestone.ApprovedBy = admin
		milestone.ApprovedAt = &now
	} else {
		milestone.RejectedBy = admin
		milestone.RejectedAt = &now
	}
	return milestone, nil
}

// DisputeMilestone lets the applicant or the grant creator contest a
// locked milestone. An admin later resolves the dispute to approved or
// rejected.
func (e *EscrowLogic) DisputeMilestone(applicationId int64, milestoneIndex int, actor string) (*model.ApplicationMilestone, error) {
	var milestone *model.ApplicationMilestone
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var application model.GrantApplication
		if err := tx.First(&application, applicationId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("application %d not found", applicationId)
			}
			return apperr.Internal(err)
		}
		var grant model.Grant
		if err := tx.First(&grant, application.GrantId).Error; err != nil {
			return apperr.Internal(err)
		}
		if !equalAddress(application.ApplicantAddress, actor) && !equalAddress(grant.CreatorAddress, actor) {
			return apperr.Forbidden("only the applicant or the grant creator can dispute a milestone")
		}

		m, err := e.loadMilestone(tx, applicationId, milestoneIndex)
		if err != nil {
			return err
		}
		if m.EscrowStatus != model.EscrowStatusLocked {
			return apperr.PreconditionFailed("milestone is %s and cannot be disputed", m.EscrowStatus)
		}

		now := time.Now()
		res := tx.Model(&model.ApplicationMilestone{}).
			Where("id = ? AND escrow_status = ?", m.Id, model.EscrowStatusLocked).
			Updates(map[string]interface{}{
				"escrow_status": model.EscrowStatusDisputed,
				"disputed_at":   now,
			})
		if res.Error != nil {
			return apperr.Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("milestone was updated concurrently")
		}
		m.EscrowStatus = model.EscrowStatusDisputed
		m.DisputedAt = &now
		milestone = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return milestone, nil
}

// Release pays out an approved milestone through the settlement service
// and mirrors the result. The external call happens before any local
// write: on failure the milestone stays approved and the caller may
// retry.
func (e *EscrowLogic) Release(ctx context.Context, applicationId int64, milestoneIndex int) (*model.ApplicationMilestone, error) {
	var application model.GrantApplication
	if err := e.db.First(&application, applicationId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("application %d not found", applicationId)
		}
		return nil, apperr.Internal(err)
	}

	milestone, err := e.loadMilestone(e.db, applicationId, milestoneIndex)
	if err != nil {
		return nil, err
	}
	if milestone.EscrowStatus != model.EscrowStatusApproved {
		return nil, apperr.PreconditionFailed("milestone is %s and cannot be released", milestone.EscrowStatus)
	}

	releaseTxHash, err := e.releaser.Release(ctx, milestone.EscrowTxHash, milestoneIndex)
	if err != nil {
		return nil, err
	}

	completed := false
	err = e.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&model.ApplicationMilestone{}).
			Where("id = ? AND escrow_status = ?", milestone.Id, model.EscrowStatusApproved).
			Updates(map[string]interface{}{
				"escrow_status":   model.EscrowStatusReleased,
				"release_tx_hash": releaseTxHash,
				"released_at":     now,
			})
		if res.Error != nil {
			return apperr.Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("milestone was updated concurrently")
		}
		milestone.EscrowStatus = model.EscrowStatusReleased
		milestone.ReleaseTxHash = releaseTxHash
		milestone.ReleasedAt = &now

		if err := tx.Model(&model.GrantApplication{}).
			Where("id = ?", applicationId).
			Update("milestones_completed", gorm.Expr("milestones_completed + ?", 1)).Error; err != nil {
			return apperr.Internal(err)
		}

		var total, released int64
		if err := tx.Model(&model.ApplicationMilestone{}).
			Where("application_id = ?", applicationId).Count(&total).Error; err != nil {
			return apperr.Internal(err)
		}
		if err := tx.Model(&model.ApplicationMilestone{}).
			Where("application_id = ? AND escrow_status = ?", applicationId, model.EscrowStatusReleased).
			Count(&released).Error; err != nil {
			return apperr.Internal(err)
		}
		if total > 0 && total == released {
			if err := tx.Model(&model.GrantApplication{}).
				Where("id = ? AND status = ?", applicationId, model.ApplicationStatusInProgress).
				Update("status", model.ApplicationStatusCompleted).Error; err != nil {
				return apperr.Internal(err)
			}
			completed = true
		}

		record := model.SettlementRecord{
			Kind:       model.SettlementKindRelease,
			TxHash:     releaseTxHash,
			TargetType: "grant_application",
			TargetId:   applicationId,
			Amount:     milestone.EscrowedAmount,
		}
		if err := tx.Create(&record).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.emitter.Emit("escrow.released", "grant_application", applicationId, map[string]interface{}{
		"milestone_index": milestoneIndex,
		"tx_hash":         releaseTxHash,
		"completed":       completed,
	})
	if completed {
		e.emitter.Emit("application.status_changed", "grant_application", applicationId, map[string]interface{}{
			"status": string(model.ApplicationStatusCompleted),
		})
	}
	return milestone, nil
}

func (e *EscrowLogic) loadMilestone(tx *gorm.DB, applicationId int64, milestoneIndex int) (*model.ApplicationMilestone, error) {
	var milestone model.ApplicationMilestone
	err := tx.Where("application_id = ? AND ordinal_index = ?", applicationId, milestoneIndex).
		First(&milestone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("milestone %d not found on application %d", milestoneIndex, applicationId)
		}
		return nil, apperr.Internal(err)
	}
	return &milestone, nil
}
