package logic

import (
	"errors"

	"github.com/0xdevcollins/boundless-backend/internal/apperr"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"gorm.io/gorm"
)

// VoteLogic is the crowdfund threshold tracker: it turns community votes
// into the go/no-go signal for an idea-stage project.
type VoteLogic struct {
	db      *gorm.DB
	emitter EventEmitter
}

func NewVoteLogic(db *gorm.DB, emitter EventEmitter) *VoteLogic {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &VoteLogic{db: db, emitter: emitter}
}

// RegisterVote records or flips a voter's vote and recomputes the tally.
// Re-casting the identical direction is a Conflict, not a silent no-op.
// The pending → threshold_met flip happens exactly once, inside the same
// transaction that records the vote; once non-pending, votes are still
// recorded but the status never moves backward.
func (v *VoteLogic) RegisterVote(projectId int64, voter string, direction model.VoteDirection) (*model.CrowdfundThreshold, error) {
	if voter == "" {
		return nil, apperr.InvalidArgument("voter address is required")
	}
	if !direction.Valid() {
		return nil, apperr.InvalidArgument("vote direction must be %q or %q", model.VoteDirectionUp, model.VoteDirectionDown)
	}

	var threshold model.CrowdfundThreshold
	thresholdMet := false

	err := v.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectId).First(&threshold).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("project %d is not open for voting", projectId)
			}
			return apperr.Internal(err)
		}

		var vote model.Vote
		err := tx.Where("project_id = ? AND voter_address = ?", projectId, voter).First(&vote).Error
		switch {
		case err == nil:
			if vote.Direction == direction {
				return apperr.Conflict("you have already cast this vote")
			}
			if err := tx.Model(&vote).Update("direction", direction).Error; err != nil {
				return apperr.Internal(err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote = model.Vote{ProjectId: projectId, VoterAddress: voter, Direction: direction}
			if err := tx.Create(&vote).Error; err != nil {
				return apperr.Internal(err)
			}
		default:
			return apperr.Internal(err)
		}

		total, err := v.tally(tx, projectId)
		if err != nil {
			return err
		}

		if err := tx.Model(&threshold).Update("total_votes", total).Error; err != nil {
			return apperr.Internal(err)
		}
		threshold.TotalVotes = total

		if threshold.Status == model.ThresholdStatusPending && total >= threshold.ThresholdVotes {
			// Guarded flip: under concurrent votes only one caller
			// wins the pending row and emits the event.
			res := tx.Model(&model.CrowdfundThreshold{}).
				Where("id = ? AND status = ?", threshold.Id, model.ThresholdStatusPending).
				Update("status", model.ThresholdStatusMet)
			if res.Error != nil {
				return apperr.Internal(res.Error)
			}
			thresholdMet = res.RowsAffected > 0
		}
		if thresholdMet {
			threshold.Status = model.ThresholdStatusMet
			if err := tx.Model(&model.Project{}).
				Where("id = ? AND status = ?", projectId, model.ProjectStatusVoting).
				Update("status", model.ProjectStatusPromoted).Error; err != nil {
				return apperr.Internal(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if thresholdMet {
		v.emitter.Emit("vote.threshold_met", "project", projectId, map[string]interface{}{
			"total_votes":     threshold.TotalVotes,
			"threshold_votes": threshold.ThresholdVotes,
		})
	}
	return &threshold, nil
}

// RemoveVote withdraws a voter's vote and recomputes the tally. The
// threshold status never moves backward on withdrawal.
func (v *VoteLogic) RemoveVote(projectId int64, voter string) (*model.CrowdfundThreshold, error) {
	var threshold model.CrowdfundThreshold

	err := v.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectId).First(&threshold).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("project %d is not open for voting", projectId)
			}
			return apperr.Internal(err)
		}

		res := tx.Where("project_id = ? AND voter_address = ?", projectId, voter).Delete(&model.Vote{})
		if res.Error != nil {
			return apperr.Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("no vote to remove")
		}

		total, err := v.tally(tx, projectId)
		if err != nil {
			return err
		}
		if err := tx.Model(&threshold).Update("total_votes", total).Error; err != nil {
			return apperr.Internal(err)
		}
		threshold.TotalVotes = total
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &threshold, nil
}

// tally computes the signed vote sum for a project.
func (v *VoteLogic) tally(tx *gorm.DB, projectId int64) (int64, error) {
	var total int64
	err := tx.Model(&model.Vote{}).
		Where("project_id = ?", projectId).
		Select("COALESCE(SUM(CASE WHEN direction = 'down' THEN -1 ELSE 1 END), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return total, nil
}
