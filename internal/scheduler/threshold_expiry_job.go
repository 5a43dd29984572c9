package scheduler

import (
	"log"
	"time"

	"github.com/0xdevcollins/boundless-backend/internal/config"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// ThresholdExpiryJob expires vote thresholds whose deadline passed
// while the tally stayed below the bar.
type ThresholdExpiryJob struct {
	db     *gorm.DB
	config *config.Config
}

func NewThresholdExpiryJob(db *gorm.DB, cfg *config.Config) *ThresholdExpiryJob {
	return &ThresholdExpiryJob{
		db:     db,
		config: cfg,
	}
}

func (j *ThresholdExpiryJob) GetName() string {
	return "threshold_expiry"
}

func (j *ThresholdExpiryJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.Interval) * time.Second)
}

func (j *ThresholdExpiryJob) Execute() {
	now := time.Now()

	var thresholds []model.CrowdfundThreshold
	err := j.db.Where("status = ? AND deadline < ?", model.ThresholdStatusPending, now).
		Find(&thresholds).Error
	if err != nil {
		log.Printf("Failed to fetch pending thresholds: %v", err)
		return
	}
	if len(thresholds) == 0 {
		return
	}

	expiredCount := 0

	for _, threshold := range thresholds {
		err := j.db.Transaction(func(tx *gorm.DB) error {
			// Guard against a concurrent final vote meeting the bar.
			result := tx.Model(&model.CrowdfundThreshold{}).
				Where("id = ? AND status = ?", threshold.Id, model.ThresholdStatusPending).
				Update("status", model.ThresholdStatusExpired)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return nil
			}

			return tx.Model(&model.Project{}).
				Where("id = ? AND status = ?", threshold.ProjectId, model.ProjectStatusVoting).
				Update("status", model.ProjectStatusExpired).Error
		})
		if err != nil {
			log.Printf("Failed to expire threshold %d: %v", threshold.Id, err)
			continue
		}

		log.Printf("Expired vote threshold %d for project %d (tally %d, needed %d)",
			threshold.Id, threshold.ProjectId, threshold.TotalVotes, threshold.ThresholdVotes)
		expiredCount++
	}

	log.Printf("Threshold expiry completed. Expired %d thresholds", expiredCount)
}
