package scheduler

import (
	"log"
	"time"

	"github.com/0xdevcollins/boundless-backend/internal/config"
	"github.com/0xdevcollins/boundless-backend/internal/logic"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/0xdevcollins/boundless-backend/internal/notify"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// CampaignFinishJob is the safety net for campaigns and projects whose
// funded flip was missed, for example after a crash between the raise
// update and the status update of a concurrent batch.
type CampaignFinishJob struct {
	db      *gorm.DB
	emitter logic.EventEmitter
	config  *config.Config
}

func NewCampaignFinishJob(db *gorm.DB, emitter logic.EventEmitter, cfg *config.Config) *CampaignFinishJob {
	if emitter == nil {
		emitter = logic.NopEmitter{}
	}
	return &CampaignFinishJob{
		db:      db,
		emitter: emitter,
		config:  cfg,
	}
}

func (j *CampaignFinishJob) GetName() string {
	return "campaign_finish"
}

func (j *CampaignFinishJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.Interval) * time.Second)
}

func (j *CampaignFinishJob) Execute() {
	j.finishCampaigns()
	j.finishProjects()
}

func (j *CampaignFinishJob) finishCampaigns() {
	var campaigns []model.Campaign
	err := j.db.Where("status = ? AND goal_amount > 0 AND raised_amount >= goal_amount",
		model.CampaignStatusLive).Find(&campaigns).Error
	if err != nil {
		log.Printf("Failed to fetch live campaigns: %v", err)
		return
	}

	for _, campaign := range campaigns {
		result := j.db.Model(&model.Campaign{}).
			Where("id = ? AND status = ?", campaign.Id, model.CampaignStatusLive).
			Update("status", model.CampaignStatusFunded)
		if result.Error != nil {
			log.Printf("Failed to finish campaign %d: %v", campaign.Id, result.Error)
			continue
		}
		if result.RowsAffected == 0 {
			continue
		}

		log.Printf("Campaign %d marked funded (raised %d of %d)",
			campaign.Id, campaign.RaisedAmount, campaign.GoalAmount)
		j.emitter.Emit(notify.EventGoalMet, "campaign", campaign.Id, map[string]interface{}{
			"raised_amount": campaign.RaisedAmount,
			"goal_amount":   campaign.GoalAmount,
		})
	}
}

func (j *CampaignFinishJob) finishProjects() {
	var projects []model.Project
	err := j.db.Where("status = ? AND goal_amount > 0 AND raised_amount >= goal_amount",
		model.ProjectStatusLive).Find(&projects).Error
	if err != nil {
		log.Printf("Failed to fetch live projects: %v", err)
		return
	}

	for _, project := range projects {
		result := j.db.Model(&model.Project{}).
			Where("id = ? AND status = ?", project.Id, model.ProjectStatusLive).
			Update("status", model.ProjectStatusFunded)
		if result.Error != nil {
			log.Printf("Failed to finish project %d: %v", project.Id, result.Error)
			continue
		}
		if result.RowsAffected == 0 {
			continue
		}

		log.Printf("Project %d marked funded (raised %d of %d)",
			project.Id, project.RaisedAmount, project.GoalAmount)
		j.emitter.Emit(notify.EventGoalMet, "project", project.Id, map[string]interface{}{
			"raised_amount": project.RaisedAmount,
			"goal_amount":   project.GoalAmount,
		})
	}
}
