package scheduler

import (
	"testing"
	"time"

	"github.com/0xdevcollins/boundless-backend/internal/config"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignFinish(t *testing.T) {
	db := newTestDB(t)
	cfg := &config.Config{Scheduler: config.SchedulerConfig{Interval: 60}}

	// a live campaign whose funded flip was missed
	stuck := &model.Campaign{
		CreatorAddress: "creator",
		Title:          "Stuck",
		GoalAmount:     1000,
		RaisedAmount:   1200,
		Status:         model.CampaignStatusLive,
		Deadline:       time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(stuck).Error)

	underway := &model.Campaign{
		CreatorAddress: "creator",
		Title:          "Underway",
		GoalAmount:     1000,
		RaisedAmount:   400,
		Status:         model.CampaignStatusLive,
		Deadline:       time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(underway).Error)

	NewCampaignFinishJob(db, nil, cfg).Execute()

	var c model.Campaign
	require.NoError(t, db.First(&c, stuck.Id).Error)
	assert.Equal(t, model.CampaignStatusFunded, c.Status)

	var c2 model.Campaign
	require.NoError(t, db.First(&c2, underway.Id).Error)
	assert.Equal(t, model.CampaignStatusLive, c2.Status)
}

func TestProjectFinish(t *testing.T) {
	db := newTestDB(t)
	cfg := &config.Config{Scheduler: config.SchedulerConfig{Interval: 60}}

	project := &model.Project{
		Title:        "Stuck Project",
		OwnerAddress: "owner",
		GoalAmount:   500,
		RaisedAmount: 500,
		Status:       model.ProjectStatusLive,
	}
	require.NoError(t, db.Create(project).Error)

	NewCampaignFinishJob(db, nil, cfg).Execute()

	var p model.Project
	require.NoError(t, db.First(&p, project.Id).Error)
	assert.Equal(t, model.ProjectStatusFunded, p.Status)
}
