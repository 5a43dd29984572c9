package logic

import (
	"testing"
	"time"

	"github.com/0xdevcollins/boundless-backend/internal/apperr"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectWithTeam(t *testing.T) {
	db := newTestDB(t)
	logic := NewProjectLogic(db)

	project := &model.Project{Title: "Idea", OwnerAddress: addrOwner}
	team := []model.ProjectTeamMember{
		{MemberAddress: addrTeamMember, Role: "engineer"},
	}
	require.NoError(t, logic.CreateProject(project, team))
	assert.Equal(t, model.ProjectStatusIdea, project.Status)

	loaded, err := logic.GetProject(project.Id)
	require.NoError(t, err)
	require.Len(t, loaded.Team, 1)
	assert.Equal(t, project.Id, loaded.Team[0].ProjectId)
}

func TestCreateProjectValidation(t *testing.T) {
	db := newTestDB(t)
	logic := NewProjectLogic(db)

	err := logic.CreateProject(&model.Project{OwnerAddress: addrOwner}, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	err = logic.CreateProject(&model.Project{Title: "x"}, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
}

func TestOpenVoting(t *testing.T) {
	db := newTestDB(t)
	logic := NewProjectLogic(db)

	project := &model.Project{Title: "Idea", OwnerAddress: addrOwner}
	require.NoError(t, logic.CreateProject(project, nil))

	deadline := time.Now().Add(7 * 24 * time.Hour)

	_, err := logic.OpenVoting(project.Id, addrOutsider, 10, deadline)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	threshold, err := logic.OpenVoting(project.Id, addrOwner, 10, deadline)
	require.NoError(t, err)
	assert.Equal(t, model.ThresholdStatusPending, threshold.Status)
	assert.Equal(t, int64(10), threshold.ThresholdVotes)

	var p model.Project
	require.NoError(t, db.First(&p, project.Id).Error)
	assert.Equal(t, model.ProjectStatusVoting, p.Status)

	// reopening is a conflict
	_, err = logic.OpenVoting(project.Id, addrOwner, 10, deadline)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestOpenVotingValidation(t *testing.T) {
	db := newTestDB(t)
	logic := NewProjectLogic(db)

	project := &model.Project{Title: "Idea", OwnerAddress: addrOwner}
	require.NoError(t, logic.CreateProject(project, nil))

	_, err := logic.OpenVoting(project.Id, addrOwner, 0, time.Now().Add(time.Hour))
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	_, err = logic.OpenVoting(project.Id, addrOwner, 10, time.Now().Add(-time.Hour))
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
}

func TestOpenFunding(t *testing.T) {
	db := newTestDB(t)
	logic := NewProjectLogic(db)

	project := &model.Project{Title: "Promoted", OwnerAddress: addrOwner, Status: model.ProjectStatusPromoted}
	require.NoError(t, db.Create(project).Error)

	endDate := time.Now().Add(30 * 24 * time.Hour)

	err := logic.OpenFunding(project.Id, addrOutsider, 1000, endDate)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	require.NoError(t, logic.OpenFunding(project.Id, addrOwner, 1000, endDate))

	var p model.Project
	require.NoError(t, db.First(&p, project.Id).Error)
	assert.Equal(t, model.ProjectStatusLive, p.Status)
	assert.Equal(t, int64(1000), p.GoalAmount)
}

func TestOpenFundingRequiresPromotion(t *testing.T) {
	db := newTestDB(t)
	logic := NewProjectLogic(db)

	project := &model.Project{Title: "Still an idea", OwnerAddress: addrOwner}
	require.NoError(t, logic.CreateProject(project, nil))

	err := logic.OpenFunding(project.Id, addrOwner, 1000, time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindPreconditionFailed))
}
