package logic

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/0xdevcollins/boundless-backend/internal/apperr"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupVotingProject(t *testing.T, db *gorm.DB, thresholdVotes int64) *model.Project {
	t.Helper()
	project := &model.Project{
		Title:        "Test Project",
		OwnerAddress: addrOwner,
		Status:       model.ProjectStatusVoting,
	}
	require.NoError(t, db.Create(project).Error)
	require.NoError(t, db.Create(&model.CrowdfundThreshold{
		ProjectId:      project.Id,
		ThresholdVotes: thresholdVotes,
		Deadline:       time.Now().Add(24 * time.Hour),
		Status:         model.ThresholdStatusPending,
	}).Error)
	return project
}

func TestRegisterVoteTally(t *testing.T) {
	db := newTestDB(t)
	logic := NewVoteLogic(db, nil)
	project := setupVotingProject(t, db, 10)

	th, err := logic.RegisterVote(project.Id, "voter-1", model.VoteDirectionUp)
	require.NoError(t, err)
	assert.Equal(t, int64(1), th.TotalVotes)

	th, err = logic.RegisterVote(project.Id, "voter-2", model.VoteDirectionDown)
	require.NoError(t, err)
	assert.Equal(t, int64(0), th.TotalVotes)
}

func TestRegisterVoteDuplicateDirection(t *testing.T) {
	db := newTestDB(t)
	logic := NewVoteLogic(db, nil)
	project := setupVotingProject(t, db, 10)

	_, err := logic.RegisterVote(project.Id, "voter-1", model.VoteDirectionUp)
	require.NoError(t, err)

	_, err = logic.RegisterVote(project.Id, "voter-1", model.VoteDirectionUp)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Equal(t, "you have already cast this vote", apperr.Message(err))

	// only one vote row exists
	var count int64
	require.NoError(t, db.Model(&model.Vote{}).Where("project_id = ?", project.Id).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRegisterVoteFlipMovesTallyByTwo(t *testing.T) {
	db := newTestDB(t)
	logic := NewVoteLogic(db, nil)
	project := setupVotingProject(t, db, 10)

	th, err := logic.RegisterVote(project.Id, "voter-1", model.VoteDirectionUp)
	require.NoError(t, err)
	assert.Equal(t, int64(1), th.TotalVotes)

	th, err = logic.RegisterVote(project.Id, "voter-1", model.VoteDirectionDown)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), th.TotalVotes)
}

func TestRegisterVoteThresholdMetOnce(t *testing.T) {
	db := newTestDB(t)
	emitter := &recordingEmitter{}
	logic := NewVoteLogic(db, emitter)
	project := setupVotingProject(t, db, 2)

	_, err := logic.RegisterVote(project.Id, "voter-1", model.VoteDirectionUp)
	require.NoError(t, err)

	th, err := logic.RegisterVote(project.Id, "voter-2", model.VoteDirectionUp)
	require.NoError(t, err)
	assert.Equal(t, model.ThresholdStatusMet, th.Status)

	// project promoted in the same transaction
	var p model.Project
	require.NoError(t, db.First(&p, project.Id).Error)
	assert.Equal(t, model.ProjectStatusPromoted, p.Status)

	assert.Equal(t, []string{"vote.threshold_met"}, emitter.types())

	// further votes keep the status, no second event
	_, err = logic.RegisterVote(project.Id, "voter-3", model.VoteDirectionUp)
	require.NoError(t, err)
	assert.Equal(t, []string{"vote.threshold_met"}, emitter.types())
}

func TestRegisterVoteConcurrentThresholdFlip(t *testing.T) {
	db := newTestDB(t)
	emitter := &recordingEmitter{}
	logic := NewVoteLogic(db, emitter)
	project := setupVotingProject(t, db, 1)

	// single writer connection; sqlite serializes the transactions while
	// the callers still race
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	const voters = 8
	var wg sync.WaitGroup
	errs := make([]error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = logic.RegisterVote(project.Id, fmt.Sprintf("voter-%d", n), model.VoteDirectionUp)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	var th model.CrowdfundThreshold
	require.NoError(t, db.Where("project_id = ?", project.Id).First(&th).Error)
	assert.Equal(t, int64(voters), th.TotalVotes)
	assert.Equal(t, model.ThresholdStatusMet, th.Status)

	var p model.Project
	require.NoError(t, db.First(&p, project.Id).Error)
	assert.Equal(t, model.ProjectStatusPromoted, p.Status)

	// the pending row is won exactly once, so exactly one event
	assert.Equal(t, []string{"vote.threshold_met"}, emitter.types())
}

func TestRegisterVoteStatusNeverMovesBackward(t *testing.T) {
	db := newTestDB(t)
	logic := NewVoteLogic(db, nil)
	project := setupVotingProject(t, db, 1)

	_, err := logic.RegisterVote(project.Id, "voter-1", model.VoteDirectionUp)
	require.NoError(t, err)

	// a wave of down-votes drops the tally below the bar
	_, err = logic.RegisterVote(project.Id, "voter-2", model.VoteDirectionDown)
	require.NoError(t, err)
	th, err := logic.RegisterVote(project.Id, "voter-3", model.VoteDirectionDown)
	require.NoError(t, err)

	assert.Equal(t, int64(-1), th.TotalVotes)
	assert.Equal(t, model.ThresholdStatusMet, th.Status)
}

func TestRegisterVoteUnknownProject(t *testing.T) {
	db := newTestDB(t)
	logic := NewVoteLogic(db, nil)

	_, err := logic.RegisterVote(999, "voter-1", model.VoteDirectionUp)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRegisterVoteInvalidInput(t *testing.T) {
	db := newTestDB(t)
	logic := NewVoteLogic(db, nil)
	project := setupVotingProject(t, db, 10)

	_, err := logic.RegisterVote(project.Id, "", model.VoteDirectionUp)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	_, err = logic.RegisterVote(project.Id, "voter-1", model.VoteDirection("sideways"))
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
}

func TestRemoveVote(t *testing.T) {
	db := newTestDB(t)
	logic := NewVoteLogic(db, nil)
	project := setupVotingProject(t, db, 10)

	_, err := logic.RegisterVote(project.Id, "voter-1", model.VoteDirectionUp)
	require.NoError(t, err)

	th, err := logic.RemoveVote(project.Id, "voter-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), th.TotalVotes)

	_, err = logic.RemoveVote(project.Id, "voter-1")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Equal(t, "no vote to remove", apperr.Message(err))
}
