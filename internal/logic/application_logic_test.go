package logic

import (
	"testing"

	"github.com/0xdevcollins/boundless-backend/internal/apperr"
	"github.com/0xdevcollins/boundless-backend/internal/auth"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newApplicationLogic(db *gorm.DB, emitter EventEmitter) *ApplicationLogic {
	return NewApplicationLogic(db, auth.NewRegistry([]string{addrAdmin}), emitter)
}

func openGrant(t *testing.T, db *gorm.DB, budget int64) *model.Grant {
	t.Helper()
	grant := &model.Grant{
		CreatorAddress: addrOwner,
		Title:          "Open Grant",
		TotalBudget:    budget,
		Status:         model.GrantStatusOpen,
	}
	require.NoError(t, db.Create(grant).Error)
	return grant
}

func sampleInput() ApplicationInput {
	return ApplicationInput{
		Title:   "Build an indexer",
		Summary: "Indexes all the things",
		Milestones: []ApplicationMilestoneInput{
			{Title: "Prototype", Description: "Working prototype", ExpectedPayout: 3000},
			{Title: "Production", Description: "Hardened release", ExpectedPayout: 5000},
		},
	}
}

func TestSubmitApplication(t *testing.T) {
	db := newTestDB(t)
	emitter := &recordingEmitter{}
	logic := newApplicationLogic(db, emitter)
	grant := openGrant(t, db, 10000)

	app, err := logic.Submit(grant.Id, addrApplicant, sampleInput())
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusSubmitted, app.Status)

	loaded, err := logic.GetApplication(app.Id)
	require.NoError(t, err)
	require.Len(t, loaded.Milestones, 2)
	assert.Equal(t, model.EscrowStatusPending, loaded.Milestones[0].EscrowStatus)
	assert.Equal(t, []string{"application.status_changed"}, emitter.types())
}

func TestSubmitDuplicateApplication(t *testing.T) {
	db := newTestDB(t)
	logic := newApplicationLogic(db, nil)
	grant := openGrant(t, db, 10000)

	_, err := logic.Submit(grant.Id, addrApplicant, sampleInput())
	require.NoError(t, err)

	_, err = logic.Submit(grant.Id, addrApplicant, sampleInput())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Equal(t, "you have already applied to this grant", apperr.Message(err))

	// a different applicant still can
	_, err = logic.Submit(grant.Id, addrOutsider, sampleInput())
	assert.NoError(t, err)
}

func TestSubmitAfterRejectionSlotFreed(t *testing.T) {
	db := newTestDB(t)
	logic := newApplicationLogic(db, nil)
	grant := openGrant(t, db, 10000)

	app, err := logic.Submit(grant.Id, addrApplicant, sampleInput())
	require.NoError(t, err)

	rejected, err := logic.Review(app.Id, addrAdmin, ReviewDecisionRejected, "not a fit")
	require.NoError(t, err)
	assert.True(t, rejected.Archived)

	// rejection archived the old one, so the slot is free again
	_, err = logic.Submit(grant.Id, addrApplicant, sampleInput())
	assert.NoError(t, err)
}

func TestSubmitValidation(t *testing.T) {
	db := newTestDB(t)
	logic := newApplicationLogic(db, nil)
	grant := openGrant(t, db, 10000)

	_, err := logic.Submit(grant.Id, "", sampleInput())
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))

	input := sampleInput()
	input.Title = ""
	_, err = logic.Submit(grant.Id, addrApplicant, input)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	input = sampleInput()
	input.Milestones[0].ExpectedPayout = 0
	_, err = logic.Submit(grant.Id, addrApplicant, input)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	input = sampleInput()
	input.Milestones[1].Description = ""
	_, err = logic.Submit(grant.Id, addrApplicant, input)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	// payouts above the grant budget
	input = sampleInput()
	input.Milestones[1].ExpectedPayout = 8000
	_, err = logic.Submit(grant.Id, addrApplicant, input)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	_, err = logic.Submit(404, addrApplicant, sampleInput())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestSubmitToClosedGrant(t *testing.T) {
	db := newTestDB(t)
	logic := newApplicationLogic(db, nil)
	grant := openGrant(t, db, 10000)
	require.NoError(t, db.Model(grant).Update("status", model.GrantStatusClosed).Error)

	_, err := logic.Submit(grant.Id, addrApplicant, sampleInput())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindPreconditionFailed))
}

func TestReviseMilestones(t *testing.T) {
	db := newTestDB(t)
	logic := newApplicationLogic(db, nil)
	grant := openGrant(t, db, 10000)

	app, err := logic.Submit(grant.Id, addrApplicant, sampleInput())
	require.NoError(t, err)

	revised := []ApplicationMilestoneInput{
		{Title: "Single milestone", Description: "Simplified scope", ExpectedPayout: 7000},
	}

	// only the applicant or the grant creator
	_, err = logic.ReviseMilestones(app.Id, addrOutsider, revised)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	updated, err := logic.ReviseMilestones(app.Id, addrOwner, revised)
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusAwaitingFinal, updated.Status)

	loaded, err := logic.GetApplication(app.Id)
	require.NoError(t, err)
	require.Len(t, loaded.Milestones, 1)
	assert.Equal(t, "Single milestone", loaded.Milestones[0].Title)
}

func TestReviseMilestonesEmptyList(t *testing.T) {
	db := newTestDB(t)
	logic := newApplicationLogic(db, nil)
	grant := openGrant(t, db, 10000)

	app, err := logic.Submit(grant.Id, addrApplicant, sampleInput())
	require.NoError(t, err)

	_, err = logic.ReviseMilestones(app.Id, addrApplicant, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
}

func TestReviseMilestonesWithEngagedEscrow(t *testing.T) {
	db := newTestDB(t)
	logic := newApplicationLogic(db, nil)
	grant := openGrant(t, db, 10000)

	app, err := logic.Submit(grant.Id, addrApplicant, sampleInput())
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.ApplicationMilestone{}).
		Where("application_id = ? AND ordinal_index = 0", app.Id).
		Update("escrow_status", model.EscrowStatusLocked).Error)

	_, err = logic.ReviseMilestones(app.Id, addrApplicant, []ApplicationMilestoneInput{
		{Title: "New plan", Description: "d", ExpectedPayout: 100},
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestReviewRequiresAdmin(t *testing.T) {
	db := newTestDB(t)
	logic := newApplicationLogic(db, nil)
	grant := openGrant(t, db, 10000)

	app, err := logic.Submit(grant.Id, addrApplicant, sampleInput())
	require.NoError(t, err)

	_, err = logic.Review(app.Id, addrApplicant, ReviewDecisionApproved, "")
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestReviewDecisions(t *testing.T) {
	db := newTestDB(t)
	logic := newApplicationLogic(db, nil)
	grant := openGrant(t, db, 10000)

	app, err := logic.Submit(grant.Id, addrApplicant, sampleInput())
	require.NoError(t, err)

	_, err = logic.Review(app.Id, addrAdmin, "maybe", "")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	approved, err := logic.Review(app.Id, addrAdmin, ReviewDecisionApproved, "looks solid")
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusApproved, approved.Status)
	assert.Equal(t, "looks solid", approved.AdminNote)
	assert.False(t, approved.Archived)
}

func TestReviewTerminalApplication(t *testing.T) {
	db := newTestDB(t)
	logic := newApplicationLogic(db, nil)
	grant := openGrant(t, db, 10000)

	app, err := logic.Submit(grant.Id, addrApplicant, sampleInput())
	require.NoError(t, err)

	_, err = logic.Review(app.Id, addrAdmin, ReviewDecisionRejected, "")
	require.NoError(t, err)

	// a rejected application is terminal; reviewing again is a conflict
	_, err = logic.Review(app.Id, addrAdmin, ReviewDecisionApproved, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestReviewOnlyBeforeEngagement(t *testing.T) {
	db := newTestDB(t)
	logic := newApplicationLogic(db, nil)
	grant := openGrant(t, db, 10000)

	app, err := logic.Submit(grant.Id, addrApplicant, sampleInput())
	require.NoError(t, err)
	_, err = logic.Review(app.Id, addrAdmin, ReviewDecisionApproved, "")
	require.NoError(t, err)

	// an approved application is past review
	_, err = logic.Review(app.Id, addrAdmin, ReviewDecisionRejected, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	// once escrow is locked the decision must not be reversible either:
	// rejection here would free the slot with funds still locked
	escrow := newEscrowLogic(db, nil, nil)
	milestone, err := escrow.Lock(app.Id, 3000, testTxHash(1))
	require.NoError(t, err)

	_, err = logic.Review(app.Id, addrAdmin, ReviewDecisionRejected, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	var reloaded model.GrantApplication
	require.NoError(t, db.First(&reloaded, app.Id).Error)
	assert.Equal(t, model.ApplicationStatusInProgress, reloaded.Status)
	assert.False(t, reloaded.Archived)
	assert.Equal(t, int64(3000), reloaded.EscrowedAmount)

	var reloadedMilestone model.ApplicationMilestone
	require.NoError(t, db.First(&reloadedMilestone, milestone.Id).Error)
	assert.Equal(t, model.EscrowStatusLocked, reloadedMilestone.EscrowStatus)
}

func TestGetGrantApplications(t *testing.T) {
	db := newTestDB(t)
	logic := newApplicationLogic(db, nil)
	grant := openGrant(t, db, 10000)

	_, err := logic.Submit(grant.Id, addrApplicant, sampleInput())
	require.NoError(t, err)
	_, err = logic.Submit(grant.Id, addrOutsider, sampleInput())
	require.NoError(t, err)

	apps, total, err := logic.GetGrantApplications(grant.Id, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, apps, 2)
}
