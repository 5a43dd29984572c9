package logic

import (
	"testing"

	"github.com/0xdevcollins/boundless-backend/internal/apperr"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func draftGrant(t *testing.T, db *gorm.DB, budget int64, templates []GrantMilestoneInput) *model.Grant {
	t.Helper()
	logic := NewGrantLogic(db)
	grant := &model.Grant{
		CreatorAddress: addrOwner,
		Title:          "Ecosystem Grants",
		TotalBudget:    budget,
	}
	require.NoError(t, logic.CreateGrant(grant, templates))
	return grant
}

func TestCreateGrant(t *testing.T) {
	db := newTestDB(t)
	grant := draftGrant(t, db, 10000, []GrantMilestoneInput{
		{Title: "Phase 1", ExpectedPayout: 4000},
		{Title: "Phase 2", ExpectedPayout: 6000},
	})
	assert.Equal(t, model.GrantStatusDraft, grant.Status)

	loaded, err := NewGrantLogic(db).GetGrant(grant.Id)
	require.NoError(t, err)
	require.Len(t, loaded.MilestoneTemplates, 2)
	assert.Equal(t, "Phase 1", loaded.MilestoneTemplates[0].Title)
}

func TestCreateGrantValidation(t *testing.T) {
	db := newTestDB(t)
	logic := NewGrantLogic(db)

	err := logic.CreateGrant(&model.Grant{TotalBudget: 100}, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	err = logic.CreateGrant(&model.Grant{Title: "x", TotalBudget: 0}, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	// templates must fit the budget
	err = logic.CreateGrant(&model.Grant{Title: "x", TotalBudget: 100}, []GrantMilestoneInput{
		{Title: "m", ExpectedPayout: 101},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
}

func TestGrantStatusTransitions(t *testing.T) {
	db := newTestDB(t)
	logic := NewGrantLogic(db)
	grant := draftGrant(t, db, 10000, nil)

	// only the creator may move it
	err := logic.SetStatus(grant.Id, addrOutsider, model.GrantStatusOpen)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	require.NoError(t, logic.SetStatus(grant.Id, addrOwner, model.GrantStatusOpen))
	require.NoError(t, logic.SetStatus(grant.Id, addrOwner, model.GrantStatusClosed))

	// closed grants may reopen
	require.NoError(t, logic.SetStatus(grant.Id, addrOwner, model.GrantStatusOpen))
	require.NoError(t, logic.SetStatus(grant.Id, addrOwner, model.GrantStatusClosed))
	require.NoError(t, logic.SetStatus(grant.Id, addrOwner, model.GrantStatusArchived))

	// archived is terminal
	err = logic.SetStatus(grant.Id, addrOwner, model.GrantStatusOpen)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestGrantIllegalTransition(t *testing.T) {
	db := newTestDB(t)
	logic := NewGrantLogic(db)
	grant := draftGrant(t, db, 10000, nil)

	err := logic.SetStatus(grant.Id, addrOwner, model.GrantStatusClosed)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestGetGrants(t *testing.T) {
	db := newTestDB(t)
	logic := NewGrantLogic(db)

	draftGrant(t, db, 1000, nil)
	g := draftGrant(t, db, 2000, nil)
	require.NoError(t, logic.SetStatus(g.Id, addrOwner, model.GrantStatusOpen))

	grants, total, err := logic.GetGrants(string(model.GrantStatusOpen), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, grants, 1)
	assert.Equal(t, g.Id, grants[0].Id)
}
