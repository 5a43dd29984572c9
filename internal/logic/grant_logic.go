package logic

import (
	"errors"

	"github.com/0xdevcollins/boundless-backend/internal/apperr"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"gorm.io/gorm"
)

// GrantLogic owns grant programs and their budget invariant: milestone
// template payouts never exceed the total budget.
type GrantLogic struct {
	db *gorm.DB
}

func NewGrantLogic(db *gorm.DB) *GrantLogic {
	return &GrantLogic{db: db}
}

// GrantMilestoneInput is one proposed milestone template.
type GrantMilestoneInput struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	ExpectedPayout int64  `json:"expected_payout"`
}

// CreateGrant validates and persists a draft grant with its templates.
func (g *GrantLogic) CreateGrant(grant *model.Grant, templates []GrantMilestoneInput) error {
	if grant.Title == "" {
		return apperr.InvalidArgument("grant title is required")
	}
	if grant.TotalBudget <= 0 {
		return apperr.InvalidArgument("grant budget must be positive")
	}
	if err := validateMilestonePayouts(templates, grant.TotalBudget); err != nil {
		return err
	}

	grant.Status = model.GrantStatusDraft

	return g.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(grant).Error; err != nil {
			return apperr.Internal(err)
		}
		for i, t := range templates {
			row := model.GrantMilestoneTemplate{
				GrantId:        grant.Id,
				OrdinalIndex:   i,
				Title:          t.Title,
				Description:    t.Description,
				ExpectedPayout: t.ExpectedPayout,
			}
			if err := tx.Create(&row).Error; err != nil {
				return apperr.Internal(err)
			}
		}
		return nil
	})
}

// grant status transition table
var grantTransitions = map[model.GrantStatus][]model.GrantStatus{
	model.GrantStatusDraft:  {model.GrantStatusOpen, model.GrantStatusArchived},
	model.GrantStatusOpen:   {model.GrantStatusClosed},
	model.GrantStatusClosed: {model.GrantStatusArchived, model.GrantStatusOpen},
}

// SetStatus moves a grant along its lifecycle. Only the creator may do
// so; illegal transitions are Conflicts.
func (g *GrantLogic) SetStatus(grantId int64, actor string, next model.GrantStatus) error {
	var grant model.Grant
	if err := g.db.First(&grant, grantId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("grant %d not found", grantId)
		}
		return apperr.Internal(err)
	}
	if !equalAddress(grant.CreatorAddress, actor) {
		return apperr.Forbidden("only the grant creator can change its status")
	}

	allowed := false
	for _, s := range grantTransitions[grant.Status] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return apperr.Conflict("grant cannot move from %s to %s", grant.Status, next)
	}

	res := g.db.Model(&model.Grant{}).
		Where("id = ? AND status = ?", grantId, grant.Status).
		Update("status", next)
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("grant was updated concurrently")
	}
	return nil
}

// GetGrant loads a grant with its milestone templates.
func (g *GrantLogic) GetGrant(grantId int64) (*model.Grant, error) {
	var grant model.Grant
	if err := g.db.Preload("MilestoneTemplates", func(db *gorm.DB) *gorm.DB {
		return db.Order("ordinal_index ASC")
	}).First(&grant, grantId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("grant %d not found", grantId)
		}
		return nil, apperr.Internal(err)
	}
	return &grant, nil
}

// GetGrants lists grants, optionally filtered by status.
func (g *GrantLogic) GetGrants(status string, page, pageSize int) ([]model.Grant, int64, error) {
	var grants []model.Grant
	var total int64

	query := g.db.Model(&model.Grant{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&grants).Error; err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return grants, total, nil
}

// validateMilestonePayouts checks every milestone carries a title and a
// positive payout, and the payouts sum within the budget.
func validateMilestonePayouts(milestones []GrantMilestoneInput, budget int64) error {
	var sum int64
	for i, m := range milestones {
		if m.Title == "" {
			return apperr.InvalidArgument("milestone %d is missing a title", i+1)
		}
		if m.ExpectedPayout <= 0 {
			return apperr.InvalidArgument("milestone %d expected payout must be positive", i+1)
		}
		sum += m.ExpectedPayout
	}
	if budget > 0 && sum > budget {
		return apperr.InvalidArgument("milestone payouts %d exceed the total budget %d", sum, budget)
	}
	return nil
}
