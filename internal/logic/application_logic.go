package logic

import (
	"errors"
	"strings"

	"github.com/0xdevcollins/boundless-backend/internal/apperr"
	"github.com/0xdevcollins/boundless-backend/internal/auth"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"gorm.io/gorm"
)

// ApplicationLogic is the grant application workflow: the state machine
// a proposal moves through from submission, milestone negotiation and
// admin review. It gives creator and applicant a shared checkpoint
// before any escrow is engaged.
type ApplicationLogic struct {
	db         *gorm.DB
	authorizer auth.Authorizer
	emitter    EventEmitter
}

func NewApplicationLogic(db *gorm.DB, authorizer auth.Authorizer, emitter EventEmitter) *ApplicationLogic {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &ApplicationLogic{db: db, authorizer: authorizer, emitter: emitter}
}

// ApplicationMilestoneInput is one proposed application milestone.
type ApplicationMilestoneInput struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	ExpectedPayout int64  `json:"expected_payout"`
}

// ApplicationInput is a submission proposal.
type ApplicationInput struct {
	Title               string                      `json:"title"`
	Summary             string                      `json:"summary"`
	SupportingDocuments []string                    `json:"supporting_documents"`
	Milestones          []ApplicationMilestoneInput `json:"milestones"`
}

// Submit files a proposal against an open grant. One non-archived
// application per (grant, applicant); rejection archives and frees the
// slot.
func (a *ApplicationLogic) Submit(grantId int64, applicant string, input ApplicationInput) (*model.GrantApplication, error) {
	if applicant == "" {
		return nil, apperr.Unauthenticated("applicant identity is required")
	}
	if input.Title == "" {
		return nil, apperr.InvalidArgument("application title is required")
	}
	if err := validateApplicationMilestones(input.Milestones); err != nil {
		return nil, err
	}
	for _, doc := range input.SupportingDocuments {
		if strings.TrimSpace(doc) == "" {
			return nil, apperr.InvalidArgument("supporting documents must be a list of references")
		}
	}

	var application *model.GrantApplication
	err := a.db.Transaction(func(tx *gorm.DB) error {
		var grant model.Grant
		if err := tx.First(&grant, grantId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("grant %d not found", grantId)
			}
			return apperr.Internal(err)
		}
		if grant.Status != model.GrantStatusOpen {
			return apperr.PreconditionFailed("grant is not open for applications")
		}
		if err := checkApplicationBudget(input.Milestones, grant.TotalBudget); err != nil {
			return err
		}

		var existing int64
		err := tx.Model(&model.GrantApplication{}).
			Where("grant_id = ? AND LOWER(applicant_address) = LOWER(?) AND archived = ?", grantId, applicant, false).
			Count(&existing).Error
		if err != nil {
			return apperr.Internal(err)
		}
		if existing > 0 {
			return apperr.Conflict("you have already applied to this grant")
		}

		application = &model.GrantApplication{
			GrantId:             grantId,
			ApplicantAddress:    applicant,
			Title:               input.Title,
			Summary:             input.Summary,
			Status:              model.ApplicationStatusSubmitted,
			SupportingDocuments: strings.Join(input.SupportingDocuments, ","),
		}
		if err := tx.Create(application).Error; err != nil {
			return apperr.Internal(err)
		}
		return createApplicationMilestones(tx, application.Id, input.Milestones)
	})
	if err != nil {
		return nil, err
	}

	a.emitter.Emit("application.status_changed", "grant_application", application.Id, map[string]interface{}{
		"status":    string(application.Status),
		"applicant": applicant,
	})
	return application, nil
}

// ReviseMilestones replaces the negotiated milestone list and moves the
// application back to awaiting_final_approval, resetting the approval
// clock. Only the applicant or the grant creator may revise, and only
// while no milestone escrow has been engaged.
func (a *ApplicationLogic) ReviseMilestones(applicationId int64, actor string, milestones []ApplicationMilestoneInput) (*model.GrantApplication, error) {
	if len(milestones) == 0 {
		return nil, apperr.InvalidArgument("milestone list cannot be empty")
	}
	if err := validateApplicationMilestones(milestones); err != nil {
		return nil, err
	}

	var application model.GrantApplication
	err := a.db.Transaction(func(tx *gorm.DB) error {
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
			return apperr.Forbidden("only the applicant or the grant creator can revise milestones")
		}
		if application.Status.Terminal() {
			return apperr.Conflict("application is %s and cannot be revised", application.Status)
		}
		if err := checkApplicationBudget(milestones, grant.TotalBudget); err != nil {
			return err
		}

		var engaged int64
		err := tx.Model(&model.ApplicationMilestone{}).
			Where("application_id = ? AND escrow_status <> ?", applicationId, model.EscrowStatusPending).
			Count(&engaged).Error
		if err != nil {
			return apperr.Internal(err)
		}
		if engaged > 0 {
			return apperr.Conflict("milestones with engaged escrow cannot be revised")
		}

		if err := tx.Where("application_id = ?", applicationId).Delete(&model.ApplicationMilestone{}).Error; err != nil {
			return apperr.Internal(err)
		}
		if err := createApplicationMilestones(tx, applicationId, milestones); err != nil {
			return err
		}

		if err := tx.Model(&application).Update("status", model.ApplicationStatusAwaitingFinal).Error; err != nil {
			return apperr.Internal(err)
		}
		application.Status = model.ApplicationStatusAwaitingFinal
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.emitter.Emit("application.status_changed", "grant_application", application.Id, map[string]interface{}{
		"status": string(application.Status),
		"actor":  actor,
	})
	return &application, nil
}

// ReviewDecision values accepted by Review.
const (
	ReviewDecisionApproved = "approved"
	ReviewDecisionRejected = "rejected"
)

// Review records an admin decision. Rejection archives the application,
// freeing the applicant's slot. Only submitted and awaiting_final_approval
// applications can be reviewed; approved, in-progress and terminal ones
// return Conflict.
func (a *ApplicationLogic) Review(applicationId int64, admin string, decision string, note string) (*model.GrantApplication, error) {
	if !a.authorizer.HasRole(admin, auth.RoleAdmin) {
		return nil, apperr.Forbidden("only administrators can review applications")
	}
	if decision != ReviewDecisionApproved && decision != ReviewDecisionRejected {
		return nil, apperr.InvalidArgument("decision must be %q or %q", ReviewDecisionApproved, ReviewDecisionRejected)
	}

	var application model.GrantApplication
	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&application, applicationId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("application %d not found", applicationId)
			}
			return apperr.Internal(err)
		}
		if application.Status != model.ApplicationStatusSubmitted &&
			application.Status != model.ApplicationStatusAwaitingFinal {
			return apperr.Conflict("application is %s and cannot be reviewed", application.Status)
		}

		updates := map[string]interface{}{"admin_note": note}
		if decision == ReviewDecisionApproved {
			updates["status"] = model.ApplicationStatusApproved
			updates["archived"] = false
		} else {
			updates["status"] = model.ApplicationStatusRejected
			updates["archived"] = true
		}

		res := tx.Model(&model.GrantApplication{}).
			Where("id = ? AND status = ?", applicationId, application.Status).
			Updates(updates)
		if res.Error != nil {
			return apperr.Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("application was updated concurrently")
		}

		if decision == ReviewDecisionApproved {
			application.Status = model.ApplicationStatusApproved
			application.Archived = false
		} else {
			application.Status = model.ApplicationStatusRejected
			application.Archived = true
		}
		application.AdminNote = note
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.emitter.Emit("application.status_changed", "grant_application", application.Id, map[string]interface{}{
		"status":   string(application.Status),
		"decision": decision,
		"admin":    admin,
	})
	return &application, nil
}

// GetApplication loads an application with its milestones in order.
func (a *ApplicationLogic) GetApplication(applicationId int64) (*model.GrantApplication, error) {
	var application model.GrantApplication
	if err := a.db.Preload("Milestones", func(db *gorm.DB) *gorm.DB {
		return db.Order("ordinal_index ASC")
	}).First(&application, applicationId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("application %d not found", applicationId)
		}
		return nil, apperr.Internal(err)
	}
	return &application, nil
}

// GetGrantApplications lists a grant's applications.
func (a *ApplicationLogic) GetGrantApplications(grantId int64, page, pageSize int) ([]model.GrantApplication, int64, error) {
	var applications []model.GrantApplication
	var total int64

	query := a.db.Model(&model.GrantApplication{}).Where("grant_id = ?", grantId)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&applications).Error; err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return applications, total, nil
}

// validateApplicationMilestones requires title, description and a
// positive expected payout on every entry.
func validateApplicationMilestones(milestones []ApplicationMilestoneInput) error {
	for i, m := range milestones {
		if m.Title == "" {
			return apperr.InvalidArgument("milestone %d is missing a title", i+1)
		}
		if m.Description == "" {
			return apperr.InvalidArgument("milestone %d is missing a description", i+1)
		}
		if m.ExpectedPayout <= 0 {
			return apperr.InvalidArgument("milestone %d expected payout must be positive", i+1)
		}
	}
	return nil
}

// checkApplicationBudget enforces sum(expected payouts) <= grant budget.
func checkApplicationBudget(milestones []ApplicationMilestoneInput, budget int64) error {
	var sum int64
	for _, m := range milestones {
		sum += m.ExpectedPayout
	}
	if budget > 0 && sum > budget {
		return apperr.InvalidArgument("milestone payouts %d exceed the grant budget %d", sum, budget)
	}
	return nil
}

func createApplicationMilestones(tx *gorm.DB, applicationId int64, milestones []ApplicationMilestoneInput) error {
	for i, m := range milestones {
		row := model.ApplicationMilestone{
			ApplicationId:  applicationId,
			OrdinalIndex:   i,
			Title:          m.Title,
			Description:    m.Description,
			ExpectedPayout: m.ExpectedPayout,
			EscrowStatus:   model.EscrowStatusPending,
		}
		if err := tx.Create(&row).Error; err != nil {
			return apperr.Internal(err)
		}
	}
	return nil
}
