package logic

import (
	"errors"
	"time"

	"github.com/0xdevcollins/boundless-backend/internal/apperr"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"gorm.io/gorm"
)

// ProjectLogic owns idea-stage projects: creation, opening the vote
// window and the promotion to direct funding.
type ProjectLogic struct {
	db *gorm.DB
}

func NewProjectLogic(db *gorm.DB) *ProjectLogic {
	return &ProjectLogic{db: db}
}

// CreateProject persists a new idea-stage project with its team.
func (p *ProjectLogic) CreateProject(project *model.Project, team []model.ProjectTeamMember) error {
	if project.Title == "" {
		return apperr.InvalidArgument("project title is required")
	}
	if project.OwnerAddress == "" {
		return apperr.InvalidArgument("project owner address is required")
	}
	project.Status = model.ProjectStatusIdea
	project.RaisedAmount = 0

	return p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return apperr.Internal(err)
		}
		for i := range team {
			team[i].ProjectId = project.Id
			if err := tx.Create(&team[i]).Error; err != nil {
				return apperr.Internal(err)
			}
		}
		return nil
	})
}

// OpenVoting moves an idea into the voting stage and creates its
// crowdfund threshold tracker.
func (p *ProjectLogic) OpenVoting(projectId int64, actor string, thresholdVotes int64, deadline time.Time) (*model.CrowdfundThreshold, error) {
	if thresholdVotes <= 0 {
		return nil, apperr.InvalidArgument("threshold votes must be positive")
	}
	if !deadline.After(time.Now()) {
		return nil, apperr.InvalidArgument("voting deadline must be in the future")
	}

	var threshold model.CrowdfundThreshold
	err := p.db.Transaction(func(tx *gorm.DB) error {
		var project model.Project
		if err := tx.First(&project, projectId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("project %d not found", projectId)
			}
			return apperr.Internal(err)
		}
		if !equalAddress(project.OwnerAddress, actor) {
			return apperr.Forbidden("only the project owner can open voting")
		}
		if project.Status != model.ProjectStatusIdea {
			return apperr.Conflict("project is %s and cannot open voting", project.Status)
		}

		res := tx.Model(&model.Project{}).
			Where("id = ? AND status = ?", projectId, model.ProjectStatusIdea).
			Update("status", model.ProjectStatusVoting)
		if res.Error != nil {
			return apperr.Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("project was updated concurrently")
		}

		threshold = model.CrowdfundThreshold{
			ProjectId:      projectId,
			ThresholdVotes: thresholdVotes,
			Deadline:       deadline,
			Status:         model.ThresholdStatusPending,
		}
		if err := tx.Create(&threshold).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &threshold, nil
}

// OpenFunding promotes a threshold-met project to live so the funding
// ledger accepts contributions for it.
func (p *ProjectLogic) OpenFunding(projectId int64, actor string, goalAmount int64, endDate time.Time) error {
	if goalAmount <= 0 {
		return apperr.InvalidArgument("goal amount must be positive")
	}
	if !endDate.After(time.Now()) {
		return apperr.InvalidArgument("funding end date must be in the future")
	}

	var project model.Project
	if err := p.db.First(&project, projectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("project %d not found", projectId)
		}
		return apperr.Internal(err)
	}
	if !equalAddress(project.OwnerAddress, actor) {
		return apperr.Forbidden("only the project owner can open funding")
	}
	if project.Status != model.ProjectStatusPromoted {
		return apperr.PreconditionFailed("project is %s and cannot open funding", project.Status)
	}

	res := p.db.Model(&model.Project{}).
		Where("id = ? AND status = ?", projectId, model.ProjectStatusPromoted).
		Updates(map[string]interface{}{
			"status":      model.ProjectStatusLive,
			"goal_amount": goalAmount,
			"end_date":    endDate,
		})
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("project was updated concurrently")
	}
	return nil
}

// GetProject loads a project with its team.
func (p *ProjectLogic) GetProject(projectId int64) (*model.Project, error) {
	var project model.Project
	if err := p.db.Preload("Team").First(&project, projectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project %d not found", projectId)
		}
		return nil, apperr.Internal(err)
	}
	return &project, nil
}

// GetProjects lists projects, optionally filtered by status.
func (p *ProjectLogic) GetProjects(status string, page, pageSize int) ([]model.Project, int64, error) {
	var projects []model.Project
	var total int64

	query := p.db.Model(&model.Project{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return projects, total, nil
}
