package handler

import (
	"net/http"
	"strconv"

	"github.com/0xdevcollins/boundless-backend/internal/auth"
	"github.com/0xdevcollins/boundless-backend/internal/logic"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/gin-gonic/gin"
)

// ProjectHandler serves idea-stage projects and direct project funding.
type ProjectHandler struct {
	projectLogic *logic.ProjectLogic
	fundingLogic *logic.FundingLogic
}

func NewProjectHandler(projectLogic *logic.ProjectLogic, fundingLogic *logic.FundingLogic) *ProjectHandler {
	return &ProjectHandler{
		projectLogic: projectLogic,
		fundingLogic: fundingLogic,
	}
}

// CreateProject registers a new idea-stage project.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	project := model.Project{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		OwnerAddress:    auth.Actor(c),
		MinContribution: req.MinContribution,
		MaxContribution: req.MaxContribution,
	}
	team := make([]model.ProjectTeamMember, len(req.Team))
	for i, member := range req.Team {
		team[i] = model.ProjectTeamMember{MemberAddress: member}
	}

	if err := h.projectLogic.CreateProject(&project, team); err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "project created", gin.H{"project": project})
}

// GetProjects lists projects.
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	projects, total, err := h.projectLogic.GetProjects(status, page, pageSize)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "projects listed", gin.H{
		"projects":   projects,
		"pagination": NewPagination(page, pageSize, total),
	})
}

// GetProject returns one project with its team.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid project id")
		return
	}
	project, err := h.projectLogic.GetProject(id)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "project found", gin.H{"project": project})
}

// OpenVoting starts the community vote window for an idea.
func (h *ProjectHandler) OpenVoting(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid project id")
		return
	}
	var req OpenVotingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	threshold, err := h.projectLogic.OpenVoting(id, auth.Actor(c), req.ThresholdVotes, req.Deadline)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "voting opened", gin.H{"threshold": ToThresholdResponse(threshold)})
}

// OpenFunding promotes a threshold-met project into direct funding.
func (h *ProjectHandler) OpenFunding(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid project id")
		return
	}
	var req OpenFundingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.projectLogic.OpenFunding(id, auth.Actor(c), req.GoalAmount, req.EndDate); err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "funding opened", nil)
}

// FundProject records a direct contribution against a live project.
func (h *ProjectHandler) FundProject(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid project id")
		return
	}
	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	contribution, err := h.fundingLogic.Contribute(model.FundingTargetProject, id, auth.Actor(c), req.Amount, req.TxHash)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "contribution recorded", gin.H{
		"contribution": ToContributionResponse(contribution),
	})
}

// GetProjectContributions lists contributions recorded for a project.
func (h *ProjectHandler) GetProjectContributions(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid project id")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	records, total, err := h.fundingLogic.GetContributions(model.FundingTargetProject, id, page, pageSize)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "contributions listed", gin.H{
		"records":    ToContributionResponseList(records),
		"pagination": NewPagination(page, pageSize, total),
	})
}

func parseId(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
