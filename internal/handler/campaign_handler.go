package handler

import (
	"net/http"
	"strconv"

	"github.com/0xdevcollins/boundless-backend/internal/auth"
	"github.com/0xdevcollins/boundless-backend/internal/logic"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/gin-gonic/gin"
)

// CampaignHandler serves campaign lifecycle and backing endpoints.
type CampaignHandler struct {
	campaignLogic *logic.CampaignLogic
	fundingLogic  *logic.FundingLogic
}

func NewCampaignHandler(campaignLogic *logic.CampaignLogic, fundingLogic *logic.FundingLogic) *CampaignHandler {
	return &CampaignHandler{
		campaignLogic: campaignLogic,
		fundingLogic:  fundingLogic,
	}
}

// CreateCampaign files a campaign in pending_approval.
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	campaign := model.Campaign{
		ProjectId:       req.ProjectId,
		CreatorAddress:  auth.Actor(c),
		Title:           req.Title,
		Description:     req.Description,
		GoalAmount:      req.GoalAmount,
		MinContribution: req.MinContribution,
		MaxContribution: req.MaxContribution,
		Deadline:        req.Deadline,
		WhitepaperURL:   req.WhitepaperURL,
		PitchDeckURL:    req.PitchDeckURL,
	}
	if err := h.campaignLogic.CreateCampaign(&campaign, req.Milestones); err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "campaign created", gin.H{"campaign": campaign})
}

// ApproveCampaign runs the approval gate.
func (h *CampaignHandler) ApproveCampaign(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid campaign id")
		return
	}

	campaign, err := h.campaignLogic.Approve(c.Request.Context(), id, auth.Actor(c))
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "campaign approved", gin.H{"campaign": campaign})
}

// BackCampaign records a contribution against a live campaign.
func (h *CampaignHandler) BackCampaign(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid campaign id")
		return
	}
	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	contribution, err := h.fundingLogic.Contribute(model.FundingTargetCampaign, id, auth.Actor(c), req.Amount, req.TxHash)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "contribution recorded", gin.H{
		"contribution": ToContributionResponse(contribution),
	})
}

// CancelCampaign moves a campaign to cancelled.
func (h *CampaignHandler) CancelCampaign(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid campaign id")
		return
	}
	if err := h.campaignLogic.Cancel(id, auth.Actor(c)); err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "campaign cancelled", nil)
}

// GetCampaign returns one campaign with its milestone schedule.
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid campaign id")
		return
	}
	campaign, err := h.campaignLogic.GetCampaign(id)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "campaign found", gin.H{"campaign": campaign})
}

// GetCampaigns lists campaigns.
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	campaigns, total, err := h.campaignLogic.GetCampaigns(status, page, pageSize)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "campaigns listed", gin.H{
		"campaigns":  campaigns,
		"pagination": NewPagination(page, pageSize, total),
	})
}

// GetCampaignContributions lists contributions recorded for a campaign.
func (h *CampaignHandler) GetCampaignContributions(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid campaign id")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	records, total, err := h.fundingLogic.GetContributions(model.FundingTargetCampaign, id, page, pageSize)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "contributions listed", gin.H{
		"records":    ToContributionResponseList(records),
		"pagination": NewPagination(page, pageSize, total),
	})
}
