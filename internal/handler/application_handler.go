package handler

import (
	"net/http"
	"strconv"

	"github.com/0xdevcollins/boundless-backend/internal/auth"
	"github.com/0xdevcollins/boundless-backend/internal/logic"
	"github.com/gin-gonic/gin"
)

// ApplicationHandler serves grant application workflow endpoints.
type ApplicationHandler struct {
	applicationLogic *logic.ApplicationLogic
}

func NewApplicationHandler(applicationLogic *logic.ApplicationLogic) *ApplicationHandler {
	return &ApplicationHandler{applicationLogic: applicationLogic}
}

// SubmitApplication files a proposal against a grant.
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	var req SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	application, err := h.applicationLogic.Submit(req.GrantId, auth.Actor(c), req.ApplicationInput)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "application submitted", gin.H{"application": application})
}

// ReviseMilestones replaces the negotiated milestone list.
func (h *ApplicationHandler) ReviseMilestones(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid application id")
		return
	}
	var req ReviseMilestonesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	application, err := h.applicationLogic.ReviseMilestones(id, auth.Actor(c), req.Milestones)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "milestones revised", gin.H{"application": application})
}

// ReviewApplication records an admin decision.
func (h *ApplicationHandler) ReviewApplication(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid application id")
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	application, err := h.applicationLogic.Review(id, auth.Actor(c), req.Decision, req.Note)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "application reviewed", gin.H{"application": application})
}

// GetApplication returns one application with its milestones.
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid application id")
		return
	}
	application, err := h.applicationLogic.GetApplication(id)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "application found", gin.H{"application": application})
}

// GetGrantApplications lists applications filed against a grant.
func (h *ApplicationHandler) GetGrantApplications(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid grant id")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	applications, total, err := h.applicationLogic.GetGrantApplications(id, page, pageSize)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "applications listed", gin.H{
		"applications": applications,
		"pagination":   NewPagination(page, pageSize, total),
	})
}
