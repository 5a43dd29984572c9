package handler

import (
	"net/http"
	"strconv"

	"github.com/0xdevcollins/boundless-backend/internal/auth"
	"github.com/0xdevcollins/boundless-backend/internal/logic"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/gin-gonic/gin"
)

// GrantHandler serves grant program endpoints.
type GrantHandler struct {
	grantLogic *logic.GrantLogic
}

func NewGrantHandler(grantLogic *logic.GrantLogic) *GrantHandler {
	return &GrantHandler{grantLogic: grantLogic}
}

// CreateGrant files a draft grant program.
func (h *GrantHandler) CreateGrant(c *gin.Context) {
	var req CreateGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	grant := model.Grant{
		CreatorAddress: auth.Actor(c),
		Title:          req.Title,
		Description:    req.Description,
		RulesText:      req.RulesText,
		TotalBudget:    req.TotalBudget,
	}
	if err := h.grantLogic.CreateGrant(&grant, req.Milestones); err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "grant created", gin.H{"grant": grant})
}

// SetGrantStatus moves a grant along its lifecycle.
func (h *GrantHandler) SetGrantStatus(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid grant id")
		return
	}
	var req GrantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.grantLogic.SetStatus(id, auth.Actor(c), model.GrantStatus(req.Status)); err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "grant status updated", nil)
}

// GetGrant returns one grant with its milestone templates.
func (h *GrantHandler) GetGrant(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid grant id")
		return
	}
	grant, err := h.grantLogic.GetGrant(id)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "grant found", gin.H{"grant": grant})
}

// GetGrants lists grants.
func (h *GrantHandler) GetGrants(c *gin.Context) {
	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	grants, total, err := h.grantLogic.GetGrants(status, page, pageSize)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "grants listed", gin.H{
		"grants":     grants,
		"pagination": NewPagination(page, pageSize, total),
	})
}
