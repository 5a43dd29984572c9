package handler

import (
	"net/http"
	"strconv"

	"github.com/0xdevcollins/boundless-backend/internal/auth"
	"github.com/0xdevcollins/boundless-backend/internal/logic"
	"github.com/gin-gonic/gin"
)

// EscrowHandler serves the milestone escrow mirror endpoints.
type EscrowHandler struct {
	escrowLogic *logic.EscrowLogic
}

func NewEscrowHandler(escrowLogic *logic.EscrowLogic) *EscrowHandler {
	return &EscrowHandler{escrowLogic: escrowLogic}
}

// UpdateEscrow applies a lock/approve/reject/dispute action to an
// application's escrow state.
func (h *EscrowHandler) UpdateEscrow(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid application id")
		return
	}
	var req EscrowUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	actor := auth.Actor(c)
	switch req.Action {
	case "lock":
		milestone, err := h.escrowLogic.Lock(id, req.Amount, req.TxHash)
		if err != nil {
			FailFromError(c, err)
			return
		}
		SuccessResponse(c, http.StatusOK, "escrow locked", gin.H{"milestone": ToMilestoneEscrowResponse(milestone)})
	case "approve":
		milestone, err := h.escrowLogic.ApproveMilestone(id, req.MilestoneIndex, actor)
		if err != nil {
			FailFromError(c, err)
			return
		}
		SuccessResponse(c, http.StatusOK, "milestone approved", gin.H{"milestone": ToMilestoneEscrowResponse(milestone)})
	case "reject":
		milestone, err := h.escrowLogic.RejectMilestone(id, req.MilestoneIndex, actor)
		if err != nil {
			FailFromError(c, err)
			return
		}
		SuccessResponse(c, http.StatusOK, "milestone rejected", gin.H{"milestone": ToMilestoneEscrowResponse(milestone)})
	case "dispute":
		milestone, err := h.escrowLogic.DisputeMilestone(id, req.MilestoneIndex, actor)
		if err != nil {
			FailFromError(c, err)
			return
		}
		SuccessResponse(c, http.StatusOK, "milestone disputed", gin.H{"milestone": ToMilestoneEscrowResponse(milestone)})
	default:
		ErrorResponse(c, http.StatusBadRequest, "unknown escrow action "+strconv.Quote(req.Action))
	}
}

// ReleaseMilestone pays out an approved milestone through the
// settlement service.
func (h *EscrowHandler) ReleaseMilestone(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid application id")
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid milestone index")
		return
	}

	milestone, err := h.escrowLogic.Release(c.Request.Context(), id, index)
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "milestone released", gin.H{"milestone": ToMilestoneEscrowResponse(milestone)})
}
