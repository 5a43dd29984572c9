package handler

import (
	"net/http"

	"github.com/0xdevcollins/boundless-backend/internal/auth"
	"github.com/0xdevcollins/boundless-backend/internal/logic"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/gin-gonic/gin"
)

// VoteHandler serves the crowdfund threshold vote endpoints.
type VoteHandler struct {
	voteLogic *logic.VoteLogic
}

func NewVoteHandler(voteLogic *logic.VoteLogic) *VoteHandler {
	return &VoteHandler{voteLogic: voteLogic}
}

// CastVote records or flips the caller's vote on a project.
func (h *VoteHandler) CastVote(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid project id")
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	threshold, err := h.voteLogic.RegisterVote(id, auth.Actor(c), model.VoteDirection(req.Direction))
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "vote recorded", gin.H{"threshold": ToThresholdResponse(threshold)})
}

// RemoveVote withdraws the caller's vote.
func (h *VoteHandler) RemoveVote(c *gin.Context) {
	id, err := parseId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid project id")
		return
	}

	threshold, err := h.voteLogic.RemoveVote(id, auth.Actor(c))
	if err != nil {
		FailFromError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "vote removed", gin.H{"threshold": ToThresholdResponse(threshold)})
}
