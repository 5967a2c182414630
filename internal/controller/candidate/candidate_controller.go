package candidate

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/skillcheck/internal/controller/respond"
	"github.com/lshigami/skillcheck/internal/dto"
	"github.com/lshigami/skillcheck/internal/middleware"
	"github.com/lshigami/skillcheck/internal/service"
)

type CandidateController struct {
	invites   service.InviteService
	attempts  service.AttemptService
	integrity service.IntegrityService
}

func NewCandidateController(invites service.InviteService, attempts service.AttemptService, integrity service.IntegrityService) *CandidateController {
	return &CandidateController{invites: invites, attempts: attempts, integrity: integrity}
}

// RedeemInvite godoc
// @Summary Redeem an invite token and start the attempt
// @Tags Candidate - Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param redeem body dto.RedeemRequest true "Invite token"
// @Success 200 {object} dto.RedeemResponse
// @Failure 404 {object} dto.ErrorResponse "Token invalid"
// @Failure 409 {object} dto.ErrorResponse "Token already used"
// @Failure 410 {object} dto.ErrorResponse "Token expired"
// @Router /invites/redeem [post]
func (ctrl *CandidateController) RedeemInvite(c *gin.Context) {
	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}
	principal, _ := middleware.CurrentPrincipal(c)

	resp, err := ctrl.invites.Redeem(c.Request.Context(), principal.CurrentCandidateID(), req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordAnswer godoc
// @Summary Save an answer
// @Description Last write wins. Rejected once the time limit has passed.
// @Tags Candidate - Attempts
// @Accept json
// @Security BearerAuth
// @Param id path string true "Attempt ID"
// @Param answer body dto.RecordAnswerRequest true "Answer"
// @Success 204
// @Failure 409 {object} dto.ErrorResponse "Deadline passed or attempt not in progress"
// @Router /attempts/{id}/answers [post]
func (ctrl *CandidateController) RecordAnswer(c *gin.Context) {
	var req dto.RecordAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}
	principal, _ := middleware.CurrentPrincipal(c)

	if err := ctrl.attempts.RecordAnswer(c.Request.Context(), principal.CurrentCandidateID(), c.Param("id"), req); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitAttempt godoc
// @Summary Submit the attempt for scoring
// @Tags Candidate - Attempts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Attempt ID"
// @Success 200 {object} dto.SubmitResponse
// @Failure 409 {object} dto.ErrorResponse "Already submitted or not in progress"
// @Router /attempts/{id}/submit [post]
func (ctrl *CandidateController) SubmitAttempt(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)
	resp, err := ctrl.attempts.Submit(c.Request.Context(), principal.CurrentCandidateID(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordFlag godoc
// @Summary Report an integrity signal
// @Description Accepted for attempts in any state. Advisory only.
// @Tags Candidate - Attempts
// @Accept json
// @Security BearerAuth
// @Param id path string true "Attempt ID"
// @Param flag body dto.RecordFlagRequest true "Signal"
// @Success 202
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{id}/flags [post]
func (ctrl *CandidateController) RecordFlag(c *gin.Context) {
	var req dto.RecordFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}
	principal, _ := middleware.CurrentPrincipal(c)

	if err := ctrl.integrity.RecordFlag(c.Request.Context(), principal.CurrentCandidateID(), c.Param("id"), req); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
