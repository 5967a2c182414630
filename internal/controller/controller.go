package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/skillcheck/internal/controller/admin"
	"github.com/lshigami/skillcheck/internal/controller/candidate"
	"github.com/lshigami/skillcheck/internal/controller/recruiter"
	"github.com/lshigami/skillcheck/internal/controller/respond"
	"github.com/lshigami/skillcheck/internal/middleware"
	"github.com/lshigami/skillcheck/internal/service"
)

// Controller serves the endpoints shared between roles and owns route registration.
type Controller struct {
	ledger    service.LedgerService
	results   service.ResultsService
	recruiter *recruiter.RecruiterController
	candidate *candidate.CandidateController
	admin     *admin.AdminController
	auth      *middleware.Authenticator
	limiter   middleware.Allower
}

func NewController(
	ledger service.LedgerService,
	results service.ResultsService,
	recruiterCtrl *recruiter.RecruiterController,
	candidateCtrl *candidate.CandidateController,
	adminCtrl *admin.AdminController,
	auth *middleware.Authenticator,
	limiter middleware.Allower,
) *Controller {
	return &Controller{
		ledger:    ledger,
		results:   results,
		recruiter: recruiterCtrl,
		candidate: candidateCtrl,
		admin:     adminCtrl,
		auth:      auth,
		limiter:   limiter,
	}
}

func (ctrl *Controller) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", ctrl.Health)

	apiV1 := router.Group("/api/v1", middleware.RequireAuth(ctrl.auth), middleware.RateLimit(ctrl.limiter))
	{
		recruiterOnly := middleware.RequireRole(middleware.RoleRecruiter)
		recruiterOrAdmin := middleware.RequireRole(middleware.RoleRecruiter, middleware.RoleAdmin)
		candidateOnly := middleware.RequireRole(middleware.RoleCandidate)

		templates := apiV1.Group("/templates")
		templates.POST("", recruiterOnly, ctrl.recruiter.PublishTemplate)
		templates.GET("", recruiterOnly, ctrl.recruiter.ListTemplates)
		templates.GET("/:id", recruiterOrAdmin, ctrl.recruiter.GetTemplate)
		templates.PUT("/:id", recruiterOnly, ctrl.recruiter.UpdateTemplate)

		invites := apiV1.Group("/invites")
		invites.POST("", recruiterOnly, ctrl.recruiter.IssueInvite)
		invites.POST("/redeem", candidateOnly, ctrl.candidate.RedeemInvite)

		attempts := apiV1.Group("/attempts")
		attempts.POST("/:id/answers", candidateOnly, ctrl.candidate.RecordAnswer)
		attempts.POST("/:id/submit", candidateOnly, ctrl.candidate.SubmitAttempt)
		attempts.POST("/:id/flags", candidateOnly, ctrl.candidate.RecordFlag)
		attempts.GET("/:id/results", ctrl.GetResults)

		companies := apiV1.Group("/companies", recruiterOrAdmin)
		companies.GET("/:id/credits", ctrl.GetCredits)
		companies.GET("/:id/ledger", ctrl.GetLedger)

		adminGroup := apiV1.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
		adminGroup.POST("/companies/:id/credits", ctrl.admin.GrantCredits)
	}
}

// Health godoc
// @Summary Liveness probe
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (ctrl *Controller) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetCredits godoc
// @Summary Get a company's credit balance
// @Description Recruiters may only read their own company.
// @Tags Credits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Success 200 {object} dto.CreditBalanceResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /companies/{id}/credits [get]
func (ctrl *Controller) GetCredits(c *gin.Context) {
	companyID := c.Param("id")
	if !canReadCompany(c, companyID) {
		respond.Error(c, service.ErrForbidden)
		return
	}
	resp, err := ctrl.ledger.Balance(c.Request.Context(), companyID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetLedger godoc
// @Summary List a company's ledger entries
// @Description Newest first.
// @Tags Credits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Param limit query int false "Maximum entries (default 100, max 500)"
// @Success 200 {array} dto.LedgerEntryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /companies/{id}/ledger [get]
func (ctrl *Controller) GetLedger(c *gin.Context) {
	companyID := c.Param("id")
	if !canReadCompany(c, companyID) {
		respond.Error(c, service.ErrForbidden)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.BadRequest(c, strconv.ErrSyntax)
			return
		}
		limit = n
	}
	resp, err := ctrl.ledger.Entries(c.Request.Context(), companyID, limit)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetResults godoc
// @Summary Get an attempt's result
// @Description Visible to the candidate who took it, recruiters of the issuing company and admins.
// @Tags Results
// @Produce json
// @Security BearerAuth
// @Param id path string true "Attempt ID"
// @Success 200 {object} dto.AttemptResultResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{id}/results [get]
func (ctrl *Controller) GetResults(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)
	viewer := service.Viewer{
		CandidateID: principal.CurrentCandidateID(),
		CompanyID:   principal.CurrentCompanyID(),
		Admin:       principal.Role == middleware.RoleAdmin,
	}
	resp, err := ctrl.results.Get(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func canReadCompany(c *gin.Context, companyID string) bool {
	principal, _ := middleware.CurrentPrincipal(c)
	return principal.Role == middleware.RoleAdmin || principal.CurrentCompanyID() == companyID
}
