package recruiter

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/skillcheck/internal/controller/respond"
	"github.com/lshigami/skillcheck/internal/dto"
	"github.com/lshigami/skillcheck/internal/middleware"
	"github.com/lshigami/skillcheck/internal/service"
)

type RecruiterController struct {
	catalog service.CatalogService
	invites service.InviteService
}

func NewRecruiterController(catalog service.CatalogService, invites service.InviteService) *RecruiterController {
	return &RecruiterController{catalog: catalog, invites: invites}
}

// PublishTemplate godoc
// @Summary Publish an assessment template
// @Description Creates a template with its questions and cost schedule for the recruiter's company.
// @Tags Recruiter - Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param template body dto.TemplatePublishRequest true "Template definition"
// @Success 201 {object} dto.TemplateResponse
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /templates [post]
func (ctrl *RecruiterController) PublishTemplate(c *gin.Context) {
	var req dto.TemplatePublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}
	principal, _ := middleware.CurrentPrincipal(c)

	resp, err := ctrl.catalog.Publish(c.Request.Context(), principal.CurrentCompanyID(), req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListTemplates godoc
// @Summary List the company's templates
// @Tags Recruiter - Templates
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TemplateSummary
// @Router /templates [get]
func (ctrl *RecruiterController) ListTemplates(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)
	resp, err := ctrl.catalog.List(c.Request.Context(), principal.CurrentCompanyID())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetTemplate godoc
// @Summary Get a template
// @Description Expected answers are never returned. Admins may read any template.
// @Tags Recruiter - Templates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 200 {object} dto.TemplateResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /templates/{id} [get]
func (ctrl *RecruiterController) GetTemplate(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)
	resp, err := ctrl.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	if principal.Role != middleware.RoleAdmin && resp.CompanyID != principal.CurrentCompanyID() {
		respond.Error(c, service.ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateTemplate godoc
// @Summary Replace a template
// @Description Allowed only until the first invite references the template.
// @Tags Recruiter - Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Param template body dto.TemplatePublishRequest true "Template definition"
// @Success 200 {object} dto.TemplateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Template locked"
// @Router /templates/{id} [put]
func (ctrl *RecruiterController) UpdateTemplate(c *gin.Context) {
	var req dto.TemplatePublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}
	principal, _ := middleware.CurrentPrincipal(c)

	resp, err := ctrl.catalog.Update(c.Request.Context(), principal.CurrentCompanyID(), c.Param("id"), req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// IssueInvite godoc
// @Summary Invite a candidate to an assessment
// @Description Reserves credits and creates a single-use invite. Re-issuing for the same template, candidate and application returns the live invite with 200.
// @Tags Recruiter - Invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invite body dto.IssueInviteRequest true "Invite target"
// @Success 201 {object} dto.InviteResponse "Invite created"
// @Success 200 {object} dto.InviteResponse "Existing invite returned"
// @Failure 402 {object} dto.ErrorResponse "Insufficient credits"
// @Failure 404 {object} dto.ErrorResponse
// @Router /invites [post]
func (ctrl *RecruiterController) IssueInvite(c *gin.Context) {
	var req dto.IssueInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}
	principal, _ := middleware.CurrentPrincipal(c)

	resp, err := ctrl.invites.Issue(c.Request.Context(), principal.CurrentCompanyID(), req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	status := http.StatusCreated
	if !resp.Created {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}
