package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/skillcheck/internal/controller/respond"
	"github.com/lshigami/skillcheck/internal/dto"
	"github.com/lshigami/skillcheck/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminController struct {
	ledger service.LedgerService
}

func NewAdminController(ledger service.LedgerService) *AdminController {
	return &AdminController{ledger: ledger}
}

// GrantCredits godoc
// @Summary (Admin) Grant credits to a company
// @Description Adds prepaid credits to the company's available balance.
// @Tags Admin - Credits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Param grant body dto.GrantCreditsRequest true "Amount to grant"
// @Success 200 {object} dto.CreditBalanceResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /admin/companies/{id}/credits [post]
func (ctrl *AdminController) GrantCredits(c *gin.Context) {
	var req dto.GrantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	resp, err := ctrl.ledger.Grant(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		log.Warn().Err(err).Str("companyID", c.Param("id")).Msg("Admin GrantCredits: service error")
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
