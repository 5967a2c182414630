// Package respond writes API error bodies for controllers.
package respond

import (
	"github.com/gin-gonic/gin"
	"github.com/lshigami/skillcheck/internal/apperr"
	"github.com/lshigami/skillcheck/internal/dto"
	"github.com/rs/zerolog/log"
)

// Error writes err as an ErrorResponse. Coded errors keep their code and message; anything
// else is logged and reported as an internal error without leaking its text.
func Error(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok || e.Code == apperr.CodeInternal {
		log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(apperr.CodeInternal.HTTPStatus(), dto.ErrorResponse{
			Code:    string(apperr.CodeInternal),
			Message: "internal server error",
		})
		return
	}
	c.JSON(e.Code.HTTPStatus(), dto.ErrorResponse{
		Code:    string(e.Code),
		Message: e.Message,
		Details: e.Details,
	})
}

// BadRequest reports a body that could not be decoded.
func BadRequest(c *gin.Context, err error) {
	log.Warn().Err(err).Str("path", c.FullPath()).Msg("Failed to bind request body")
	c.JSON(apperr.CodeValidation.HTTPStatus(), dto.ErrorResponse{
		Code:    string(apperr.CodeValidation),
		Message: "Invalid request body",
		Details: []string{err.Error()},
	})
}
