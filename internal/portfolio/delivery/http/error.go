package http

import (
	"net/http"

	"golang-portfolio-tracker/internal/portfolio/dto"
	"golang-portfolio-tracker/pkg/errs"

	"github.com/labstack/echo/v4"
)

// writeError maps a classified service error to an HTTP response.
// Integrity warnings never arrive here; they ride success payloads.
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch errs.KindOf(err) {
	case errs.KindValidation:
		status = http.StatusBadRequest
	case errs.KindNotFound:
		status = http.StatusNotFound
	}
	return c.JSON(status, dto.ErrorResponse{Error: err.Error()})
}
