package http

import (
	"errors"
	"net/http"

	"loanflow/internal/domain/loan"

	"github.com/labstack/echo/v4"
)

// writeError maps the loan error kinds onto HTTP statuses.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, loan.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: loan.ErrNotFound.Error()})
	case errors.Is(err, loan.ErrValidation):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   loan.ErrValidation.Error(),
			Details: []FieldError{{Field: "_", Message: err.Error()}},
		})
	case errors.Is(err, loan.ErrBadRequest):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, loan.ErrConflict):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, loan.ErrInternal):
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// decode binds and validates req. A non-nil response means the request
// was refused with the returned status.
func decode(c echo.Context, req any) (int, *ErrorResponse) {
	if err := c.Bind(req); err != nil {
		return http.StatusBadRequest, &ErrorResponse{Error: "invalid body"}
	}
	if err := c.Validate(req); err != nil {
		return http.StatusUnprocessableEntity, &ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		}
	}
	return 0, nil
}
