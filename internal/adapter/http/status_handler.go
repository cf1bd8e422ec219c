package http

import (
	"net/http"

	loanuc "loanflow/internal/usecase/loan"
	"loanflow/internal/usecase/status"

	"github.com/labstack/echo/v4"
)

type StatusHandler struct{ uc *status.Usecase }

func NewStatusHandler(uc *status.Usecase) *StatusHandler { return &StatusHandler{uc: uc} }

type changeStatusReq struct {
	Status              string  `json:"status" validate:"required"`
	EmployeeID          *string `json:"employee_id" validate:"omitempty,hex32"`
	ReasonReject        *string `json:"reason_reject" validate:"omitempty,max=2000"`
	NewCantity          *string `json:"new_cantity" validate:"omitempty,posdec,dec2"`
	ReasonChangeCantity *string `json:"reason_change_cantity" validate:"omitempty,max=2000"`
}

type respondReq struct {
	Accept *bool `json:"accept" validate:"required"`
}

// ChangeStatus leaves status names and field pairing to the usecase so the
// error kinds stay in one place.
func (h *StatusHandler) ChangeStatus(c echo.Context) error {
	var req changeStatusReq
	if code, er := decode(c, &req); er != nil {
		return c.JSON(code, er)
	}
	l, err := h.uc.ChangeStatus(c.Request().Context(), c.Param("loan_id"), req.Status, status.Fields{
		ReasonReject:        req.ReasonReject,
		ReasonChangeCantity: req.ReasonChangeCantity,
		NewCantity:          req.NewCantity,
		EmployeeID:          req.EmployeeID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, loanuc.ToDTO(l))
}

func (h *StatusHandler) RespondNewCantity(c echo.Context) error {
	var req respondReq
	if code, er := decode(c, &req); er != nil {
		return c.JSON(code, er)
	}
	l, err := h.uc.RespondToNewCantity(c.Request().Context(), c.Param("loan_id"), *req.Accept)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, loanuc.ToDTO(l))
}

func (h *StatusHandler) Disburse(c echo.Context) error {
	l, err := h.uc.Disburse(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, loanuc.ToDTO(l))
}
