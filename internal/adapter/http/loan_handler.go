package http

import (
	"net/http"

	"loanflow/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	BorrowerID    string `json:"borrower_id" validate:"required,hex32"`
	BorrowerName  string `json:"borrower_name" validate:"required,max=128"`
	BorrowerEmail string `json:"borrower_email" validate:"required,email"`
	AccountNumber string `json:"account_number" validate:"required,max=34"`
	Cantity       string `json:"cantity" validate:"required,posdec,dec2"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if code, er := decode(c, &req); er != nil {
		return c.JSON(code, er)
	}
	dto, err := h.uc.Create(c.Request().Context(), loan.CreateLoanInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListEvents(c echo.Context) error {
	evs, err := h.uc.Events(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"events": evs})
}
