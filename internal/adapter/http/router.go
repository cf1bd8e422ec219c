package http

import (
	"github.com/labstack/echo/v4"
)

// Register mounts every route. mutating wraps the routes that change state.
func Register(e *echo.Echo, h *Handler, lh *LoanHandler, sh *StatusHandler, mutating ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health)

	g := e.Group("/loans")
	g.POST("", lh.CreateLoan, mutating...)
	g.GET("/:loan_id", lh.GetLoan)
	g.GET("/:loan_id/events", lh.ListEvents)
	g.POST("/:loan_id/status", sh.ChangeStatus, mutating...)
	g.POST("/:loan_id/new-cantity/response", sh.RespondNewCantity, mutating...)
	g.POST("/:loan_id/disburse", sh.Disburse, mutating...)
}
