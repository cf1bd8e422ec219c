package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// operation names the loan action a route performs. Keys are scoped by it so
// a request id reused across actions never replays the wrong response.
type operation string

const (
	opSubmit   operation = "submit"
	opStatus   operation = "status"
	opRespond  operation = "respond"
	opDisburse operation = "disburse"
)

var routeOps = map[string]operation{
	"/loans":                               opSubmit,
	"/loans/:loan_id/status":               opStatus,
	"/loans/:loan_id/new-cantity/response": opRespond,
	"/loans/:loan_id/disburse":             opDisburse,
}

// noLoan stands in for the loan id of a submission, which has none yet.
const noLoan = "new"

type scope struct {
	LoanID    string
	Op        operation
	ClientID  string
	RequestID string
}

func scopeOf(c echo.Context, h axHeaders) scope {
	op, ok := routeOps[c.Path()]
	if !ok {
		op = operation(strings.ToLower(c.Request().Method) + " " + c.Path())
	}
	loanID := c.Param("loan_id")
	if loanID == "" {
		loanID = noLoan
	}
	return scope{LoanID: loanID, Op: op, ClientID: h.ClientID, RequestID: h.RequestID}
}

// key groups every entry of a loan under one prefix: idem:loan:<loan>:<op>:<client>:<request>.
func (s scope) key() string {
	return "idem:loan:" + s.LoanID + ":" + string(s.Op) + ":" + s.ClientID + ":" + s.RequestID
}

// reportsStatus is true for operations whose response carries the loan.
func (s scope) reportsStatus() bool {
	switch s.Op {
	case opSubmit, opStatus, opRespond, opDisburse:
		return true
	}
	return false
}
