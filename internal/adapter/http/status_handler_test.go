package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"loanflow/internal/domain/employee"
	domain "loanflow/internal/domain/loan"
	"loanflow/internal/domain/uow"
	"loanflow/internal/notification"
	"loanflow/internal/testutil/documentmock"
	"loanflow/internal/testutil/employeemock"
	"loanflow/internal/testutil/eventmock"
	loanmock "loanflow/internal/testutil/loanmock"
	"loanflow/internal/testutil/uowmock"
	uc "loanflow/internal/usecase/loan"
	"loanflow/internal/usecase/status"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var statusLoanID = strings.Repeat("a", 32)

type outbox struct {
	mu   sync.Mutex
	msgs []notification.Message
}

func (o *outbox) Enqueue(m notification.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, m)
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.msgs)
}

// newStatusHandler serves l for every transaction; conditional updates
// always succeed.
func newStatusHandler(l domain.Loan) (*StatusHandler, *outbox) {
	repos := uow.Repos{Loans: &loanmock.Repo{}, Events: &eventmock.Repo{}, Documents: &documentmock.Repo{}}
	u := uowmock.Passthrough(repos, func(id string) (*domain.Loan, error) {
		if id != l.LoanID {
			return nil, gorm.ErrRecordNotFound
		}
		cp := l
		return &cp, nil
	})
	out := &outbox{}
	usecase := status.NewUsecase(status.Deps{
		UoW:       u,
		Employees: &employeemock.Repo{Employees: map[string]employee.Employee{}},
		Blobs:     &documentmock.Blobs{},
		Notifier:  out,
		Composer:  notification.NewComposer(notification.NewTemplateCache(10), "Loanflow"),
	})
	return NewStatusHandler(usecase), out
}

func pendingStatusLoan() domain.Loan {
	return domain.Loan{
		ID:            1,
		LoanID:        statusLoanID,
		BorrowerID:    strings.Repeat("b", 32),
		BorrowerName:  "Ana Borrower",
		BorrowerEmail: "ana@example.com",
		AccountNumber: "ES9121000418450200051332",
		Cantity:       "1000000",
		Status:        domain.StatusPending,
	}
}

func postJSON(t *testing.T, e *echo.Echo, path, body string, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(stdhttp.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("loan_id")
	c.SetParamValues(statusLoanID)
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestChangeStatus_Approve(t *testing.T) {
	e := newEchoWithValidator()
	h, out := newStatusHandler(pendingStatusLoan())

	rec := postJSON(t, e, "/loans/"+statusLoanID+"/status", `{"status":"Approved"}`, h.ChangeStatus)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	var dto uc.LoanDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if dto.Status != "approved" {
		t.Fatalf("status = %s, want approved", dto.Status)
	}
	if out.count() != 1 {
		t.Fatalf("notifications = %d, want 1", out.count())
	}
}

func TestChangeStatus_Renegotiate(t *testing.T) {
	e := newEchoWithValidator()
	h, out := newStatusHandler(pendingStatusLoan())

	body := `{"status":"approved","new_cantity":"800000","reason_change_cantity":"income check"}`
	rec := postJSON(t, e, "/loans/"+statusLoanID+"/status", body, h.ChangeStatus)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	var dto uc.LoanDTO
	_ = json.Unmarshal(rec.Body.Bytes(), &dto)
	if dto.NewCantity == nil || *dto.NewCantity != "800000" || dto.Cantity != "1000000" {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if out.count() != 1 {
		t.Fatalf("notifications = %d, want 1", out.count())
	}
}

func TestChangeStatus_UnknownStatus(t *testing.T) {
	e := newEchoWithValidator()
	h, _ := newStatusHandler(pendingStatusLoan())

	rec := postJSON(t, e, "/loans/"+statusLoanID+"/status", `{"status":"frozen"}`, h.ChangeStatus)
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestChangeStatus_HalfProposal(t *testing.T) {
	e := newEchoWithValidator()
	h, _ := newStatusHandler(pendingStatusLoan())

	rec := postJSON(t, e, "/loans/"+statusLoanID+"/status", `{"status":"approved","new_cantity":"10"}`, h.ChangeStatus)
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestChangeStatus_BadFields(t *testing.T) {
	e := newEchoWithValidator()
	h, _ := newStatusHandler(pendingStatusLoan())

	body := `{"status":"approved","employee_id":"nope","new_cantity":"-1","reason_change_cantity":"x"}`
	rec := postJSON(t, e, "/loans/"+statusLoanID+"/status", body, h.ChangeStatus)
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var er ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &er)
	if !containsFieldMsg(er.Details, "EmployeeID", "32-char lowercase hex") {
		t.Fatalf("missing employee_id detail: %+v", er.Details)
	}
	if !containsFieldMsg(er.Details, "NewCantity", "positive decimal") {
		t.Fatalf("missing new_cantity detail: %+v", er.Details)
	}
}

func TestChangeStatus_LoanNotFound(t *testing.T) {
	e := newEchoWithValidator()
	l := pendingStatusLoan()
	l.LoanID = strings.Repeat("f", 32)
	h, _ := newStatusHandler(l)

	rec := postJSON(t, e, "/loans/"+statusLoanID+"/status", `{"status":"archived"}`, h.ChangeStatus)
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRespondNewCantity_Accept(t *testing.T) {
	e := newEchoWithValidator()
	l := pendingStatusLoan()
	l.Status = domain.StatusApproved
	nc, reason := "800000", "income check"
	l.NewCantity, l.ReasonChangeCantity = &nc, &reason
	h, out := newStatusHandler(l)

	rec := postJSON(t, e, "/loans/"+statusLoanID+"/new-cantity/response", `{"accept":true}`, h.RespondNewCantity)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	var dto uc.LoanDTO
	_ = json.Unmarshal(rec.Body.Bytes(), &dto)
	if dto.NewCantityOpt == nil || !*dto.NewCantityOpt || dto.Status != "approved" {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if out.count() != 0 {
		t.Fatalf("answering must not notify, got %d", out.count())
	}
}

func TestRespondNewCantity_MissingAccept(t *testing.T) {
	e := newEchoWithValidator()
	h, _ := newStatusHandler(pendingStatusLoan())

	rec := postJSON(t, e, "/loans/"+statusLoanID+"/new-cantity/response", `{}`, h.RespondNewCantity)
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var er ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &er)
	if !containsFieldMsg(er.Details, "Accept", "is required") {
		t.Fatalf("missing accept detail: %+v", er.Details)
	}
}

func TestRespondNewCantity_NoProposal(t *testing.T) {
	e := newEchoWithValidator()
	h, _ := newStatusHandler(pendingStatusLoan())

	rec := postJSON(t, e, "/loans/"+statusLoanID+"/new-cantity/response", `{"accept":false}`, h.RespondNewCantity)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDisburse(t *testing.T) {
	e := newEchoWithValidator()
	l := pendingStatusLoan()
	l.Status = domain.StatusApproved
	h, out := newStatusHandler(l)

	rec := postJSON(t, e, "/loans/"+statusLoanID+"/disburse", ``, h.Disburse)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	var dto uc.LoanDTO
	_ = json.Unmarshal(rec.Body.Bytes(), &dto)
	if !dto.IsDisbursed || dto.DateDisbursed == nil || dto.Status != "disbursed" {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if out.count() != 1 {
		t.Fatalf("notifications = %d, want 1", out.count())
	}
}

func TestDisburse_AlreadyDisbursed(t *testing.T) {
	e := newEchoWithValidator()
	l := pendingStatusLoan()
	l.Status = domain.StatusDisbursed
	l.IsDisbursed = true
	h, out := newStatusHandler(l)

	rec := postJSON(t, e, "/loans/"+statusLoanID+"/disburse", ``, h.Disburse)
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if out.count() != 0 {
		t.Fatalf("notifications = %d, want 0", out.count())
	}
}

func TestRegister_Routes(t *testing.T) {
	e := newEchoWithValidator()
	sh, _ := newStatusHandler(pendingStatusLoan())
	lh := NewLoanHandler(uc.NewUsecase(&loanmock.Repo{}, &eventmock.Repo{}, nil))

	var hits int
	count := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			hits++
			return next(c)
		}
	}
	Register(e, NewHandler(), lh, sh, count)

	req := httptest.NewRequest(stdhttp.MethodPost, "/loans/"+statusLoanID+"/status", strings.NewReader(`{"status":"archived"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(stdhttp.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("health = %d, want 200", rec.Code)
	}
	if hits != 1 {
		t.Fatalf("mutating middleware hits = %d, want 1", hits)
	}
}

