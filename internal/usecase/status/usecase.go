package status

import (
	"context"
	"errors"
	"strings"
	"time"

	"loanflow/internal/domain/document"
	"loanflow/internal/domain/employee"
	"loanflow/internal/domain/event"
	"loanflow/internal/domain/loan"
	"loanflow/internal/domain/uow"
	"loanflow/internal/notification"
	"loanflow/internal/usecase/eventlog"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const fallbackEmployeeName = "Our credit team"

// Notifier accepts messages for asynchronous delivery. It must not block.
type Notifier interface {
	Enqueue(msg notification.Message)
}

// Fields carries the optional inputs of a status change. Empty strings count
// as absent.
type Fields struct {
	ReasonReject        *string
	ReasonChangeCantity *string
	NewCantity          *string
	EmployeeID          *string
}

type Deps struct {
	UoW       uow.UnitOfWork
	Employees employee.Repository
	Blobs     document.BlobStore
	Notifier  Notifier
	Composer  *notification.Composer
	Log       *zap.Logger
}

// Usecase applies loan status changes. Record updates, event inserts and
// document-record deletion share one transaction; blob cleanup and borrower
// notices run only after it commits.
type Usecase struct {
	uow       uow.UnitOfWork
	employees employee.Repository
	blobs     document.BlobStore
	notifier  Notifier
	composer  *notification.Composer
	log       *zap.Logger
	now       func() time.Time
}

func NewUsecase(d Deps) *Usecase {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		uow:       d.UoW,
		employees: d.Employees,
		blobs:     d.Blobs,
		notifier:  d.Notifier,
		composer:  d.Composer,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// afterCommit is what a transition leaves to do once the transaction is
// durable.
type afterCommit struct {
	blobURLs []string
	notify   func(l *loan.Loan) (notification.Message, error)
}

func (u *Usecase) ChangeStatus(ctx context.Context, loanID, target string, f Fields) (*loan.Loan, error) {
	to, err := loan.ParseStatus(target)
	if err != nil {
		return nil, err
	}
	f = f.normalized()
	if (f.NewCantity == nil) != (f.ReasonChangeCantity == nil) {
		return nil, loan.ErrIncompleteProposal
	}
	if f.NewCantity != nil {
		if err := loan.ValidateCantity(*f.NewCantity); err != nil {
			return nil, err
		}
	}

	var (
		out  *loan.Loan
		post afterCommit
	)
	err = u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		// disbursed is terminal
		if l.IsDisbursed {
			return loan.ErrAlreadyDisbursed
		}
		var err error
		switch {
		case to == loan.StatusApproved && f.NewCantity != nil:
			post, err = u.renegotiate(ctx, r, l, f)
		case to == loan.StatusApproved:
			post, err = u.approve(ctx, r, l, f)
		case to == loan.StatusDeferred && f.ReasonReject != nil:
			post, err = u.reject(ctx, r, l, *f.ReasonReject)
		case to == loan.StatusDisbursed:
			post, err = u.disburse(ctx, r, l)
		default:
			err = u.setStatus(ctx, r, l, to)
		}
		out = l
		return err
	})
	if err != nil {
		return nil, u.surface("change status", loanID, err)
	}

	u.log.Info("loan status changed",
		zap.String("loan_id", loanID),
		zap.String("status", string(out.Status)))
	u.finish(ctx, out, post)
	return out, nil
}

// RespondToNewCantity records the borrower's answer to a renegotiated amount.
// Of two concurrent answers exactly one wins; the other gets a conflict.
func (u *Usecase) RespondToNewCantity(ctx context.Context, loanID string, accept bool) (*loan.Loan, error) {
	var out *loan.Loan
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if !l.HasProposal() {
			return loan.ErrNoProposal
		}
		if l.NewCantityOpt != nil {
			return loan.ErrProposalAnswered
		}
		if err := eventlog.New(r.Events).MarkAnswered(ctx, l.ID, event.TypeChangeCantity); err != nil {
			return err
		}

		to := loan.StatusDeferred
		if accept {
			to = loan.StatusApproved
		}
		patch := loan.Patch{Status: &to, NewCantityOpt: &accept, StatusUpdatedAt: u.now()}
		n, err := r.Loans.UpdateWhere(ctx, l.ID, loan.Guard{Undecided: true}, patch)
		if err != nil {
			return err
		}
		if n == 0 {
			return loan.ErrProposalAnswered
		}
		patch.Apply(l)
		out = l
		return nil
	})
	if err != nil {
		return nil, u.surface("respond to new cantity", loanID, err)
	}
	u.log.Info("renegotiation answered",
		zap.String("loan_id", loanID),
		zap.Bool("accept", accept))
	return out, nil
}

func (u *Usecase) Disburse(ctx context.Context, loanID string) (*loan.Loan, error) {
	var (
		out  *loan.Loan
		post afterCommit
	)
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		var err error
		post, err = u.disburse(ctx, r, l)
		out = l
		return err
	})
	if err != nil {
		return nil, u.surface("disburse", loanID, err)
	}
	u.log.Info("loan disbursed", zap.String("loan_id", loanID))
	u.finish(ctx, out, post)
	return out, nil
}

func (u *Usecase) approve(ctx context.Context, r uow.Repos, l *loan.Loan, f Fields) (afterCommit, error) {
	to := loan.StatusApproved
	patch := loan.Patch{Status: &to, EmployeeID: f.EmployeeID, StatusUpdatedAt: u.now()}
	if err := u.update(ctx, r, l, loan.Guard{Status: l.Status}, patch); err != nil {
		return afterCommit{}, err
	}
	return afterCommit{notify: func(l *loan.Loan) (notification.Message, error) {
		return u.composer.Approval(borrower(l), l.LoanID, l.Cantity)
	}}, nil
}

func (u *Usecase) renegotiate(ctx context.Context, r uow.Repos, l *loan.Loan, f Fields) (afterCommit, error) {
	log := eventlog.New(r.Events)
	open, err := log.HasUnanswered(ctx, l.ID, event.TypeChangeCantity)
	if err != nil {
		return afterCommit{}, err
	}
	if open {
		return afterCommit{}, loan.ErrProposalOutstanding
	}

	to := loan.StatusApproved
	patch := loan.Patch{
		Status:              &to,
		EmployeeID:          f.EmployeeID,
		NewCantity:          f.NewCantity,
		ReasonChangeCantity: f.ReasonChangeCantity,
		ClearNewCantityOpt:  true,
		StatusUpdatedAt:     u.now(),
	}
	if err := u.update(ctx, r, l, loan.Guard{Status: l.Status}, patch); err != nil {
		return afterCommit{}, err
	}
	if _, err := log.Record(ctx, l.ID, event.TypeChangeCantity); err != nil {
		return afterCommit{}, err
	}

	employeeID := f.EmployeeID
	return afterCommit{notify: func(l *loan.Loan) (notification.Message, error) {
		return u.composer.Renegotiation(borrower(l), l.LoanID, l.Cantity,
			*l.NewCantity, *l.ReasonChangeCantity, u.employeeName(ctx, employeeID))
	}}, nil
}

func (u *Usecase) reject(ctx context.Context, r uow.Repos, l *loan.Loan, reason string) (afterCommit, error) {
	to := loan.StatusDeferred
	patch := loan.Patch{Status: &to, ReasonReject: &reason, StatusUpdatedAt: u.now()}
	if err := u.update(ctx, r, l, loan.Guard{Status: l.Status}, patch); err != nil {
		return afterCommit{}, err
	}

	docs, err := r.Documents.ListByLoanID(ctx, l.ID)
	if err != nil {
		return afterCommit{}, err
	}
	if _, err := r.Documents.DeleteByLoanID(ctx, l.ID); err != nil {
		return afterCommit{}, err
	}
	if _, err := eventlog.New(r.Events).Record(ctx, l.ID, event.TypeDocsReject); err != nil {
		return afterCommit{}, err
	}

	urls := make([]string, 0, len(docs))
	for _, d := range docs {
		urls = append(urls, d.PublicURL)
	}
	return afterCommit{
		blobURLs: urls,
		notify: func(l *loan.Loan) (notification.Message, error) {
			return u.composer.Rejection(borrower(l), l.LoanID, reason)
		},
	}, nil
}

func (u *Usecase) disburse(ctx context.Context, r uow.Repos, l *loan.Loan) (afterCommit, error) {
	if l.IsDisbursed {
		return afterCommit{}, loan.ErrAlreadyDisbursed
	}
	if l.Status != loan.StatusApproved {
		return afterCommit{}, loan.ErrInvalidTransition
	}

	now := u.now()
	to, yes := loan.StatusDisbursed, true
	patch := loan.Patch{Status: &to, IsDisbursed: &yes, DateDisbursed: &now, StatusUpdatedAt: now}
	n, err := r.Loans.UpdateWhere(ctx, l.ID, loan.Guard{Status: loan.StatusApproved, NotDisbursed: true}, patch)
	if err != nil {
		return afterCommit{}, err
	}
	if n == 0 {
		return afterCommit{}, loan.ErrAlreadyDisbursed
	}
	patch.Apply(l)

	if _, err := eventlog.New(r.Events).Record(ctx, l.ID, event.TypeDisbursement); err != nil {
		return afterCommit{}, err
	}
	return afterCommit{notify: func(l *loan.Loan) (notification.Message, error) {
		return u.composer.Disbursement(borrower(l), l.LoanID, l.Cantity, l.AccountNumber, *l.DateDisbursed)
	}}, nil
}

func (u *Usecase) setStatus(ctx context.Context, r uow.Repos, l *loan.Loan, to loan.Status) error {
	return u.update(ctx, r, l, loan.Guard{Status: l.Status}, loan.Patch{Status: &to, StatusUpdatedAt: u.now()})
}

// update applies patch only while guard holds and the loan is not yet
// disbursed, and mirrors it onto l.
func (u *Usecase) update(ctx context.Context, r uow.Repos, l *loan.Loan, guard loan.Guard, patch loan.Patch) error {
	guard.NotDisbursed = true
	n, err := r.Loans.UpdateWhere(ctx, l.ID, guard, patch)
	if err != nil {
		return err
	}
	if n == 0 {
		return loan.ErrStaleStatus
	}
	patch.Apply(l)
	return nil
}

func (u *Usecase) finish(ctx context.Context, l *loan.Loan, post afterCommit) {
	for _, url := range post.blobURLs {
		if err := u.blobs.DeleteObject(ctx, url); err != nil {
			u.log.Warn("delete document blob",
				zap.String("loan_id", l.LoanID),
				zap.String("url", url),
				zap.Error(err))
		}
	}
	if post.notify == nil {
		return
	}
	msg, err := post.notify(l)
	if err != nil {
		u.log.Error("compose notification", zap.String("loan_id", l.LoanID), zap.Error(err))
		return
	}
	u.notifier.Enqueue(msg)
}

func (u *Usecase) employeeName(ctx context.Context, employeeID *string) string {
	if employeeID == nil || u.employees == nil {
		return fallbackEmployeeName
	}
	e, err := u.employees.GetByEmployeeID(ctx, *employeeID)
	if err != nil {
		u.log.Warn("employee lookup", zap.String("employee_id", *employeeID), zap.Error(err))
		return fallbackEmployeeName
	}
	return e.FullName
}

// surface maps store errors onto the loan error kinds. Anything unexpected is
// logged here and hidden behind loan.ErrInternal.
func (u *Usecase) surface(op, loanID string, err error) error {
	switch {
	case loan.IsKnown(err):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return loan.ErrNotFound
	}
	u.log.Error(op, zap.String("loan_id", loanID), zap.Error(err))
	return loan.ErrInternal
}

func borrower(l *loan.Loan) notification.Borrower {
	return notification.Borrower{Name: l.BorrowerName, Email: l.BorrowerEmail}
}

func (f Fields) normalized() Fields {
	return Fields{
		ReasonReject:        nonEmpty(f.ReasonReject),
		ReasonChangeCantity: nonEmpty(f.ReasonChangeCantity),
		NewCantity:          nonEmpty(f.NewCantity),
		EmployeeID:          nonEmpty(f.EmployeeID),
	}
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
