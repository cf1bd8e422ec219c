package loan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"loanflow/internal/domain/event"
	"loanflow/internal/domain/loan"
	"loanflow/internal/usecase/eventlog"
	"loanflow/pkg/id"
	"loanflow/pkg/validate"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Usecase struct {
	repo   loan.Repository
	events event.Repository
	log    *zap.Logger
}

func NewUsecase(r loan.Repository, events event.Repository, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repo: r, events: events, log: log}
}

func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	if err := validate.Var(in.BorrowerID, "required,hex32"); err != nil {
		return nil, fmt.Errorf("%w: borrower_id must be 32 lowercase hex chars", loan.ErrValidation)
	}
	if err := loan.ValidateCantity(in.Cantity); err != nil {
		return nil, err
	}
	if err := validate.Var(strings.TrimSpace(in.BorrowerEmail), "required,email"); err != nil {
		return nil, fmt.Errorf("%w: borrower_email is not a valid address", loan.ErrValidation)
	}

	// Block if the borrower already has a pending loan.
	pending, err := u.repo.GetPendingLoanByBorrowerID(ctx, in.BorrowerID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", loan.ErrPendingExists, pending.LoanID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		u.log.Error("lookup pending loan", zap.String("borrower_id", in.BorrowerID), zap.Error(err))
		return nil, err
	}

	l := &loan.Loan{
		LoanID:          id.NewID32(),
		BorrowerID:      in.BorrowerID,
		BorrowerName:    strings.TrimSpace(in.BorrowerName),
		BorrowerEmail:   strings.TrimSpace(in.BorrowerEmail),
		AccountNumber:   strings.TrimSpace(in.AccountNumber),
		Cantity:         strings.TrimSpace(in.Cantity),
		Status:          loan.StatusPending,
		StatusUpdatedAt: time.Now().UTC(),
	}

	if err := u.repo.Create(ctx, l); err != nil {
		u.log.Error("create loan", zap.String("borrower_id", in.BorrowerID), zap.Error(err))
		return nil, err
	}
	u.log.Info("loan submitted", zap.String("loan_id", l.LoanID))
	return ToDTO(l), nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.find(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return ToDTO(l), nil
}

// Events lists the audit trail of a loan, oldest first.
func (u *Usecase) Events(ctx context.Context, loanID string) ([]EventDTO, error) {
	l, err := u.find(ctx, loanID)
	if err != nil {
		return nil, err
	}
	evs, err := eventlog.New(u.events).List(ctx, l.ID)
	if err != nil {
		u.log.Error("list events", zap.String("loan_id", loanID), zap.Error(err))
		return nil, err
	}
	return toEventDTOs(evs), nil
}

func (u *Usecase) find(ctx context.Context, loanID string) (*loan.Loan, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loan.ErrNotFound
	}
	return l, err
}
