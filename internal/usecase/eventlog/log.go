package eventlog

import (
	"context"
	"fmt"

	"loanflow/internal/domain/event"
	"loanflow/internal/domain/loan"
	"loanflow/pkg/id"
)

// Log is the append-only audit trail of a loan. It never deletes; the only
// mutation after insert is answering an event.
type Log struct{ repo event.Repository }

// New binds the log to repo. Inside a unit of work pass the tx-bound
// repository so events commit or roll back with the loan update.
func New(repo event.Repository) *Log { return &Log{repo: repo} }

func (l *Log) Record(ctx context.Context, loanID uint64, t event.Type) (*event.Event, error) {
	e := &event.Event{
		EventID: id.NewID32(),
		LoanID:  loanID,
		Type:    t,
	}
	if err := l.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("record %s event: %w", t, err)
	}
	return e, nil
}

// MarkAnswered answers the outstanding event of type t in a single
// conditional update. Losing a race, or having nothing to answer, yields
// loan.ErrProposalAnswered.
func (l *Log) MarkAnswered(ctx context.Context, loanID uint64, t event.Type) error {
	n, err := l.repo.MarkAnswered(ctx, loanID, t)
	if err != nil {
		return fmt.Errorf("answer %s event: %w", t, err)
	}
	if n == 0 {
		return loan.ErrProposalAnswered
	}
	return nil
}

func (l *Log) HasUnanswered(ctx context.Context, loanID uint64, t event.Type) (bool, error) {
	n, err := l.repo.CountUnanswered(ctx, loanID, t)
	if err != nil {
		return false, fmt.Errorf("count %s events: %w", t, err)
	}
	return n > 0, nil
}

func (l *Log) List(ctx context.Context, loanID uint64) ([]event.Event, error) {
	return l.repo.ListByLoanID(ctx, loanID)
}
