package uow

import (
	"context"

	"loanflow/internal/domain/document"
	"loanflow/internal/domain/event"
	"loanflow/internal/domain/loan"
)

// Repos are bound to the same transaction.
type Repos struct {
	Loans     loan.Repository
	Events    event.Repository
	Documents document.Repository
}

type UnitOfWork interface {
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinLoanTx locks the loan row first, then passes it in.
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
