package event

import "context"

type Repository interface {
	Create(ctx context.Context, e *Event) error

	// MarkAnswered flips is_answered on the unanswered events of this type in
	// one conditional statement and reports how many rows changed.
	MarkAnswered(ctx context.Context, loanID uint64, t Type) (int64, error)

	CountUnanswered(ctx context.Context, loanID uint64, t Type) (int64, error)
	ListByLoanID(ctx context.Context, loanID uint64) ([]Event, error)
}
