package eventmock

import (
	"context"

	domain "loanflow/internal/domain/event"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies event.Repository.
type Repo struct {
	CreateFn          func(ctx context.Context, e *domain.Event) error
	MarkAnsweredFn    func(ctx context.Context, loanID uint64, t domain.Type) (int64, error)
	CountUnansweredFn func(ctx context.Context, loanID uint64, t domain.Type) (int64, error)
	ListByLoanIDFn    func(ctx context.Context, loanID uint64) ([]domain.Event, error)
}

func (m *Repo) Create(ctx context.Context, e *domain.Event) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, e)
	}
	return nil
}

func (m *Repo) MarkAnswered(ctx context.Context, loanID uint64, t domain.Type) (int64, error) {
	if m.MarkAnsweredFn != nil {
		return m.MarkAnsweredFn(ctx, loanID, t)
	}
	return 1, nil
}

func (m *Repo) CountUnanswered(ctx context.Context, loanID uint64, t domain.Type) (int64, error) {
	if m.CountUnansweredFn != nil {
		return m.CountUnansweredFn(ctx, loanID, t)
	}
	return 0, nil
}

func (m *Repo) ListByLoanID(ctx context.Context, loanID uint64) ([]domain.Event, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, nil
}
