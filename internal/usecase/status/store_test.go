package status

import (
	"context"
	"sync"

	"loanflow/internal/domain/document"
	"loanflow/internal/domain/event"
	"loanflow/internal/domain/loan"
	"loanflow/internal/domain/uow"
	"loanflow/internal/notification"
	"loanflow/internal/testutil/documentmock"
	"loanflow/internal/testutil/eventmock"
	"loanflow/internal/testutil/loanmock"
	"loanflow/internal/testutil/uowmock"

	"gorm.io/gorm"
)

// memStore backs the function mocks with one loan whose conditional updates
// behave like the SQL ones.
type memStore struct {
	mu     sync.Mutex
	loan   loan.Loan
	events []event.Event
	docs   []document.Document

	loans     *loanmock.Repo
	eventRepo *eventmock.Repo
	docRepo   *documentmock.Repo
}

func newMemStore(l loan.Loan) *memStore {
	s := &memStore{loan: l}
	s.loans = &loanmock.Repo{
		UpdateWhereFn: func(_ context.Context, id uint64, g loan.Guard, p loan.Patch) (int64, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if id != s.loan.ID ||
				(g.Status != "" && s.loan.Status != g.Status) ||
				(g.NotDisbursed && s.loan.IsDisbursed) ||
				(g.Undecided && s.loan.NewCantityOpt != nil) {
				return 0, nil
			}
			p.Apply(&s.loan)
			return 1, nil
		},
	}
	s.eventRepo = &eventmock.Repo{
		CreateFn: func(_ context.Context, e *event.Event) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.events = append(s.events, *e)
			return nil
		},
		MarkAnsweredFn: func(_ context.Context, loanID uint64, t event.Type) (int64, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			var n int64
			for i := range s.events {
				e := &s.events[i]
				if e.LoanID == loanID && e.Type == t && !e.IsAnswered {
					e.IsAnswered = true
					n++
				}
			}
			return n, nil
		},
		CountUnansweredFn: func(_ context.Context, loanID uint64, t event.Type) (int64, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			var n int64
			for _, e := range s.events {
				if e.LoanID == loanID && e.Type == t && !e.IsAnswered {
					n++
				}
			}
			return n, nil
		},
	}
	s.docRepo = &documentmock.Repo{
		ListByLoanIDFn: func(_ context.Context, loanID uint64) ([]document.Document, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			var out []document.Document
			for _, d := range s.docs {
				if d.LoanID == loanID {
					out = append(out, d)
				}
			}
			return out, nil
		},
		DeleteByLoanIDFn: func(_ context.Context, loanID uint64) (int64, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			kept := s.docs[:0]
			var n int64
			for _, d := range s.docs {
				if d.LoanID == loanID {
					n++
					continue
				}
				kept = append(kept, d)
			}
			s.docs = kept
			return n, nil
		},
	}
	return s
}

func (s *memStore) repos() uow.Repos {
	return uow.Repos{Loans: s.loans, Events: s.eventRepo, Documents: s.docRepo}
}

// uow hands every transaction a snapshot of the stored loan, as a plain read
// would.
func (s *memStore) uow() *uowmock.UoW {
	return uowmock.Passthrough(s.repos(), func(loanID string) (*loan.Loan, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if loanID != s.loan.LoanID {
			return nil, gorm.ErrRecordNotFound
		}
		cp := s.loan
		return &cp, nil
	})
}

func (s *memStore) snapshot() (loan.Loan, []event.Event, []document.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loan, append([]event.Event(nil), s.events...), append([]document.Document(nil), s.docs...)
}

type recorder struct {
	mu   sync.Mutex
	msgs []notification.Message
}

func (r *recorder) Enqueue(m notification.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func (r *recorder) messages() []notification.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification.Message(nil), r.msgs...)
}
