package loan

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"loanflow/internal/domain/event"
	domain "loanflow/internal/domain/loan"
	"loanflow/internal/testutil/eventmock"
	"loanflow/internal/testutil/loanmock"

	"gorm.io/gorm"
)

const (
	borrowerID = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	loanID     = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

func validInput() CreateLoanInput {
	return CreateLoanInput{
		BorrowerID:    borrowerID,
		BorrowerName:  "Ana Borrower",
		BorrowerEmail: "ana@example.com",
		AccountNumber: "ES9121000418450200051332",
		Cantity:       "5000000.00",
	}
}

func TestCreate_Success_NoPendingLoan(t *testing.T) {
	var created *domain.Loan
	uc := NewUsecase(&loanmock.Repo{
		// Simulate: no pending loan ⇒ repo returns gorm.ErrRecordNotFound
		GetPendingLoanByBorrowerIDFn: func(ctx context.Context, borrowerID string) (*domain.Loan, error) {
			return nil, gorm.ErrRecordNotFound
		},
		CreateFn: func(ctx context.Context, l *domain.Loan) error {
			if l.CreatedAt.IsZero() {
				l.CreatedAt = time.Now().UTC()
			}
			created = l
			return nil
		},
	}, &eventmock.Repo{}, nil)

	dto, err := uc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if len(dto.LoanID) != 32 {
		t.Fatalf("LoanID length: %d", len(dto.LoanID))
	}
	if dto.Status != string(domain.StatusPending) {
		t.Fatalf("status=%s", dto.Status)
	}
	if dto.Cantity != "5000000.00" {
		t.Fatalf("cantity must be kept verbatim, got %s", dto.Cantity)
	}
	if created == nil || created.BorrowerEmail != "ana@example.com" || created.AccountNumber == "" {
		t.Fatalf("unexpected stored loan: %+v", created)
	}
}

func TestCreate_Rejects_WhenPendingLoanExists(t *testing.T) {
	const existingLoanID = "cccccccccccccccccccccccccccccccc"

	uc := NewUsecase(&loanmock.Repo{
		// Simulate: a pending loan already exists
		GetPendingLoanByBorrowerIDFn: func(ctx context.Context, id string) (*domain.Loan, error) {
			if id != borrowerID {
				t.Fatalf("unexpected borrower id: %s", id)
			}
			return &domain.Loan{
				LoanID:     existingLoanID,
				BorrowerID: borrowerID,
				Cantity:    "1000000",
				Status:     domain.StatusPending,
			}, nil
		},
		// Create() should never be called in this scenario; guard it:
		CreateFn: func(ctx context.Context, l *domain.Loan) error {
			t.Fatalf("Create must not be called when pending loan exists")
			return nil
		},
	}, &eventmock.Repo{}, nil)

	_, err := uc.Create(context.Background(), validInput())
	if !errors.Is(err, domain.ErrPendingExists) || !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("want ErrPendingExists, got %v", err)
	}
	if !strings.Contains(err.Error(), existingLoanID) {
		t.Fatalf("error %q should name the pending loan", err.Error())
	}
}

func TestCreate_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateLoanInput)
	}{
		{"short borrower", func(in *CreateLoanInput) { in.BorrowerID = "short" }},
		{"uppercase borrower", func(in *CreateLoanInput) { in.BorrowerID = strings.ToUpper(borrowerID) }},
		{"zero cantity", func(in *CreateLoanInput) { in.Cantity = "0" }},
		{"text cantity", func(in *CreateLoanInput) { in.Cantity = "a lot" }},
		{"bad email", func(in *CreateLoanInput) { in.BorrowerEmail = "not-an-email" }},
		{"empty email", func(in *CreateLoanInput) { in.BorrowerEmail = "  " }},
		{"display name email", func(in *CreateLoanInput) { in.BorrowerEmail = "Ana <ana@example.com>" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			uc := NewUsecase(&loanmock.Repo{}, &eventmock.Repo{}, nil)
			in := validInput()
			tc.mutate(&in)
			_, err := uc.Create(context.Background(), in)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("want validation error, got %v", err)
			}
		})
	}
}

func TestGet_Success(t *testing.T) {
	now := time.Now().UTC()
	uc := NewUsecase(&loanmock.Repo{
		GetByLoanIDFn: func(ctx context.Context, id string) (*domain.Loan, error) {
			return &domain.Loan{
				LoanID: loanID, BorrowerID: borrowerID,
				Cantity: "1000000", Status: domain.StatusApproved, CreatedAt: now,
			}, nil
		},
	}, &eventmock.Repo{}, nil)
	dto, err := uc.Get(context.Background(), loanID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if dto.LoanID != loanID || dto.Status != "approved" {
		t.Fatalf("got %+v", dto)
	}
}

func TestGet_NotFound(t *testing.T) {
	uc := NewUsecase(&loanmock.Repo{
		GetByLoanIDFn: func(context.Context, string) (*domain.Loan, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}, &eventmock.Repo{}, nil)
	if _, err := uc.Get(context.Background(), loanID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestEvents(t *testing.T) {
	uc := NewUsecase(&loanmock.Repo{
		GetByLoanIDFn: func(context.Context, string) (*domain.Loan, error) {
			return &domain.Loan{ID: 42, LoanID: loanID}, nil
		},
	}, &eventmock.Repo{
		ListByLoanIDFn: func(_ context.Context, id uint64) ([]event.Event, error) {
			if id != 42 {
				t.Fatalf("events looked up by %d, want numeric id 42", id)
			}
			return []event.Event{
				{EventID: "e1", Type: event.TypeChangeCantity, IsAnswered: true},
				{EventID: "e2", Type: event.TypeDisbursement},
			}, nil
		},
	}, nil)

	got, err := uc.Events(context.Background(), loanID)
	if err != nil {
		t.Fatalf("Events err: %v", err)
	}
	if len(got) != 2 || got[0].Type != "CHANGE_CANTITY" || !got[0].IsAnswered || got[1].EventID != "e2" {
		t.Fatalf("unexpected events: %+v", got)
	}
}
