package loan

import (
	"time"

	"loanflow/internal/domain/event"
	"loanflow/internal/domain/loan"
)

type CreateLoanInput struct {
	BorrowerID    string `json:"borrower_id"`
	BorrowerName  string `json:"borrower_name"`
	BorrowerEmail string `json:"borrower_email"`
	AccountNumber string `json:"account_number"`
	Cantity       string `json:"cantity"`
}

type LoanDTO struct {
	LoanID              string     `json:"loan_id"`
	BorrowerID          string     `json:"borrower_id"`
	BorrowerName        string     `json:"borrower_name"`
	Cantity             string     `json:"cantity"`
	NewCantity          *string    `json:"new_cantity,omitempty"`
	ReasonChangeCantity *string    `json:"reason_change_cantity,omitempty"`
	NewCantityOpt       *bool      `json:"new_cantity_opt,omitempty"`
	ReasonReject        *string    `json:"reason_reject,omitempty"`
	EmployeeID          *string    `json:"employee_id,omitempty"`
	Status              string     `json:"status"`
	StatusUpdatedAt     time.Time  `json:"status_updated_at"`
	IsDisbursed         bool       `json:"is_disbursed"`
	DateDisbursed       *time.Time `json:"date_disbursed,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

type EventDTO struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	IsAnswered bool      `json:"is_answered"`
	CreatedAt  time.Time `json:"created_at"`
}

func ToDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:              l.LoanID,
		BorrowerID:          l.BorrowerID,
		BorrowerName:        l.BorrowerName,
		Cantity:             l.Cantity,
		NewCantity:          l.NewCantity,
		ReasonChangeCantity: l.ReasonChangeCantity,
		NewCantityOpt:       l.NewCantityOpt,
		ReasonReject:        l.ReasonReject,
		EmployeeID:          l.EmployeeID,
		Status:              string(l.Status),
		StatusUpdatedAt:     l.StatusUpdatedAt,
		IsDisbursed:         l.IsDisbursed,
		DateDisbursed:       l.DateDisbursed,
		CreatedAt:           l.CreatedAt,
	}
}

func toEventDTOs(evs []event.Event) []EventDTO {
	out := make([]EventDTO, 0, len(evs))
	for _, e := range evs {
		out = append(out, EventDTO{EventID: e.EventID, Type: string(e.Type), IsAnswered: e.IsAnswered, CreatedAt: e.CreatedAt})
	}
	return out
}
