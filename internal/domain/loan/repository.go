package loan

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*Loan, error)

	// UpdateWhere applies patch to the loan with numeric id only if guard still
	// holds, and returns the number of rows it changed.
	UpdateWhere(ctx context.Context, id uint64, guard Guard, patch Patch) (int64, error)
}

// Guard is the predicate of a conditional loan update. Zero fields are not
// checked.
type Guard struct {
	Status       Status
	NotDisbursed bool
	Undecided    bool // new_cantity_opt IS NULL
}

// Patch lists the columns a status change writes. Nil pointers are left
// untouched; the Clear* flags write NULL.
type Patch struct {
	Status              *Status
	EmployeeID          *string
	NewCantity          *string
	ReasonChangeCantity *string
	NewCantityOpt       *bool
	ClearNewCantityOpt  bool
	ReasonReject        *string
	IsDisbursed         *bool
	DateDisbursed       *time.Time
	StatusUpdatedAt     time.Time
}

// Columns returns the patch as a GORM update map.
func (p Patch) Columns() map[string]any {
	m := map[string]any{}
	if p.Status != nil {
		m["status"] = *p.Status
	}
	if p.EmployeeID != nil {
		m["employee_id"] = *p.EmployeeID
	}
	if p.NewCantity != nil {
		m["new_cantity"] = *p.NewCantity
	}
	if p.ReasonChangeCantity != nil {
		m["reason_change_cantity"] = *p.ReasonChangeCantity
	}
	if p.NewCantityOpt != nil {
		m["new_cantity_opt"] = *p.NewCantityOpt
	} else if p.ClearNewCantityOpt {
		m["new_cantity_opt"] = nil
	}
	if p.ReasonReject != nil {
		m["reason_reject"] = *p.ReasonReject
	}
	if p.IsDisbursed != nil {
		m["is_disbursed"] = *p.IsDisbursed
	}
	if p.DateDisbursed != nil {
		m["date_disbursed"] = *p.DateDisbursed
	}
	if !p.StatusUpdatedAt.IsZero() {
		m["status_updated_at"] = p.StatusUpdatedAt
	}
	return m
}

// Apply mirrors the patch onto an in-memory loan after a successful update.
func (p Patch) Apply(l *Loan) {
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.EmployeeID != nil {
		l.EmployeeID = p.EmployeeID
	}
	if p.NewCantity != nil {
		l.NewCantity = p.NewCantity
	}
	if p.ReasonChangeCantity != nil {
		l.ReasonChangeCantity = p.ReasonChangeCantity
	}
	if p.NewCantityOpt != nil {
		l.NewCantityOpt = p.NewCantityOpt
	} else if p.ClearNewCantityOpt {
		l.NewCantityOpt = nil
	}
	if p.ReasonReject != nil {
		l.ReasonReject = p.ReasonReject
	}
	if p.IsDisbursed != nil {
		l.IsDisbursed = *p.IsDisbursed
	}
	if p.DateDisbursed != nil {
		l.DateDisbursed = p.DateDisbursed
	}
	if !p.StatusUpdatedAt.IsZero() {
		l.StatusUpdatedAt = p.StatusUpdatedAt
	}
}
