package loan

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDeferred  Status = "deferred"
	StatusDisbursed Status = "disbursed"
	StatusArchived  Status = "archived"
)

var statuses = map[Status]struct{}{
	StatusDraft:     {},
	StatusPending:   {},
	StatusApproved:  {},
	StatusDeferred:  {},
	StatusDisbursed: {},
	StatusArchived:  {},
}

// ParseStatus accepts the stored lowercase form as well as the capitalised
// names used by staff tooling ("Approved", "DEFERRED").
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := statuses[st]; !ok {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s Status) Valid() bool {
	_, ok := statuses[s]
	return ok
}

type Loan struct {
	ID            uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID        string `gorm:"size:32;uniqueIndex:ux_loans_loan_id_active" json:"loan_id"`
	BorrowerID    string `gorm:"size:32;index:idx_loans_borrower_active" json:"borrower_id"`
	BorrowerName  string `gorm:"size:128" json:"borrower_name"`
	BorrowerEmail string `gorm:"size:254" json:"borrower_email"`
	AccountNumber string `gorm:"size:34" json:"-"`

	// Cantity is kept exactly as the borrower typed it.
	Cantity             string  `gorm:"type:varchar(32)" json:"cantity"`
	NewCantity          *string `gorm:"type:varchar(32)" json:"new_cantity,omitempty"`
	ReasonChangeCantity *string `gorm:"type:text" json:"reason_change_cantity,omitempty"`
	NewCantityOpt       *bool   `json:"new_cantity_opt,omitempty"`
	ReasonReject        *string `gorm:"type:text" json:"reason_reject,omitempty"`
	EmployeeID          *string `gorm:"size:32" json:"employee_id,omitempty"`

	Status          Status         `gorm:"type:enum('draft','pending','approved','deferred','disbursed','archived');default:'draft'" json:"status"`
	StatusUpdatedAt time.Time      `gorm:"autoCreateTime" json:"status_updated_at"`
	IsDisbursed     bool           `gorm:"not null;default:false" json:"is_disbursed"`
	DateDisbursed   *time.Time     `json:"date_disbursed,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy       string         `gorm:"size:32" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// HasProposal reports whether a renegotiated amount is on the table.
func (l *Loan) HasProposal() bool { return l.NewCantity != nil }
