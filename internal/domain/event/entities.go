package event

import (
	"time"
)

type Type string

const (
	TypeChangeCantity Type = "CHANGE_CANTITY"
	TypeDocsReject    Type = "DOCS_REJECT"
	TypeDisbursement  Type = "DISBURSEMENT"
)

// Event is an append-only entry of the loan event log. Only IsAnswered ever
// changes after insert.
type Event struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	EventID    string    `gorm:"column:event_id;type:char(32);not null;uniqueIndex" json:"event_id"`
	LoanID     uint64    `gorm:"column:loan_id;not null;index:idx_loan_events_loan_type" json:"-"`
	Type       Type      `gorm:"column:type;type:varchar(32);not null;index:idx_loan_events_loan_type" json:"type"`
	IsAnswered bool      `gorm:"column:is_answered;not null;default:false" json:"is_answered"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Event) TableName() string { return "loan_events" }
