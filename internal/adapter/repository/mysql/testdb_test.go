package mysql

import (
	"testing"
	"time"

	documentDomain "loanflow/internal/domain/document"
	employeeDomain "loanflow/internal/domain/employee"
	eventDomain "loanflow/internal/domain/event"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// --- SQLite-friendly schema only for tests (no ENUM) ---

type loanSQLite struct {
	ID                  uint64         `gorm:"primaryKey;column:id"`
	LoanID              string         `gorm:"size:32;column:loan_id"`
	BorrowerID          string         `gorm:"size:32;column:borrower_id"`
	BorrowerName        string         `gorm:"column:borrower_name"`
	BorrowerEmail       string         `gorm:"column:borrower_email"`
	AccountNumber       string         `gorm:"column:account_number"`
	Cantity             string         `gorm:"column:cantity"`
	NewCantity          *string        `gorm:"column:new_cantity"`
	ReasonChangeCantity *string        `gorm:"column:reason_change_cantity"`
	NewCantityOpt       *bool          `gorm:"column:new_cantity_opt"`
	ReasonReject        *string        `gorm:"column:reason_reject"`
	EmployeeID          *string        `gorm:"column:employee_id"`
	Status              string         `gorm:"type:text;column:status"` // ← no enum
	StatusUpdatedAt     time.Time      `gorm:"column:status_updated_at"`
	IsDisbursed         bool           `gorm:"column:is_disbursed;not null;default:false"`
	DateDisbursed       *time.Time     `gorm:"column:date_disbursed"`
	CreatedAt           time.Time      `gorm:"column:created_at"`
	UpdatedAt           time.Time      `gorm:"column:updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"column:deleted_at"`
	DeletedBy           string         `gorm:"column:deleted_by"`
}

func (loanSQLite) TableName() string { return "loans" }

// openTestDB creates an in-memory sqlite DB and migrates ONLY sqlite-safe models.
// A single connection keeps every statement on the same in-memory database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&loanSQLite{},
		&eventDomain.Event{},
		&documentDomain.Document{},
		&employeeDomain.Employee{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}
