package employee

import (
	"context"
	"time"
)

type Employee struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	EmployeeID string    `gorm:"column:employee_id;type:char(32);not null;uniqueIndex"`
	FullName   string    `gorm:"column:full_name;size:128;not null"`
	Email      string    `gorm:"column:email;size:254"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Employee) TableName() string { return "employees" }

type Repository interface {
	GetByEmployeeID(ctx context.Context, employeeID string) (*Employee, error)
}
