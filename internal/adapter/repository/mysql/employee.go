package mysql

import (
	"context"

	employeeDomain "loanflow/internal/domain/employee"

	"gorm.io/gorm"
)

type EmployeeRepository struct{ db *gorm.DB }

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository { return &EmployeeRepository{db: db} }

func (r *EmployeeRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*employeeDomain.Employee, error) {
	var out employeeDomain.Employee
	res := r.db.WithContext(ctx).Where("employee_id = ?", employeeID).First(&out)
	return &out, res.Error
}
