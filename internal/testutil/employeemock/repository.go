package employeemock

import (
	"context"
	"errors"

	domain "loanflow/internal/domain/employee"
)

var _ domain.Repository = (*Repo)(nil)

var ErrNotFound = errors.New("employeemock: employee not found")

// Repo serves employees from a fixed map keyed by EmployeeID.
type Repo struct {
	Employees map[string]domain.Employee
}

func (m *Repo) GetByEmployeeID(_ context.Context, employeeID string) (*domain.Employee, error) {
	e, ok := m.Employees[employeeID]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}
