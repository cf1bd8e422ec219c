package mysql

import (
	"context"

	"loanflow/internal/domain/loan"
	"loanflow/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Loans:     &LoanRepository{db: tx},
		Events:    &EventRepository{db: tx},
		Documents: &DocumentRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// lock the loan row up-front to prevent races
		l, err := (&LoanRepository{db: tx}).GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(reposFor(tx), l)
	})
}
