package document

import "context"

type Repository interface {
	Create(ctx context.Context, d *Document) error
	ListByLoanID(ctx context.Context, loanID uint64) ([]Document, error)
	DeleteByLoanID(ctx context.Context, loanID uint64) (int64, error)
	IncrementDownloads(ctx context.Context, id uint64) error
}
