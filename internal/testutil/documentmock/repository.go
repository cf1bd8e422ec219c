package documentmock

import (
	"context"
	"sync"

	domain "loanflow/internal/domain/document"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies document.Repository.
type Repo struct {
	CreateFn             func(ctx context.Context, d *domain.Document) error
	ListByLoanIDFn       func(ctx context.Context, loanID uint64) ([]domain.Document, error)
	DeleteByLoanIDFn     func(ctx context.Context, loanID uint64) (int64, error)
	IncrementDownloadsFn func(ctx context.Context, id uint64) error
}

func (m *Repo) Create(ctx context.Context, d *domain.Document) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d)
	}
	return nil
}

func (m *Repo) ListByLoanID(ctx context.Context, loanID uint64) ([]domain.Document, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, nil
}

func (m *Repo) DeleteByLoanID(ctx context.Context, loanID uint64) (int64, error) {
	if m.DeleteByLoanIDFn != nil {
		return m.DeleteByLoanIDFn(ctx, loanID)
	}
	return 0, nil
}

func (m *Repo) IncrementDownloads(ctx context.Context, id uint64) error {
	if m.IncrementDownloadsFn != nil {
		return m.IncrementDownloadsFn(ctx, id)
	}
	return nil
}

// Blobs records DeleteObject calls and fails for the URLs listed in Fail.
type Blobs struct {
	Fail map[string]error

	mu      sync.Mutex
	deleted []string
}

var _ domain.BlobStore = (*Blobs)(nil)

func (b *Blobs) DeleteObject(_ context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, url)
	if err, ok := b.Fail[url]; ok {
		return err
	}
	return nil
}

// Deleted returns every URL DeleteObject was called with, failures included.
func (b *Blobs) Deleted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}
