package mysql

import (
	"context"

	documentDomain "loanflow/internal/domain/document"

	"gorm.io/gorm"
)

type DocumentRepository struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) *DocumentRepository { return &DocumentRepository{db: db} }

func (r *DocumentRepository) Create(ctx context.Context, d *documentDomain.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DocumentRepository) ListByLoanID(ctx context.Context, loanID uint64) ([]documentDomain.Document, error) {
	var out []documentDomain.Document
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *DocumentRepository) DeleteByLoanID(ctx context.Context, loanID uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Delete(&documentDomain.Document{})
	return res.RowsAffected, res.Error
}

func (r *DocumentRepository) IncrementDownloads(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).
		Model(&documentDomain.Document{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
