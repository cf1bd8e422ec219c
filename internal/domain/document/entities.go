package document

import (
	"context"
	"time"
)

// Document points at a generated artifact (zip of PDFs, contract) kept in the
// blob store.
type Document struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	LoanID        uint64    `gorm:"column:loan_id;not null;index"`
	PublicURL     string    `gorm:"column:public_url;type:text;not null"`
	FileType      string    `gorm:"column:file_type;size:32;not null"`
	DownloadCount uint64    `gorm:"column:download_count;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Document) TableName() string { return "generated_documents" }

// BlobStore removes stored artifacts by their public URL.
type BlobStore interface {
	DeleteObject(ctx context.Context, url string) error
}
