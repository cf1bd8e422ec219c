package mysql

import (
	"context"

	eventDomain "loanflow/internal/domain/event"

	"gorm.io/gorm"
)

type EventRepository struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) *EventRepository { return &EventRepository{db: db} }

func (r *EventRepository) Create(ctx context.Context, e *eventDomain.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EventRepository) MarkAnswered(ctx context.Context, loanID uint64, t eventDomain.Type) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&eventDomain.Event{}).
		Where("loan_id = ? AND type = ? AND is_answered = ?", loanID, t, false).
		Update("is_answered", true)
	return res.RowsAffected, res.Error
}

func (r *EventRepository) CountUnanswered(ctx context.Context, loanID uint64, t eventDomain.Type) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&eventDomain.Event{}).
		Where("loan_id = ? AND type = ? AND is_answered = ?", loanID, t, false).
		Count(&n).Error
	return n, err
}

func (r *EventRepository) ListByLoanID(ctx context.Context, loanID uint64) ([]eventDomain.Event, error) {
	var out []eventDomain.Event
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
