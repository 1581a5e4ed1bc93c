package feedback

import (
	"Receipt-Review-Backend/entities"
	"context"

	"gorm.io/gorm"
)

type (
	FeedbackRepository interface {
		CreateEntry(ctx context.Context, entry *entities.QualityFeedbackEntry) error
		GetEntriesByTestRun(ctx context.Context, testRunID string) ([]*entities.QualityFeedbackEntry, error)
		CountReviewedReceipts(ctx context.Context, testRunID string) (int64, error)
		DeleteEntriesByTestRun(ctx context.Context, testRunID string) error
	}

	feedbackRepository struct {
		db *gorm.DB
	}
)

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) CreateEntry(ctx context.Context, entry *entities.QualityFeedbackEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *feedbackRepository) GetEntriesByTestRun(ctx context.Context, testRunID string) ([]*entities.QualityFeedbackEntry, error) {
	var entries []*entities.QualityFeedbackEntry
	if err := r.db.WithContext(ctx).
		Where("test_run_id = ?", testRunID).
		Order("created_at asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *feedbackRepository) CountReviewedReceipts(ctx context.Context, testRunID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.QualityFeedbackEntry{}).
		Where("test_run_id = ?", testRunID).
		Distinct("receipt_id").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *feedbackRepository) DeleteEntriesByTestRun(ctx context.Context, testRunID string) error {
	return r.db.WithContext(ctx).
		Where("test_run_id = ?", testRunID).
		Delete(&entities.QualityFeedbackEntry{}).Error
}
