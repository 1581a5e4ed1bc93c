package testrun

import (
	"Receipt-Review-Backend/entities"
	"context"

	"gorm.io/gorm"
)

type (
	TestRunRepository interface {
		CreateTestRun(ctx context.Context, testRun *entities.TestRun) error
		GetTestRunByID(ctx context.Context, id string) (*entities.TestRun, error)
		UpdateTestRun(ctx context.Context, testRun *entities.TestRun) error
		DeleteTestRun(ctx context.Context, id string) error
		GetTestRuns(ctx context.Context, page, limit int) ([]*entities.TestRun, int64, error)

		AttachReceipt(ctx context.Context, link *entities.TestRunReceipt) error
		GetReceiptIDs(ctx context.Context, testRunID string) ([]string, error)
		IsReceiptAttached(ctx context.Context, testRunID string, receiptID string) (bool, error)
		CountItems(ctx context.Context, receiptIDs []string) (int64, error)
	}

	testRunRepository struct {
		db *gorm.DB
	}
)

func NewTestRunRepository(db *gorm.DB) TestRunRepository {
	return &testRunRepository{db: db}
}

func (r *testRunRepository) CreateTestRun(ctx context.Context, testRun *entities.TestRun) error {
	return r.db.WithContext(ctx).Create(testRun).Error
}

func (r *testRunRepository) GetTestRunByID(ctx context.Context, id string) (*entities.TestRun, error) {
	var testRun entities.TestRun
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&testRun).Error; err != nil {
		return nil, err
	}
	return &testRun, nil
}

func (r *testRunRepository) UpdateTestRun(ctx context.Context, testRun *entities.TestRun) error {
	return r.db.WithContext(ctx).Save(testRun).Error
}

func (r *testRunRepository) DeleteTestRun(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("test_run_id = ?", id).Delete(&entities.TestRunReceipt{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.TestRun{}).Error
}

func (r *testRunRepository) GetTestRuns(ctx context.Context, page, limit int) ([]*entities.TestRun, int64, error) {
	var testRuns []*entities.TestRun
	var count int64

	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).Model(&entities.TestRun{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).Offset(offset).Limit(limit).
		Order("created_at desc").Find(&testRuns).Error; err != nil {
		return nil, 0, err
	}

	return testRuns, count, nil
}

func (r *testRunRepository) AttachReceipt(ctx context.Context, link *entities.TestRunReceipt) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *testRunRepository) GetReceiptIDs(ctx context.Context, testRunID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&entities.TestRunReceipt{}).
		Where("test_run_id = ?", testRunID).
		Order("position asc").
		Pluck("receipt_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *testRunRepository) IsReceiptAttached(ctx context.Context, testRunID string, receiptID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.TestRunReceipt{}).
		Where("test_run_id = ? AND receipt_id = ?", testRunID, receiptID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *testRunRepository) CountItems(ctx context.Context, receiptIDs []string) (int64, error) {
	if len(receiptIDs) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Item{}).
		Where("receipt_id IN ?", receiptIDs).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
