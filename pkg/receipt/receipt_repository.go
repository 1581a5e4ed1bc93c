package receipt

import (
	"Receipt-Review-Backend/entities"
	"context"

	"gorm.io/gorm"
)

type (
	ReceiptRepository interface {
		CreateReceipt(ctx context.Context, receipt *entities.Receipt) error
		GetReceiptByID(ctx context.Context, id string) (*entities.Receipt, error)
		UpdateReceipt(ctx context.Context, receipt *entities.Receipt) error
		DeleteReceipt(ctx context.Context, id string) error
		GetReceipts(ctx context.Context, householdID string, status string, page, limit int) ([]*entities.Receipt, int64, error)

		AddItem(ctx context.Context, item *entities.Item) error
		SaveItem(ctx context.Context, item *entities.Item) error
		SaveItems(ctx context.Context, items []*entities.Item) error
		DeleteItem(ctx context.Context, id string) error

		CreateFailureReport(ctx context.Context, report *entities.ReceiptFailureReport) error
	}

	receiptRepository struct {
		db *gorm.DB
	}
)

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) CreateReceipt(ctx context.Context, receipt *entities.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *receiptRepository) GetReceiptByID(ctx context.Context, id string) (*entities.Receipt, error) {
	var receipt entities.Receipt
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Where("id = ?", id).First(&receipt).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) UpdateReceipt(ctx context.Context, receipt *entities.Receipt) error {
	return r.db.WithContext(ctx).Omit("Items").Save(receipt).Error
}

func (r *receiptRepository) DeleteReceipt(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("receipt_id = ?", id).Delete(&entities.Item{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Receipt{}).Error
}

func (r *receiptRepository) GetReceipts(ctx context.Context, householdID string, status string, page, limit int) ([]*entities.Receipt, int64, error) {
	var receipts []*entities.Receipt
	var count int64

	offset := (page - 1) * limit

	query := r.db.WithContext(ctx).Where("household_id = ? AND is_test_data = ?", householdID, false)

	if status != "all" && status != "" {
		query = query.Where("validation_status = ?", status)
	}

	if err := query.Model(&entities.Receipt{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Offset(offset).Limit(limit).Order("created_at desc").Find(&receipts).Error; err != nil {
		return nil, 0, err
	}

	return receipts, count, nil
}

func (r *receiptRepository) AddItem(ctx context.Context, item *entities.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *receiptRepository) SaveItem(ctx context.Context, item *entities.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *receiptRepository) SaveItems(ctx context.Context, items []*entities.Item) error {
	for _, item := range items {
		if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *receiptRepository) DeleteItem(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Item{}).Error
}

func (r *receiptRepository) CreateFailureReport(ctx context.Context, report *entities.ReceiptFailureReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}
