package receipt

import (
	"Receipt-Review-Backend/domain"
	"Receipt-Review-Backend/entities"
	"Receipt-Review-Backend/internal/utils/storage"
	"Receipt-Review-Backend/pkg/extraction"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type (
	ReceiptService interface {
		CreateFromUpload(ctx context.Context, req domain.UploadReceiptRequest, householdID string, isTestData bool) (domain.UploadReceiptResponse, error)
		GetReceipt(ctx context.Context, id string, householdID string) (domain.ReceiptResponse, error)
		GetReceipts(ctx context.Context, householdID string, status string, page, limit int) ([]domain.ReceiptResponse, int64, error)
		DiscardReceipt(ctx context.Context, id string, householdID string, feedback *domain.DiscardReceiptRequest) error

		AddItem(ctx context.Context, id string, householdID string, req domain.AddItemRequest) (domain.ReceiptResponse, error)
		UpdateItem(ctx context.Context, id string, householdID string, index int, req domain.UpdateItemRequest) (domain.ReceiptResponse, error)
		RemoveItem(ctx context.Context, id string, householdID string, index int) (domain.ReceiptResponse, error)
		SetApprovalState(ctx context.Context, id string, householdID string, index int, state string) (domain.ReceiptResponse, error)
		ApproveAll(ctx context.Context, id string, householdID string) (domain.ReceiptResponse, error)
		ApproveRemaining(ctx context.Context, id string, householdID string) (domain.ReceiptResponse, error)
		SaveValidated(ctx context.Context, id string, householdID string) (domain.ReceiptResponse, error)

		ApplyExtraction(ctx context.Context, id string, result domain.ExtractionResult, extractErr error)
	}

	receiptService struct {
		receiptRepository ReceiptRepository
		s3                storage.FileStorage
		extractor         extraction.Client
		tolerance         decimal.Decimal
	}
)

func NewReceiptService(receiptRepository ReceiptRepository, s3 storage.FileStorage, extractor extraction.Client, tolerance decimal.Decimal) ReceiptService {
	return &receiptService{
		receiptRepository: receiptRepository,
		s3:                s3,
		extractor:         extractor,
		tolerance:         tolerance,
	}
}

func (s *receiptService) CreateFromUpload(ctx context.Context, req domain.UploadReceiptRequest, householdID string, isTestData bool) (domain.UploadReceiptResponse, error) {
	if len(req.ReceiptImages) == 0 {
		return domain.UploadReceiptResponse{}, domain.ErrNoReceiptImages
	}

	householdUUID, err := uuid.Parse(householdID)
	if err != nil {
		return domain.UploadReceiptResponse{}, domain.ErrParseUUID
	}

	receiptID := uuid.New()
	imageURLs := make([]string, 0, len(req.ReceiptImages))
	objectKeys := make([]string, 0, len(req.ReceiptImages))
	for i, image := range req.ReceiptImages {
		fileName := fmt.Sprintf("receipt-%s-%d", receiptID.String(), i)
		objectKey, err := s.s3.UploadFile(fileName, image, "receipts", storage.AllowImage...)
		if err != nil {
			for _, key := range objectKeys {
				_ = s.s3.DeleteFile(key)
			}
			return domain.UploadReceiptResponse{}, err
		}
		objectKeys = append(objectKeys, objectKey)
		imageURLs = append(imageURLs, s.s3.GetPublicLinkKey(objectKey))
	}

	receipt := &entities.Receipt{
		ID:               receiptID,
		HouseholdID:      householdUUID,
		IsTestData:       isTestData,
		ReceiptImageURLs: imageURLs,
		ValidationStatus: entities.ReceiptStatusProcessing,
	}

	if err := s.receiptRepository.CreateReceipt(ctx, receipt); err != nil {
		for _, key := range objectKeys {
			_ = s.s3.DeleteFile(key)
		}
		return domain.UploadReceiptResponse{}, err
	}

	// Extraction runs out of band; the caller observes the transition to
	// review_insights (or failed_processing) by polling the receipt.
	go func() {
		result, err := s.extractor.Extract(context.Background(), imageURLs, domain.ExtractionHints{})
		s.ApplyExtraction(context.Background(), receiptID.String(), result, err)
	}()

	return domain.UploadReceiptResponse{
		ReceiptID:        receiptID.String(),
		ReceiptImageURLs: imageURLs,
		ValidationStatus: receipt.ValidationStatus,
	}, nil
}

func (s *receiptService) ApplyExtraction(ctx context.Context, id string, result domain.ExtractionResult, extractErr error) {
	receipt, err := s.receiptRepository.GetReceiptByID(ctx, id)
	if err != nil {
		// The receipt was discarded while extraction was in flight; the stale
		// result is dropped without error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return
		}
		log.Printf("error loading receipt %s for extraction result: %v", id, err)
		return
	}

	if extractErr != nil {
		receipt.ValidationStatus = entities.ReceiptStatusFailed
		if err := s.receiptRepository.UpdateReceipt(ctx, receipt); err != nil {
			log.Printf("error marking receipt %s as failed: %v", id, err)
		}
		return
	}

	receipt.Supermarket = result.Supermarket
	receipt.StoreLocation = result.StoreLocation
	receipt.Currency = result.Currency
	if result.PurchaseDate != "" {
		if purchaseDate, err := time.Parse("2006-01-02", result.PurchaseDate); err == nil {
			receipt.PurchaseDate = &purchaseDate
		}
	}
	if result.OcrReceiptTotal != nil {
		receipt.OcrReceiptTotal = decimal.NullDecimal{Decimal: *result.OcrReceiptTotal, Valid: true}
	}
	receipt.OcrReceiptItemCount = result.OcrReceiptItemCount

	receipt.Items = make([]*entities.Item, 0, len(result.Items))
	for i, extracted := range result.Items {
		item := &entities.Item{
			ID:               uuid.New(),
			ReceiptID:        receipt.ID,
			Position:         i,
			Name:             extracted.Name,
			Category:         extracted.Category,
			Quantity:         extracted.Quantity,
			UnitPrice:        extracted.UnitPrice,
			DiscountApplied:  extracted.DiscountApplied,
			OfferDescription: extracted.OfferDescription,
			ApprovalState:    entities.ItemStatePending,
		}
		// Extraction output is untrusted; coerce instead of rejecting.
		if item.Quantity.IsNegative() {
			item.Quantity = decimal.NewFromInt(1)
		}
		if item.UnitPrice.IsNegative() {
			item.UnitPrice = decimal.Zero
		}
		if item.DiscountApplied.IsNegative() {
			item.DiscountApplied = decimal.Zero
		}
		if !IsValidCategory(item.Category) {
			item.Category = "other"
		}
		RecomputeTotal(item)
		receipt.Items = append(receipt.Items, item)
	}

	RecomputeReceiptTotal(receipt)
	Reconcile(receipt, s.tolerance)
	receipt.ValidationStatus = entities.ReceiptStatusReview

	for _, item := range receipt.Items {
		if err := s.receiptRepository.AddItem(ctx, item); err != nil {
			log.Printf("error saving extracted item for receipt %s: %v", id, err)
			return
		}
	}
	if err := s.receiptRepository.UpdateReceipt(ctx, receipt); err != nil {
		log.Printf("error saving extraction result for receipt %s: %v", id, err)
	}
}

func (s *receiptService) getOwnedReceipt(ctx context.Context, id string, householdID string) (*entities.Receipt, error) {
	receipt, err := s.receiptRepository.GetReceiptByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReceiptNotFound
		}
		return nil, err
	}
	if receipt.HouseholdID.String() != householdID {
		return nil, domain.ErrReceiptNotFound
	}
	return receipt, nil
}

func (s *receiptService) GetReceipt(ctx context.Context, id string, householdID string) (domain.ReceiptResponse, error) {
	receipt, err := s.getOwnedReceipt(ctx, id, householdID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}
	return toReceiptResponse(receipt), nil
}

func (s *receiptService) GetReceipts(ctx context.Context, householdID string, status string, page, limit int) ([]domain.ReceiptResponse, int64, error) {
	receipts, count, err := s.receiptRepository.GetReceipts(ctx, householdID, status, page, limit)
	if err != nil {
		return nil, 0, err
	}

	response := make([]domain.ReceiptResponse, 0, len(receipts))
	for _, receipt := range receipts {
		response = append(response, toReceiptResponse(receipt))
	}
	return response, count, nil
}

func (s *receiptService) DiscardReceipt(ctx context.Context, id string, householdID string, feedback *domain.DiscardReceiptRequest) error {
	receipt, err := s.getOwnedReceipt(ctx, id, householdID)
	if err != nil {
		return err
	}

	if receipt.ValidationStatus == entities.ReceiptStatusValidated {
		return domain.ErrReceiptValidated
	}

	// The failure report is best effort: a failed write never blocks the
	// discard itself.
	if feedback != nil && (len(feedback.IssueTags) > 0 || feedback.Comment != "") {
		report := &entities.ReceiptFailureReport{
			ID:          uuid.New(),
			ReceiptID:   receipt.ID,
			HouseholdID: receipt.HouseholdID,
			IssueTags:   feedback.IssueTags,
			Comment:     feedback.Comment,
		}
		if err := s.receiptRepository.CreateFailureReport(ctx, report); err != nil {
			log.Printf("error writing failure report for receipt %s: %v", id, err)
		}
	}

	for _, imageURL := range receipt.ReceiptImageURLs {
		if objectKey := s.s3.GetObjectKeyFromLink(imageURL); objectKey != "" {
			_ = s.s3.DeleteFile(objectKey)
		}
	}

	return s.receiptRepository.DeleteReceipt(ctx, id)
}

func (s *receiptService) getReviewableReceipt(ctx context.Context, id string, householdID string) (*entities.Receipt, error) {
	receipt, err := s.getOwnedReceipt(ctx, id, householdID)
	if err != nil {
		return nil, err
	}
	if receipt.ValidationStatus == entities.ReceiptStatusValidated {
		return nil, domain.ErrReceiptValidated
	}
	if receipt.ValidationStatus != entities.ReceiptStatusReview {
		return nil, domain.ErrReceiptNotReviewable
	}
	return receipt, nil
}

func (s *receiptService) AddItem(ctx context.Context, id string, householdID string, req domain.AddItemRequest) (domain.ReceiptResponse, error) {
	receipt, err := s.getReviewableReceipt(ctx, id, householdID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}

	if req.Quantity.IsNegative() {
		return domain.ReceiptResponse{}, domain.ErrInvalidQuantity
	}
	if req.UnitPrice.IsNegative() {
		return domain.ReceiptResponse{}, domain.ErrInvalidUnitPrice
	}
	if req.DiscountApplied.IsNegative() {
		return domain.ReceiptResponse{}, domain.ErrInvalidDiscount
	}
	if !IsValidCategory(req.Category) {
		return domain.ReceiptResponse{}, domain.ErrInvalidCategory
	}

	quantity := req.Quantity
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}

	item := &entities.Item{
		ID:               uuid.New(),
		ReceiptID:        receipt.ID,
		Position:         len(receipt.Items),
		Name:             req.Name,
		Category:         req.Category,
		Quantity:         quantity,
		UnitPrice:        req.UnitPrice,
		DiscountApplied:  req.DiscountApplied,
		OfferDescription: req.OfferDescription,
		ApprovalState:    entities.ItemStateManualAdd,
	}
	RecomputeTotal(item)

	if err := s.receiptRepository.AddItem(ctx, item); err != nil {
		return domain.ReceiptResponse{}, err
	}

	receipt.Items = append(receipt.Items, item)
	return s.saveRecomputed(ctx, receipt)
}

func (s *receiptService) UpdateItem(ctx context.Context, id string, householdID string, index int, req domain.UpdateItemRequest) (domain.ReceiptResponse, error) {
	receipt, err := s.getReviewableReceipt(ctx, id, householdID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}

	if index < 0 || index >= len(receipt.Items) {
		return domain.ReceiptResponse{}, domain.ErrItemNotFound
	}
	item := receipt.Items[index]

	// Fail closed: reject the whole edit before touching the item.
	if req.Quantity != nil && req.Quantity.IsNegative() {
		return domain.ReceiptResponse{}, domain.ErrInvalidQuantity
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return domain.ReceiptResponse{}, domain.ErrInvalidUnitPrice
	}
	if req.DiscountApplied != nil && req.DiscountApplied.IsNegative() {
		return domain.ReceiptResponse{}, domain.ErrInvalidDiscount
	}
	if req.Category != nil && !IsValidCategory(*req.Category) {
		return domain.ReceiptResponse{}, domain.ErrInvalidCategory
	}

	fieldChanged := false
	if req.Name != nil && *req.Name != item.Name {
		item.Name = *req.Name
		fieldChanged = true
	}
	if req.Category != nil && *req.Category != item.Category {
		item.Category = *req.Category
		fieldChanged = true
	}
	if req.Quantity != nil && !req.Quantity.Equal(item.Quantity) {
		item.Quantity = *req.Quantity
		fieldChanged = true
	}
	if req.UnitPrice != nil && !req.UnitPrice.Equal(item.UnitPrice) {
		item.UnitPrice = *req.UnitPrice
		fieldChanged = true
	}
	if req.DiscountApplied != nil && !req.DiscountApplied.Equal(item.DiscountApplied) {
		item.DiscountApplied = *req.DiscountApplied
		fieldChanged = true
	}
	if req.OfferDescription != nil && *req.OfferDescription != item.OfferDescription {
		item.OfferDescription = *req.OfferDescription
		fieldChanged = true
	}

	item.ApprovalState = NextApprovalState(item.ApprovalState, fieldChanged)
	RecomputeTotal(item)

	if err := s.receiptRepository.SaveItem(ctx, item); err != nil {
		return domain.ReceiptResponse{}, err
	}

	return s.saveRecomputed(ctx, receipt)
}

func (s *receiptService) RemoveItem(ctx context.Context, id string, householdID string, index int) (domain.ReceiptResponse, error) {
	receipt, err := s.getReviewableReceipt(ctx, id, householdID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}

	if index < 0 || index >= len(receipt.Items) {
		return domain.ReceiptResponse{}, domain.ErrItemNotFound
	}
	removed := receipt.Items[index]

	if err := s.receiptRepository.DeleteItem(ctx, removed.ID.String()); err != nil {
		return domain.ReceiptResponse{}, err
	}

	receipt.Items = append(receipt.Items[:index], receipt.Items[index+1:]...)
	for i, item := range receipt.Items {
		item.Position = i
	}
	if err := s.receiptRepository.SaveItems(ctx, receipt.Items); err != nil {
		return domain.ReceiptResponse{}, err
	}

	return s.saveRecomputed(ctx, receipt)
}

func (s *receiptService) SetApprovalState(ctx context.Context, id string, householdID string, index int, state string) (domain.ReceiptResponse, error) {
	receipt, err := s.getReviewableReceipt(ctx, id, householdID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}

	if index < 0 || index >= len(receipt.Items) {
		return domain.ReceiptResponse{}, domain.ErrItemNotFound
	}
	if !IsValidApprovalState(state) {
		return domain.ReceiptResponse{}, domain.ErrInvalidApprovalState
	}

	item := receipt.Items[index]
	if state == entities.ItemStateApproved {
		ApproveItem(item, time.Now())
	} else {
		item.ApprovalState = state
		item.ApprovedAt = nil
	}

	if err := s.receiptRepository.SaveItem(ctx, item); err != nil {
		return domain.ReceiptResponse{}, err
	}

	return s.saveRecomputed(ctx, receipt)
}

func (s *receiptService) ApproveAll(ctx context.Context, id string, householdID string) (domain.ReceiptResponse, error) {
	return s.bulkApprove(ctx, id, householdID, false)
}

func (s *receiptService) ApproveRemaining(ctx context.Context, id string, householdID string) (domain.ReceiptResponse, error) {
	return s.bulkApprove(ctx, id, householdID, true)
}

func (s *receiptService) bulkApprove(ctx context.Context, id string, householdID string, pendingOnly bool) (domain.ReceiptResponse, error) {
	receipt, err := s.getReviewableReceipt(ctx, id, householdID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}

	now := time.Now()
	for _, item := range receipt.Items {
		if pendingOnly && item.ApprovalState != entities.ItemStatePending {
			continue
		}
		ApproveItem(item, now)
	}

	if err := s.receiptRepository.SaveItems(ctx, receipt.Items); err != nil {
		return domain.ReceiptResponse{}, err
	}

	return s.saveRecomputed(ctx, receipt)
}

func (s *receiptService) SaveValidated(ctx context.Context, id string, householdID string) (domain.ReceiptResponse, error) {
	receipt, err := s.getOwnedReceipt(ctx, id, householdID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}
	if receipt.ValidationStatus == entities.ReceiptStatusProcessing ||
		receipt.ValidationStatus == entities.ReceiptStatusFailed {
		return domain.ReceiptResponse{}, domain.ErrReceiptNotReviewable
	}

	// Partial review is allowed: pending items do not block validation. The
	// total is frozen as the ledger's current sum, and the status is forced.
	RecomputeReceiptTotal(receipt)
	Reconcile(receipt, s.tolerance)
	receipt.ValidationStatus = entities.ReceiptStatusValidated

	if err := s.receiptRepository.UpdateReceipt(ctx, receipt); err != nil {
		return domain.ReceiptResponse{}, err
	}
	return toReceiptResponse(receipt), nil
}

// saveRecomputed refreshes the receipt total and reconciliation fields after
// any item mutation and persists the receipt.
func (s *receiptService) saveRecomputed(ctx context.Context, receipt *entities.Receipt) (domain.ReceiptResponse, error) {
	RecomputeReceiptTotal(receipt)
	Reconcile(receipt, s.tolerance)
	if err := s.receiptRepository.UpdateReceipt(ctx, receipt); err != nil {
		return domain.ReceiptResponse{}, err
	}
	return toReceiptResponse(receipt), nil
}

func toReceiptResponse(receipt *entities.Receipt) domain.ReceiptResponse {
	items := make([]domain.ItemResponse, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		items = append(items, domain.ItemResponse{
			Position:         item.Position,
			Name:             item.Name,
			Category:         item.Category,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			DiscountApplied:  item.DiscountApplied,
			OfferDescription: item.OfferDescription,
			TotalPrice:       item.TotalPrice,
			ApprovalState:    item.ApprovalState,
			ApprovedAt:       item.ApprovedAt,
		})
	}

	reconciliation := domain.ReconciliationResponse{
		ComputedTotalExclDiscounts: receipt.ComputedTotalExclDiscounts,
		ComputedCountExclDiscounts: receipt.ComputedCountExclDiscounts,
		OcrTotalMismatch:           receipt.OcrTotalMismatch,
		OcrCountMismatch:           receipt.OcrCountMismatch,
		OcrTotalDelta:              receipt.OcrTotalDelta,
		OcrCountDelta:              receipt.OcrCountDelta,
	}
	if receipt.OcrReceiptTotal.Valid {
		ocrTotal := receipt.OcrReceiptTotal.Decimal
		reconciliation.OcrReceiptTotal = &ocrTotal
	}
	reconciliation.OcrReceiptItemCount = receipt.OcrReceiptItemCount

	return domain.ReceiptResponse{
		ID:               receipt.ID.String(),
		HouseholdID:      receipt.HouseholdID.String(),
		IsTestData:       receipt.IsTestData,
		Supermarket:      receipt.Supermarket,
		StoreLocation:    receipt.StoreLocation,
		PurchaseDate:     receipt.PurchaseDate,
		Currency:         receipt.Currency,
		ReceiptImageURLs: receipt.ReceiptImageURLs,
		ValidationStatus: receipt.ValidationStatus,
		TotalAmount:      receipt.TotalAmount,
		Items:            items,
		Reconciliation:   reconciliation,
		CreatedAt:        receipt.CreatedAt,
	}
}
