package feedback

import (
	"Receipt-Review-Backend/domain"
	"Receipt-Review-Backend/entities"
	"Receipt-Review-Backend/pkg/testrun"
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	// FeedbackService maintains the append-only quality feedback log. Entries
	// are never updated or deleted outside a test run cascade delete.
	FeedbackService interface {
		Record(ctx context.Context, testRunID string, req domain.RecordFeedbackRequest) (domain.RecordFeedbackResponse, error)
		ConfirmClean(ctx context.Context, testRunID string, receiptID string, req domain.ConfirmCleanRequest) error
	}

	feedbackService struct {
		feedbackRepository FeedbackRepository
		testRunRepository  testrun.TestRunRepository
	}
)

func NewFeedbackService(feedbackRepository FeedbackRepository, testRunRepository testrun.TestRunRepository) FeedbackService {
	return &feedbackService{
		feedbackRepository: feedbackRepository,
		testRunRepository:  testRunRepository,
	}
}

func (s *feedbackService) attachedReceipt(ctx context.Context, testRunID string, receiptID string) (uuid.UUID, uuid.UUID, error) {
	runUUID, err := uuid.Parse(testRunID)
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrParseUUID
	}
	receiptUUID, err := uuid.Parse(receiptID)
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrParseUUID
	}

	if _, err := s.testRunRepository.GetTestRunByID(ctx, testRunID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, uuid.Nil, domain.ErrTestRunNotFound
		}
		return uuid.Nil, uuid.Nil, err
	}

	attached, err := s.testRunRepository.IsReceiptAttached(ctx, testRunID, receiptID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if !attached {
		return uuid.Nil, uuid.Nil, domain.ErrReceiptNotInTestRun
	}

	return runUUID, receiptUUID, nil
}

func (s *feedbackService) Record(ctx context.Context, testRunID string, req domain.RecordFeedbackRequest) (domain.RecordFeedbackResponse, error) {
	runUUID, receiptUUID, err := s.attachedReceipt(ctx, testRunID, req.ReceiptID)
	if err != nil {
		return domain.RecordFeedbackResponse{}, err
	}

	recorded := 0
	for _, item := range req.Items {
		// Clean items are implicit: no error type, no entry.
		if item.ErrorType == "" {
			continue
		}
		if !entities.IsValidErrorType(item.ErrorType) {
			return domain.RecordFeedbackResponse{}, domain.ErrInvalidErrorType
		}
		if !entities.IsValidErrorOrigin(item.ErrorOrigin) {
			return domain.RecordFeedbackResponse{}, domain.ErrInvalidErrorOrigin
		}

		entry := &entities.QualityFeedbackEntry{
			ID:                    uuid.New(),
			TestRunID:             runUUID,
			ReceiptID:             receiptUUID,
			ItemIndex:             item.ItemIndex,
			ErrorType:             item.ErrorType,
			ErrorOrigin:           item.ErrorOrigin,
			OriginalValue:         item.OriginalValue,
			CorrectedValue:        item.CorrectedValue,
			Comment:               item.Comment,
			IsCriticalError:       item.IsCriticalError,
			ReceiptQuality:        req.ReceiptQuality,
			ReceiptLengthCategory: req.ReceiptLengthCategory,
			StoreName:             req.StoreName,
		}
		if err := s.feedbackRepository.CreateEntry(ctx, entry); err != nil {
			return domain.RecordFeedbackResponse{}, err
		}
		recorded++
	}

	return domain.RecordFeedbackResponse{EntriesRecorded: recorded}, nil
}

// ConfirmClean writes an explicit no_error marker so a reviewed receipt with
// zero errors stays distinguishable from one that was never reviewed.
func (s *feedbackService) ConfirmClean(ctx context.Context, testRunID string, receiptID string, req domain.ConfirmCleanRequest) error {
	runUUID, receiptUUID, err := s.attachedReceipt(ctx, testRunID, receiptID)
	if err != nil {
		return err
	}

	entry := &entities.QualityFeedbackEntry{
		ID:                    uuid.New(),
		TestRunID:             runUUID,
		ReceiptID:             receiptUUID,
		ItemIndex:             -1,
		ErrorType:             entities.ErrorTypeNoError,
		ErrorOrigin:           entities.ErrorOriginOverallMetadata,
		ReceiptQuality:        req.ReceiptQuality,
		ReceiptLengthCategory: req.ReceiptLengthCategory,
		StoreName:             req.StoreName,
	}
	return s.feedbackRepository.CreateEntry(ctx, entry)
}
