package testrun

import (
	"Receipt-Review-Backend/domain"
	"Receipt-Review-Backend/entities"
	"Receipt-Review-Backend/pkg/receipt"
	"context"
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type (
	// FeedbackStore is the slice of the feedback log the registry needs for
	// counter recomputation and cascade deletes.
	FeedbackStore interface {
		CountReviewedReceipts(ctx context.Context, testRunID string) (int64, error)
		DeleteEntriesByTestRun(ctx context.Context, testRunID string) error
	}

	TestRunService interface {
		Create(ctx context.Context, req domain.CreateTestRunRequest) (domain.TestRunResponse, error)
		GetTestRun(ctx context.Context, id string) (domain.TestRunResponse, error)
		GetTestRuns(ctx context.Context, page, limit int) ([]domain.TestRunResponse, int64, error)
		AttachReceipts(ctx context.Context, id string, req domain.AttachReceiptsRequest, householdID string) (domain.TestRunResponse, error)
		Complete(ctx context.Context, id string) (domain.TestRunResponse, error)
		Rerun(ctx context.Context, id string) (domain.TestRunResponse, error)
		Delete(ctx context.Context, id string) error
	}

	testRunService struct {
		testRunRepository TestRunRepository
		receiptRepository receipt.ReceiptRepository
		receiptService    receipt.ReceiptService
		feedbackStore     FeedbackStore
	}
)

func NewTestRunService(
	testRunRepository TestRunRepository,
	receiptRepository receipt.ReceiptRepository,
	receiptService receipt.ReceiptService,
	feedbackStore FeedbackStore,
) TestRunService {
	return &testRunService{
		testRunRepository: testRunRepository,
		receiptRepository: receiptRepository,
		receiptService:    receiptService,
		feedbackStore:     feedbackStore,
	}
}

func (s *testRunService) Create(ctx context.Context, req domain.CreateTestRunRequest) (domain.TestRunResponse, error) {
	testRun := &entities.TestRun{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Version:     "1.0",
		Status:      entities.TestRunStatusInProgress,
	}
	if err := s.testRunRepository.CreateTestRun(ctx, testRun); err != nil {
		return domain.TestRunResponse{}, err
	}
	return s.toResponse(ctx, testRun)
}

func (s *testRunService) getTestRun(ctx context.Context, id string) (*entities.TestRun, error) {
	testRun, err := s.testRunRepository.GetTestRunByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTestRunNotFound
		}
		return nil, err
	}
	return testRun, nil
}

func (s *testRunService) GetTestRun(ctx context.Context, id string) (domain.TestRunResponse, error) {
	testRun, err := s.getTestRun(ctx, id)
	if err != nil {
		return domain.TestRunResponse{}, err
	}
	return s.toResponse(ctx, testRun)
}

func (s *testRunService) GetTestRuns(ctx context.Context, page, limit int) ([]domain.TestRunResponse, int64, error) {
	testRuns, count, err := s.testRunRepository.GetTestRuns(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	response := make([]domain.TestRunResponse, 0, len(testRuns))
	for _, testRun := range testRuns {
		res, err := s.toResponse(ctx, testRun)
		if err != nil {
			return nil, 0, err
		}
		response = append(response, res)
	}
	return response, count, nil
}

func (s *testRunService) AttachReceipts(ctx context.Context, id string, req domain.AttachReceiptsRequest, householdID string) (domain.TestRunResponse, error) {
	testRun, err := s.getTestRun(ctx, id)
	if err != nil {
		return domain.TestRunResponse{}, err
	}
	if testRun.Status != entities.TestRunStatusInProgress {
		return domain.TestRunResponse{}, domain.ErrTestRunNotInProgress
	}
	if len(req.ReceiptImages) == 0 {
		return domain.TestRunResponse{}, domain.ErrNoTestRunImages
	}

	existing, err := s.testRunRepository.GetReceiptIDs(ctx, id)
	if err != nil {
		return domain.TestRunResponse{}, err
	}
	position := len(existing)

	for _, image := range req.ReceiptImages {
		uploadReq := domain.UploadReceiptRequest{
			ReceiptImages: []*multipart.FileHeader{image},
		}
		uploaded, err := s.receiptService.CreateFromUpload(ctx, uploadReq, householdID, true)
		if err != nil {
			return domain.TestRunResponse{}, err
		}

		receiptUUID, err := uuid.Parse(uploaded.ReceiptID)
		if err != nil {
			return domain.TestRunResponse{}, domain.ErrParseUUID
		}

		link := &entities.TestRunReceipt{
			ID:        uuid.New(),
			TestRunID: testRun.ID,
			ReceiptID: receiptUUID,
			Position:  position,
		}
		if err := s.testRunRepository.AttachReceipt(ctx, link); err != nil {
			return domain.TestRunResponse{}, err
		}
		position++
	}

	return s.toResponse(ctx, testRun)
}

// Complete is the reviewer-driven transition once the last attached receipt
// has been reviewed; the registry does not auto-detect it.
func (s *testRunService) Complete(ctx context.Context, id string) (domain.TestRunResponse, error) {
	testRun, err := s.getTestRun(ctx, id)
	if err != nil {
		return domain.TestRunResponse{}, err
	}
	if testRun.Status != entities.TestRunStatusInProgress {
		return domain.TestRunResponse{}, domain.ErrTestRunNotInProgress
	}

	testRun.Status = entities.TestRunStatusCompleted
	if err := s.testRunRepository.UpdateTestRun(ctx, testRun); err != nil {
		return domain.TestRunResponse{}, err
	}
	return s.toResponse(ctx, testRun)
}

// Rerun creates a fresh in_progress run on the same receipt set with the
// version bumped by 0.1. The original run and its feedback stay untouched, so
// extraction quality can be compared across pipeline changes.
func (s *testRunService) Rerun(ctx context.Context, id string) (domain.TestRunResponse, error) {
	original, err := s.getTestRun(ctx, id)
	if err != nil {
		return domain.TestRunResponse{}, err
	}

	version, err := decimal.NewFromString(original.Version)
	if err != nil {
		version = decimal.NewFromInt(1)
	}
	nextVersion := version.Add(decimal.NewFromFloat(0.1)).StringFixed(1)

	rerun := &entities.TestRun{
		ID:          uuid.New(),
		Name:        original.Name,
		Description: original.Description,
		Version:     nextVersion,
		Status:      entities.TestRunStatusInProgress,
	}
	if err := s.testRunRepository.CreateTestRun(ctx, rerun); err != nil {
		return domain.TestRunResponse{}, err
	}

	receiptIDs, err := s.testRunRepository.GetReceiptIDs(ctx, id)
	if err != nil {
		return domain.TestRunResponse{}, err
	}
	for i, receiptID := range receiptIDs {
		receiptUUID, err := uuid.Parse(receiptID)
		if err != nil {
			return domain.TestRunResponse{}, domain.ErrParseUUID
		}
		link := &entities.TestRunReceipt{
			ID:        uuid.New(),
			TestRunID: rerun.ID,
			ReceiptID: receiptUUID,
			Position:  i,
		}
		if err := s.testRunRepository.AttachReceipt(ctx, link); err != nil {
			return domain.TestRunResponse{}, err
		}
	}

	return s.toResponse(ctx, rerun)
}

// Delete cascades to the attached receipts and every feedback entry for the
// run. Irreversible.
func (s *testRunService) Delete(ctx context.Context, id string) error {
	if _, err := s.getTestRun(ctx, id); err != nil {
		return err
	}

	receiptIDs, err := s.testRunRepository.GetReceiptIDs(ctx, id)
	if err != nil {
		return err
	}
	for _, receiptID := range receiptIDs {
		if err := s.receiptRepository.DeleteReceipt(ctx, receiptID); err != nil {
			log.Printf("error deleting receipt %s during test run cascade: %v", receiptID, err)
		}
	}

	if err := s.feedbackStore.DeleteEntriesByTestRun(ctx, id); err != nil {
		return err
	}

	return s.testRunRepository.DeleteTestRun(ctx, id)
}

// toResponse recomputes the counters from the attached receipts and the
// feedback log on every read. Counters are never incremented in place, so
// concurrent reviewers cannot double-count or lose updates.
func (s *testRunService) toResponse(ctx context.Context, testRun *entities.TestRun) (domain.TestRunResponse, error) {
	receiptIDs, err := s.testRunRepository.GetReceiptIDs(ctx, testRun.ID.String())
	if err != nil {
		return domain.TestRunResponse{}, err
	}

	totalItems, err := s.testRunRepository.CountItems(ctx, receiptIDs)
	if err != nil {
		return domain.TestRunResponse{}, err
	}

	reviewed, err := s.feedbackStore.CountReviewedReceipts(ctx, testRun.ID.String())
	if err != nil {
		return domain.TestRunResponse{}, err
	}

	testRun.TotalReceipts = len(receiptIDs)
	testRun.TotalItems = int(totalItems)
	testRun.ReviewedReceipts = int(reviewed)

	response := domain.TestRunResponse{
		ID:               testRun.ID.String(),
		Name:             testRun.Name,
		Description:      testRun.Description,
		Version:          testRun.Version,
		Status:           testRun.Status,
		ReceiptIDs:       receiptIDs,
		TotalReceipts:    testRun.TotalReceipts,
		TotalItems:       testRun.TotalItems,
		ReviewedReceipts: testRun.ReviewedReceipts,
		CreatedAt:        testRun.CreatedAt,
	}

	if testRun.BatchAnalysisSummary != "" {
		var summary domain.BatchAnalysisSummary
		if err := json.Unmarshal([]byte(testRun.BatchAnalysisSummary), &summary); err == nil {
			response.BatchAnalysis = &summary
		}
	}

	return response, nil
}
