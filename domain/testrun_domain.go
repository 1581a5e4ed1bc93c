package domain

import (
	"errors"
	"mime/multipart"
	"time"
)

var (
	MessageSuccessCreateTestRun   = "test run created successfully"
	MessageSuccessGetTestRuns     = "test runs retrieved successfully"
	MessageSuccessGetTestRun      = "test run retrieved successfully"
	MessageSuccessAttachReceipts  = "receipts attached successfully"
	MessageSuccessCompleteTestRun = "test run marked as completed"
	MessageSuccessRerunTestRun    = "test run rerun created successfully"
	MessageSuccessDeleteTestRun   = "test run deleted successfully"

	MessageFailedCreateTestRun   = "failed to create test run"
	MessageFailedGetTestRuns     = "failed to retrieve test runs"
	MessageFailedGetTestRun      = "failed to retrieve test run"
	MessageFailedAttachReceipts  = "failed to attach receipts"
	MessageFailedCompleteTestRun = "failed to complete test run"
	MessageFailedRerunTestRun    = "failed to rerun test run"
	MessageFailedDeleteTestRun   = "failed to delete test run"

	ErrTestRunNotFound      = errors.New("test run not found")
	ErrTestRunNotInProgress = errors.New("test run is not in progress")
	ErrNoTestRunImages      = errors.New("at least one receipt image is required")
)

type (
	CreateTestRunRequest struct {
		Name        string `json:"name" validate:"required"`
		Description string `json:"description"`
	}

	AttachReceiptsRequest struct {
		ReceiptImages []*multipart.FileHeader `json:"receipt_images" form:"receipt_images" validate:"required,min=1"`
	}

	TestRunResponse struct {
		ID               string                `json:"id"`
		Name             string                `json:"name"`
		Description      string                `json:"description,omitempty"`
		Version          string                `json:"version"`
		Status           string                `json:"status"`
		ReceiptIDs       []string              `json:"receipt_ids"`
		TotalReceipts    int                   `json:"total_receipts"`
		TotalItems       int                   `json:"total_items"`
		ReviewedReceipts int                   `json:"reviewed_receipts"`
		BatchAnalysis    *BatchAnalysisSummary `json:"batch_analysis_summary,omitempty"`
		CreatedAt        time.Time             `json:"created_at"`
	}
)
