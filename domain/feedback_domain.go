package domain

import (
	"errors"
)

var (
	MessageSuccessRecordFeedback = "feedback recorded successfully"
	MessageSuccessConfirmClean   = "clean review confirmed successfully"

	MessageFailedRecordFeedback = "failed to record feedback"
	MessageFailedConfirmClean   = "failed to confirm clean review"

	ErrReceiptNotInTestRun = errors.New("receipt is not attached to this test run")
	ErrInvalidErrorType    = errors.New("unknown error type")
	ErrInvalidErrorOrigin  = errors.New("unknown error origin")
)

type (
	FeedbackItemRequest struct {
		ItemIndex       int    `json:"item_index" validate:"min=0"`
		ErrorType       string `json:"error_type" validate:"omitempty,oneof=incorrect_name incorrect_price incorrect_quantity wrong_category missed_line incorrect_store_name incorrect_date total_amount_mismatch incorrect_location wrong_discount duplicate_item total_as_item other"`
		ErrorOrigin     string `json:"error_origin" validate:"required_with=ErrorType,omitempty,oneof=textract_raw llm_canonicalization missed_item overall_metadata"`
		OriginalValue   string `json:"original_value"`
		CorrectedValue  string `json:"corrected_value"`
		Comment         string `json:"comment"`
		IsCriticalError bool   `json:"is_critical_error"`
	}

	RecordFeedbackRequest struct {
		ReceiptID             string                `json:"receipt_id" validate:"required,uuid"`
		ReceiptQuality        string                `json:"receipt_quality" validate:"required,oneof=crisp faded crumpled torn stained poor_scan"`
		ReceiptLengthCategory string                `json:"receipt_length_category" validate:"required,oneof=short medium long"`
		StoreName             string                `json:"store_name"`
		Items                 []FeedbackItemRequest `json:"items" validate:"dive"`
	}

	ConfirmCleanRequest struct {
		ReceiptQuality        string `json:"receipt_quality" validate:"required,oneof=crisp faded crumpled torn stained poor_scan"`
		ReceiptLengthCategory string `json:"receipt_length_category" validate:"required,oneof=short medium long"`
		StoreName             string `json:"store_name"`
	}

	RecordFeedbackResponse struct {
		EntriesRecorded int `json:"entries_recorded"`
	}
)
