package entities

import (
	"github.com/google/uuid"
)

// Closed error taxonomy for quality feedback entries. ErrorTypeNoError marks a
// receipt reviewed with zero errors, so "no entries" always means "not reviewed".
const (
	ErrorTypeIncorrectName       = "incorrect_name"
	ErrorTypeIncorrectPrice      = "incorrect_price"
	ErrorTypeIncorrectQuantity   = "incorrect_quantity"
	ErrorTypeWrongCategory       = "wrong_category"
	ErrorTypeMissedLine          = "missed_line"
	ErrorTypeIncorrectStoreName  = "incorrect_store_name"
	ErrorTypeIncorrectDate       = "incorrect_date"
	ErrorTypeTotalAmountMismatch = "total_amount_mismatch"
	ErrorTypeIncorrectLocation   = "incorrect_location"
	ErrorTypeWrongDiscount       = "wrong_discount"
	ErrorTypeDuplicateItem       = "duplicate_item"
	ErrorTypeTotalAsItem         = "total_as_item"
	ErrorTypeOther               = "other"
	ErrorTypeNoError             = "no_error"
)

const (
	ErrorOriginTextractRaw         = "textract_raw"
	ErrorOriginLLMCanonicalization = "llm_canonicalization"
	ErrorOriginMissedItem          = "missed_item"
	ErrorOriginOverallMetadata     = "overall_metadata"
)

var ErrorTypes = []string{
	ErrorTypeIncorrectName, ErrorTypeIncorrectPrice, ErrorTypeIncorrectQuantity,
	ErrorTypeWrongCategory, ErrorTypeMissedLine, ErrorTypeIncorrectStoreName,
	ErrorTypeIncorrectDate, ErrorTypeTotalAmountMismatch, ErrorTypeIncorrectLocation,
	ErrorTypeWrongDiscount, ErrorTypeDuplicateItem, ErrorTypeTotalAsItem,
	ErrorTypeOther, ErrorTypeNoError,
}

var ErrorOrigins = []string{
	ErrorOriginTextractRaw, ErrorOriginLLMCanonicalization,
	ErrorOriginMissedItem, ErrorOriginOverallMetadata,
}

var ReceiptQualities = []string{"crisp", "faded", "crumpled", "torn", "stained", "poor_scan"}

var ReceiptLengthCategories = []string{"short", "medium", "long"}

func IsValidErrorType(s string) bool {
	for _, t := range ErrorTypes {
		if s == t {
			return true
		}
	}
	return false
}

func IsValidErrorOrigin(s string) bool {
	for _, o := range ErrorOrigins {
		if s == o {
			return true
		}
	}
	return false
}

// QualityFeedbackEntry is one recorded discrepancy from a test run review.
// Entries are append-only; corrections get a new entry instead of an update.
type QualityFeedbackEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	TestRunID uuid.UUID `gorm:"index" json:"test_run_id"`
	ReceiptID uuid.UUID `gorm:"index" json:"receipt_id"`
	ItemIndex int       `json:"item_index"`

	ErrorType       string `json:"error_type"`
	ErrorOrigin     string `json:"error_origin"`
	OriginalValue   string `gorm:"type:text" json:"original_value,omitempty"`
	CorrectedValue  string `gorm:"type:text" json:"corrected_value,omitempty"`
	Comment         string `gorm:"type:text" json:"comment,omitempty"`
	IsCriticalError bool   `json:"is_critical_error"`

	// Receipt-level context denormalized at write time.
	ReceiptQuality        string `json:"receipt_quality"`
	ReceiptLengthCategory string `json:"receipt_length_category"`
	StoreName             string `json:"store_name"`

	Timestamp
}
