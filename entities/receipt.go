package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	ReceiptStatusProcessing = "processing_background"
	ReceiptStatusReview     = "review_insights"
	ReceiptStatusValidated  = "validated"
	ReceiptStatusFailed     = "failed_processing"
)

const (
	ItemStatePending   = "pending"
	ItemStateCorrected = "corrected"
	ItemStateManualAdd = "manual_add"
	ItemStateApproved  = "approved"
)

var ItemCategories = []string{
	"produce", "dairy", "meat", "fish", "bakery", "frozen",
	"beverages", "snacks", "pantry", "household", "personal_care", "other",
}

type Receipt struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	HouseholdID uuid.UUID `gorm:"index" json:"household_id"`
	IsTestData  bool      `json:"is_test_data"`

	Supermarket         string              `json:"supermarket,omitempty"`
	StoreLocation       string              `json:"store_location,omitempty"`
	PurchaseDate        *time.Time          `json:"purchase_date,omitempty"`
	Currency            string              `json:"currency,omitempty"`
	ReceiptImageURLs    pq.StringArray      `gorm:"type:text[]" json:"receipt_image_urls"`
	OcrReceiptTotal     decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"ocr_receipt_total"`
	OcrReceiptItemCount *int                `json:"ocr_receipt_item_count"`

	// Derived reconciliation fields, recomputed from items, never hand-edited.
	ComputedTotalExclDiscounts decimal.Decimal `gorm:"type:numeric(12,2)" json:"computed_total_excl_discounts"`
	ComputedCountExclDiscounts int             `json:"computed_count_excl_discounts"`
	OcrTotalMismatch           bool            `json:"ocr_total_mismatch"`
	OcrCountMismatch           bool            `json:"ocr_count_mismatch"`
	OcrTotalDelta              decimal.Decimal `gorm:"type:numeric(12,2)" json:"ocr_total_delta"`
	OcrCountDelta              int             `json:"ocr_count_delta"`

	ValidationStatus string          `gorm:"index" json:"validation_status"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_amount"`

	Items []*Item `gorm:"foreignKey:ReceiptID" json:"items"`
	Timestamp
}

type Item struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ReceiptID uuid.UUID `gorm:"index" json:"receipt_id"`
	Position  int       `json:"position"`

	Name             string          `json:"name"`
	Category         string          `json:"category"`
	Quantity         decimal.Decimal `gorm:"type:numeric(12,3)" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:numeric(12,2)" json:"unit_price"`
	DiscountApplied  decimal.Decimal `gorm:"type:numeric(12,2)" json:"discount_applied"`
	OfferDescription string          `json:"offer_description,omitempty"`
	TotalPrice       decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_price"`

	ApprovalState string     `json:"approval_state"` // pending, corrected, manual_add, approved
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`

	Timestamp
}

// ReceiptFailureReport is the optional structured feedback attached when a
// reviewer discards a receipt instead of validating it.
type ReceiptFailureReport struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ReceiptID   uuid.UUID      `gorm:"index" json:"receipt_id"`
	HouseholdID uuid.UUID      `json:"household_id"`
	IssueTags   pq.StringArray `gorm:"type:text[]" json:"issue_tags"`
	Comment     string         `gorm:"type:text" json:"comment,omitempty"`

	Timestamp
}
