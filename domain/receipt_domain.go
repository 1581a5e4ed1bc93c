package domain

import (
	"errors"
	"mime/multipart"
	"time"

	"github.com/shopspring/decimal"
)

var (
	MessageSuccessUploadReceipt    = "receipt uploaded successfully"
	MessageSuccessGetReceipts      = "receipts retrieved successfully"
	MessageSuccessGetReceipt       = "receipt retrieved successfully"
	MessageSuccessDiscardReceipt   = "receipt discarded successfully"
	MessageSuccessAddItem          = "item added successfully"
	MessageSuccessUpdateItem       = "item updated successfully"
	MessageSuccessRemoveItem       = "item removed successfully"
	MessageSuccessSetApproval      = "approval state updated successfully"
	MessageSuccessApproveAll       = "all items approved successfully"
	MessageSuccessApproveRemaining = "remaining items approved successfully"
	MessageSuccessValidateReceipt  = "receipt validated successfully"

	MessageFailedUploadReceipt    = "failed to upload receipt"
	MessageFailedGetReceipts      = "failed to retrieve receipts"
	MessageFailedGetReceipt       = "failed to retrieve receipt"
	MessageFailedDiscardReceipt   = "failed to discard receipt"
	MessageFailedAddItem          = "failed to add item"
	MessageFailedUpdateItem       = "failed to update item"
	MessageFailedRemoveItem       = "failed to remove item"
	MessageFailedSetApproval      = "failed to update approval state"
	MessageFailedApproveItems     = "failed to approve items"
	MessageFailedValidateReceipt  = "failed to validate receipt"

	ErrReceiptNotFound      = errors.New("receipt not found")
	ErrItemNotFound         = errors.New("item not found")
	ErrReceiptValidated     = errors.New("receipt already validated")
	ErrReceiptNotReviewable = errors.New("receipt is not ready for review")
	ErrInvalidQuantity      = errors.New("quantity must not be negative")
	ErrInvalidUnitPrice     = errors.New("unit price must not be negative")
	ErrInvalidDiscount      = errors.New("discount must not be negative")
	ErrInvalidCategory      = errors.New("unknown item category")
	ErrInvalidApprovalState = errors.New("unknown approval state")
	ErrNoReceiptImages      = errors.New("at least one receipt image is required")
)

type (
	UploadReceiptRequest struct {
		ReceiptImages []*multipart.FileHeader `json:"receipt_images" form:"receipt_images" validate:"required,min=1"`
	}

	UploadReceiptResponse struct {
		ReceiptID        string   `json:"receipt_id"`
		ReceiptImageURLs []string `json:"receipt_image_urls"`
		ValidationStatus string   `json:"validation_status"`
	}

	ItemResponse struct {
		Position         int             `json:"position"`
		Name             string          `json:"name"`
		Category         string          `json:"category"`
		Quantity         decimal.Decimal `json:"quantity"`
		UnitPrice        decimal.Decimal `json:"unit_price"`
		DiscountApplied  decimal.Decimal `json:"discount_applied"`
		OfferDescription string          `json:"offer_description,omitempty"`
		TotalPrice       decimal.Decimal `json:"total_price"`
		ApprovalState    string          `json:"approval_state"`
		ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	}

	ReconciliationResponse struct {
		ComputedTotalExclDiscounts decimal.Decimal  `json:"computed_total_excl_discounts"`
		ComputedCountExclDiscounts int              `json:"computed_count_excl_discounts"`
		OcrReceiptTotal            *decimal.Decimal `json:"ocr_receipt_total,omitempty"`
		OcrReceiptItemCount        *int             `json:"ocr_receipt_item_count,omitempty"`
		OcrTotalMismatch           bool             `json:"ocr_total_mismatch"`
		OcrCountMismatch           bool             `json:"ocr_count_mismatch"`
		OcrTotalDelta              decimal.Decimal  `json:"ocr_total_delta"`
		OcrCountDelta              int              `json:"ocr_count_delta"`
	}

	ReceiptResponse struct {
		ID               string                 `json:"id"`
		HouseholdID      string                 `json:"household_id"`
		IsTestData       bool                   `json:"is_test_data"`
		Supermarket      string                 `json:"supermarket,omitempty"`
		StoreLocation    string                 `json:"store_location,omitempty"`
		PurchaseDate     *time.Time             `json:"purchase_date,omitempty"`
		Currency         string                 `json:"currency,omitempty"`
		ReceiptImageURLs []string               `json:"receipt_image_urls"`
		ValidationStatus string                 `json:"validation_status"`
		TotalAmount      decimal.Decimal        `json:"total_amount"`
		Items            []ItemResponse         `json:"items"`
		Reconciliation   ReconciliationResponse `json:"reconciliation"`
		CreatedAt        time.Time              `json:"created_at"`
	}

	AddItemRequest struct {
		Name             string          `json:"name" validate:"required"`
		Category         string          `json:"category" validate:"required"`
		Quantity         decimal.Decimal `json:"quantity"`
		UnitPrice        decimal.Decimal `json:"unit_price"`
		DiscountApplied  decimal.Decimal `json:"discount_applied"`
		OfferDescription string          `json:"offer_description"`
	}

	UpdateItemRequest struct {
		Name             *string          `json:"name"`
		Category         *string          `json:"category"`
		Quantity         *decimal.Decimal `json:"quantity"`
		UnitPrice        *decimal.Decimal `json:"unit_price"`
		DiscountApplied  *decimal.Decimal `json:"discount_applied"`
		OfferDescription *string          `json:"offer_description"`
	}

	SetApprovalStateRequest struct {
		ApprovalState string `json:"approval_state" validate:"required,oneof=pending corrected manual_add approved"`
	}

	DiscardReceiptRequest struct {
		IssueTags []string `json:"issue_tags"`
		Comment   string   `json:"comment"`
	}
)
