package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrExtractionFailed = errors.New("receipt extraction failed")

type (
	ExtractionHints struct {
		KnownStore string           `json:"known_store,omitempty"`
		KnownTotal *decimal.Decimal `json:"known_total,omitempty"`
	}

	ExtractedItem struct {
		Name             string          `json:"name"`
		Category         string          `json:"category"`
		Quantity         decimal.Decimal `json:"quantity"`
		UnitPrice        decimal.Decimal `json:"unit_price"`
		DiscountApplied  decimal.Decimal `json:"discount_applied"`
		OfferDescription string          `json:"offer_description,omitempty"`
	}

	ExtractionResult struct {
		Supermarket         string           `json:"supermarket"`
		StoreLocation       string           `json:"store_location"`
		PurchaseDate        string           `json:"purchase_date"` // YYYY-MM-DD
		Currency            string           `json:"currency"`
		Items               []ExtractedItem  `json:"items"`
		OcrReceiptTotal     *decimal.Decimal `json:"ocr_receipt_total"`
		OcrReceiptItemCount *int             `json:"ocr_receipt_item_count"`
	}
)
