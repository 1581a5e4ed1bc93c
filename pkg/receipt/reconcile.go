package receipt

import (
	"Receipt-Review-Backend/entities"

	"github.com/shopspring/decimal"
)

// DefaultTolerance is the allowed gap between the extracted receipt total and
// the sum of item totals before a mismatch is flagged.
var DefaultTolerance = decimal.NewFromFloat(0.01)

// isDiscountLine reports whether an item is a pure discount/offer annotation
// rather than a purchased product. Such lines carry no priced product of their
// own and are excluded from the reconciliation item count.
func isDiscountLine(item *entities.Item) bool {
	return item.Quantity.Mul(item.UnitPrice).IsZero() &&
		(item.DiscountApplied.IsPositive() || item.OfferDescription != "")
}

// Reconcile recomputes every derived reconciliation field on the receipt from
// its current item list and extraction metadata. It never mutates items.
func Reconcile(r *entities.Receipt, tolerance decimal.Decimal) {
	computedTotal := decimal.Zero
	computedCount := 0
	for _, item := range r.Items {
		computedTotal = computedTotal.Add(item.Quantity.Mul(item.UnitPrice))
		if !isDiscountLine(item) {
			computedCount++
		}
	}

	r.ComputedTotalExclDiscounts = computedTotal.Round(2)
	r.ComputedCountExclDiscounts = computedCount

	r.OcrTotalMismatch = false
	r.OcrTotalDelta = decimal.Zero
	if r.OcrReceiptTotal.Valid {
		delta := r.OcrReceiptTotal.Decimal.Sub(r.TotalAmount).Abs()
		r.OcrTotalDelta = delta
		r.OcrTotalMismatch = delta.GreaterThan(tolerance)
	}

	r.OcrCountMismatch = false
	r.OcrCountDelta = 0
	if r.OcrReceiptItemCount != nil {
		delta := *r.OcrReceiptItemCount - computedCount
		if delta < 0 {
			delta = -delta
		}
		r.OcrCountDelta = delta
		r.OcrCountMismatch = delta != 0
	}
}
