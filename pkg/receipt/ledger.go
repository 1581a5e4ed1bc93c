package receipt

import (
	"Receipt-Review-Backend/entities"
	"time"

	"github.com/shopspring/decimal"
)

// ItemTotal computes quantity*unit_price - discount rounded to two decimals.
// Rounding is half away from zero.
func ItemTotal(quantity, unitPrice, discount decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Sub(discount).Round(2)
}

// NextApprovalState decides the approval state after an edit. Manually added
// items keep their state; anything else becomes corrected once a tracked field
// actually changed.
func NextApprovalState(current string, fieldChanged bool) string {
	if !fieldChanged {
		return current
	}
	if current == entities.ItemStateManualAdd {
		return current
	}
	return entities.ItemStateCorrected
}

// RecomputeTotal refreshes an item's total price from its current fields.
func RecomputeTotal(item *entities.Item) {
	item.TotalPrice = ItemTotal(item.Quantity, item.UnitPrice, item.DiscountApplied)
}

// RecomputeReceiptTotal sets the receipt total to the sum of item total prices.
// Always recomputed from the items, never adjusted by deltas.
func RecomputeReceiptTotal(r *entities.Receipt) {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.TotalPrice)
	}
	r.TotalAmount = total
}

// ApproveItem marks an item approved and stamps the approval time.
func ApproveItem(item *entities.Item, at time.Time) {
	item.ApprovalState = entities.ItemStateApproved
	item.ApprovedAt = &at
}

func IsValidCategory(category string) bool {
	for _, c := range entities.ItemCategories {
		if category == c {
			return true
		}
	}
	return false
}

func IsValidApprovalState(state string) bool {
	switch state {
	case entities.ItemStatePending, entities.ItemStateCorrected,
		entities.ItemStateManualAdd, entities.ItemStateApproved:
		return true
	}
	return false
}
