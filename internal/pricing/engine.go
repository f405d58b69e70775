package pricing

import "sort"

// Money represents a monetary value stored in minor units.
type Money = int64

// Line describes a cart line used for total calculation.
type Line struct {
	SellerID  string
	Qty       int
	UnitPrice Money
}

// SellerGroup aggregates one seller's share of the cart.
type SellerGroup struct {
	SellerID string `json:"sellerId"`
	Subtotal Money  `json:"subtotal"`
	Shipping Money  `json:"shipping"`
	Total    Money  `json:"total"`
}

// Summary aggregates computed cart totals across all sellers.
type Summary struct {
	SellerGroups     []SellerGroup `json:"sellerGroups"`
	ItemsSubtotal    Money         `json:"itemsSubtotal"`
	ShippingTotal    Money         `json:"shippingTotal"`
	DiscountTotal    Money         `json:"discountTotal"`
	GrandTotal       Money         `json:"grandTotal"`
	TotalQuantity    int           `json:"totalQuantity"`
	AppliedPromoCode string        `json:"appliedPromoCode,omitempty"`
	IsEmpty          bool          `json:"isEmpty"`
}

// ShippingFunc resolves the shipping cost for one seller's lines.
type ShippingFunc func(sellerID string, lines []Line) Money

// Compute groups lines by seller, prices each group, and derives cart totals.
// The discount is subtracted from subtotal plus shipping with the grand total
// floored at zero. Seller groups are ordered by seller id so repeated
// computations over the same cart yield identical output.
func Compute(lines []Line, shipping ShippingFunc, discount Money) Summary {
	grouped := make(map[string][]Line)
	order := make([]string, 0)
	totalQty := 0
	for _, line := range lines {
		if line.Qty <= 0 {
			continue
		}
		if _, seen := grouped[line.SellerID]; !seen {
			order = append(order, line.SellerID)
		}
		grouped[line.SellerID] = append(grouped[line.SellerID], line)
		totalQty += line.Qty
	}
	sort.Strings(order)

	summary := Summary{
		SellerGroups:  make([]SellerGroup, 0, len(order)),
		TotalQuantity: totalQty,
		IsEmpty:       totalQty == 0,
	}
	for _, sellerID := range order {
		group := SellerGroup{SellerID: sellerID}
		for _, line := range grouped[sellerID] {
			group.Subtotal += Money(line.Qty) * line.UnitPrice
		}
		if shipping != nil {
			group.Shipping = shipping(sellerID, grouped[sellerID])
			if group.Shipping < 0 {
				group.Shipping = 0
			}
		}
		group.Total = group.Subtotal + group.Shipping
		summary.SellerGroups = append(summary.SellerGroups, group)
		summary.ItemsSubtotal += group.Subtotal
		summary.ShippingTotal += group.Shipping
	}

	if discount < 0 {
		discount = 0
	}
	gross := summary.ItemsSubtotal + summary.ShippingTotal
	if discount > gross {
		discount = gross
	}
	summary.DiscountTotal = discount
	summary.GrandTotal = gross - discount
	return summary
}
