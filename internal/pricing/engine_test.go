package pricing

import "testing"

func flatShipping(amount Money) ShippingFunc {
	return func(string, []Line) Money { return amount }
}

func TestComputeGroupsBySeller(t *testing.T) {
	lines := []Line{
		{SellerID: "seller-b", Qty: 2, UnitPrice: 10_000},
		{SellerID: "seller-a", Qty: 1, UnitPrice: 5_000},
		{SellerID: "seller-b", Qty: 1, UnitPrice: 2_500},
	}
	summary := Compute(lines, flatShipping(1_000), 0)

	if len(summary.SellerGroups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(summary.SellerGroups))
	}
	if summary.SellerGroups[0].SellerID != "seller-a" || summary.SellerGroups[1].SellerID != "seller-b" {
		t.Fatalf("groups must be ordered by seller id, got %+v", summary.SellerGroups)
	}
	if summary.SellerGroups[1].Subtotal != 22_500 {
		t.Fatalf("seller-b subtotal = %d, want 22500", summary.SellerGroups[1].Subtotal)
	}
	if summary.ItemsSubtotal != 27_500 {
		t.Fatalf("itemsSubtotal = %d, want 27500", summary.ItemsSubtotal)
	}
	if summary.ShippingTotal != 2_000 {
		t.Fatalf("shippingTotal = %d, want 2000", summary.ShippingTotal)
	}
	if summary.GrandTotal != 29_500 {
		t.Fatalf("grandTotal = %d, want 29500", summary.GrandTotal)
	}
	if summary.TotalQuantity != 4 {
		t.Fatalf("totalQuantity = %d, want 4", summary.TotalQuantity)
	}
}

func TestComputeInvariants(t *testing.T) {
	lines := []Line{
		{SellerID: "s1", Qty: 3, UnitPrice: 4_000},
		{SellerID: "s2", Qty: 1, UnitPrice: 9_000},
	}
	summary := Compute(lines, flatShipping(500), 3_000)

	var groupSubtotal, groupShipping Money
	for _, g := range summary.SellerGroups {
		groupSubtotal += g.Subtotal
		groupShipping += g.Shipping
	}
	if summary.ItemsSubtotal != groupSubtotal {
		t.Fatalf("itemsSubtotal %d != sum of group subtotals %d", summary.ItemsSubtotal, groupSubtotal)
	}
	if summary.ShippingTotal != groupShipping {
		t.Fatalf("shippingTotal %d != sum of group shipping %d", summary.ShippingTotal, groupShipping)
	}
	want := summary.ItemsSubtotal + summary.ShippingTotal - summary.DiscountTotal
	if summary.GrandTotal != want {
		t.Fatalf("grandTotal %d != subtotal+shipping-discount %d", summary.GrandTotal, want)
	}
}

func TestComputeDiscountFloorsAtZero(t *testing.T) {
	lines := []Line{{SellerID: "s1", Qty: 1, UnitPrice: 1_000}}
	summary := Compute(lines, nil, 50_000)
	if summary.GrandTotal != 0 {
		t.Fatalf("grandTotal = %d, want 0", summary.GrandTotal)
	}
	if summary.DiscountTotal != 1_000 {
		t.Fatalf("discount must be capped at gross, got %d", summary.DiscountTotal)
	}
}

func TestComputeEmptyCart(t *testing.T) {
	summary := Compute(nil, flatShipping(1_000), 0)
	if !summary.IsEmpty {
		t.Fatal("expected empty summary")
	}
	if summary.GrandTotal != 0 || len(summary.SellerGroups) != 0 {
		t.Fatalf("unexpected totals for empty cart: %+v", summary)
	}
}

func TestComputeSkipsNonPositiveQty(t *testing.T) {
	lines := []Line{
		{SellerID: "s1", Qty: 0, UnitPrice: 1_000},
		{SellerID: "s1", Qty: -2, UnitPrice: 1_000},
	}
	summary := Compute(lines, nil, 0)
	if !summary.IsEmpty {
		t.Fatalf("lines without positive qty must not count, got %+v", summary)
	}
}
