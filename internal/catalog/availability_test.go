package catalog

import "testing"

func variantProduct() Product {
	return Product{
		ID:       "p-7",
		SellerID: "s-1",
		Price:    10_000,
		Stock:    99,
		Variants: []Variant{
			{Price: 12_000, Stock: 5, Attributes: map[string]string{"color": "Red", "size": "M"}},
			{Price: 13_000, Stock: 0, Attributes: map[string]string{"color": "Blue", "size": "L"}},
		},
	}
}

func TestResolveAvailabilityVariantMatchIsCaseInsensitive(t *testing.T) {
	got := ResolveAvailability(variantProduct(), map[string]string{"Size": "m", "Color": "red"})
	if got.VariantMissing {
		t.Fatal("expected variant match")
	}
	if got.Stock != 5 || got.UnitPrice != 12_000 {
		t.Fatalf("unexpected availability %+v", got)
	}
}

func TestResolveAvailabilityEmptyRequestOnVariantProduct(t *testing.T) {
	got := ResolveAvailability(variantProduct(), nil)
	if !got.VariantMissing || got.Stock != 0 {
		t.Fatalf("expected missing variant, got %+v", got)
	}
}

func TestResolveAvailabilityNoExactMatch(t *testing.T) {
	// Same values but a different key count must not match.
	got := ResolveAvailability(variantProduct(), map[string]string{"color": "red"})
	if !got.VariantMissing {
		t.Fatalf("partial attribute set must not match, got %+v", got)
	}
}

func TestResolveAvailabilityNonVariantProduct(t *testing.T) {
	p := Product{ID: "p-1", Price: 4_000, Stock: -3}
	got := ResolveAvailability(p, nil)
	if got.VariantMissing {
		t.Fatal("non-variant product never reports missing variant")
	}
	if got.Stock != 0 {
		t.Fatalf("negative stock must floor at 0, got %d", got.Stock)
	}
	if got.UnitPrice != 4_000 {
		t.Fatalf("unit price = %d, want base price", got.UnitPrice)
	}
}

func TestAttributesEqual(t *testing.T) {
	a := map[string]string{"color": "Red", "size": "M"}
	b := map[string]string{"SIZE": "m", "COLOR": "RED"}
	if !AttributesEqual(a, b) {
		t.Fatal("expected case-insensitive equality")
	}
	c := map[string]string{"color": "Red", "size": "M", "fit": "slim"}
	if AttributesEqual(a, c) {
		t.Fatal("different key counts must not be equal")
	}
}
