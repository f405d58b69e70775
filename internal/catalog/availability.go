package catalog

import (
	"strings"

	"github.com/noah-isme/backend-pasar/internal/pricing"
)

// Availability is the live stock and price for one requested configuration.
// It is computed fresh per cart operation and never cached across requests.
type Availability struct {
	Stock          int
	UnitPrice      pricing.Money
	VariantMissing bool
}

// ResolveAvailability determines stock and unit price for the requested
// attributes. Variant-bearing products require a non-empty attribute set that
// exactly matches one variant; non-variant products use their own stock and
// base price. A missing match yields zero stock with VariantMissing set.
func ResolveAvailability(p Product, requested map[string]string) Availability {
	if !p.HasVariants() {
		stock := p.Stock
		if stock < 0 {
			stock = 0
		}
		return Availability{Stock: stock, UnitPrice: p.Price}
	}
	if len(requested) == 0 {
		return Availability{VariantMissing: true}
	}
	for _, variant := range p.Variants {
		if AttributesEqual(variant.Attributes, requested) {
			stock := variant.Stock
			if stock < 0 {
				stock = 0
			}
			return Availability{Stock: stock, UnitPrice: variant.Price}
		}
	}
	return Availability{VariantMissing: true}
}

// AttributesEqual compares attribute maps case-insensitively on both keys and
// values. Maps match only when they carry the same key count and every key's
// value matches.
func AttributesEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	folded := make(map[string]string, len(b))
	for key, value := range b {
		folded[strings.ToLower(key)] = strings.ToLower(value)
	}
	for key, value := range a {
		other, ok := folded[strings.ToLower(key)]
		if !ok || other != strings.ToLower(value) {
			return false
		}
	}
	return true
}
