package cart

import (
	"context"

	"github.com/noah-isme/backend-pasar/internal/pricing"
)

// ShippingRater computes the shipping cost for one seller's lines. The real
// implementation lives with the shipping provider; the cart only consumes it.
type ShippingRater interface {
	ComputeShipping(ctx context.Context, sellerID string, lines []pricing.Line) (pricing.Money, error)
}

// FlatRateShipping charges a fixed amount per seller group.
type FlatRateShipping struct {
	PerSeller pricing.Money
}

// ComputeShipping implements ShippingRater.
func (f FlatRateShipping) ComputeShipping(_ context.Context, _ string, lines []pricing.Line) (pricing.Money, error) {
	if len(lines) == 0 {
		return 0, nil
	}
	return f.PerSeller, nil
}
