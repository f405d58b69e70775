package catalog

import (
	"context"
	"errors"

	"github.com/noah-isme/backend-pasar/internal/pricing"
)

// ErrNotFound indicates the requested product could not be located.
var ErrNotFound = errors.New("product not found")

// Variant is a sellable configuration of a product identified by its attributes.
type Variant struct {
	SKU        string            `json:"sku,omitempty"`
	Price      pricing.Money     `json:"price"`
	Stock      int               `json:"stock"`
	Attributes map[string]string `json:"attributes"`
}

// Product is the live catalog record cart operations resolve against.
type Product struct {
	ID       string        `json:"id"`
	SellerID string        `json:"sellerId"`
	Title    string        `json:"title"`
	Slug     string        `json:"slug"`
	Price    pricing.Money `json:"price"`
	Stock    int           `json:"stock"`
	Variants []Variant     `json:"variants,omitempty"`
}

// HasVariants reports whether the product is variant-bearing.
func (p Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// Lookup resolves live product state. Implementations belong to the storage
// layer; cart mutations call this on every request so stock is never stale.
type Lookup interface {
	GetProductByID(ctx context.Context, id string) (Product, error)
}
