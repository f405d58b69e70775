package cart_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pasar/internal/cart"
	"github.com/noah-isme/backend-pasar/internal/catalog"
	"github.com/noah-isme/backend-pasar/internal/promo"
)

type memStore struct {
	carts map[string]cart.Cart
}

func newMemStore() *memStore {
	return &memStore{carts: map[string]cart.Cart{}}
}

func (s *memStore) Get(_ context.Context, sessionID string) (cart.Cart, error) {
	return s.carts[sessionID], nil
}

func (s *memStore) Replace(_ context.Context, sessionID string, c cart.Cart) error {
	s.carts[sessionID] = c
	return nil
}

type stubCatalog struct {
	products map[string]catalog.Product
}

func (s stubCatalog) GetProductByID(_ context.Context, id string) (catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

type stubPromos struct {
	rules map[string]promo.Rule
}

func (s stubPromos) GetRuleByCode(_ context.Context, code string) (promo.Rule, error) {
	for key, rule := range s.rules {
		if key == code || rule.Code == code {
			return rule, nil
		}
	}
	return promo.Rule{}, promo.ErrUnknownCode
}

func newTestService(products map[string]catalog.Product, rules map[string]promo.Rule) (*cart.Service, *memStore) {
	store := newMemStore()
	svc := &cart.Service{
		Store:    store,
		Catalog:  stubCatalog{products: products},
		Promos:   stubPromos{rules: rules},
		Shipping: cart.FlatRateShipping{PerSeller: 1_000},
		Now:      func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) },
	}
	return svc, store
}

func simpleProducts() map[string]catalog.Product {
	return map[string]catalog.Product{
		"p-1": {ID: "p-1", SellerID: "seller-a", Title: "Sepatu", Price: 10_000, Stock: 5},
		"p-2": {ID: "p-2", SellerID: "seller-b", Title: "Kaos", Price: 4_000, Stock: 10},
		"p-7": {
			ID: "p-7", SellerID: "seller-a", Title: "Jaket", Price: 20_000, Stock: 99,
			Variants: []catalog.Variant{
				{Price: 22_000, Stock: 3, Attributes: map[string]string{"color": "Red"}},
			},
		},
	}
}

func TestAddClampsToAvailableStock(t *testing.T) {
	svc, _ := newTestService(simpleProducts(), nil)
	ctx := context.Background()

	first, err := svc.AddItem(ctx, "sess", "p-1", nil, 3)
	require.NoError(t, err)
	require.Equal(t, 3, first.Accepted)
	require.False(t, first.Adjusted)

	// stock 5, already 3 in cart, requesting 10 more accepts only 2
	second, err := svc.AddItem(ctx, "sess", "p-1", nil, 10)
	require.NoError(t, err)
	require.Equal(t, 2, second.Accepted)
	require.True(t, second.Adjusted)
	require.Equal(t, 5, second.Summary.TotalQuantity)

	_, err = svc.AddItem(ctx, "sess", "p-1", nil, 1)
	require.ErrorIs(t, err, cart.ErrOutOfStock)
}

func TestAddDefaultsQuantityToOne(t *testing.T) {
	svc, _ := newTestService(simpleProducts(), nil)
	result, err := svc.AddItem(context.Background(), "sess", "p-2", nil, 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.Accepted)
}

func TestAddVariantLinesMergeCaseInsensitively(t *testing.T) {
	svc, store := newTestService(simpleProducts(), nil)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess", "p-7", map[string]string{"color": "red"}, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "sess", "p-7", map[string]string{"Color": "Red"}, 1)
	require.NoError(t, err)

	c, err := store.Get(ctx, "sess")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1, "same identity must merge, not duplicate")
	require.Equal(t, 2, c.Lines[0].Qty)
}

func TestAddUnknownVariantRejected(t *testing.T) {
	svc, _ := newTestService(simpleProducts(), nil)
	_, err := svc.AddItem(context.Background(), "sess", "p-7", map[string]string{"color": "green"}, 1)
	require.ErrorIs(t, err, cart.ErrInvalidInput)

	_, err = svc.AddItem(context.Background(), "sess", "p-7", nil, 1)
	require.ErrorIs(t, err, cart.ErrInvalidInput)
}

func TestUpdateQtyZeroRemovesLine(t *testing.T) {
	svc, store := newTestService(simpleProducts(), nil)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "sess", "p-1", nil, 2)
	require.NoError(t, err)

	result, err := svc.UpdateQty(ctx, "sess", "p-1", nil, 0)
	require.NoError(t, err)
	require.True(t, result.Removed)
	require.Equal(t, 0, result.Quantity)
	require.True(t, result.Summary.IsEmpty)

	c, _ := store.Get(ctx, "sess")
	require.Empty(t, c.Lines)
}

func TestUpdateQtyClampsToStock(t *testing.T) {
	svc, _ := newTestService(simpleProducts(), nil)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "sess", "p-1", nil, 2)
	require.NoError(t, err)

	result, err := svc.UpdateQty(ctx, "sess", "p-1", nil, 50)
	require.NoError(t, err)
	require.Equal(t, 5, result.Quantity)
	require.True(t, result.Adjusted)
	require.False(t, result.Removed)
}

func TestUpdateQtyMissingLine(t *testing.T) {
	svc, _ := newTestService(simpleProducts(), nil)
	_, err := svc.UpdateQty(context.Background(), "sess", "p-1", nil, 2)
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestRemoveIsIdempotent(t *testing.T) {
	svc, _ := newTestService(simpleProducts(), nil)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "sess", "p-1", nil, 1)
	require.NoError(t, err)

	first, err := svc.Remove(ctx, "sess", "p-1", nil)
	require.NoError(t, err)
	require.True(t, first.Found)

	second, err := svc.Remove(ctx, "sess", "p-1", nil)
	require.NoError(t, err)
	require.False(t, second.Found)
	require.True(t, second.Summary.IsEmpty)
}

func TestCartSelfHealsWhenProductVanishes(t *testing.T) {
	products := simpleProducts()
	svc, store := newTestService(products, nil)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "sess", "p-1", nil, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "sess", "p-2", nil, 1)
	require.NoError(t, err)

	delete(products, "p-1")

	view, err := svc.Get(ctx, "sess")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Equal(t, "p-2", view.Items[0].Line.ProductID)

	c, _ := store.Get(ctx, "sess")
	require.Len(t, c.Lines, 1, "healed cart must be persisted")
}

func TestSummaryGroupsBySeller(t *testing.T) {
	svc, _ := newTestService(simpleProducts(), nil)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "sess", "p-1", nil, 2)
	require.NoError(t, err)
	result, err := svc.AddItem(ctx, "sess", "p-2", nil, 3)
	require.NoError(t, err)

	summary := result.Summary
	require.Len(t, summary.SellerGroups, 2)
	require.EqualValues(t, 32_000, summary.ItemsSubtotal)
	require.EqualValues(t, 2_000, summary.ShippingTotal)
	require.Equal(t, summary.ItemsSubtotal+summary.ShippingTotal-summary.DiscountTotal, summary.GrandTotal)
}

func fixedRule(code string, value int64) promo.Rule {
	return promo.Rule{Code: code, Kind: "fixed", Value: value}
}

func TestApplyPromoIsIdempotent(t *testing.T) {
	rules := map[string]promo.Rule{"SAVE10": fixedRule("SAVE10", 10_000)}
	svc, _ := newTestService(simpleProducts(), rules)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "sess", "p-1", nil, 5)
	require.NoError(t, err)

	first, err := svc.ApplyPromo(ctx, "sess", "SAVE10")
	require.NoError(t, err)
	require.True(t, first.Success)
	require.False(t, first.AlreadyApplied)
	require.EqualValues(t, 10_000, first.Summary.DiscountTotal)

	second, err := svc.ApplyPromo(ctx, "sess", "SAVE10")
	require.NoError(t, err)
	require.True(t, second.Success)
	require.True(t, second.AlreadyApplied)
	require.Equal(t, first.Summary, second.Summary)
}

func TestApplyPromoReplacesActiveCode(t *testing.T) {
	rules := map[string]promo.Rule{
		"SAVE10": fixedRule("SAVE10", 10_000),
		"SAVE5":  fixedRule("SAVE5", 5_000),
	}
	svc, store := newTestService(simpleProducts(), rules)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "sess", "p-1", nil, 5)
	require.NoError(t, err)

	_, err = svc.ApplyPromo(ctx, "sess", "SAVE10")
	require.NoError(t, err)
	result, err := svc.ApplyPromo(ctx, "sess", "SAVE5")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.False(t, result.AlreadyApplied)
	require.EqualValues(t, 5_000, result.Summary.DiscountTotal)

	c, _ := store.Get(ctx, "sess")
	require.Equal(t, "SAVE5", c.PromoCode)
}

func TestApplyPromoEmptyCartRejected(t *testing.T) {
	rules := map[string]promo.Rule{"SAVE10": fixedRule("SAVE10", 10_000)}
	svc, _ := newTestService(simpleProducts(), rules)

	result, err := svc.ApplyPromo(context.Background(), "sess", "SAVE10")
	require.NoError(t, err)
	require.False(t, result.Success)
	require.True(t, result.Summary.IsEmpty)
}

func TestApplyPromoUnknownCodeLeavesSummaryUnchanged(t *testing.T) {
	svc, _ := newTestService(simpleProducts(), map[string]promo.Rule{})
	ctx := context.Background()
	before, err := svc.AddItem(ctx, "sess", "p-1", nil, 2)
	require.NoError(t, err)

	result, err := svc.ApplyPromo(ctx, "sess", "NOPE")
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, before.Summary.GrandTotal, result.Summary.GrandTotal)
	require.Zero(t, result.Summary.DiscountTotal)
}

func TestClearPromoIsIdempotent(t *testing.T) {
	rules := map[string]promo.Rule{"SAVE10": fixedRule("SAVE10", 10_000)}
	svc, _ := newTestService(simpleProducts(), rules)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "sess", "p-1", nil, 5)
	require.NoError(t, err)
	_, err = svc.ApplyPromo(ctx, "sess", "SAVE10")
	require.NoError(t, err)

	summary, err := svc.ClearPromo(ctx, "sess")
	require.NoError(t, err)
	require.Zero(t, summary.DiscountTotal)
	require.Empty(t, summary.AppliedPromoCode)

	// clearing again still succeeds
	summary, err = svc.ClearPromo(ctx, "sess")
	require.NoError(t, err)
	require.Zero(t, summary.DiscountTotal)
}

func TestMergeKeepsLargerQuantity(t *testing.T) {
	svc, _ := newTestService(simpleProducts(), nil)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "guest", "p-1", nil, 3)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "user", "p-1", nil, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "guest", "p-2", nil, 2)
	require.NoError(t, err)

	view, err := svc.Merge(ctx, "guest", "user")
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	for _, item := range view.Items {
		if item.Line.ProductID == "p-1" {
			require.Equal(t, 3, item.Line.Qty)
		}
	}
}

func TestStoreErrorsSurface(t *testing.T) {
	svc, _ := newTestService(simpleProducts(), nil)
	svc.Store = failingStore{}
	_, err := svc.Get(context.Background(), "sess")
	require.Error(t, err)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (cart.Cart, error) {
	return cart.Cart{}, errors.New("store down")
}

func (failingStore) Replace(context.Context, string, cart.Cart) error {
	return errors.New("store down")
}
