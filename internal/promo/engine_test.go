package promo

import (
	"errors"
	"testing"
	"time"
)

func TestComputePercent(t *testing.T) {
	percent := int32(2000)
	rule := Rule{Kind: "percent", PercentBps: &percent}
	discount := Compute(100_000, rule)
	if discount != 20_000 {
		t.Fatalf("expected 20000 discount, got %d", discount)
	}
}

func TestComputeFixedCappedAtEligible(t *testing.T) {
	rule := Rule{Kind: "fixed", Value: 75_000}
	if got := Compute(50_000, rule); got != 50_000 {
		t.Fatalf("expected discount capped at 50000, got %d", got)
	}
}

func TestEligibleSubtotalSellerScoped(t *testing.T) {
	rule := Rule{SellerIDs: []string{"seller-1"}}
	items := []Item{
		{SellerID: "seller-1", ProductID: "p1", Subtotal: 50_000},
		{SellerID: "seller-2", ProductID: "p2", Subtotal: 70_000},
	}
	if got := EligibleSubtotal(items, rule); got != 50_000 {
		t.Fatalf("expected eligible subtotal 50000, got %d", got)
	}
}

func TestValidateWindowAndLimits(t *testing.T) {
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)
	limit := int32(10)

	if err := (Rule{ValidFrom: &future}).Validate(now, 1000); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
	if err := (Rule{ValidTo: &past}).Validate(now, 1000); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if err := (Rule{UsageLimit: &limit, UsedCount: 10}).Validate(now, 1000); !errors.Is(err, ErrUsageLimitReached) {
		t.Fatalf("expected ErrUsageLimitReached, got %v", err)
	}
	if err := (Rule{MinSpend: 5_000}).Validate(now, 1_000); !errors.Is(err, ErrMinimumSpendUnmet) {
		t.Fatalf("expected ErrMinimumSpendUnmet, got %v", err)
	}
}

func TestEvaluateScopedCartWithNoMatch(t *testing.T) {
	rule := Rule{Kind: "fixed", Value: 1_000, ProductIDs: []string{"p9"}}
	items := []Item{{ProductID: "p1", SellerID: "s1", Subtotal: 10_000}}
	if _, err := Evaluate(rule, time.Now(), 10_000, items); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
}
