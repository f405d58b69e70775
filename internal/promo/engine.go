package promo

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrUnknownCode is returned when the code does not resolve to a rule.
	ErrUnknownCode = errors.New("promo code not found")
	// ErrNotEligible is returned when the code cannot be applied to the provided cart.
	ErrNotEligible = errors.New("promo not eligible")
	// ErrUsageLimitReached indicates the code has exhausted the global usage quota.
	ErrUsageLimitReached = errors.New("promo usage limit reached")
	// ErrInactive is returned when attempting to use a code outside of its active window.
	ErrInactive = errors.New("promo not active")
	// ErrExpired is returned when the code has already expired.
	ErrExpired = errors.New("promo expired")
	// ErrMinimumSpendUnmet indicates the cart total did not meet the code requirement.
	ErrMinimumSpendUnmet = errors.New("promo minimum spend not met")
)

// Rule captures the runtime constraints of a promo code.
type Rule struct {
	Code       string
	Kind       string
	Value      int64
	PercentBps *int32
	MinSpend   int64
	UsageLimit *int32
	UsedCount  int32
	ValidFrom  *time.Time
	ValidTo    *time.Time
	SellerIDs  []string
	ProductIDs []string
}

// Item represents a line eligible for promo calculation.
type Item struct {
	ProductID string
	SellerID  string
	Subtotal  int64
}

// Store resolves promo rules by code. Lookup is case-insensitive on the code.
type Store interface {
	GetRuleByCode(ctx context.Context, code string) (Rule, error)
}

// Validate ensures the rule can be applied at the provided instant and cart total.
func (r Rule) Validate(now time.Time, cartTotal int64) error {
	if cartTotal < r.MinSpend {
		return ErrMinimumSpendUnmet
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return ErrInactive
	}
	if r.ValidTo != nil && now.After(*r.ValidTo) {
		return ErrExpired
	}
	if r.UsageLimit != nil && *r.UsageLimit >= 0 && r.UsedCount >= *r.UsageLimit {
		return ErrUsageLimitReached
	}
	return nil
}

// Scoped reports whether the rule restricts eligibility to specific sellers or products.
func (r Rule) Scoped() bool {
	return len(r.SellerIDs) > 0 || len(r.ProductIDs) > 0
}

// EligibleSubtotal calculates the portion of the cart total affected by the rule.
func EligibleSubtotal(items []Item, r Rule) int64 {
	var total int64
	scoped := r.Scoped()
	for _, it := range items {
		if it.Subtotal <= 0 {
			continue
		}
		if !scoped || ruleMatchesItem(r, it) {
			total += it.Subtotal
		}
	}
	return total
}

func ruleMatchesItem(r Rule, it Item) bool {
	for _, id := range r.ProductIDs {
		if strings.EqualFold(id, it.ProductID) {
			return true
		}
	}
	for _, id := range r.SellerIDs {
		if strings.EqualFold(id, it.SellerID) {
			return true
		}
	}
	return false
}

// Compute determines the discount amount based on the rule and eligible subtotal.
// Percent rules use basis points with integer floor division; the discount is
// capped at the eligible subtotal and floored at zero.
func Compute(eligible int64, r Rule) int64 {
	if eligible <= 0 {
		return 0
	}
	discount := r.Value
	if strings.EqualFold(r.Kind, "percent") {
		if r.PercentBps == nil || *r.PercentBps <= 0 {
			return 0
		}
		discount = (eligible * int64(*r.PercentBps)) / 10000
	}
	if discount > eligible {
		discount = eligible
	}
	if discount < 0 {
		return 0
	}
	return discount
}

// Evaluate resolves the full discount for a cart: validation, scope filtering,
// and amount computation in one pass.
func Evaluate(r Rule, now time.Time, cartTotal int64, items []Item) (int64, error) {
	if err := r.Validate(now, cartTotal); err != nil {
		return 0, err
	}
	eligible := EligibleSubtotal(items, r)
	if eligible <= 0 {
		return 0, ErrNotEligible
	}
	discount := Compute(eligible, r)
	if discount <= 0 {
		return 0, ErrNotEligible
	}
	return discount, nil
}
