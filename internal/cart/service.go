package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/backend-pasar/internal/catalog"
	"github.com/noah-isme/backend-pasar/internal/obs"
	"github.com/noah-isme/backend-pasar/internal/pricing"
	"github.com/noah-isme/backend-pasar/internal/promo"
)

// ErrNotFound indicates the referenced cart line or product could not be located.
var ErrNotFound = errors.New("cart line not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrOutOfStock is returned when nothing of the requested line can be added.
var ErrOutOfStock = errors.New("out of stock")

// Service encapsulates cart domain operations. Every mutation re-fetches live
// catalog state, self-heals stale lines, and returns the full recomputed
// summary so callers never need a second pass.
type Service struct {
	Store    Store
	Catalog  catalog.Lookup
	Promos   promo.Store
	Shipping ShippingRater
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ready() error {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return errors.New("cart service not configured")
	}
	return nil
}

// LineView is a resolved cart line with live price and availability.
type LineView struct {
	Line      Line          `json:"line"`
	SellerID  string        `json:"sellerId"`
	Title     string        `json:"title"`
	UnitPrice pricing.Money `json:"unitPrice"`
	Subtotal  pricing.Money `json:"subtotal"`
	Stock     int           `json:"stock"`
}

// AddResult reports the outcome of an add-to-cart mutation.
type AddResult struct {
	Accepted int             `json:"accepted"`
	Adjusted bool            `json:"adjusted"`
	Summary  pricing.Summary `json:"summary"`
}

// UpdateResult reports the outcome of a quantity update.
type UpdateResult struct {
	Quantity int             `json:"quantity"`
	Removed  bool            `json:"removed"`
	Adjusted bool            `json:"adjusted"`
	Summary  pricing.Summary `json:"summary"`
}

// RemoveResult reports the outcome of a line removal.
type RemoveResult struct {
	Found   bool            `json:"found"`
	Summary pricing.Summary `json:"summary"`
}

// ApplyResult reports the outcome of a promo application.
type ApplyResult struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	AlreadyApplied bool            `json:"alreadyApplied"`
	AppliedCode    string          `json:"appliedCode,omitempty"`
	Summary        pricing.Summary `json:"summary"`
}

// View is the full cart payload returned to callers.
type View struct {
	Items   []LineView      `json:"items"`
	Summary pricing.Summary `json:"summary"`
}

// resolvedLine couples a surviving line with its live availability.
type resolvedLine struct {
	line      Line
	sellerID  string
	title     string
	unitPrice pricing.Money
	stock     int
}

// resolve re-fetches live product state for every line, removing lines whose
// product or variant vanished and clamping quantities above current stock.
// It reports whether the cart changed.
func (s *Service) resolve(ctx context.Context, c *Cart) ([]resolvedLine, bool, error) {
	healed := false
	out := make([]resolvedLine, 0, len(c.Lines))
	kept := c.Lines[:0]
	for _, line := range c.Lines {
		product, err := s.Catalog.GetProductByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				healed = true
				obs.Count(obs.CartAutoHealTotal, "product_gone")
				continue
			}
			return nil, false, fmt.Errorf("resolve product %s: %w", line.ProductID, err)
		}
		avail := catalog.ResolveAvailability(product, line.Attributes)
		if avail.VariantMissing || avail.Stock <= 0 {
			healed = true
			obs.Count(obs.CartAutoHealTotal, "unavailable")
			continue
		}
		if line.Qty > avail.Stock {
			line.Qty = avail.Stock
			healed = true
			obs.Count(obs.CartAutoHealTotal, "clamped")
		}
		kept = append(kept, line)
		out = append(out, resolvedLine{
			line:      line,
			sellerID:  product.SellerID,
			title:     product.Title,
			unitPrice: avail.UnitPrice,
			stock:     avail.Stock,
		})
	}
	c.Lines = kept
	return out, healed, nil
}

func (s *Service) summarize(ctx context.Context, c Cart, resolved []resolvedLine) (pricing.Summary, error) {
	lines := make([]pricing.Line, 0, len(resolved))
	promoItems := make([]promo.Item, 0, len(resolved))
	for _, rl := range resolved {
		lines = append(lines, pricing.Line{SellerID: rl.sellerID, Qty: rl.line.Qty, UnitPrice: rl.unitPrice})
		promoItems = append(promoItems, promo.Item{
			ProductID: rl.line.ProductID,
			SellerID:  rl.sellerID,
			Subtotal:  int64(rl.line.Qty) * rl.unitPrice,
		})
	}

	shippingBySeller, err := s.shippingBySeller(ctx, lines)
	if err != nil {
		return pricing.Summary{}, err
	}
	preDiscount := pricing.Compute(lines, func(sellerID string, _ []pricing.Line) pricing.Money {
		return shippingBySeller[sellerID]
	}, 0)

	var discount pricing.Money
	if c.PromoCode != "" && s.Promos != nil {
		rule, err := s.Promos.GetRuleByCode(ctx, c.PromoCode)
		if err == nil {
			if amount, evalErr := promo.Evaluate(rule, s.now(), preDiscount.ItemsSubtotal, promoItems); evalErr == nil {
				discount = amount
			}
		} else if !errors.Is(err, promo.ErrUnknownCode) {
			return pricing.Summary{}, fmt.Errorf("resolve promo %s: %w", c.PromoCode, err)
		}
	}

	summary := pricing.Compute(lines, func(sellerID string, _ []pricing.Line) pricing.Money {
		return shippingBySeller[sellerID]
	}, discount)
	summary.AppliedPromoCode = c.PromoCode
	return summary, nil
}

func (s *Service) shippingBySeller(ctx context.Context, lines []pricing.Line) (map[string]pricing.Money, error) {
	out := make(map[string]pricing.Money)
	if s.Shipping == nil {
		return out, nil
	}
	grouped := make(map[string][]pricing.Line)
	for _, line := range lines {
		grouped[line.SellerID] = append(grouped[line.SellerID], line)
	}
	for sellerID, sellerLines := range grouped {
		cost, err := s.Shipping.ComputeShipping(ctx, sellerID, sellerLines)
		if err != nil {
			return nil, fmt.Errorf("compute shipping for %s: %w", sellerID, err)
		}
		if cost < 0 {
			cost = 0
		}
		out[sellerID] = cost
	}
	return out, nil
}

func (s *Service) loadResolved(ctx context.Context, sessionID string) (Cart, []resolvedLine, bool, error) {
	c, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return Cart{}, nil, false, err
	}
	resolved, healed, err := s.resolve(ctx, &c)
	if err != nil {
		return Cart{}, nil, false, err
	}
	return c, resolved, healed, nil
}

// Get returns the current cart with live prices and a recomputed summary.
// Stale lines are healed and persisted as a side effect.
func (s *Service) Get(ctx context.Context, sessionID string) (View, error) {
	if err := s.ready(); err != nil {
		return View{}, err
	}
	c, resolved, healed, err := s.loadResolved(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	if healed {
		if err := s.Store.Replace(ctx, sessionID, c); err != nil {
			return View{}, err
		}
	}
	summary, err := s.summarize(ctx, c, resolved)
	if err != nil {
		return View{}, err
	}
	return View{Items: lineViews(resolved), Summary: summary}, nil
}

// AddItem resolves live availability and adds the requested line, clamping
// the quantity to what remains available. Zero availability rejects with an
// out-of-stock condition.
func (s *Service) AddItem(ctx context.Context, sessionID, productID string, attributes map[string]string, qty int) (AddResult, error) {
	if err := s.ready(); err != nil {
		return AddResult{}, err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return AddResult{}, fmt.Errorf("product id required: %w", ErrInvalidInput)
	}
	if qty <= 0 {
		qty = 1
	}

	product, err := s.Catalog.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return AddResult{}, fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return AddResult{}, err
	}
	avail := catalog.ResolveAvailability(product, attributes)
	if avail.VariantMissing {
		return AddResult{}, fmt.Errorf("variant selection required: %w", ErrInvalidInput)
	}

	c, resolved, _, err := s.loadResolved(ctx, sessionID)
	if err != nil {
		return AddResult{}, err
	}

	candidate := Line{ProductID: productID, Attributes: attributes, Qty: qty}
	existing := 0
	if idx := c.FindLine(candidate.Key()); idx >= 0 {
		existing = c.Lines[idx].Qty
	}
	availableForAdd := avail.Stock - existing
	if availableForAdd < 0 {
		availableForAdd = 0
	}
	if availableForAdd == 0 {
		return AddResult{}, fmt.Errorf("product %s: %w", productID, ErrOutOfStock)
	}
	accepted := qty
	if accepted > availableForAdd {
		accepted = availableForAdd
	}

	if idx := c.FindLine(candidate.Key()); idx >= 0 {
		c.Lines[idx].Qty += accepted
	} else {
		candidate.Qty = accepted
		c.Lines = append(c.Lines, candidate)
	}
	if err := s.Store.Replace(ctx, sessionID, c); err != nil {
		return AddResult{}, err
	}

	resolved, _, err = s.resolve(ctx, &c)
	if err != nil {
		return AddResult{}, err
	}
	summary, err := s.summarize(ctx, c, resolved)
	if err != nil {
		return AddResult{}, err
	}
	return AddResult{Accepted: accepted, Adjusted: accepted < qty, Summary: summary}, nil
}

// UpdateQty sets a line's quantity. Non-positive quantities remove the line;
// quantities above live stock clamp; lines whose availability vanished are
// removed entirely.
func (s *Service) UpdateQty(ctx context.Context, sessionID, productID string, attributes map[string]string, qty int) (UpdateResult, error) {
	if err := s.ready(); err != nil {
		return UpdateResult{}, err
	}
	c, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return UpdateResult{}, err
	}
	key := Line{ProductID: productID, Attributes: attributes}.Key()
	idx := c.FindLine(key)
	if idx < 0 {
		return UpdateResult{}, fmt.Errorf("line %s: %w", key, ErrNotFound)
	}

	removed := false
	adjusted := false
	if qty <= 0 {
		c.RemoveLine(idx)
		removed = true
		qty = 0
	} else {
		product, err := s.Catalog.GetProductByID(ctx, productID)
		if err != nil && !errors.Is(err, catalog.ErrNotFound) {
			return UpdateResult{}, err
		}
		var avail catalog.Availability
		if err == nil {
			avail = catalog.ResolveAvailability(product, attributes)
		}
		if avail.VariantMissing || avail.Stock <= 0 {
			c.RemoveLine(idx)
			removed = true
			qty = 0
		} else {
			if qty > avail.Stock {
				qty = avail.Stock
				adjusted = true
			}
			c.Lines[idx].Qty = qty
		}
	}

	if err := s.Store.Replace(ctx, sessionID, c); err != nil {
		return UpdateResult{}, err
	}
	resolved, _, err := s.resolve(ctx, &c)
	if err != nil {
		return UpdateResult{}, err
	}
	summary, err := s.summarize(ctx, c, resolved)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Quantity: qty, Removed: removed, Adjusted: adjusted, Summary: summary}, nil
}

// Remove deletes a line. Removing an absent line reports Found=false without
// mutating and still returns the current summary.
func (s *Service) Remove(ctx context.Context, sessionID, productID string, attributes map[string]string) (RemoveResult, error) {
	if err := s.ready(); err != nil {
		return RemoveResult{}, err
	}
	c, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return RemoveResult{}, err
	}
	key := Line{ProductID: productID, Attributes: attributes}.Key()
	idx := c.FindLine(key)
	found := idx >= 0
	if found {
		c.RemoveLine(idx)
		if err := s.Store.Replace(ctx, sessionID, c); err != nil {
			return RemoveResult{}, err
		}
	}
	resolved, _, err := s.resolve(ctx, &c)
	if err != nil {
		return RemoveResult{}, err
	}
	summary, err := s.summarize(ctx, c, resolved)
	if err != nil {
		return RemoveResult{}, err
	}
	return RemoveResult{Found: found, Summary: summary}, nil
}

// ApplyPromo validates and attaches a promo code. Re-applying the active code
// is an idempotent no-op; a different code replaces it. Failures return the
// unchanged summary alongside a structured message, never an error.
func (s *Service) ApplyPromo(ctx context.Context, sessionID, code string) (ApplyResult, error) {
	if err := s.ready(); err != nil {
		return ApplyResult{}, err
	}
	if s.Promos == nil {
		return ApplyResult{}, errors.New("promo store not configured")
	}
	code = strings.TrimSpace(code)

	c, resolved, healed, err := s.loadResolved(ctx, sessionID)
	if err != nil {
		return ApplyResult{}, err
	}
	if healed {
		if err := s.Store.Replace(ctx, sessionID, c); err != nil {
			return ApplyResult{}, err
		}
	}
	current, err := s.summarize(ctx, c, resolved)
	if err != nil {
		return ApplyResult{}, err
	}

	if code == "" {
		return ApplyResult{Success: false, Message: "promo code required", Summary: current}, nil
	}
	if len(c.Lines) == 0 {
		return ApplyResult{Success: false, Message: "cart is empty", Summary: current}, nil
	}
	if strings.EqualFold(c.PromoCode, code) {
		return ApplyResult{
			Success:        true,
			AlreadyApplied: true,
			AppliedCode:    c.PromoCode,
			Message:        "promo already applied",
			Summary:        current,
		}, nil
	}

	rule, err := s.Promos.GetRuleByCode(ctx, code)
	if err != nil {
		if errors.Is(err, promo.ErrUnknownCode) {
			return ApplyResult{Success: false, Message: "unknown promo code", Summary: current}, nil
		}
		return ApplyResult{}, fmt.Errorf("resolve promo %s: %w", code, err)
	}

	promoItems := make([]promo.Item, 0, len(resolved))
	for _, rl := range resolved {
		promoItems = append(promoItems, promo.Item{
			ProductID: rl.line.ProductID,
			SellerID:  rl.sellerID,
			Subtotal:  int64(rl.line.Qty) * rl.unitPrice,
		})
	}
	if _, err := promo.Evaluate(rule, s.now(), current.ItemsSubtotal, promoItems); err != nil {
		return ApplyResult{Success: false, Message: promoFailureMessage(err), Summary: current}, nil
	}

	// only one active code at a time; a new code replaces the old one
	c.PromoCode = rule.Code
	if err := s.Store.Replace(ctx, sessionID, c); err != nil {
		return ApplyResult{}, err
	}
	summary, err := s.summarize(ctx, c, resolved)
	if err != nil {
		return ApplyResult{}, err
	}
	return ApplyResult{Success: true, AppliedCode: rule.Code, Message: "promo applied", Summary: summary}, nil
}

// ClearPromo removes any active code. Clearing when none is active is a success.
func (s *Service) ClearPromo(ctx context.Context, sessionID string) (pricing.Summary, error) {
	if err := s.ready(); err != nil {
		return pricing.Summary{}, err
	}
	c, resolved, _, err := s.loadResolved(ctx, sessionID)
	if err != nil {
		return pricing.Summary{}, err
	}
	if c.PromoCode != "" {
		c.PromoCode = ""
		if err := s.Store.Replace(ctx, sessionID, c); err != nil {
			return pricing.Summary{}, err
		}
	}
	return s.summarize(ctx, c, resolved)
}

// Merge folds a guest session's cart into the user session keeping the larger
// quantity per identical line. The guest cart is emptied afterwards.
func (s *Service) Merge(ctx context.Context, guestSessionID, userSessionID string) (View, error) {
	if err := s.ready(); err != nil {
		return View{}, err
	}
	guest, err := s.Store.Get(ctx, guestSessionID)
	if err != nil {
		return View{}, err
	}
	user, err := s.Store.Get(ctx, userSessionID)
	if err != nil {
		return View{}, err
	}
	for _, line := range guest.Lines {
		if idx := user.FindLine(line.Key()); idx >= 0 {
			if user.Lines[idx].Qty < line.Qty {
				user.Lines[idx].Qty = line.Qty
			}
			continue
		}
		user.Lines = append(user.Lines, line)
	}
	if user.PromoCode == "" {
		user.PromoCode = guest.PromoCode
	}
	resolved, _, err := s.resolve(ctx, &user)
	if err != nil {
		return View{}, err
	}
	if err := s.Store.Replace(ctx, userSessionID, user); err != nil {
		return View{}, err
	}
	if err := s.Store.Replace(ctx, guestSessionID, Cart{}); err != nil {
		return View{}, err
	}
	summary, err := s.summarize(ctx, user, resolved)
	if err != nil {
		return View{}, err
	}
	return View{Items: lineViews(resolved), Summary: summary}, nil
}

func lineViews(resolved []resolvedLine) []LineView {
	out := make([]LineView, 0, len(resolved))
	for _, rl := range resolved {
		out = append(out, LineView{
			Line:      rl.line,
			SellerID:  rl.sellerID,
			Title:     rl.title,
			UnitPrice: rl.unitPrice,
			Subtotal:  int64(rl.line.Qty) * rl.unitPrice,
			Stock:     rl.stock,
		})
	}
	return out
}

func promoFailureMessage(err error) string {
	switch {
	case errors.Is(err, promo.ErrMinimumSpendUnmet):
		return "minimum spend not met"
	case errors.Is(err, promo.ErrInactive):
		return "promo not active yet"
	case errors.Is(err, promo.ErrExpired):
		return "promo expired"
	case errors.Is(err, promo.ErrUsageLimitReached):
		return "promo usage limit reached"
	case errors.Is(err, promo.ErrNotEligible):
		return "promo not applicable to this cart"
	default:
		return "promo cannot be applied"
	}
}
