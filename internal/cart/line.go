package cart

import (
	"sort"
	"strings"
)

// Line is one cart entry. Attributes keep their original casing for display;
// identity is case-insensitive on both keys and values.
type Line struct {
	ProductID  string            `json:"productId"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Qty        int               `json:"qty"`
}

// Key derives the identity of a line: same product plus attribute maps that
// are equal under case-insensitive comparison collapse to the same key.
func (l Line) Key() string {
	if len(l.Attributes) == 0 {
		return l.ProductID
	}
	pairs := make([]string, 0, len(l.Attributes))
	for key, value := range l.Attributes {
		pairs = append(pairs, strings.ToLower(key)+"="+strings.ToLower(value))
	}
	sort.Strings(pairs)
	return l.ProductID + "|" + strings.Join(pairs, ";")
}

// Cart is the persisted session cart state.
type Cart struct {
	Lines     []Line `json:"lines"`
	PromoCode string `json:"promoCode,omitempty"`
}

// FindLine returns the index of the line matching the identity key, or -1.
func (c Cart) FindLine(key string) int {
	for i, line := range c.Lines {
		if line.Key() == key {
			return i
		}
	}
	return -1
}

// RemoveLine drops the line at the given index preserving order.
func (c *Cart) RemoveLine(i int) {
	if i < 0 || i >= len(c.Lines) {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}
