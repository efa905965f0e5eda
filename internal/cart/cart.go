// Package cart is the in-memory ledger of line items for one shopping session.
package cart

import (
	"strings"

	"github.com/MoonSoon24/coffee-shop/internal/catalog"
	"github.com/MoonSoon24/coffee-shop/internal/domain"
)

// Line is one distinguishable item. BasePrice and Groups are captured when the
// line is created so later catalog edits do not reprice the cart.
type Line struct {
	Key        string                 `json:"line_key"`
	ProductID  int64                  `json:"product_id"`
	Name       string                 `json:"name"`
	Category   string                 `json:"category"`
	BasePrice  int64                  `json:"base_price"`
	Quantity   int                    `json:"quantity"`
	Selections Selections             `json:"selections,omitempty"`
	Groups     []domain.ModifierGroup `json:"-"`
	Note       string                 `json:"note,omitempty"`
}

func (l Line) ModifierTotal() int64 {
	var total int64
	for _, o := range catalog.SelectedOptions(l.Groups, l.Selections) {
		total += o.Price
	}
	return total
}

func (l Line) UnitPrice() int64 {
	return l.BasePrice + l.ModifierTotal()
}

func (l Line) Total() int64 {
	return l.UnitPrice() * int64(l.Quantity)
}

// Cart keeps lines in insertion order. Totals are always derived from the lines.
type Cart struct {
	lines []*Line
}

func New() *Cart {
	return &Cart{}
}

// Add merges into an existing line with the same key or appends a new one.
// Selections are validated against the product's modifier groups first.
func (c *Cart) Add(p domain.Product, quantity int, selections Selections, note string) (Line, error) {
	if quantity <= 0 {
		return Line{}, domain.NewValidationError(domain.ValidationInvalidQuantity, "quantity", "quantity must be at least 1")
	}
	if !p.IsAvailable {
		return Line{}, domain.NewValidationError(domain.ValidationProductUnavailable, "product_id", p.Name+" is not available right now")
	}

	canon := selections.Canonical()
	if err := catalog.ValidateSelections(p.Modifiers, canon); err != nil {
		return Line{}, err
	}

	key := Fingerprint(p.ID, canon)
	note = strings.TrimSpace(note)

	if existing := c.find(key); existing != nil {
		existing.Quantity += quantity
		if existing.Note == "" {
			existing.Note = note
		}
		return *existing, nil
	}

	line := &Line{
		Key:        key,
		ProductID:  p.ID,
		Name:       p.Name,
		Category:   p.Category,
		BasePrice:  p.Price,
		Quantity:   quantity,
		Selections: canon,
		Groups:     cloneGroups(p.Modifiers),
		Note:       note,
	}
	c.lines = append(c.lines, line)

	return *line, nil
}

// Decrement lowers a line's quantity by one and drops it at zero. Unknown keys
// are ignored. It reports whether the line was removed.
func (c *Cart) Decrement(key string) bool {
	for i, l := range c.lines {
		if l.Key != key {
			continue
		}
		if l.Quantity > 1 {
			l.Quantity--
			return false
		}
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return true
	}
	return false
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Line(key string) (Line, bool) {
	if l := c.find(key); l != nil {
		return *l, true
	}
	return Line{}, false
}

// Lines returns a snapshot; mutating it does not affect the cart.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, l := range c.lines {
		out[i] = *l
		out[i].Selections = l.Selections.clone()
	}
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Subtotal() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.Total()
	}
	return total
}

func (c *Cart) ItemCount() int {
	var count int
	for _, l := range c.lines {
		count += l.Quantity
	}
	return count
}

// Clone returns an independent copy, used to price a checkout without holding the session.
func (c *Cart) Clone() *Cart {
	out := &Cart{lines: make([]*Line, len(c.lines))}
	for i, l := range c.lines {
		cp := *l
		cp.Selections = l.Selections.clone()
		out.lines[i] = &cp
	}
	return out
}

func (c *Cart) find(key string) *Line {
	for _, l := range c.lines {
		if l.Key == key {
			return l
		}
	}
	return nil
}

func cloneGroups(groups []domain.ModifierGroup) []domain.ModifierGroup {
	if groups == nil {
		return nil
	}
	out := make([]domain.ModifierGroup, len(groups))
	for i, g := range groups {
		out[i] = g
		out[i].Options = append([]domain.ModifierOption(nil), g.Options...)
	}
	return out
}
