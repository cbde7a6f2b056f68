// Package cart implements the per-session shopping cart: line item
// mutations, discount code application and atomic repricing.
package cart

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/nextbyte/storefront/internal/core/domain"
	"github.com/nextbyte/storefront/internal/core/state"
)

var oneHundred = decimal.NewFromInt(100)

// Store holds the line items of one shopping session. Every mutation
// reprices the cart and publishes a fresh immutable CartState snapshot;
// observers never see items and totals out of sync.
type Store struct {
	mu      sync.Mutex
	codes   map[string]int
	items   []domain.CartLineItem
	pct     int
	applied bool
	state   *state.Store[domain.CartState]
}

// NewStore builds an empty cart using the given discount code table. The
// table is copied, so callers keep ownership of their map.
func NewStore(codes map[string]int) *Store {
	owned := make(map[string]int, len(codes))
	for k, v := range codes {
		owned[strings.ToUpper(k)] = v
	}
	return &Store{
		codes: owned,
		state: state.NewStore(domain.EmptyCartState()),
	}
}

// AddItem appends a new line item with quantity 1, or increments the
// quantity of an existing line for the same product. Always succeeds.
func (s *Store) AddItem(p domain.CartProduct) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == p.ID {
			s.items[i].Quantity++
			s.publish()
			return
		}
	}
	s.items = append(s.items, domain.CartLineItem{ID: p.ID, Product: p, Quantity: 1})
	s.publish()
}

// RemoveItem deletes the line item with the given id. Removing an absent
// item is a no-op, not an error.
func (s *Store) RemoveItem(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.publish()
}

// UpdateQuantity replaces the quantity of the line item with the given id.
// A quantity of zero or less removes the item.
func (s *Store) UpdateQuantity(itemID string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(itemID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Quantity = quantity
			break
		}
	}
	s.publish()
}

// Clear empties the cart and resets the discount fields.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.pct = 0
	s.applied = false
	s.publish()
}

// ApplyDiscount validates a code against the discount table. A match sets
// the mapped percentage and returns true; a miss clears any active
// discount and returns false. Codes replace each other, they never stack.
func (s *Store) ApplyDiscount(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pct, ok := s.codes[strings.ToUpper(strings.TrimSpace(code))]
	if ok {
		s.pct = pct
		s.applied = true
	} else {
		s.pct = 0
		s.applied = false
	}
	s.publish()
	return ok
}

// Restore replaces the cart contents with a previously captured snapshot,
// typically rehydrated from the session cache.
func (s *Store) Restore(st domain.CartState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]domain.CartLineItem, len(st.Items))
	copy(s.items, st.Items)
	s.pct = st.DiscountPercentage
	s.applied = st.DiscountApplied
	s.publish()
}

// Snapshot returns the current fully priced cart state.
func (s *Store) Snapshot() domain.CartState {
	return s.state.Snapshot()
}

// Subscribe registers a listener for repriced snapshots and returns an
// unsubscribe function.
func (s *Store) Subscribe(fn func(domain.CartState)) func() {
	return s.state.Subscribe(fn)
}

// publish reprices the cart and emits a new snapshot. Callers must hold mu.
func (s *Store) publish() {
	items := make([]domain.CartLineItem, len(s.items))
	copy(items, s.items)

	subtotal := decimal.Zero
	for _, li := range items {
		subtotal = subtotal.Add(li.LineTotal())
	}

	discount := decimal.Zero
	if s.applied {
		discount = subtotal.Mul(decimal.NewFromInt(int64(s.pct))).Div(oneHundred)
	}

	s.state.Set(domain.CartState{
		Items:              items,
		Subtotal:           subtotal,
		DiscountPercentage: s.pct,
		DiscountApplied:    s.applied,
		DiscountAmount:     discount,
		Total:              subtotal.Sub(discount),
	})
}
