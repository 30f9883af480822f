// Package orderbook holds the resting orders awaiting a trigger.
package orderbook

import (
	"github.com/quantsim/tradesim/internal/types"
)

// Book is an insertion-ordered collection of pending orders. It carries no
// trigger logic; the engine scans it on every market update. Earlier-placed
// orders are always evaluated first.
type Book struct {
	orders []*types.Order
}

// New returns an empty book.
func New() *Book {
	return &Book{}
}

// Add appends an order to the book.
func (b *Book) Add(o *types.Order) {
	b.orders = append(b.orders, o)
}

// Get returns the pending order with the given id, or nil.
func (b *Book) Get(id string) *types.Order {
	for _, o := range b.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// Remove drops the order with the given id from the book without changing
// its status. Returns true when the order was present.
func (b *Book) Remove(id string) bool {
	for i, o := range b.orders {
		if o.ID == id {
			b.orders = append(b.orders[:i], b.orders[i+1:]...)
			return true
		}
	}
	return false
}

// Cancel marks the order Cancelled and removes it. Returns the cancelled
// order, or nil when it was not pending.
func (b *Book) Cancel(id string) *types.Order {
	o := b.Get(id)
	if o == nil {
		return nil
	}
	o.Status = types.OrderStatusCancelled
	b.Remove(id)
	return o
}

// Scan returns the current orders in insertion order. The slice is a copy
// but the pointers are shared; callers must not retain them past the scan.
func (b *Book) Scan() []*types.Order {
	out := make([]*types.Order, len(b.orders))
	copy(out, b.orders)
	return out
}

// Pending returns value copies of all pending orders in insertion order.
func (b *Book) Pending() []types.Order {
	out := make([]types.Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, *o)
	}
	return out
}

// Len returns the number of resting orders.
func (b *Book) Len() int {
	return len(b.orders)
}

// Clear drops all resting orders.
func (b *Book) Clear() {
	b.orders = nil
}
