package state

import "sync"

// OrderBook holds the in-memory order records patched in place by realtime
// order updates. Unlike the cart there is no authoritative refetch here; the
// merge is an optimistic field-level patch.
type OrderBook struct {
	mu     sync.RWMutex
	orders map[string]map[string]any
}

func NewOrderBook() *OrderBook {
	return &OrderBook{orders: map[string]map[string]any{}}
}

// Patch merges the given fields into the order record, creating it when absent.
func (b *OrderBook) Patch(orderID string, fields map[string]any) {
	if orderID == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	record, ok := b.orders[orderID]
	if !ok {
		record = map[string]any{}
		b.orders[orderID] = record
	}
	for key, value := range fields {
		record[key] = value
	}
}

// Get returns a copy of the order record.
func (b *OrderBook) Get(orderID string) (map[string]any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	record, ok := b.orders[orderID]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(record))
	for key, value := range record {
		out[key] = value
	}
	return out, true
}

// Len reports how many order records are held.
func (b *OrderBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.orders)
}
