package state

import (
	"github.com/shopspring/decimal"
)

// CartItem is the provisional local copy of a server-side cart line. The
// remote store remains the source of truth; UnitPrice is the price captured at
// add time and may diverge from the current catalog price.
type CartItem struct {
	ID            string          `json:"id"`
	SKUID         string          `json:"skuId"`
	Quantity      int             `json:"quantity"`
	UnitIncrement int             `json:"unitIncrement"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
}

// LineTotal returns unit price times quantity for the line.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartSnapshot is the full cart state held locally. Totals are always
// recomputable from Items; the only sanctioned exception is the optimistic
// pre-increment applied by the mutation engine ahead of server confirmation.
type CartSnapshot struct {
	Items       []CartItem      `json:"items"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Loading     bool            `json:"loading"`
	LastError   string          `json:"lastError,omitempty"`
}

// BuildSnapshot derives totals from the given item sequence.
func BuildSnapshot(items []CartItem) CartSnapshot {
	snap := CartSnapshot{
		Items:       items,
		TotalAmount: decimal.Zero,
	}
	for _, item := range items {
		snap.TotalItems += item.Quantity
		snap.TotalAmount = snap.TotalAmount.Add(item.LineTotal())
	}
	return snap
}

// HasSKU reports whether the snapshot carries a line for the given SKU.
func (s CartSnapshot) HasSKU(skuID string) bool {
	for _, item := range s.Items {
		if item.SKUID == skuID {
			return true
		}
	}
	return false
}

func (s CartSnapshot) clone() CartSnapshot {
	out := s
	if s.Items != nil {
		out.Items = make([]CartItem, len(s.Items))
		copy(out.Items, s.Items)
	}
	return out
}
