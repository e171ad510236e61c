package matching

import "github.com/shopspring/decimal"

// ClientBook indexes a single participant's own live orders by side and
// rounded price, so the wrapper can answer "does this participant already
// have an order at price P on side S?" in O(1) and walk straight to the
// entries that need reconciling after a fill.
//
// Order pointers here are the SAME objects held in the matching Book's
// internal index: when the book mutates an order's remaining Quantity in
// place during a partial fill, that change is visible here for free. Full
// fills and cancels must still be reconciled explicitly via remove().
type ClientBook struct {
	buys  map[string][]*Order
	sells map[string][]*Order
}

func newClientBook() *ClientBook {
	return &ClientBook{
		buys:  make(map[string][]*Order),
		sells: make(map[string][]*Order),
	}
}

func priceKey(p decimal.Decimal) string {
	return RoundPrice(p).StringFixed(2)
}

func (cb *ClientBook) sideMap(side Side) map[string][]*Order {
	if side == SideBuy {
		return cb.buys
	}
	return cb.sells
}

func (cb *ClientBook) add(o *Order) {
	m := cb.sideMap(o.Side)
	key := priceKey(o.Price)
	m[key] = append(m[key], o)
}

func (cb *ClientBook) remove(side Side, price decimal.Decimal, orderID string) {
	m := cb.sideMap(side)
	key := priceKey(price)
	list := m[key]
	for i, o := range list {
		if o.ID == orderID {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(m, key)
	} else {
		m[key] = list
	}
}

// HasOrders reports whether this participant has any live order on side at
// price (if price is nil, on any price for that side).
func (cb *ClientBook) HasOrders(side Side, price *decimal.Decimal) bool {
	m := cb.sideMap(side)
	if price == nil {
		return len(m) > 0
	}
	return len(m[priceKey(*price)]) > 0
}

// Orders returns all live orders this participant has on side.
func (cb *ClientBook) Orders(side Side) []*Order {
	m := cb.sideMap(side)
	var out []*Order
	for _, list := range m {
		out = append(out, list...)
	}
	return out
}

// LevelCount returns the number of distinct price levels this participant
// has resting orders at on side — used by bots that cap their own book
// footprint (e.g. RandomBot, which stops adding orders on a side once it
// already rests at more than 10 levels there).
func (cb *ClientBook) LevelCount(side Side) int {
	return len(cb.sideMap(side))
}
