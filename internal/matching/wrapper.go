package matching

import (
	"github.com/shopspring/decimal"
)

// FillEvent is what a participant's fill callback receives. BUY fills carry
// Cost > 0 and Quantity > 0; SELL fills carry Cost < 0 and Quantity < 0, so
// a participant can route buys vs. sells by sign alone.
type FillEvent struct {
	OrderID  string
	Price    decimal.Decimal
	Quantity int64
	Cost     decimal.Decimal
}

// FillFunc is invoked synchronously, in submission order, once per
// settled quantity.
type FillFunc func(FillEvent)

// TotalsFunc receives the aggregate cost/quantity of a market order before
// the individual fill callbacks fire.
type TotalsFunc func(totalCost decimal.Decimal, totalQty int64)

// Wrapper owns the real matching Book, a per-participant ClientBook index,
// and the fill-callback registry. It is the only thing room/bot/participant
// code talks to — nothing outside this package reaches into Book directly.
type Wrapper struct {
	book      *Book
	perClient map[string]*ClientBook
	callbacks map[string]FillFunc

	totalValueProcessed decimal.Decimal
	highestPrice        decimal.Decimal
	lowestPrice         decimal.Decimal
	haveTrade           bool
}

// NewWrapper creates an empty OrderBookWrapper.
func NewWrapper() *Wrapper {
	return &Wrapper{
		book:      NewBook(),
		perClient: make(map[string]*ClientBook),
		callbacks: make(map[string]FillFunc),
	}
}

// RegisterParticipant stores a participant's fill callback and allocates
// its per-client book.
func (w *Wrapper) RegisterParticipant(participantID string, onFill FillFunc) {
	w.callbacks[participantID] = onFill
	if _, ok := w.perClient[participantID]; !ok {
		w.perClient[participantID] = newClientBook()
	}
}

// ClientBookFor returns the per-client index for a participant (creating
// it if absent), used by bots to check "do I already have an order here".
func (w *Wrapper) ClientBookFor(participantID string) *ClientBook {
	cb, ok := w.perClient[participantID]
	if !ok {
		cb = newClientBook()
		w.perClient[participantID] = cb
	}
	return cb
}

// AddLimit places a limit order for clientID under orderID. price and qty
// must be > 0 or this is a silent no-op. Any immediate fills are dispatched
// to fill callbacks before this call returns.
func (w *Wrapper) AddLimit(clientID, orderID string, side Side, price decimal.Decimal, qty int64) {
	if qty <= 0 || !price.IsPositive() {
		return
	}

	o := &Order{ID: orderID, Side: side, Price: RoundPrice(price), Quantity: qty}
	fills, resting := w.book.AddLimit(o)

	w.dispatchFills(fills)

	if resting > 0 {
		w.ClientBookFor(clientID).add(o)
	}
}

// AddMarket submits a market order for qty shares. onTotals, if non-nil,
// is invoked with the aggregate filled cost/quantity before the
// per-participant fill callbacks fire. Returns the quantity that could
// not be filled because the opposite side ran dry.
func (w *Wrapper) AddMarket(clientID, orderID string, side Side, qty int64, onTotals TotalsFunc) (qtyLeftover int64) {
	if qty <= 0 {
		return 0
	}

	fills, leftover := w.book.AddMarket(orderID, side, qty)

	if onTotals != nil {
		totalCost := decimal.Zero
		var totalQty int64
		for _, f := range fills {
			if f.TakerID != orderID {
				continue
			}
			totalCost = totalCost.Add(f.Price.Mul(decimal.NewFromInt(f.Quantity)))
			totalQty += f.Quantity
		}
		onTotals(totalCost, totalQty)
	}

	w.dispatchFills(fills)
	return leftover
}

// dispatchFills routes each Fill to both the taker's and maker's fill
// callbacks, synchronously and in submission order, and reconciles the
// per-client book and wrapper aggregates.
func (w *Wrapper) dispatchFills(fills []Fill) {
	for _, f := range fills {
		w.recordAggregate(f.Price, f.Quantity)

		w.settle(f.TakerID, f.TakerSide, f.Price, f.Quantity, true, false)
		w.settle(f.MakerID, f.MakerSide, f.Price, f.Quantity, false, f.MakerDone)
	}
}

func (w *Wrapper) recordAggregate(price decimal.Decimal, qty int64) {
	w.totalValueProcessed = w.totalValueProcessed.Add(price.Mul(decimal.NewFromInt(qty)))
	if !w.haveTrade {
		w.highestPrice = price
		w.lowestPrice = price
		w.haveTrade = true
		return
	}
	if price.GreaterThan(w.highestPrice) {
		w.highestPrice = price
	}
	if price.LessThan(w.lowestPrice) {
		w.lowestPrice = price
	}
}

// settle reconciles one side of a fill: updates the per-client book (for
// resting/maker orders) and invokes the owning participant's fill
// callback with the signed quantity/cost.
func (w *Wrapper) settle(orderID string, side Side, price decimal.Decimal, qty int64, isTaker, makerDone bool) {
	participantID, ok := ParticipantOf(orderID)
	if !ok {
		return
	}

	// Taker orders for market/marketable-limit submissions were never
	// added to the per-client book (AddLimit only adds the resting
	// remainder; a market order is never added at all), so only
	// reconcile the per-client index for the maker side, or for a taker
	// limit order that is itself resting partially elsewhere (handled by
	// AddLimit's own resting-add after match() returns).
	if !isTaker {
		if makerDone {
			w.ClientBookFor(participantID).remove(side, price, orderID)
		}
		// Partial fills need no explicit reconciliation: the resting
		// Order object is shared between Book and ClientBook, so its
		// Quantity field is already decremented in place.
	}

	cb, ok := w.callbacks[participantID]
	if !ok {
		return
	}

	cost := price.Mul(decimal.NewFromInt(qty))
	signedQty := qty
	if side == SideSell {
		cost = cost.Neg()
		signedQty = -qty
	}

	cb(FillEvent{OrderID: orderID, Price: price, Quantity: signedQty, Cost: cost})
}

// Cancel removes a resting order from both the matching book and its
// owner's per-client book. Idempotent.
func (w *Wrapper) Cancel(orderID string) *Order {
	o := w.book.Cancel(orderID)
	if o == nil {
		return nil
	}
	if participantID, ok := ParticipantOf(orderID); ok {
		w.ClientBookFor(participantID).remove(o.Side, o.Price, orderID)
	}
	return o
}

// Snapshot returns the current book state.
func (w *Wrapper) Snapshot() Snapshot { return w.book.Snapshot() }

// Depth returns aggregated per-level totals, bids desc / asks asc.
func (w *Wrapper) Depth() (bids, asks []DepthLevel) { return w.book.Depth() }

// BestBid / BestAsk proxy the underlying book for bots that need the
// current top of book.
func (w *Wrapper) BestBid() decimal.Decimal { return w.book.BestBid() }
func (w *Wrapper) BestAsk() decimal.Decimal { return w.book.BestAsk() }

// TotalValueProcessed, HighestPrice, LowestPrice are the wrapper's running
// aggregates across every fill it has ever dispatched.
func (w *Wrapper) TotalValueProcessed() decimal.Decimal { return w.totalValueProcessed }
func (w *Wrapper) HighestPrice() decimal.Decimal         { return w.highestPrice }
func (w *Wrapper) LowestPrice() decimal.Decimal          { return w.lowestPrice }
