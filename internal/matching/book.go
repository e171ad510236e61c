package matching

import (
	"sort"

	"github.com/shopspring/decimal"
)

// priceLevel holds orders resting at a single price point, in time
// priority (oldest first).
type priceLevel struct {
	Price  decimal.Decimal
	Orders []*Order
}

// Fill is a single matched quantity between a taker and a resting maker
// order, always priced at the maker's price (maker sets the price, taker
// crosses it).
type Fill struct {
	TakerID     string
	TakerSide   Side
	MakerID     string
	MakerSide   Side
	Price       decimal.Decimal
	Quantity    int64
	MatchNumber uint64
	// MakerDone is true if the maker order was fully consumed by this fill
	// (no shares left resting).
	MakerDone bool
	// MakerRemaining is the maker's resting quantity after this fill.
	MakerRemaining int64
}

// Book is a price-time-priority limit order book: a marketable limit or
// market order sweeps resting liquidity on the opposite side until it is
// filled or the book is exhausted.
type Book struct {
	bids []*priceLevel // sorted descending by price
	asks []*priceLevel // sorted ascending by price

	orderMap map[string]*Order
	side     map[string]Side
}

// NewBook creates an empty order book.
func NewBook() *Book {
	return &Book{
		orderMap: make(map[string]*Order),
		side:     make(map[string]Side),
	}
}

// BestBid returns the best bid price, or a zero decimal if the side is empty.
func (b *Book) BestBid() decimal.Decimal {
	if len(b.bids) == 0 {
		return decimal.Zero
	}
	return b.bids[0].Price
}

// BestAsk returns the best ask price, or a zero decimal if the side is empty.
func (b *Book) BestAsk() decimal.Decimal {
	if len(b.asks) == 0 {
		return decimal.Zero
	}
	return b.asks[0].Price
}

// AddLimit inserts a limit order, matching it immediately against any
// crossing resting liquidity, then resting whatever quantity remains.
// Returns the fills generated (if any) and the taker's own remaining
// (resting) quantity.
func (b *Book) AddLimit(o *Order) (fills []Fill, resting int64) {
	o.Price = RoundPrice(o.Price)
	fills = b.match(o)
	if o.Quantity > 0 {
		b.insert(o)
	}
	return fills, o.Quantity
}

// AddMarket matches a market order for quantity shares against the
// opposite side, ignoring price. Returns fills and leftover quantity that
// could not be filled because the opposite side ran dry. Against an empty
// opposite side this is a no-op: qtyLeftover equals quantity.
func (b *Book) AddMarket(orderID string, side Side, quantity int64) (fills []Fill, qtyLeftover int64) {
	taker := &Order{ID: orderID, Side: side, Quantity: quantity}
	fills = b.match(taker)
	return fills, taker.Quantity
}

// match consumes resting liquidity on the opposite side of o. For limit
// orders, only crossing price levels are consumed; for market orders
// (zero price semantics handled by caller never checking price), every
// level is eligible until exhausted.
func (b *Book) match(o *Order) []Fill {
	var fills []Fill

	oppositeLevels := func() []*priceLevel {
		if o.Side == SideBuy {
			return b.asks
		}
		return b.bids
	}

	crosses := func(levelPrice decimal.Decimal) bool {
		if o.Quantity <= 0 {
			return false
		}
		if len(oppositeLevels()) == 0 {
			return false
		}
		if o.Price.IsZero() {
			// Market order: always crosses while liquidity remains.
			return true
		}
		if o.Side == SideBuy {
			return o.Price.GreaterThanOrEqual(levelPrice)
		}
		return o.Price.LessThanOrEqual(levelPrice)
	}

	for o.Quantity > 0 {
		levels := oppositeLevels()
		if len(levels) == 0 {
			break
		}
		level := levels[0]
		if !crosses(level.Price) {
			break
		}

		for len(level.Orders) > 0 && o.Quantity > 0 {
			maker := level.Orders[0]
			qty := min64(o.Quantity, maker.Quantity)

			o.Quantity -= qty
			maker.Quantity -= qty

			matchNum := NextMatchNumber()
			fill := Fill{
				TakerID:        o.ID,
				TakerSide:      o.Side,
				MakerID:        maker.ID,
				MakerSide:      maker.Side,
				Price:          level.Price,
				Quantity:       qty,
				MatchNumber:    matchNum,
				MakerDone:      maker.Quantity == 0,
				MakerRemaining: maker.Quantity,
			}
			fills = append(fills, fill)

			if maker.Quantity == 0 {
				level.Orders = level.Orders[1:]
				delete(b.orderMap, maker.ID)
				delete(b.side, maker.ID)
			}
		}

		if len(level.Orders) == 0 {
			if o.Side == SideBuy {
				b.asks = b.asks[1:]
			} else {
				b.bids = b.bids[1:]
			}
		}
	}

	return fills
}

func (b *Book) insert(o *Order) {
	o.Seq = NextOrderSeq()
	b.orderMap[o.ID] = o
	b.side[o.ID] = o.Side

	if o.Side == SideBuy {
		b.bids = addToSide(b.bids, o, true)
	} else {
		b.asks = addToSide(b.asks, o, false)
	}
}

func addToSide(levels []*priceLevel, o *Order, descending bool) []*priceLevel {
	for _, lvl := range levels {
		if lvl.Price.Equal(o.Price) {
			lvl.Orders = append(lvl.Orders, o)
			return levels
		}
	}

	levels = append(levels, &priceLevel{Price: o.Price, Orders: []*Order{o}})
	sort.Slice(levels, func(i, j int) bool {
		if descending {
			return levels[i].Price.GreaterThan(levels[j].Price)
		}
		return levels[i].Price.LessThan(levels[j].Price)
	})
	return levels
}

// Cancel removes a resting order by ID. Returns the removed order, or nil
// if it was not found. Calling Cancel twice on the same ID is harmless.
func (b *Book) Cancel(orderID string) *Order {
	o, ok := b.orderMap[orderID]
	if !ok {
		return nil
	}
	delete(b.orderMap, orderID)
	delete(b.side, orderID)

	var levels *[]*priceLevel
	if o.Side == SideBuy {
		levels = &b.bids
	} else {
		levels = &b.asks
	}
	*levels = removeFromSide(*levels, orderID)
	return o
}

func removeFromSide(levels []*priceLevel, orderID string) []*priceLevel {
	for i, lvl := range levels {
		for j, ord := range lvl.Orders {
			if ord.ID == orderID {
				lvl.Orders = append(lvl.Orders[:j], lvl.Orders[j+1:]...)
				if len(lvl.Orders) == 0 {
					levels = append(levels[:i], levels[i+1:]...)
				}
				return levels
			}
		}
	}
	return levels
}

// GetOrder returns a resting order by ID, or nil.
func (b *Book) GetOrder(orderID string) *Order {
	return b.orderMap[orderID]
}

// DepthLevel is an aggregated price/quantity pair.
type DepthLevel struct {
	Price    decimal.Decimal
	Quantity int64
}

// levelTotals aggregates a side's price levels into per-level totals, in the
// side's natural sort order (bids desc, asks asc).
func levelTotals(levels []*priceLevel) []DepthLevel {
	out := make([]DepthLevel, 0, len(levels))
	for _, lvl := range levels {
		var total int64
		for _, o := range lvl.Orders {
			total += o.Quantity
		}
		out = append(out, DepthLevel{Price: lvl.Price, Quantity: total})
	}
	return out
}

// Depth returns aggregated bid/ask levels, bids sorted descending and asks
// ascending.
func (b *Book) Depth() (bids, asks []DepthLevel) {
	return levelTotals(b.bids), levelTotals(b.asks)
}

// Snapshot is a point-in-time view of the book for wire serialization.
type Snapshot struct {
	Bids []LevelView
	Asks []LevelView
}

// LevelView is one aggregated level plus the individual resting orders at it.
type LevelView struct {
	Price    decimal.Decimal
	Quantity int64
	Orders   []OrderView
}

// OrderView is a read-only projection of a resting order.
type OrderView struct {
	ID       string
	Quantity int64
}

// Snapshot returns a full point-in-time view of both sides of the book.
func (b *Book) Snapshot() Snapshot {
	build := func(levels []*priceLevel) []LevelView {
		out := make([]LevelView, 0, len(levels))
		for _, lvl := range levels {
			var total int64
			orders := make([]OrderView, 0, len(lvl.Orders))
			for _, o := range lvl.Orders {
				total += o.Quantity
				orders = append(orders, OrderView{ID: o.ID, Quantity: o.Quantity})
			}
			out = append(out, LevelView{Price: lvl.Price, Quantity: total, Orders: orders})
		}
		return out
	}
	return Snapshot{Bids: build(b.bids), Asks: build(b.asks)}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
