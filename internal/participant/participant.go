// Package participant implements the shared cash/shares accounting ledger
// used by both human clients and trading bots.
package participant

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/bullpen/server/internal/matching"
)

// Book is the subset of *matching.Wrapper a Participant needs. Kept as an
// interface so tests can drive a Participant without a real order book.
type Book interface {
	AddLimit(clientID, orderID string, side matching.Side, price decimal.Decimal, qty int64)
	AddMarket(clientID, orderID string, side matching.Side, qty int64, onTotals matching.TotalsFunc) (qtyLeftover int64)
	Cancel(orderID string) *matching.Order
	ClientBookFor(participantID string) *matching.ClientBook
	BestBid() decimal.Decimal
	BestAsk() decimal.Decimal
}

// Portfolio is the point-in-time, mark-to-market view of a participant.
type Portfolio struct {
	ID     string
	Cash   decimal.Decimal
	Shares int64
	PnL    decimal.Decimal
}

// Participant is the TradingParticipant accounting core: cash/shares move
// from available to locked when an order is placed, and back (partially or
// fully) as fills and cancels land. Both human clients and bots embed one.
type Participant struct {
	mu sync.Mutex

	id          string
	name        string
	initialCash decimal.Decimal

	availableCash decimal.Decimal
	lockedCash    decimal.Decimal
	shares        int64
	lockedShares  int64

	tradingDisabled bool

	book Book
}

// New creates a Participant with initialCash available and initialShares
// already owned (unlocked).
func New(id, name string, initialCash decimal.Decimal, initialShares int64, book Book) *Participant {
	return &Participant{
		id:            id,
		name:          name,
		initialCash:   initialCash,
		availableCash: initialCash,
		shares:        initialShares,
		book:          book,
	}
}

func (p *Participant) ID() string { return p.id }
func (p *Participant) Name() string { return p.name }

// OwnOrders returns this participant's own resting orders on side, via the
// book's per-client index. Used by bot strategies to dedupe intent.
func (p *Participant) OwnOrders(side matching.Side) []*matching.Order {
	return p.book.ClientBookFor(p.id).Orders(side)
}

// OwnLevelCount returns how many distinct price levels this participant
// has resting orders at on side.
func (p *Participant) OwnLevelCount(side matching.Side) int {
	return p.book.ClientBookFor(p.id).LevelCount(side)
}

// BestBid / BestAsk proxy the book for strategies that need top-of-book
// without a full snapshot.
func (p *Participant) BestBid() decimal.Decimal { return p.book.BestBid() }
func (p *Participant) BestAsk() decimal.Decimal { return p.book.BestAsk() }

// OnFill is registered as this participant's matching.FillFunc. It must be
// wired to the book via book.RegisterParticipant(p.ID(), p.OnFill) before
// any order is placed.
func (p *Participant) OnFill(e matching.FillEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e.Cost.IsPositive() {
		p.lockedCash = p.lockedCash.Sub(e.Cost)
		p.shares += e.Quantity
		return
	}
	p.availableCash = p.availableCash.Sub(e.Cost)
	p.lockedShares -= -e.Quantity
}

// PlaceBuy reserves price*qty from availableCash into lockedCash and
// submits the order. For a market order, price should be the caller's best
// estimate of the fill price (the current best ask); any portion of the
// reservation not actually spent is released back to availableCash before
// PlaceBuy returns, so lockedCash always nets to zero once a market order
// fully resolves. Returns false (no-op) if trading is disabled, inputs are
// invalid, or funds are insufficient.
func (p *Participant) PlaceBuy(price decimal.Decimal, qty int64, kind matching.Kind) bool {
	if qty <= 0 || !price.IsPositive() {
		return false
	}

	reserve := price.Mul(decimal.NewFromInt(qty))

	p.mu.Lock()
	if p.tradingDisabled || p.availableCash.LessThan(reserve) {
		p.mu.Unlock()
		return false
	}
	p.availableCash = p.availableCash.Sub(reserve)
	p.lockedCash = p.lockedCash.Add(reserve)
	p.mu.Unlock()

	// book.AddLimit/AddMarket may synchronously invoke this participant's
	// own OnFill (a self-cross, or the onTotals callback below) — the lock
	// must already be released here, or that reentrant call would deadlock.
	orderID := matching.NewOrderID(p.id)
	switch kind {
	case matching.KindLimit:
		p.book.AddLimit(p.id, orderID, matching.SideBuy, price, qty)
	case matching.KindMarket:
		p.book.AddMarket(p.id, orderID, matching.SideBuy, qty, func(totalCost decimal.Decimal, totalQty int64) {
			excess := reserve.Sub(totalCost)
			p.mu.Lock()
			p.lockedCash = p.lockedCash.Sub(excess)
			p.availableCash = p.availableCash.Add(excess)
			p.mu.Unlock()
		})
	}
	return true
}

// PlaceSell reserves qty shares from shares into lockedShares and submits
// the order. For a market sell, any quantity the book could not fill is
// released back from lockedShares to shares before PlaceSell returns.
func (p *Participant) PlaceSell(price decimal.Decimal, qty int64, kind matching.Kind) bool {
	if qty <= 0 {
		return false
	}
	if kind == matching.KindLimit && !price.IsPositive() {
		return false
	}

	p.mu.Lock()
	if p.tradingDisabled || p.shares < qty {
		p.mu.Unlock()
		return false
	}
	p.shares -= qty
	p.lockedShares += qty
	p.mu.Unlock()

	orderID := matching.NewOrderID(p.id)
	switch kind {
	case matching.KindLimit:
		p.book.AddLimit(p.id, orderID, matching.SideSell, price, qty)
	case matching.KindMarket:
		leftover := p.book.AddMarket(p.id, orderID, matching.SideSell, qty, nil)
		if leftover > 0 {
			p.mu.Lock()
			p.lockedShares -= leftover
			p.shares += leftover
			p.mu.Unlock()
		}
	}
	return true
}

// Cancel releases whatever of a resting order's remaining quantity is still
// locked, back to available. Idempotent: cancelling an order the book no
// longer knows about is a silent no-op.
func (p *Participant) Cancel(orderID string) {
	o := p.book.Cancel(orderID)
	if o == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if o.Side == matching.SideBuy {
		amount := o.Price.Mul(decimal.NewFromInt(o.Quantity))
		p.lockedCash = p.lockedCash.Sub(amount)
		p.availableCash = p.availableCash.Add(amount)
		return
	}
	p.lockedShares -= o.Quantity
	p.shares += o.Quantity
}

// PortfolioWithPnL reports cash/shares and mark-to-market PnL at
// currentPrice. PnL does not include locked cash/shares — a participant
// with resting orders has that value tied up, not realized.
func (p *Participant) PortfolioWithPnL(currentPrice decimal.Decimal) Portfolio {
	p.mu.Lock()
	defer p.mu.Unlock()

	marketValue := currentPrice.Mul(decimal.NewFromInt(p.shares))
	pnl := p.availableCash.Add(marketValue).Sub(p.initialCash)
	return Portfolio{ID: p.id, Cash: p.availableCash, Shares: p.shares, PnL: pnl}
}

// SetTradingDisabled gates PlaceBuy/PlaceSell; used by powers that freeze a
// participant out of the market for a duration.
func (p *Participant) SetTradingDisabled(disabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tradingDisabled = disabled
}

func (p *Participant) TradingDisabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tradingDisabled
}

// AvailableCash, LockedCash, Shares, LockedShares are read-only accessors
// used by powers and by wire serialization.
func (p *Participant) AvailableCash() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.availableCash
}

func (p *Participant) LockedCash() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lockedCash
}

func (p *Participant) Shares() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shares
}

func (p *Participant) LockedShares() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lockedShares
}

// GrantCash credits availableCash directly, bypassing order flow — used by
// the cash-heritage and the-homeless-gift powers.
func (p *Participant) GrantCash(amount decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.availableCash = p.availableCash.Add(amount)
}

// ReleaseLockedBuys cancels every resting buy order this participant has on
// book, restoring lockedCash to availableCash for each. Used by the
// margin-call power. Returns the number of orders released.
func (p *Participant) ReleaseLockedBuys() int {
	orders := p.OwnOrders(matching.SideBuy)
	for _, o := range orders {
		p.Cancel(o.ID)
	}
	return len(orders)
}
