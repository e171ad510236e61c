package participant

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bullpen/server/internal/matching"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// wiredBook links a matching.Wrapper to a set of Participants the way a
// Room would, so OnFill actually reaches the right ledger.
type wiredBook struct {
	*matching.Wrapper
}

func newWiredBook() *wiredBook {
	return &wiredBook{Wrapper: matching.NewWrapper()}
}

func (w *wiredBook) register(p *Participant) {
	w.RegisterParticipant(p.ID(), p.OnFill)
}

func TestPlaceBuyLocksAndReleasesOnCancel(t *testing.T) {
	book := newWiredBook()
	buyer := New("buyer", "Buyer", dec("1000.00"), 0, book)
	book.register(buyer)

	if ok := buyer.PlaceBuy(dec("10.00"), 20, matching.KindLimit); !ok {
		t.Fatal("expected PlaceBuy to succeed")
	}
	if !buyer.AvailableCash().Equal(dec("800.00")) {
		t.Fatalf("availableCash = %v, want 800.00", buyer.AvailableCash())
	}
	if !buyer.LockedCash().Equal(dec("200.00")) {
		t.Fatalf("lockedCash = %v, want 200.00", buyer.LockedCash())
	}

	orders := book.ClientBookFor("buyer").Orders(matching.SideBuy)
	if len(orders) != 1 {
		t.Fatalf("expected one resting order, got %d", len(orders))
	}

	buyer.Cancel(orders[0].ID)
	if !buyer.AvailableCash().Equal(dec("1000.00")) {
		t.Fatalf("availableCash after cancel = %v, want 1000.00", buyer.AvailableCash())
	}
	if !buyer.LockedCash().IsZero() {
		t.Fatalf("lockedCash after cancel = %v, want 0", buyer.LockedCash())
	}
}

func TestPlaceBuyRejectsInsufficientFunds(t *testing.T) {
	book := newWiredBook()
	buyer := New("buyer", "Buyer", dec("50.00"), 0, book)
	book.register(buyer)

	if ok := buyer.PlaceBuy(dec("10.00"), 10, matching.KindLimit); ok {
		t.Fatal("expected PlaceBuy to fail: cost 100.00 > available 50.00")
	}
	if !buyer.AvailableCash().Equal(dec("50.00")) {
		t.Fatalf("availableCash should be untouched, got %v", buyer.AvailableCash())
	}
}

func TestBuyFillTransfersCashToShares(t *testing.T) {
	book := newWiredBook()
	seller := New("seller", "Seller", dec("0"), 100, book)
	buyer := New("buyer", "Buyer", dec("1000.00"), 0, book)
	book.register(seller)
	book.register(buyer)

	seller.PlaceSell(dec("10.00"), 50, matching.KindLimit)
	buyer.PlaceBuy(dec("10.00"), 20, matching.KindLimit)

	if buyer.Shares() != 20 {
		t.Fatalf("buyer shares = %d, want 20", buyer.Shares())
	}
	if !buyer.LockedCash().IsZero() {
		t.Fatalf("buyer lockedCash = %v, want 0 after full fill", buyer.LockedCash())
	}
	if !buyer.AvailableCash().Equal(dec("800.00")) {
		t.Fatalf("buyer availableCash = %v, want 800.00", buyer.AvailableCash())
	}

	if seller.Shares() != 50 {
		t.Fatalf("seller shares = %d, want 50 (30 unfilled resting + fill tracked separately)", seller.Shares())
	}
	if seller.LockedShares() != 30 {
		t.Fatalf("seller lockedShares = %d, want 30 remaining resting", seller.LockedShares())
	}
	if !seller.AvailableCash().Equal(dec("200.00")) {
		t.Fatalf("seller availableCash = %v, want 200.00", seller.AvailableCash())
	}
}

func TestMarketBuyReconcilesLockedCashToZero(t *testing.T) {
	book := newWiredBook()
	seller := New("seller", "Seller", dec("0"), 100, book)
	buyer := New("buyer", "Buyer", dec("10000.00"), 0, book)
	book.register(seller)
	book.register(buyer)

	seller.PlaceSell(dec("9.00"), 40, matching.KindLimit)

	// buyer estimates 10.00 but actually fills at the better resting 9.00 price
	if ok := buyer.PlaceBuy(dec("10.00"), 40, matching.KindMarket); !ok {
		t.Fatal("expected market buy to succeed")
	}

	if !buyer.LockedCash().IsZero() {
		t.Fatalf("lockedCash after market fill = %v, want 0", buyer.LockedCash())
	}
	if buyer.Shares() != 40 {
		t.Fatalf("buyer shares = %d, want 40", buyer.Shares())
	}
	wantCash := dec("10000.00").Sub(dec("9.00").Mul(decimal.NewFromInt(40)))
	if !buyer.AvailableCash().Equal(wantCash) {
		t.Fatalf("buyer availableCash = %v, want %v", buyer.AvailableCash(), wantCash)
	}
}

func TestMarketSellReleasesUnfilledLockedShares(t *testing.T) {
	book := newWiredBook()
	seller := New("seller", "Seller", dec("0"), 100, book)
	book.register(seller)

	// no resting bids at all: market sell should fully fail to fill
	if ok := seller.PlaceSell(dec("0"), 30, matching.KindMarket); !ok {
		t.Fatal("expected market sell to be accepted (reservation succeeds even with no liquidity)")
	}

	if seller.LockedShares() != 0 {
		t.Fatalf("lockedShares = %d, want 0 after full leftover release", seller.LockedShares())
	}
	if seller.Shares() != 100 {
		t.Fatalf("shares = %d, want 100 (unchanged)", seller.Shares())
	}
}

func TestTradingDisabledBlocksOrders(t *testing.T) {
	book := newWiredBook()
	p := New("p", "P", dec("1000.00"), 10, book)
	book.register(p)
	p.SetTradingDisabled(true)

	if ok := p.PlaceBuy(dec("10.00"), 1, matching.KindLimit); ok {
		t.Fatal("PlaceBuy should be a no-op while trading is disabled")
	}
	if ok := p.PlaceSell(dec("10.00"), 1, matching.KindLimit); ok {
		t.Fatal("PlaceSell should be a no-op while trading is disabled")
	}
}

func TestPortfolioWithPnL(t *testing.T) {
	book := newWiredBook()
	p := New("p", "P", dec("1000.00"), 10, book)
	book.register(p)

	pf := p.PortfolioWithPnL(dec("50.00"))
	want := dec("1000.00").Add(dec("50.00").Mul(decimal.NewFromInt(10))).Sub(dec("1000.00"))
	if !pf.PnL.Equal(want) {
		t.Fatalf("pnl = %v, want %v", pf.PnL, want)
	}
	if pf.Shares != 10 {
		t.Fatalf("shares = %d, want 10", pf.Shares)
	}
}

func TestCancelIsIdempotentForParticipant(t *testing.T) {
	book := newWiredBook()
	p := New("p", "P", dec("1000.00"), 0, book)
	book.register(p)

	p.PlaceBuy(dec("10.00"), 5, matching.KindLimit)
	orders := book.ClientBookFor("p").Orders(matching.SideBuy)
	id := orders[0].ID

	p.Cancel(id)
	p.Cancel(id) // second cancel must be a silent no-op, not a double-refund

	if !p.AvailableCash().Equal(dec("1000.00")) {
		t.Fatalf("availableCash = %v, want 1000.00 (refunded exactly once)", p.AvailableCash())
	}
}
