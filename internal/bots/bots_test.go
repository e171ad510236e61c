package bots

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bullpen/server/internal/matching"
	"github.com/bullpen/server/internal/participant"
	"github.com/bullpen/server/internal/prng"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fakeView is a MarketView test double with no relation to the matching
// book — strategies exercised against it never actually cross a price.
type fakeView struct {
	price     float64
	intrinsic float64
	history   []float64
	bestBid   decimal.Decimal
	bestAsk   decimal.Decimal
}

func (f fakeView) CurrentPrice() float64      { return f.price }
func (f fakeView) PriceHistory() []float64    { return f.history }
func (f fakeView) IntrinsicValue() float64    { return f.intrinsic }
func (f fakeView) Snapshot() matching.Snapshot { return matching.Snapshot{} }
func (f fakeView) BestBid() decimal.Decimal   { return f.bestBid }
func (f fakeView) BestAsk() decimal.Decimal   { return f.bestAsk }

func newBot(t *testing.T, id string, cash string, shares int64, seed int64) *Base {
	t.Helper()
	book := matching.NewWrapper()
	p := participant.New(id, id, dec(cash), shares, book)
	book.RegisterParticipant(id, p.OnFill)
	return NewBase(p, "test", 10, 1.0, prng.New(seed))
}

func risingHistory(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func fallingHistory(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 - float64(i)
	}
	return out
}

func TestMomentumBuysOnUptrend(t *testing.T) {
	base := newBot(t, "mom", "10000.00", 0, 7)
	m := NewMomentumBot(base)

	view := fakeView{price: 110, history: risingHistory(10)}

	var triggered bool
	for i := 0; i < 50; i++ {
		if m.MakeDecision(view) {
			triggered = true
			break
		}
	}
	if !triggered {
		t.Fatal("expected momentum bot to eventually buy into a sustained uptrend")
	}
	if m.OwnLevelCount(matching.SideBuy) == 0 {
		t.Fatal("expected a resting buy order after a triggered decision")
	}
}

func TestMomentumIdempotentAtSamePrice(t *testing.T) {
	base := newBot(t, "mom2", "10000.00", 0, 1)
	m := NewMomentumBot(base)
	view := fakeView{price: 110, history: risingHistory(10)}

	// force a deterministic trigger by looping until the PRNG cooperates
	for i := 0; i < 200; i++ {
		if m.MakeDecision(view) {
			break
		}
	}
	levelsBefore := m.OwnLevelCount(matching.SideBuy)
	if levelsBefore == 0 {
		t.Skip("PRNG never triggered within budget; inherent to the gating design")
	}
	// a second call at the identical price must not duplicate the order
	m.MakeDecision(view)
	if got := m.OwnLevelCount(matching.SideBuy); got != levelsBefore {
		t.Fatalf("expected no duplicate order at same price, levels went from %d to %d", levelsBefore, got)
	}
}

func TestInformedBotMarketBuysBelowIntrinsic(t *testing.T) {
	base := newBot(t, "informed", "100000.00", 0, 2)
	f := NewInformedBot(base)

	view := fakeView{price: 90, intrinsic: 100}
	// Without any resting counterparty liquidity the market order still
	// submits (it just won't fill); the assertion here is about whether
	// the bot recognizes the mispricing and acts on it at all.
	if !f.MakeDecision(view) {
		t.Fatal("expected informed bot to act when price is far below intrinsic")
	}
}

func TestRandomBotRefusesBeyondLevelCap(t *testing.T) {
	base := newBot(t, "rand", "1000000.00", 0, 3)
	r := NewRandomBot(base)

	view := fakeView{price: 50}
	placedLevels := 0
	for i := 0; i < 2000 && placedLevels <= randomBotMaxLevels+2; i++ {
		view.price = 50 + float64(i)*0.5 // vary price so limit orders land at new levels
		r.MakeDecision(view)
		placedLevels = r.OwnLevelCount(matching.SideBuy)
	}
	if placedLevels > randomBotMaxLevels+1 {
		t.Fatalf("random bot exceeded its own level cap: %d resting levels", placedLevels)
	}
}

func TestLiquidityBotQuotesBothSides(t *testing.T) {
	base := newBot(t, "mm", "100000.00", 1000, 4)
	l := NewLiquidityBot(base, 900, 200, 0.01, 0.05)

	view := fakeView{price: 100, history: risingHistory(20)}
	if !l.MakeDecision(view) {
		t.Fatal("expected liquidity bot to post an initial two-sided quote")
	}
	if l.OwnLevelCount(matching.SideBuy) == 0 {
		t.Fatal("expected a resting bid")
	}
	if l.OwnLevelCount(matching.SideSell) == 0 {
		t.Fatal("expected a resting ask (bot has ample shares)")
	}
}

func TestDormantBotNeverTrades(t *testing.T) {
	base := newBot(t, "dormant", "1000.00", 5, 1)
	d := NewDormantBot(base)
	view := fakeView{price: 100}

	for i := 0; i < 10; i++ {
		if d.MakeDecision(view) {
			t.Fatal("dormant bot must never submit an order")
		}
	}
}

func TestComputePriceChangeRespectsMinStep(t *testing.T) {
	up, down := computePriceChange(1.00, 0.05, 0.001, 0.001)
	if up-1.00 < 0.05 {
		t.Fatalf("up offset %v smaller than minStep 0.05", up-1.00)
	}
	if 1.00-down < 0.05 {
		t.Fatalf("down offset %v smaller than minStep 0.05", 1.00-down)
	}
}
