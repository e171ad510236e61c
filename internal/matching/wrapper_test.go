package matching

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAddLimitCrossesRestingOrder(t *testing.T) {
	w := NewWrapper()

	var sellerEvents, buyerEvents []FillEvent
	w.RegisterParticipant("seller", func(e FillEvent) { sellerEvents = append(sellerEvents, e) })
	w.RegisterParticipant("buyer", func(e FillEvent) { buyerEvents = append(buyerEvents, e) })

	sellID := NewOrderID("seller")
	w.AddLimit("seller", sellID, SideSell, dec("10.00"), 100)

	buyID := NewOrderID("buyer")
	w.AddLimit("buyer", buyID, SideBuy, dec("10.00"), 40)

	if len(sellerEvents) != 1 || len(buyerEvents) != 1 {
		t.Fatalf("expected one fill per side, got seller=%d buyer=%d", len(sellerEvents), len(buyerEvents))
	}

	if buyerEvents[0].Quantity != 40 || !buyerEvents[0].Cost.Equal(dec("400.00")) {
		t.Fatalf("unexpected buyer fill: %+v", buyerEvents[0])
	}
	if sellerEvents[0].Quantity != -40 || !sellerEvents[0].Cost.Equal(dec("-400.00")) {
		t.Fatalf("unexpected seller fill: %+v", sellerEvents[0])
	}

	// seller still has 60 resting at 10.00
	if !w.ClientBookFor("seller").HasOrders(SideSell, nil) {
		t.Fatal("seller should still have a resting order")
	}
	if w.ClientBookFor("buyer").HasOrders(SideBuy, nil) {
		t.Fatal("buyer's marketable limit should have fully filled, nothing resting")
	}

	bids, asks := w.Depth()
	if len(bids) != 0 {
		t.Fatalf("expected no resting bids, got %+v", bids)
	}
	if len(asks) != 1 || asks[0].Quantity != 60 {
		t.Fatalf("expected 60 resting asks at 10.00, got %+v", asks)
	}
}

func TestAddLimitPartialFillSharedPointerReconciles(t *testing.T) {
	w := NewWrapper()
	w.RegisterParticipant("seller", func(FillEvent) {})
	w.RegisterParticipant("buyer", func(FillEvent) {})

	sellID := NewOrderID("seller")
	w.AddLimit("seller", sellID, SideSell, dec("5.00"), 100)
	w.AddLimit("buyer", NewOrderID("buyer"), SideBuy, dec("5.00"), 30)

	resting := w.ClientBookFor("seller").Orders(SideSell)
	if len(resting) != 1 || resting[0].Quantity != 70 {
		t.Fatalf("expected 70 remaining on shared order, got %+v", resting)
	}

	// the matching book's own view must show the same 70 remaining
	_, asks := w.Depth()
	if len(asks) != 1 || asks[0].Quantity != 70 {
		t.Fatalf("book depth out of sync with client book: %+v", asks)
	}
}

func TestAddMarketAgainstEmptyBookReturnsFullLeftover(t *testing.T) {
	w := NewWrapper()
	w.RegisterParticipant("buyer", func(FillEvent) {})

	var totalCost decimal.Decimal
	var totalQty int64
	leftover := w.AddMarket("buyer", NewOrderID("buyer"), SideBuy, 50, func(c decimal.Decimal, q int64) {
		totalCost, totalQty = c, q
	})

	if leftover != 50 {
		t.Fatalf("leftover = %d, want 50", leftover)
	}
	if totalQty != 0 || !totalCost.IsZero() {
		t.Fatalf("expected zero totals against empty book, got cost=%v qty=%d", totalCost, totalQty)
	}
}

func TestAddMarketSweepsMultipleLevels(t *testing.T) {
	w := NewWrapper()
	w.RegisterParticipant("s1", func(FillEvent) {})
	w.RegisterParticipant("s2", func(FillEvent) {})
	w.RegisterParticipant("buyer", func(FillEvent) {})

	w.AddLimit("s1", NewOrderID("s1"), SideSell, dec("10.00"), 20)
	w.AddLimit("s2", NewOrderID("s2"), SideSell, dec("11.00"), 20)

	var totalCost decimal.Decimal
	var totalQty int64
	leftover := w.AddMarket("buyer", NewOrderID("buyer"), SideBuy, 30, func(c decimal.Decimal, q int64) {
		totalCost, totalQty = c, q
	})

	if leftover != 0 {
		t.Fatalf("leftover = %d, want 0", leftover)
	}
	wantCost := dec("10.00").Mul(decimal.NewFromInt(20)).Add(dec("11.00").Mul(decimal.NewFromInt(10)))
	if totalQty != 30 || !totalCost.Equal(wantCost) {
		t.Fatalf("totals = (%v, %d), want (%v, 30)", totalCost, totalQty, wantCost)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	w := NewWrapper()
	w.RegisterParticipant("seller", func(FillEvent) {})

	id := NewOrderID("seller")
	w.AddLimit("seller", id, SideSell, dec("7.00"), 10)

	if o := w.Cancel(id); o == nil {
		t.Fatal("expected cancel to return the removed order")
	}
	if o := w.Cancel(id); o != nil {
		t.Fatalf("second cancel should be a no-op, got %+v", o)
	}
	if w.ClientBookFor("seller").HasOrders(SideSell, nil) {
		t.Fatal("cancelled order should be gone from the client book")
	}
}

func TestConservationOfCashAcrossTrade(t *testing.T) {
	w := NewWrapper()

	buyerCash := dec("0")
	sellerCash := dec("0")
	w.RegisterParticipant("seller", func(e FillEvent) { sellerCash = sellerCash.Sub(e.Cost) })
	w.RegisterParticipant("buyer", func(e FillEvent) { buyerCash = buyerCash.Sub(e.Cost) })

	w.AddLimit("seller", NewOrderID("seller"), SideSell, dec("20.00"), 10)
	w.AddLimit("buyer", NewOrderID("buyer"), SideBuy, dec("20.00"), 10)

	// buyer pays 200, seller receives 200: net zero across both ledgers
	if !buyerCash.Add(sellerCash).IsZero() {
		t.Fatalf("cash not conserved: buyer=%v seller=%v", buyerCash, sellerCash)
	}
	if !buyerCash.Equal(dec("-200.00")) {
		t.Fatalf("buyer cash = %v, want -200.00", buyerCash)
	}
}

func TestAddLimitRejectsNonPositivePriceOrQuantity(t *testing.T) {
	w := NewWrapper()
	w.RegisterParticipant("p", func(FillEvent) {})

	w.AddLimit("p", NewOrderID("p"), SideBuy, dec("0"), 10)
	w.AddLimit("p", NewOrderID("p"), SideBuy, dec("-5.00"), 10)
	w.AddLimit("p", NewOrderID("p"), SideBuy, dec("5.00"), 0)

	if w.ClientBookFor("p").HasOrders(SideBuy, nil) {
		t.Fatal("none of these should have rested an order")
	}
}

func TestPriceRoundedOnInsert(t *testing.T) {
	w := NewWrapper()
	w.RegisterParticipant("p", func(FillEvent) {})

	w.AddLimit("p", NewOrderID("p"), SideBuy, dec("5.005"), 10)

	if got := w.BestBid(); !got.Equal(dec("5.01")) {
		t.Fatalf("resting price = %v, want 5.01 (rounded)", got)
	}
}
