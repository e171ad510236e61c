package bots

import (
	"time"

	"github.com/bullpen/server/internal/matching"
)

// SpreadBot quotes inside the visible best bid/ask whenever the spread is
// wide enough to be worth capturing, then refreshes its own quotes on a
// fixed interval regardless of whether the market moved.
type SpreadBot struct {
	*Base

	minSpreadPct    float64
	refreshInterval time.Duration
}

func NewSpreadBot(base *Base, minSpreadPct float64, refreshInterval time.Duration) *SpreadBot {
	return &SpreadBot{Base: base, minSpreadPct: minSpreadPct, refreshInterval: refreshInterval}
}

func (s *SpreadBot) MakeDecision(view MarketView) bool {
	bid, ask := view.BestBid(), view.BestAsk()
	if bid.IsZero() || ask.IsZero() {
		return false
	}
	current := view.CurrentPrice()
	if current == 0 {
		return false
	}

	spread, _ := ask.Sub(bid).Float64()
	if spread/current <= s.minSpreadPct {
		return false
	}

	bidF, _ := bid.Float64()
	askF, _ := ask.Float64()
	width := askF - bidF
	newBid := decFloat(bidF + 0.30*width)
	newAsk := decFloat(askF - 0.30*width)

	placed := false
	if !s.hasBuyOrders(nil) {
		if s.placeLimitBuy(newBid, s.orderSize) {
			placed = true
		}
	}
	if !s.hasSellOrders(nil) && s.Shares() >= s.orderSize {
		if s.placeLimitSell(newAsk, s.orderSize) {
			placed = true
		}
	}
	return placed
}

func (s *SpreadBot) ShouldCancelOrders(view MarketView) {
	s.autoCancelOldOrders(matching.SideBuy, s.refreshInterval)
	s.autoCancelOldOrders(matching.SideSell, s.refreshInterval)
}
