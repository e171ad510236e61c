// Package bots implements the trading-bot strategy framework: a shared
// polymorphic decision contract over a common accounting base, plus the
// eight concrete strategies a room can spawn.
package bots

import (
	"github.com/shopspring/decimal"

	"github.com/bullpen/server/internal/matching"
)

// MarketView is everything a strategy can observe about the current market
// without being able to mutate it directly (mutation only happens through
// the embedded participant.Participant's own PlaceBuy/PlaceSell/Cancel).
// The simulator satisfies this interface; bots never import it directly,
// which keeps the dependency graph acyclic.
type MarketView interface {
	CurrentPrice() float64
	PriceHistory() []float64
	IntrinsicValue() float64
	Snapshot() matching.Snapshot
	BestBid() decimal.Decimal
	BestAsk() decimal.Decimal
}

// Strategy is the polymorphic trading-bot decision contract. MakeDecision
// inspects the market and optionally submits or cancels orders; it returns
// true if it submitted an order that may have moved the market price.
// ShouldCancelOrders prunes this bot's own stale resting orders and is
// called independently of MakeDecision's return value.
type Strategy interface {
	MakeDecision(view MarketView) bool
	ShouldCancelOrders(view MarketView)
	Name() string
}
