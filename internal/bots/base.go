package bots

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bullpen/server/internal/matching"
	"github.com/bullpen/server/internal/participant"
	"github.com/bullpen/server/internal/prng"
)

// Base is the common accounting + bookkeeping layer every concrete
// strategy embeds: a *participant.Participant for cash/shares, a shared
// PRNG reference for decision randomness, sizing parameters, and a record
// of when this bot's own resting orders were placed (for
// autoCancelOldOrders, since order IDs carry a sequence number, not a wall
// clock time).
type Base struct {
	*participant.Participant

	strategyName                    string
	orderSize                       int64
	cancelSpreadThresholdMultiplier float64
	rng                             *prng.RNG

	mu          sync.Mutex
	placedAt    map[string]time.Time
}

// NewBase constructs the shared bot state. rng is a reference to the
// room's shared PRNG, not owned by this bot.
func NewBase(p *participant.Participant, strategyName string, orderSize int64, cancelSpreadThresholdMultiplier float64, rng *prng.RNG) *Base {
	return &Base{
		Participant:                     p,
		strategyName:                    strategyName,
		orderSize:                       orderSize,
		cancelSpreadThresholdMultiplier: cancelSpreadThresholdMultiplier,
		rng:                             rng,
		placedAt:                        make(map[string]time.Time),
	}
}

func (b *Base) Name() string { return b.strategyName }

// placeLimitBuy / placeLimitSell submit through the embedded Participant
// and record the placement time for later staleness checks.
func (b *Base) placeLimitBuy(price decimal.Decimal, qty int64) bool {
	ok := b.PlaceBuy(price, qty, matching.KindLimit)
	if ok {
		b.recordOrder(matching.SideBuy, price)
	}
	return ok
}

func (b *Base) placeLimitSell(price decimal.Decimal, qty int64) bool {
	ok := b.PlaceSell(price, qty, matching.KindLimit)
	if ok {
		b.recordOrder(matching.SideSell, price)
	}
	return ok
}

func (b *Base) placeMarketBuy(estimatedPrice decimal.Decimal, qty int64) bool {
	return b.PlaceBuy(estimatedPrice, qty, matching.KindMarket)
}

func (b *Base) placeMarketSell(qty int64) bool {
	return b.PlaceSell(decimal.Zero, qty, matching.KindMarket)
}

// recordOrder timestamps the order this bot just placed. It is looked up
// again lazily in autoCancelOldOrders by matching against the book's
// current resting orders at the time of the cancel sweep, since the book
// itself does not expose placement wall-clock time.
func (b *Base) recordOrder(side matching.Side, price decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.OwnOrders(side) {
		if _, tracked := b.placedAt[o.ID]; !tracked {
			b.placedAt[o.ID] = time.Now()
		}
	}
}

// hasBuyOrders / hasSellOrders report whether this bot already has a
// resting order on side, optionally restricted to a specific rounded
// price. Used to make MakeDecision idempotent with respect to open intent.
func (b *Base) hasBuyOrders(price *decimal.Decimal) bool {
	return b.hasOrders(matching.SideBuy, price)
}

func (b *Base) hasSellOrders(price *decimal.Decimal) bool {
	return b.hasOrders(matching.SideSell, price)
}

func (b *Base) hasOrders(side matching.Side, price *decimal.Decimal) bool {
	orders := b.OwnOrders(side)
	if price == nil {
		return len(orders) > 0
	}
	target := matching.RoundPrice(*price)
	for _, o := range orders {
		if o.Price.Equal(target) {
			return true
		}
	}
	return false
}

// autoCancelOldOrders cancels this bot's own resting orders on side that
// have been open longer than olderThan.
func (b *Base) autoCancelOldOrders(side matching.Side, olderThan time.Duration) {
	now := time.Now()
	b.mu.Lock()
	var stale []string
	for _, o := range b.OwnOrders(side) {
		placed, ok := b.placedAt[o.ID]
		if !ok {
			continue
		}
		if now.Sub(placed) > olderThan {
			stale = append(stale, o.ID)
		}
	}
	b.mu.Unlock()

	for _, id := range stale {
		b.Cancel(id)
		b.mu.Lock()
		delete(b.placedAt, id)
		b.mu.Unlock()
	}
}

// computePriceChange returns (upPrice, downPrice) around base, each offset
// by up%/down% of base, with a floor of minStep absolute separation from
// base in case the percentage offset would otherwise round away to nothing.
func computePriceChange(base float64, minStep, upPct, downPct float64) (up, down float64) {
	upOffset := base * upPct
	if upOffset < minStep {
		upOffset = minStep
	}
	downOffset := base * downPct
	if downOffset < minStep {
		downOffset = minStep
	}
	return base + upOffset, base - downOffset
}

func decFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
