package bots

import (
	"time"

	"github.com/bullpen/server/internal/matching"
)

const randomBotMaxLevels = 10

// RandomBot is pure noise: it buys or sells at a PRNG-drawn threshold with
// no reference to price history or fundamentals, splitting 50/50 between
// market and limit orders. It caps its own book footprint so it cannot
// accumulate unbounded resting orders across ticks.
type RandomBot struct{ *Base }

func NewRandomBot(base *Base) *RandomBot { return &RandomBot{Base: base} }

func (r *RandomBot) MakeDecision(view MarketView) bool {
	current := view.CurrentPrice()
	if current == 0 {
		return false
	}
	draw := r.rng.Float64()

	if draw > 0.9 {
		if r.OwnLevelCount(matching.SideBuy) > randomBotMaxLevels {
			return false
		}
		return r.submit(view, matching.SideBuy, current, r.orderSize)
	}

	if draw < 0.1 && r.Shares() > 0 {
		if r.OwnLevelCount(matching.SideSell) > randomBotMaxLevels {
			return false
		}
		qty := r.orderSize
		if r.Shares() < qty {
			qty = r.Shares()
		}
		if qty <= 0 {
			return false
		}
		return r.submit(view, matching.SideSell, current, qty)
	}

	return false
}

func (r *RandomBot) submit(view MarketView, side matching.Side, current float64, qty int64) bool {
	useMarket := r.rng.Float64() < 0.5
	if side == matching.SideBuy {
		if useMarket {
			return r.placeMarketBuy(decFloat(current), qty)
		}
		return r.placeLimitBuy(decFloat(current), qty)
	}
	if useMarket {
		return r.placeMarketSell(qty)
	}
	return r.placeLimitSell(decFloat(current), qty)
}

func (r *RandomBot) ShouldCancelOrders(view MarketView) {
	r.autoCancelOldOrders(matching.SideBuy, 15*time.Second)
	r.autoCancelOldOrders(matching.SideSell, 15*time.Second)
}
