package bots

import (
	"sync"
	"time"

	"github.com/bullpen/server/internal/matching"
)

// PartiallyInformedBot is a noisier cousin of InformedBot: instead of
// reading intrinsicValue exactly, it maintains its own estimate,
// refreshed with fresh PRNG noise only when intrinsicValue actually
// changes.
type PartiallyInformedBot struct {
	*Base

	mu            sync.Mutex
	lastIntrinsic float64
	intrinsicHat  float64
}

func NewPartiallyInformedBot(base *Base) *PartiallyInformedBot {
	return &PartiallyInformedBot{Base: base}
}

func (p *PartiallyInformedBot) estimate(intrinsic float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if intrinsic != p.lastIntrinsic || p.intrinsicHat == 0 {
		noise := (p.rng.Float64()*2 - 1) * 0.10 // ±10%
		p.intrinsicHat = intrinsic * (1 + noise)
		p.lastIntrinsic = intrinsic
	}
	return p.intrinsicHat
}

func (p *PartiallyInformedBot) MakeDecision(view MarketView) bool {
	intrinsic := view.IntrinsicValue()
	if intrinsic == 0 {
		return false
	}
	hat := p.estimate(intrinsic)
	current := view.CurrentPrice()

	if current < 0.96*intrinsic {
		price := decFloat(current)
		if p.hasBuyOrders(nil) {
			return false
		}
		if !view.BestAsk().IsZero() {
			return p.placeMarketBuy(price, p.orderSize)
		}
		return p.placeLimitBuy(price, p.orderSize)
	}

	if current > 1.08*hat && p.Shares() > 0 {
		qty := p.orderSize
		if p.Shares() < qty {
			qty = p.Shares()
		}
		if p.hasSellOrders(nil) {
			return false
		}
		if !view.BestBid().IsZero() {
			return p.placeMarketSell(qty)
		}
		return p.placeLimitSell(decFloat(current), qty)
	}

	return false
}

func (p *PartiallyInformedBot) ShouldCancelOrders(view MarketView) {
	p.autoCancelOldOrders(matching.SideBuy, 8*time.Second)
	p.autoCancelOldOrders(matching.SideSell, 8*time.Second)
}
