package bots

import (
	"time"

	"github.com/bullpen/server/internal/matching"
)

const momentumLookback = 5

// MomentumBot chases a short-run trend: it buys into an up-move and sells
// into a down-move, both gated by a PRNG coin flip so it does not act on
// every qualifying tick.
type MomentumBot struct{ *Base }

func NewMomentumBot(base *Base) *MomentumBot { return &MomentumBot{Base: base} }

func (m *MomentumBot) MakeDecision(view MarketView) bool {
	hist := view.PriceHistory()
	if len(hist) <= momentumLookback {
		return false
	}
	pt := hist[len(hist)-1]
	ptL := hist[len(hist)-1-momentumLookback]
	if ptL == 0 {
		return false
	}
	change := (pt - ptL) / ptL
	current := view.CurrentPrice()

	if change > 0.01 && m.rng.Float64() > 0.7 {
		up, _ := computePriceChange(current, 0.01, 0.01, 0.01)
		price := decFloat(up)
		if m.hasBuyOrders(&price) {
			return false
		}
		return m.placeLimitBuy(price, m.orderSize)
	}

	if change < -0.01 && m.Shares() > 0 && m.rng.Float64() > 0.7 {
		_, down := computePriceChange(current, 0.01, 0.01, 0.01)
		price := decFloat(down)
		if m.hasSellOrders(&price) {
			return false
		}
		qty := m.orderSize
		if m.Shares() < qty {
			qty = m.Shares()
		}
		if qty <= 0 {
			return false
		}
		return m.placeLimitSell(price, qty)
	}

	return false
}

func (m *MomentumBot) ShouldCancelOrders(view MarketView) {
	m.autoCancelOldOrders(matching.SideBuy, 5*time.Second)
	m.autoCancelOldOrders(matching.SideSell, 5*time.Second)
}
