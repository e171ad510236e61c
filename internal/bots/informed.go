package bots

import (
	"github.com/bullpen/server/internal/matching"
)

// InformedBot sees intrinsicValue directly (unlike every other strategy,
// which only ever observes the guide price) and trades the gap between it
// and the traded market price.
type InformedBot struct{ *Base }

func NewInformedBot(base *Base) *InformedBot { return &InformedBot{Base: base} }

func (f *InformedBot) MakeDecision(view MarketView) bool {
	current := view.CurrentPrice()
	intrinsic := view.IntrinsicValue()
	if intrinsic == 0 {
		return false
	}

	if current < 0.95*intrinsic {
		before := f.Shares()
		ok := f.placeMarketBuy(decFloat(current), f.orderSize)
		if !ok {
			return false
		}
		filled := f.Shares() - before
		if filled > 0 {
			sellPrice := decFloat(1.05 * intrinsic)
			if !f.hasSellOrders(&sellPrice) {
				f.placeLimitSell(sellPrice, filled)
			}
		}
		return true
	}

	if current > 1.10*intrinsic && f.Shares() > 0 {
		qty := f.orderSize
		if f.Shares() < qty {
			qty = f.Shares()
		}
		return f.placeMarketSell(qty)
	}

	return false
}

// ShouldCancelOrders leaves resting sell orders alone while they remain
// correctly positioned relative to the current intrinsic target (1.05x);
// only once intrinsic has moved enough that the standing order is no
// longer a sane take-profit target does it get pulled.
func (f *InformedBot) ShouldCancelOrders(view MarketView) {
	intrinsic := view.IntrinsicValue()
	if intrinsic == 0 {
		return
	}
	target := 1.05 * intrinsic
	for _, o := range f.OwnOrders(matching.SideSell) {
		price, _ := o.Price.Float64()
		if price < 0.98*target || price > 1.15*target {
			f.Cancel(o.ID)
		}
	}
}
