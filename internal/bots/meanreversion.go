package bots

import (
	"time"

	"github.com/bullpen/server/internal/matching"
)

const meanReversionLookback = 20

// MeanReversionBot fades deviations from its own rolling average: it buys
// when the market trades meaningfully below its recent SMA and sells when
// it trades meaningfully above it.
type MeanReversionBot struct{ *Base }

func NewMeanReversionBot(base *Base) *MeanReversionBot { return &MeanReversionBot{Base: base} }

func (r *MeanReversionBot) MakeDecision(view MarketView) bool {
	hist := view.PriceHistory()
	if len(hist) == 0 {
		return false
	}
	window := hist
	if len(window) > meanReversionLookback {
		window = window[len(window)-meanReversionLookback:]
	}
	avg := mean(window)
	if avg == 0 {
		return false
	}
	current := view.CurrentPrice()

	if current < 0.98*avg && r.rng.Float64() > 0.5 {
		up, _ := computePriceChange(current, 0.01, 0.005, 0.005)
		price := decFloat(up)
		if r.hasBuyOrders(&price) {
			return false
		}
		return r.placeLimitBuy(price, r.orderSize)
	}

	if current > 1.02*avg && r.rng.Float64() > 0.5 && r.Shares() > 0 {
		_, down := computePriceChange(current, 0.01, 0.005, 0.005)
		price := decFloat(down)
		if r.hasSellOrders(&price) {
			return false
		}
		qty := r.orderSize
		if r.Shares() < qty {
			qty = r.Shares()
		}
		if qty <= 0 {
			return false
		}
		return r.placeLimitSell(price, qty)
	}

	return false
}

func (r *MeanReversionBot) ShouldCancelOrders(view MarketView) {
	r.autoCancelOldOrders(matching.SideBuy, 10*time.Second)
	r.autoCancelOldOrders(matching.SideSell, 10*time.Second)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
