package bots

import (
	"math"
	"time"

	"github.com/bullpen/server/internal/matching"
)

// LiquidityBot is the market-maker strategy: it continuously posts a two-
// sided quote around the current price, widening its spread when recent
// returns have been volatile and skewing its quote when its own inventory
// has drifted from target.
type LiquidityBot struct {
	*Base

	targetInventory int64
	maxDeviation     int64
	baseSpread       float64 // fractional, e.g. 0.01 == 1%
	maxSpread        float64
}

func NewLiquidityBot(base *Base, targetInventory, maxDeviation int64, baseSpread, maxSpread float64) *LiquidityBot {
	return &LiquidityBot{
		Base:            base,
		targetInventory: targetInventory,
		maxDeviation:    maxDeviation,
		baseSpread:      baseSpread,
		maxSpread:       maxSpread,
	}
}

func (l *LiquidityBot) volatility(hist []float64) float64 {
	window := hist
	if len(window) > 20 {
		window = window[len(window)-20:]
	}
	if len(window) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		if window[i-1] == 0 {
			continue
		}
		returns = append(returns, (window[i]-window[i-1])/window[i-1])
	}
	return stddev(returns)
}

func (l *LiquidityBot) MakeDecision(view MarketView) bool {
	current := view.CurrentPrice()
	if current == 0 {
		return false
	}

	sigma := l.volatility(view.PriceHistory())
	effectiveSpread := l.baseSpread * (1 + sigma*100)
	if effectiveSpread > l.maxSpread {
		effectiveSpread = l.maxSpread
	}
	halfSpread := current * effectiveSpread / 2

	inventory := l.Shares() - l.targetInventory
	if l.maxDeviation > 0 && (inventory > l.maxDeviation || inventory < -l.maxDeviation) {
		return l.rebalance(inventory)
	}

	skew := 0.0
	if l.maxDeviation > 0 {
		skew = (float64(inventory) / float64(l.maxDeviation)) * halfSpread
	}

	bid := decFloat(current - halfSpread - skew)
	ask := decFloat(current + halfSpread - skew)

	placed := false
	if !l.hasBuyOrders(&bid) {
		if l.placeLimitBuy(bid, l.orderSize) {
			placed = true
		}
	}
	if !l.hasSellOrders(&ask) && l.Shares() >= l.orderSize {
		if l.placeLimitSell(ask, l.orderSize) {
			placed = true
		}
	}
	return placed
}

// rebalance aggressively flattens inventory once it has drifted beyond
// maxDeviation, trading through the market rather than waiting on a quote.
func (l *LiquidityBot) rebalance(inventory int64) bool {
	excess := inventory
	if excess < 0 {
		excess = -excess
	}
	if inventory > 0 {
		qty := excess
		if l.Shares() < qty {
			qty = l.Shares()
		}
		if qty <= 0 {
			return false
		}
		return l.placeMarketSell(qty)
	}
	return l.placeMarketBuy(l.BestAsk(), excess)
}

func (l *LiquidityBot) ShouldCancelOrders(view MarketView) {
	l.autoCancelOldOrders(matching.SideBuy, 3*time.Second)
	l.autoCancelOldOrders(matching.SideSell, 3*time.Second)
}

func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var sumSq float64
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}
