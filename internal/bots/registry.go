package bots

import "time"

// Strategy name constants, used in room settings' botSelection list and in
// the /api/bots descriptor endpoint.
const (
	StrategyMomentum          = "momentum"
	StrategyMeanReversion     = "mean-reversion"
	StrategyInformed          = "informed"
	StrategyPartiallyInformed = "partially-informed"
	StrategyLiquidity         = "liquidity"
	StrategyRandom            = "random"
	StrategySpread            = "spread"
	StrategyDormant           = "dormant"
)

// AllStrategyNames lists every canonical strategy spawnable by a room,
// excluding the supplemental StrategyDormant (which is never a client's
// explicit choice — it is only ever used as roster filler).
var AllStrategyNames = []string{
	StrategyMomentum,
	StrategyMeanReversion,
	StrategyInformed,
	StrategyPartiallyInformed,
	StrategyLiquidity,
	StrategyRandom,
	StrategySpread,
}

// New constructs the named strategy over base with reasonable default
// tuning. Unknown names fall back to StrategyDormant rather than erroring,
// so a bad botSelection entry degrades to an inert seat instead of
// aborting room setup.
func New(name string, base *Base) Strategy {
	switch name {
	case StrategyMomentum:
		return NewMomentumBot(base)
	case StrategyMeanReversion:
		return NewMeanReversionBot(base)
	case StrategyInformed:
		return NewInformedBot(base)
	case StrategyPartiallyInformed:
		return NewPartiallyInformedBot(base)
	case StrategyLiquidity:
		return NewLiquidityBot(base, 0, 100, 0.01, 0.05)
	case StrategyRandom:
		return NewRandomBot(base)
	case StrategySpread:
		return NewSpreadBot(base, 0.01, 4*time.Second)
	default:
		return NewDormantBot(base)
	}
}
