// Package priceengine implements a guide-price / intrinsic-value random
// walk: a slowly drifting "true" price (intrinsic) and a noisy guide price
// that mean-reverts toward it, perturbed by transient shocks. Informed bots
// trade on intrinsic; everyone else only ever observes the guide price.
package priceengine

import (
	"math"

	"github.com/bullpen/server/internal/prng"
)

const (
	// historyCap bounds the rolling guide-price sample window.
	historyCap = 20
	// minPrice is the absolute floor for both intrinsic and guide prices.
	minPrice = 0.01
	// deltaT is the GBM time step per tick. The model always advances one
	// tick at a time, so this is a constant, not a parameter.
	deltaT = 1.0
)

// ShockState is a transient additive drift term applied for a bounded
// number of ticks.
type ShockState struct {
	Intensity     float64
	TicksRemaining int
}

// Generator produces the (intrinsicValue, guidePrice) sequence for one
// room. It is owned exclusively by that room's Simulator and mutated only
// from the simulator's tick goroutine — no internal locking.
type Generator struct {
	rng *prng.RNG

	intrinsicValue float64
	guidePrice     float64

	drift                 float64
	volatility            float64
	meanReversionStrength float64

	shock *ShockState

	history []float64
}

// Config seeds a new Generator.
type Config struct {
	IntrinsicValue        float64
	GuidePrice            float64
	Drift                 float64
	Volatility            float64
	MeanReversionStrength float64
}

// New creates a Generator. Both prices are clamped to minPrice on entry.
func New(rng *prng.RNG, cfg Config) *Generator {
	g := &Generator{
		rng:                   rng,
		intrinsicValue:        clamp(cfg.IntrinsicValue),
		guidePrice:            clamp(cfg.GuidePrice),
		drift:                 cfg.Drift,
		volatility:            cfg.Volatility,
		meanReversionStrength: cfg.MeanReversionStrength,
	}
	g.history = append(g.history, g.guidePrice)
	return g
}

func clamp(p float64) float64 {
	if p < minPrice {
		return minPrice
	}
	return p
}

// round applies the ceiling-to-2-decimals display rule: round(x) = ceil(100x)/100.
func round(x float64) float64 {
	return math.Ceil(x*100) / 100
}

// Tick advances the model by one step: decay any active shock, compute a
// mean-reversion force pulling the guide price back toward intrinsic, draw
// a Gaussian shock for the GBM log-return, and clamp the new guide price to
// the floor. Returns the rounded (intrinsicValue, guidePrice) pair.
func (g *Generator) Tick() (intrinsic, guide float64) {
	shockContribution := 0.0
	if g.shock != nil && g.shock.TicksRemaining > 0 {
		shockContribution = g.shock.Intensity
		g.shock.TicksRemaining--
		if g.shock.TicksRemaining <= 0 {
			g.shock = nil
		}
	}

	reversionForce := -((g.guidePrice - g.intrinsicValue) / g.intrinsicValue) * g.meanReversionStrength
	totalDrift := g.drift + shockContribution + reversionForce

	z := g.rng.Gaussian()

	logReturn := (totalDrift-0.5*g.volatility*g.volatility)*deltaT + g.volatility*math.Sqrt(deltaT)*z
	g.guidePrice = clamp(g.guidePrice * math.Exp(logReturn))

	g.history = append(g.history, g.guidePrice)
	if len(g.history) > historyCap {
		g.history = g.history[len(g.history)-historyCap:]
	}

	return round(g.intrinsicValue), round(g.guidePrice)
}

// Shock sets (replacing any existing) a transient additive drift
// contribution applied over the next duration ticks. intensity is a
// fractional per-tick drift; callers reasoning in other units (e.g. a power
// describing "4x volatility") must convert before calling Shock.
func (g *Generator) Shock(intensity float64, duration int) {
	if duration <= 0 {
		duration = 10
	}
	g.shock = &ShockState{Intensity: intensity, TicksRemaining: duration}
}

// IntrinsicShock represents a fundamental repricing: intrinsicValue *= (1+pct).
func (g *Generator) IntrinsicShock(pct float64) {
	g.intrinsicValue = math.Max(minPrice, g.intrinsicValue*(1+pct))
}

// DriftIntrinsicValue applies (1 ± pct) with a PRNG-chosen sign. Called
// sparsely by the simulator at precomputed timestamps.
func (g *Generator) DriftIntrinsicValue(pct float64) {
	sign := 1.0
	if g.rng.Float64() < 0.5 {
		sign = -1.0
	}
	g.intrinsicValue = math.Max(minPrice, g.intrinsicValue*(1+sign*pct))
}

// IntrinsicValue returns the current unrounded intrinsic value.
func (g *Generator) IntrinsicValue() float64 { return g.intrinsicValue }

// GuidePrice returns the current unrounded guide price. Never reassigned
// directly by client or bot fills — only Tick's mean-reversion term pulls
// it back toward intrinsic.
func (g *Generator) GuidePrice() float64 { return g.guidePrice }

// History returns a copy of the bounded guide-price sample window, oldest
// first.
func (g *Generator) History() []float64 {
	out := make([]float64, len(g.history))
	copy(out, g.history)
	return out
}

// HasShock reports whether a shock is currently active.
func (g *Generator) HasShock() bool { return g.shock != nil }

// Volatility returns the current per-tick volatility parameter.
func (g *Generator) Volatility() float64 { return g.volatility }

// SetVolatility overwrites the volatility parameter — used by the
// volatility-storm power to temporarily widen the random walk.
func (g *Generator) SetVolatility(v float64) { g.volatility = v }
