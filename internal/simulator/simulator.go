// Package simulator drives one room's tick loop: it owns the price model,
// the order book, the bot roster, and the news/power factories, and fans
// price and clock updates out through a small set of observable callbacks.
package simulator

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/bullpen/server/internal/bots"
	"github.com/bullpen/server/internal/events"
	"github.com/bullpen/server/internal/matching"
	"github.com/bullpen/server/internal/participant"
	"github.com/bullpen/server/internal/priceengine"
	"github.com/bullpen/server/internal/prng"
)

const (
	clockTickInterval = time.Second
	tickInterval      = 200 * time.Millisecond

	// driftSegments / driftSpacingFloor govern when the simulator nudges
	// intrinsic value sparsely over the course of a game.
	driftSegments     = 10
	driftSpacingFloor = 8
	driftPct          = 0.05
)

// Config seeds a new Simulator.
type Config struct {
	RoomID           string
	Seed             int64
	OpeningPrice     float64
	VolatilityPct    float64 // percent, e.g. 5 means 5%
	GameDuration     time.Duration
	EnableRandomNews bool
	StartingCash     decimal.Decimal

	OnPrice       func(price float64)
	OnDebugPrices func(intrinsic, guide float64)
	OnClockTick   func(clock int)
	OnEnd         func()
	OnNews        func(title, description string, durationTicks, timestamp int)
	OnPowerOffer  func(offer []events.PowerDescriptor)
	OnPowerNotify func(clientID, title, description string)
}

// Simulator is the tick loop described by the component design: two
// independent timers (clockTick every second, tick every 200ms), bot
// polling with per-bot panic isolation, and an events.Bus fan-out that
// NewsFactory and PowerFactory subscribe to. It implements both
// bots.MarketView (what a strategy can observe) and events.Roster (who a
// power can act on).
type Simulator struct {
	mu sync.Mutex

	roomID string
	log    *logrus.Entry

	rng  *prng.RNG
	pe   *priceengine.Generator
	book *matching.Wrapper
	bus  *events.Bus
	news *events.NewsFactory
	pow  *events.PowerFactory

	participants  map[string]*participant.Participant
	botStrategies []bots.Strategy

	clock        int
	totalTime    time.Duration
	gameDuration time.Duration
	paused       bool
	ended        bool

	marketPrice    float64
	intrinsicValue float64
	priceHistory   []float64
	cachedSnapshot matching.Snapshot

	driftTimestamps []int
	nextDriftIdx    int

	onPrice       func(price float64)
	onDebugPrices func(intrinsic, guide float64)
	onClockTick   func(clock int)
	onEnd         func()

	clockTicker *time.Ticker
	tickTicker  *time.Ticker
	stop        chan struct{}
	wg          sync.WaitGroup

	// commands lets external callers (internal/room, handling an inbound
	// STOCK_ACTION/SHOCK/POWER_SELECT message on its own transport
	// goroutine) run a closure on the simulator's own goroutine, the only
	// place it is safe to touch the order book or price generator — both
	// have no internal locking of their own, by the same single-thread
	// design the tick loop itself relies on.
	commands chan func()
}

// New constructs a Simulator from cfg. The returned Simulator owns its own
// PriceGenerator, OrderBookWrapper, NewsFactory and PowerFactory; bots and
// human clients are added afterward via AddParticipant/AddBot, before Run
// is called.
func New(cfg Config) *Simulator {
	rng := prng.New(cfg.Seed)
	book := matching.NewWrapper()
	pe := priceengine.New(rng, priceengine.Config{
		IntrinsicValue:        cfg.OpeningPrice,
		GuidePrice:            cfg.OpeningPrice,
		Drift:                 0,
		Volatility:            cfg.VolatilityPct / 100,
		MeanReversionStrength: 0.1,
	})
	bus := events.NewBus()

	s := &Simulator{
		roomID:       cfg.RoomID,
		log:          logrus.WithField("room_id", cfg.RoomID),
		rng:            rng,
		pe:             pe,
		book:           book,
		bus:            bus,
		participants:   make(map[string]*participant.Participant),
		gameDuration:   cfg.GameDuration,
		marketPrice:    round2(cfg.OpeningPrice),
		intrinsicValue: round2(cfg.OpeningPrice),
		priceHistory:   pe.History(),
		onPrice:        cfg.OnPrice,
		onDebugPrices:  cfg.OnDebugPrices,
		onClockTick:    cfg.OnClockTick,
		onEnd:          cfg.OnEnd,
		stop:           make(chan struct{}),
		commands:       make(chan func(), 64),
	}

	gameDurationTicks := int(cfg.GameDuration / time.Second)
	s.driftTimestamps = computeDriftTimestamps(gameDurationTicks)

	s.news = events.NewNewsFactory(pe, rng, bus, cfg.EnableRandomNews, cfg.OnNews)
	s.pow = events.NewPowerFactory(pe, rng, bus, s.news, s, cfg.StartingCash, gameDurationTicks, cfg.OnPowerOffer, cfg.OnPowerNotify)

	return s
}

// round2 matches priceengine's own ceiling-to-2-decimals display rule, so
// the pre-first-tick cached price/intrinsic values use the same convention
// Tick() will use from then on.
func round2(x float64) float64 {
	return math.Ceil(x*100) / 100
}

// computeDriftTimestamps lays out roughly driftSegments timestamps (in
// clock ticks), at least driftSpacingFloor apart, stopping at least
// driftSpacingFloor before the game ends.
func computeDriftTimestamps(gameDurationTicks int) []int {
	last := gameDurationTicks - driftSpacingFloor
	if last <= driftSpacingFloor {
		return nil
	}
	span := last - driftSpacingFloor
	spacing := span / driftSegments
	if spacing < driftSpacingFloor {
		spacing = driftSpacingFloor
	}
	var out []int
	for t := driftSpacingFloor; t <= last && len(out) < driftSegments; t += spacing {
		out = append(out, t)
	}
	return out
}

// AddParticipant registers a human client's ledger with the order book and
// the power roster. Must be called before the participant places any
// order.
func (s *Simulator) AddParticipant(p *participant.Participant) {
	s.book.RegisterParticipant(p.ID(), p.OnFill)
	s.mu.Lock()
	s.participants[p.ID()] = p
	s.mu.Unlock()
}

// AddBot registers a bot's ledger the same way AddParticipant does, and
// adds its strategy to the roster polled every tick.
func (s *Simulator) AddBot(strategy bots.Strategy, p *participant.Participant) {
	s.AddParticipant(p)
	s.mu.Lock()
	s.botStrategies = append(s.botStrategies, strategy)
	s.mu.Unlock()
}

// RemoveParticipant drops a participant from the power roster (used when a
// client is permanently removed, past its reconnect grace period). Bots are
// never removed this way.
func (s *Simulator) RemoveParticipant(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.participants, id)
}

// Book exposes the underlying order book wrapper for direct order
// placement paths (human STOCK_ACTION handling lives in internal/room).
func (s *Simulator) Book() *matching.Wrapper { return s.book }

// Run starts both timers and blocks until ctx is cancelled or Stop is
// called.
func (s *Simulator) Run(ctx context.Context) {
	s.clockTicker = time.NewTicker(clockTickInterval)
	s.tickTicker = time.NewTicker(tickInterval)
	defer s.clockTicker.Stop()
	defer s.tickTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-s.clockTicker.C:
			s.handleClockTick()
		case <-s.tickTicker.C:
			s.handleTick()
		case fn := <-s.commands:
			fn()
		}
	}
}

// Stop ends the tick loop. Idempotent.
func (s *Simulator) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

// Submit runs fn on the simulator's own goroutine and blocks until it
// completes. internal/room uses this to place orders, apply admin shocks,
// and resolve power selections from its transport goroutines without
// racing the tick loop's direct access to the order book and price
// generator. Must not be called from within a closure already running via
// Submit or a callback this Simulator invoked — either would deadlock
// against Run's own single-threaded select loop.
func (s *Simulator) Submit(fn func()) {
	done := make(chan struct{})
	select {
	case s.commands <- func() { fn(); close(done) }:
	case <-s.stop:
		return
	}
	select {
	case <-done:
	case <-s.stop:
	}
}

// AdminShock applies an admin-triggered jolt to the intrinsic value or the
// guide price. Must run via Submit.
func (s *Simulator) AdminShock(target string) {
	switch target {
	case "intrinsic":
		s.pe.IntrinsicShock(s.rng.Float64()*0.1 - 0.05)
		s.mu.Lock()
		s.intrinsicValue = round2(s.pe.IntrinsicValue())
		s.mu.Unlock()
	case "market":
		s.pe.Shock(s.rng.Float64()*0.1-0.05, 10)
	}
}

func (s *Simulator) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Simulator) handleClockTick() {
	if s.isPaused() {
		return
	}

	s.mu.Lock()
	s.clock++
	s.totalTime += clockTickInterval
	clock := s.clock
	totalTime := s.totalTime
	s.mu.Unlock()

	if s.onClockTick != nil {
		s.onClockTick(clock)
	}
	s.bus.Publish(events.TopicClock, events.ClockEvent{Clock: clock})
	s.news.PumpClock()
	s.pow.PumpClock()

	if s.nextDriftIdx < len(s.driftTimestamps) && clock >= s.driftTimestamps[s.nextDriftIdx] {
		s.nextDriftIdx++
		s.pe.DriftIntrinsicValue(driftPct)
	}

	if totalTime >= s.gameDuration {
		s.mu.Lock()
		s.paused = true
		s.ended = true
		s.mu.Unlock()
		if s.onEnd != nil {
			s.onEnd()
		}
	}
}

func (s *Simulator) handleTick() {
	if s.isPaused() {
		return
	}

	snapshot := s.book.Snapshot()
	intrinsic, guide := s.pe.Tick()
	if s.onDebugPrices != nil {
		s.onDebugPrices(intrinsic, guide)
	}

	s.mu.Lock()
	s.cachedSnapshot = snapshot
	s.intrinsicValue = intrinsic
	s.priceHistory = s.pe.History()
	s.mu.Unlock()

	s.mu.Lock()
	strategies := append([]bots.Strategy(nil), s.botStrategies...)
	s.mu.Unlock()
	for _, strat := range strategies {
		s.pollBot(strat)
	}

	s.mu.Lock()
	changed := guide != s.marketPrice
	s.marketPrice = guide
	s.mu.Unlock()
	if changed && s.onPrice != nil {
		s.onPrice(guide)
	}
}

// pollBot isolates one bot's decision from the rest: a panicking strategy
// is logged and skipped, the tick loop continues for every other bot.
func (s *Simulator) pollBot(strat bots.Strategy) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("strategy", strat.Name()).Errorf("bot decision panicked: %v", r)
		}
	}()
	strat.MakeDecision(s)
	strat.ShouldCancelOrders(s)
}

// TogglePause flips the pause flag and returns the new state.
func (s *Simulator) TogglePause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = !s.paused
	return s.paused
}

func (s *Simulator) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Simulator) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

func (s *Simulator) Clock() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// -- bots.MarketView --

func (s *Simulator) CurrentPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marketPrice
}

func (s *Simulator) PriceHistory() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, len(s.priceHistory))
	copy(out, s.priceHistory)
	return out
}

func (s *Simulator) IntrinsicValue() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intrinsicValue
}

func (s *Simulator) Snapshot() matching.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cachedSnapshot
}

func (s *Simulator) BestBid() decimal.Decimal { return s.book.BestBid() }
func (s *Simulator) BestAsk() decimal.Decimal { return s.book.BestAsk() }

// -- events.Roster --

func (s *Simulator) Participant(id string) (events.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	if !ok {
		return nil, false
	}
	return p, true
}

func (s *Simulator) AllParticipants() []events.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	return out
}

func (s *Simulator) OtherParticipants(excludeID string) []events.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Participant, 0, len(s.participants))
	for id, p := range s.participants {
		if id != excludeID {
			out = append(out, p)
		}
	}
	return out
}

// Powers exposes the PowerFactory for POWER_SELECT/POWER_CONSUME handling
// in internal/room.
func (s *Simulator) Powers() *events.PowerFactory { return s.pow }

// News exposes the NewsFactory; internal/room needs it only for disposal.
func (s *Simulator) News() *events.NewsFactory { return s.news }
