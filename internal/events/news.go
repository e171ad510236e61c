package events

import (
	"strconv"

	"github.com/bullpen/server/internal/priceengine"
	"github.com/bullpen/server/internal/prng"
)

// NewsItem is a fire-and-forget scheduled event: created, broadcast, and
// retired once ticksElapsed reaches durationTicks. onStart/onTick/onEnd may
// mutate the room's PriceGenerator via closures captured at creation.
type NewsItem struct {
	ID            string
	Title         string
	Description   string
	DurationTicks int
	ticksElapsed  int
	exhausted     bool

	onStart func()
	onTick  func()
	onEnd   func()
}

func (n *NewsItem) Exhausted() bool { return n.exhausted }

// NewsDescriptor is a catalogue entry: a template NewsItem is instantiated
// from it each time random news fires.
type NewsDescriptor struct {
	ID            string
	Title         string
	Description   string
	DurationTicks int
	// Build constructs the onStart/onTick/onEnd closures for one firing,
	// given the room's price generator and PRNG.
	Build func(pe *priceengine.Generator, rng *prng.RNG) (onStart, onTick, onEnd func())
}

// NewsCatalogue is the fixed set of descriptors random news draws from.
var NewsCatalogue = []NewsDescriptor{
	{
		ID:          "earnings-beat",
		Title:       "Earnings beat expectations",
		Description: "Quarterly results came in well above analyst estimates.",
		Build: func(pe *priceengine.Generator, rng *prng.RNG) (func(), func(), func()) {
			return func() { pe.IntrinsicShock(0.03) }, nil, nil
		},
	},
	{
		ID:          "earnings-miss",
		Title:       "Earnings miss expectations",
		Description: "Quarterly results fell short of analyst estimates.",
		Build: func(pe *priceengine.Generator, rng *prng.RNG) (func(), func(), func()) {
			return func() { pe.IntrinsicShock(-0.03) }, nil, nil
		},
	},
	{
		ID:          "analyst-upgrade",
		Title:       "Analyst upgrade",
		Description: "A major bank raised its price target.",
		Build: func(pe *priceengine.Generator, rng *prng.RNG) (func(), func(), func()) {
			return func() { pe.Shock(0.02, 10) }, nil, nil
		},
	},
	{
		ID:          "analyst-downgrade",
		Title:       "Analyst downgrade",
		Description: "A major bank cut its rating.",
		Build: func(pe *priceengine.Generator, rng *prng.RNG) (func(), func(), func()) {
			return func() { pe.Shock(-0.02, 10) }, nil, nil
		},
	},
	{
		ID:          "sector-rotation",
		Title:       "Sector rotation",
		Description: "Capital is rotating in and out of this sector.",
		Build: func(pe *priceengine.Generator, rng *prng.RNG) (func(), func(), func()) {
			return func() { pe.Shock(rng.Float64()*0.04-0.02, 15) }, nil, nil
		},
	},
	{
		ID:          "macro-surprise",
		Title:       "Macro data surprise",
		Description: "An economic release moved markets broadly.",
		Build: func(pe *priceengine.Generator, rng *prng.RNG) (func(), func(), func()) {
			return func() { pe.Shock(rng.Float64()*0.06-0.03, 20) }, nil, nil
		},
	},
}

// NewsFactory periodically injects a random NewsItem, or fires one on
// demand (used by the rumor-mill power). Owned exclusively by the room's
// Simulator and driven from its tick goroutine.
type NewsFactory struct {
	pe  *priceengine.Generator
	rng *prng.RNG
	bus *Bus

	enabled bool

	clockTicks  chan Event
	unsubscribe func()

	nextFireAt int
	active     map[string]*NewsItem
	archive    map[string]*NewsItem

	onBroadcast func(title, description string, durationTicks, timestamp int)

	seq int
}

// NewNewsFactory subscribes to the bus's clock topic and schedules the
// first random-news firing if enabled.
func NewNewsFactory(pe *priceengine.Generator, rng *prng.RNG, bus *Bus, enabled bool, onBroadcast func(title, description string, durationTicks, timestamp int)) *NewsFactory {
	f := &NewsFactory{
		pe:          pe,
		rng:         rng,
		bus:         bus,
		enabled:     enabled,
		active:      make(map[string]*NewsItem),
		archive:     make(map[string]*NewsItem),
		onBroadcast: onBroadcast,
	}
	ch, unsub := bus.Subscribe(TopicClock)
	f.clockTicks = ch
	f.unsubscribe = unsub
	if enabled {
		f.scheduleNext(0)
	}
	return f
}

// scheduleNext draws the next random-news delay in [15, 45] seconds,
// expressed as clock ticks (clockTick fires every 1 s, so ticks == seconds).
func (f *NewsFactory) scheduleNext(fromClock int) {
	delay := 15 + int(f.rng.Float64()*30)
	f.nextFireAt = fromClock + delay
}

// PumpClock drains whatever clock events are currently buffered on this
// factory's subscription and processes them synchronously. It must be
// called from the Simulator's own tick goroutine, immediately after the
// Simulator publishes a ClockEvent — this keeps all mutation of the price
// generator on that single goroutine, rather than racing it from a
// separate reader goroutine owned by the bus.
func (f *NewsFactory) PumpClock() {
	for {
		select {
		case ev, ok := <-f.clockTicks:
			if !ok {
				return
			}
			ce, ok := ev.(ClockEvent)
			if !ok || ce.Paused {
				continue
			}
			f.onClockTick(ce.Clock)
		default:
			return
		}
	}
}

func (f *NewsFactory) onClockTick(clock int) {
	for id, item := range f.active {
		if item.exhausted {
			continue
		}
		item.ticksElapsed++
		if item.onTick != nil {
			item.onTick()
		}
		if item.ticksElapsed >= item.DurationTicks {
			item.exhausted = true
			if item.onEnd != nil {
				item.onEnd()
			}
			delete(f.active, id)
			f.archive[id] = item
		}
	}

	if f.enabled && clock >= f.nextFireAt {
		f.fireRandom(clock)
		f.scheduleNext(clock)
	}
}

func (f *NewsFactory) fireRandom(clock int) {
	d := NewsCatalogue[int(f.rng.Float64()*float64(len(NewsCatalogue)))]
	f.instantiate(d, clock)
}

// Fire instantiates the named descriptor immediately, regardless of
// scheduling — used by the rumor-mill power, which injects its own
// durationTicks=0 NewsItem outside the random-news cadence.
func (f *NewsFactory) Fire(id string, clock int, durationTicksOverride int, onStartOverride func()) {
	for _, d := range NewsCatalogue {
		if d.ID == id {
			f.instantiate(d, clock)
			return
		}
	}
	// Descriptor not in the catalogue (a power's synthetic, one-off item):
	// construct an ad hoc NewsItem directly.
	n := &NewsItem{
		ID:            f.nextID(),
		Title:         id,
		DurationTicks: durationTicksOverride,
		onStart:       onStartOverride,
	}
	f.start(n, clock)
}

func (f *NewsFactory) instantiate(d NewsDescriptor, clock int) {
	onStart, onTick, onEnd := d.Build(f.pe, f.rng)
	n := &NewsItem{
		ID:            f.nextID(),
		Title:         d.Title,
		Description:   d.Description,
		DurationTicks: d.DurationTicks,
		onStart:       onStart,
		onTick:        onTick,
		onEnd:         onEnd,
	}
	f.start(n, clock)
}

func (f *NewsFactory) start(n *NewsItem, clock int) {
	if n.onStart != nil {
		n.onStart()
	}
	if f.onBroadcast != nil {
		f.onBroadcast(n.Title, n.Description, n.DurationTicks, clock)
	}
	if n.DurationTicks <= 0 {
		n.exhausted = true
		if n.onEnd != nil {
			n.onEnd()
		}
		f.archive[n.ID] = n
		return
	}
	f.active[n.ID] = n
}

func (f *NewsFactory) nextID() string {
	f.seq++
	return "news-" + strconv.Itoa(f.seq)
}

// Close unsubscribes from the clock topic and fires onEnd for every item
// still active, so its invariant (onEnd runs exactly once even if the game
// ends mid-item) holds across room disposal too.
func (f *NewsFactory) Close() {
	f.unsubscribe()
	for id, item := range f.active {
		if !item.exhausted && item.onEnd != nil {
			item.onEnd()
		}
		item.exhausted = true
		delete(f.active, id)
		f.archive[id] = item
	}
}
