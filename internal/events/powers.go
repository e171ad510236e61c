package events

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bullpen/server/internal/priceengine"
	"github.com/bullpen/server/internal/prng"
)

// Participant is the subset of *participant.Participant a power needs to
// mutate. Kept as an interface so events never imports participant's
// concrete type and stays usable from tests with a stub.
type Participant interface {
	ID() string
	GrantCash(amount decimal.Decimal)
	SetTradingDisabled(disabled bool)
	ReleaseLockedBuys() int
}

// Roster is how a PowerFactory discovers who is currently playing, without
// owning the client list itself (the Room owns that).
type Roster interface {
	Participant(id string) (Participant, bool)
	AllParticipants() []Participant
	OtherParticipants(excludeID string) []Participant
}

// PowerDescriptor is a catalogue entry: a template from which a PowerInstance
// is built fresh each time a client selects it out of a briefcase offer.
type PowerDescriptor struct {
	ID            string
	Title         string
	Description   string
	Rarity        float64
	Type          string // client, all, market, others
	IsInstant     bool
	Price         decimal.Decimal
	DurationTicks int
	Build         func(pf *PowerFactory, initiatorID string) (onConsume, onTick, onEnd func())
}

// Power type values per the catalogue.
const (
	PowerTypeClient = "client"
	PowerTypeAll    = "all"
	PowerTypeMarket = "market"
	PowerTypeOthers = "others"
)

// PowerCatalogue is the fixed set of powers offered in briefcases: the five
// canonical entries plus two supplemental ones (margin-call, market-freeze)
// rounding out the "all" and a second "client" example.
var PowerCatalogue = []PowerDescriptor{
	{
		ID: "volatility-storm", Title: "Volatility storm",
		Description:   "Quadruples the market's volatility for a short window.",
		Rarity:        3, Type: PowerTypeMarket, DurationTicks: 20,
		Build: func(pf *PowerFactory, initiatorID string) (func(), func(), func()) {
			var prevVolatility float64
			onConsume := func() {
				prevVolatility = pf.pe.Volatility()
				next := prevVolatility * 4
				if next > 1 {
					next = 1
				}
				pf.pe.SetVolatility(next)
			}
			onEnd := func() { pf.pe.SetVolatility(prevVolatility) }
			return onConsume, nil, onEnd
		},
	},
	{
		ID: "rumor-mill", Title: "Rumor mill",
		Description:   "Plants a rumor that jolts the price with a one-off shock.",
		Rarity:        2, Type: PowerTypeMarket, DurationTicks: 0,
		Build: func(pf *PowerFactory, initiatorID string) (func(), func(), func()) {
			onConsume := func() {
				pf.news.Fire("rumor-mill-injected", pf.clock, 0, func() {
					pf.pe.Shock(pf.rng.Float64()*0.05, 10)
				})
			}
			return onConsume, nil, nil
		},
	},
	{
		ID: "cash-heritage", Title: "Cash heritage",
		Description:   "An unexpected inheritance lands in your account.",
		Rarity:        4, Type: PowerTypeClient, IsInstant: true, DurationTicks: 0,
		Build: func(pf *PowerFactory, initiatorID string) (func(), func(), func()) {
			onConsume := func() {
				p, ok := pf.roster.Participant(initiatorID)
				if !ok {
					return
				}
				grant := decimal.NewFromInt(1000).Add(
					pf.startingCash.Mul(decimal.NewFromFloat(pf.rng.Float64())).Floor(),
				)
				p.GrantCash(grant)
				if pf.onNotify != nil {
					for _, other := range pf.roster.AllParticipants() {
						pf.onNotify(other.ID(), "Cash heritage", initiatorID+" received a cash inheritance")
					}
				}
			}
			return onConsume, nil, nil
		},
	},
	{
		ID: "the-homeless-gift", Title: "The homeless gift",
		Description:   "A small, quiet kindness.",
		Rarity:        1, Type: PowerTypeClient, IsInstant: true, DurationTicks: 0,
		Build: func(pf *PowerFactory, initiatorID string) (func(), func(), func()) {
			onConsume := func() {
				p, ok := pf.roster.Participant(initiatorID)
				if !ok {
					return
				}
				p.GrantCash(decimal.NewFromInt(1))
				if pf.onNotify != nil {
					pf.onNotify(initiatorID, "The homeless gift", "You received $1")
				}
			}
			return onConsume, nil, nil
		},
	},
	{
		ID: "the-hacker-ddos", Title: "The hacker's DDoS",
		Description:   "Floods every other client's connection, locking out their trading.",
		Rarity:        5, Type: PowerTypeOthers, DurationTicks: 15,
		Build: func(pf *PowerFactory, initiatorID string) (func(), func(), func()) {
			onConsume := func() {
				for _, other := range pf.roster.OtherParticipants(initiatorID) {
					other.SetTradingDisabled(true)
				}
			}
			onEnd := func() {
				for _, other := range pf.roster.OtherParticipants(initiatorID) {
					other.SetTradingDisabled(false)
					if pf.onNotify != nil {
						pf.onNotify(other.ID(), "DDoS cleared", "Trading has been restored")
					}
				}
			}
			return onConsume, nil, onEnd
		},
	},
	{
		ID: "margin-call", Title: "Margin call",
		Description:   "Your broker pulls every resting buy order back to cash.",
		Rarity:        3, Type: PowerTypeClient, IsInstant: true, DurationTicks: 0,
		Build: func(pf *PowerFactory, initiatorID string) (func(), func(), func()) {
			onConsume := func() {
				p, ok := pf.roster.Participant(initiatorID)
				if !ok {
					return
				}
				p.ReleaseLockedBuys()
			}
			return onConsume, nil, nil
		},
	},
	{
		ID: "market-freeze", Title: "Market freeze",
		Description:   "Halts trading for everyone in the room, initiator included.",
		Rarity:        6, Type: PowerTypeAll, DurationTicks: 10,
		Build: func(pf *PowerFactory, initiatorID string) (func(), func(), func()) {
			onConsume := func() {
				for _, p := range pf.roster.AllParticipants() {
					p.SetTradingDisabled(true)
				}
			}
			onEnd := func() {
				for _, p := range pf.roster.AllParticipants() {
					p.SetTradingDisabled(false)
				}
			}
			return onConsume, nil, onEnd
		},
	},
}

// PowerInstance is one consumable copy of a descriptor, minted with its own
// uuid when a client selects it from a briefcase offer.
type PowerInstance struct {
	UUID         uuid.UUID
	Descriptor   PowerDescriptor
	InitiatorID  string
	ticksElapsed int

	onConsume func()
	onTick    func()
	onEnd     func()
	consumed  bool
}

// PowerFactory runs the briefcase/inventory/active-power lifecycle for one
// room. Owned exclusively by the Simulator and driven from its own tick
// goroutine via PumpClock, matching NewsFactory's concurrency contract.
type PowerFactory struct {
	pe   *priceengine.Generator
	rng  *prng.RNG
	bus  *Bus
	news *NewsFactory

	roster       Roster
	startingCash decimal.Decimal

	clockTicks  chan Event
	unsubscribe func()
	clock       int

	briefcaseTimestamps []int
	nextTimestampIdx    int

	pendingOffer []PowerDescriptor
	inventory    map[string][]*PowerInstance
	active       []*PowerInstance

	onOffer  func(offer []PowerDescriptor)
	onNotify func(clientID, title, description string)
}

// NewPowerFactory computes the room's briefcase schedule and subscribes to
// the clock topic. gameDurationTicks is the game's total duration expressed
// in clock ticks (clockTick fires once per second, so ticks == seconds).
func NewPowerFactory(
	pe *priceengine.Generator,
	rng *prng.RNG,
	bus *Bus,
	news *NewsFactory,
	roster Roster,
	startingCash decimal.Decimal,
	gameDurationTicks int,
	onOffer func(offer []PowerDescriptor),
	onNotify func(clientID, title, description string),
) *PowerFactory {
	f := &PowerFactory{
		pe:           pe,
		rng:          rng,
		bus:          bus,
		news:         news,
		roster:       roster,
		startingCash: startingCash,
		inventory:    make(map[string][]*PowerInstance),
		onOffer:      onOffer,
		onNotify:     onNotify,
	}
	f.briefcaseTimestamps = computeBriefcaseTimestamps(gameDurationTicks)
	ch, unsub := bus.Subscribe(TopicClock)
	f.clockTicks = ch
	f.unsubscribe = unsub
	return f
}

// computeBriefcaseTimestamps lays out up to 8 timestamps (in clock ticks),
// spaced at least 10 apart, ending at least 10 before gameDurationTicks.
func computeBriefcaseTimestamps(gameDurationTicks int) []int {
	const count = 8
	const spacingFloor = 10
	last := gameDurationTicks - spacingFloor
	if last <= spacingFloor {
		return nil
	}
	span := last - spacingFloor
	spacing := span / count
	if spacing < spacingFloor {
		spacing = spacingFloor
	}
	var out []int
	for t := spacingFloor; t <= last && len(out) < count; t += spacing {
		out = append(out, t)
	}
	return out
}

// PumpClock drains this factory's buffered clock events and processes them
// synchronously, exactly like NewsFactory.PumpClock — must run on the
// Simulator's own tick goroutine.
func (f *PowerFactory) PumpClock() {
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

func (f *PowerFactory) onClockTick(clock int) {
	f.clock = clock

	remaining := f.active[:0]
	for _, inst := range f.active {
		inst.ticksElapsed++
		if inst.onTick != nil {
			inst.onTick()
		}
		if inst.ticksElapsed >= inst.Descriptor.DurationTicks {
			if inst.onEnd != nil {
				inst.onEnd()
			}
			continue
		}
		remaining = append(remaining, inst)
	}
	f.active = remaining

	if f.nextTimestampIdx < len(f.briefcaseTimestamps) && clock >= f.briefcaseTimestamps[f.nextTimestampIdx] {
		f.nextTimestampIdx++
		f.dealOffer()
	}
}

func (f *PowerFactory) dealOffer() {
	weights := make([]float64, len(PowerCatalogue))
	for i, d := range PowerCatalogue {
		weights[i] = 1.0 / d.Rarity
	}
	picks := f.rng.WeightedSampleWithoutReplacement(weights, 3)
	offer := make([]PowerDescriptor, len(picks))
	for i, idx := range picks {
		offer[i] = PowerCatalogue[idx]
	}
	f.pendingOffer = offer
	if f.onOffer != nil {
		f.onOffer(offer)
	}
}

// Select handles a client's POWER_SELECT(index) response to the currently
// open briefcase offer. Instant powers consume immediately and are
// discarded; others are appended to the client's inventory.
func (f *PowerFactory) Select(clientID string, index int) bool {
	if index < 0 || index >= len(f.pendingOffer) {
		return false
	}
	d := f.pendingOffer[index]
	onConsume, onTick, onEnd := d.Build(f, clientID)
	inst := &PowerInstance{
		UUID:        uuid.New(),
		Descriptor:  d,
		InitiatorID: clientID,
		onConsume:   onConsume,
		onTick:      onTick,
		onEnd:       onEnd,
	}
	if d.IsInstant {
		f.consume(inst)
		return true
	}
	f.inventory[clientID] = append(f.inventory[clientID], inst)
	return true
}

// Consume handles a client's POWER_CONSUME(id) for an item already in its
// inventory.
func (f *PowerFactory) Consume(clientID string, powerUUID uuid.UUID) bool {
	inv := f.inventory[clientID]
	for i, inst := range inv {
		if inst.UUID == powerUUID {
			f.inventory[clientID] = append(inv[:i], inv[i+1:]...)
			f.consume(inst)
			return true
		}
	}
	return false
}

func (f *PowerFactory) consume(inst *PowerInstance) {
	inst.consumed = true
	if inst.onConsume != nil {
		inst.onConsume()
	}
	if inst.Descriptor.DurationTicks > 0 {
		f.active = append(f.active, inst)
	}
}

// Inventory returns a client's current unconsumed power instances.
func (f *PowerFactory) Inventory(clientID string) []*PowerInstance {
	return f.inventory[clientID]
}

// Close unsubscribes from the clock topic and fires onEnd for every power
// still active, preserving the invariant that onEnd runs exactly once even
// when the room is disposed mid-power.
func (f *PowerFactory) Close() {
	f.unsubscribe()
	for _, inst := range f.active {
		if inst.onEnd != nil {
			inst.onEnd()
		}
	}
	f.active = nil
}
