package events

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bullpen/server/internal/prng"
)

type fakeParticipant struct {
	id              string
	cash            decimal.Decimal
	tradingDisabled bool
	releasedBuys    int
}

func (p *fakeParticipant) ID() string { return p.id }
func (p *fakeParticipant) GrantCash(amount decimal.Decimal) { p.cash = p.cash.Add(amount) }
func (p *fakeParticipant) SetTradingDisabled(disabled bool) { p.tradingDisabled = disabled }
func (p *fakeParticipant) ReleaseLockedBuys() int {
	p.releasedBuys++
	return p.releasedBuys
}

type fakeRoster struct {
	byID map[string]*fakeParticipant
}

func newFakeRoster(ids ...string) *fakeRoster {
	r := &fakeRoster{byID: make(map[string]*fakeParticipant)}
	for _, id := range ids {
		r.byID[id] = &fakeParticipant{id: id}
	}
	return r
}

func (r *fakeRoster) Participant(id string) (Participant, bool) {
	p, ok := r.byID[id]
	return p, ok
}

func (r *fakeRoster) AllParticipants() []Participant {
	out := make([]Participant, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out
}

func (r *fakeRoster) OtherParticipants(excludeID string) []Participant {
	out := make([]Participant, 0, len(r.byID))
	for id, p := range r.byID {
		if id != excludeID {
			out = append(out, p)
		}
	}
	return out
}

func newPowerFactoryForTest(roster *fakeRoster, gameDurationTicks int) (*PowerFactory, *Bus) {
	pe := newGenerator(10)
	rng := prng.New(10)
	bus := NewBus()
	news := NewNewsFactory(pe, rng, bus, false, nil)
	pf := NewPowerFactory(pe, rng, bus, news, roster, decimal.NewFromInt(10_000), gameDurationTicks, nil, nil)
	return pf, bus
}

func TestBriefcaseOfferDescriptorsPairwiseDistinct(t *testing.T) {
	roster := newFakeRoster("a")
	pf, _ := newPowerFactoryForTest(roster, 300)

	pf.dealOffer()
	if len(pf.pendingOffer) != 3 {
		t.Fatalf("expected 3 descriptors in offer, got %d", len(pf.pendingOffer))
	}
	seen := make(map[string]bool)
	for _, d := range pf.pendingOffer {
		if seen[d.ID] {
			t.Fatalf("duplicate descriptor %s in a single briefcase offer", d.ID)
		}
		seen[d.ID] = true
	}
}

func TestInstantPowerConsumesImmediatelyAndNeverReachesInventory(t *testing.T) {
	roster := newFakeRoster("a")
	pf, _ := newPowerFactoryForTest(roster, 300)
	pf.pendingOffer = []PowerDescriptor{mustFind("cash-heritage")}

	before := roster.byID["a"].cash
	if !pf.Select("a", 0) {
		t.Fatal("expected Select to succeed")
	}
	if len(pf.inventory["a"]) != 0 {
		t.Fatal("instant power must not be added to inventory")
	}
	if !roster.byID["a"].cash.GreaterThan(before) {
		t.Fatal("expected cash-heritage to grant cash immediately")
	}
}

func TestNonInstantPowerGoesToInventoryUntilConsumed(t *testing.T) {
	roster := newFakeRoster("a", "b")
	pf, _ := newPowerFactoryForTest(roster, 300)
	pf.pendingOffer = []PowerDescriptor{mustFind("the-hacker-ddos")}

	pf.Select("a", 0)
	inv := pf.Inventory("a")
	if len(inv) != 1 {
		t.Fatalf("expected 1 pending inventory item, got %d", len(inv))
	}
	if roster.byID["b"].tradingDisabled {
		t.Fatal("power must not take effect before POWER_CONSUME")
	}

	pf.Consume("a", inv[0].UUID)
	if !roster.byID["b"].tradingDisabled {
		t.Fatal("expected the-hacker-ddos to disable other clients on consume")
	}
	if len(pf.Inventory("a")) != 0 {
		t.Fatal("expected item removed from inventory after consume")
	}
}

func TestDDosOnEndRestoresTradingExactlyOnce(t *testing.T) {
	roster := newFakeRoster("a", "b")
	pf, bus := newPowerFactoryForTest(roster, 300)
	pf.pendingOffer = []PowerDescriptor{mustFind("the-hacker-ddos")}

	pf.Select("a", 0)
	pf.Consume("a", pf.inventory["a"][0].UUID)
	if !roster.byID["b"].tradingDisabled {
		t.Fatal("expected ddos to disable b")
	}

	for clock := 1; clock <= 15; clock++ {
		bus.Publish(TopicClock, ClockEvent{Clock: clock})
		pf.PumpClock()
	}

	if roster.byID["b"].tradingDisabled {
		t.Fatal("expected trading restored after duration elapses")
	}
	if len(pf.active) != 0 {
		t.Fatal("expected power removed from active set once its onEnd has fired")
	}
}

func TestClosePreservesOnEndInvariantMidPower(t *testing.T) {
	roster := newFakeRoster("a", "b")
	pf, _ := newPowerFactoryForTest(roster, 300)
	pf.pendingOffer = []PowerDescriptor{mustFind("the-hacker-ddos")}

	pf.Select("a", 0)
	pf.Consume("a", pf.inventory["a"][0].UUID)
	if !roster.byID["b"].tradingDisabled {
		t.Fatal("expected ddos to disable b")
	}

	pf.Close()
	if roster.byID["b"].tradingDisabled {
		t.Fatal("expected Close to fire onEnd for an active power before the game naturally ends it")
	}
}

func TestMarginCallReleasesLockedBuys(t *testing.T) {
	roster := newFakeRoster("a")
	pf, _ := newPowerFactoryForTest(roster, 300)
	pf.pendingOffer = []PowerDescriptor{mustFind("margin-call")}

	pf.Select("a", 0)
	if roster.byID["a"].releasedBuys == 0 {
		t.Fatal("expected margin-call to release locked buys on the initiator")
	}
}

func mustFind(id string) PowerDescriptor {
	for _, d := range PowerCatalogue {
		if d.ID == id {
			return d
		}
	}
	panic("descriptor not found: " + id)
}
