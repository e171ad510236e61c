// Package room implements one game's orchestration: it owns the Simulator
// and its client roster, and fans the Simulator's observable callbacks back
// out to every connected client as wire messages.
//
// AddClient/RemoveClient/HandleInbound are expected to be called from a
// single per-room dispatcher goroutine — internal/transport's job, not this
// package's — per the single-logical-thread model: "the transport layer
// delivers inbound messages that must be serialised onto the same logical
// thread before they touch room state." The only concurrency a Room itself
// defends against is its own Simulator's independent tick goroutine, which
// is why every order/shock/power mutation below is wrapped in
// Simulator.Submit rather than called directly.
package room

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/bullpen/server/internal/bots"
	"github.com/bullpen/server/internal/events"
	"github.com/bullpen/server/internal/matching"
	"github.com/bullpen/server/internal/metrics"
	"github.com/bullpen/server/internal/participant"
	"github.com/bullpen/server/internal/prng"
	"github.com/bullpen/server/internal/simulator"
	"github.com/bullpen/server/internal/wire"
)

// disconnectGrace is how long a disconnected client's seat, cash and
// shares are preserved before the client is permanently removed.
const disconnectGrace = 60 * time.Second

// Transport is how a Room talks to one connected client, independent of
// the underlying connection.
type Transport interface {
	Send(data []byte) error
	Close() error
}

type client struct {
	id        string
	username  string
	transport Transport
	spectator bool

	participant *participant.Participant

	graceTimer *time.Timer
}

// Room owns one game. All mutation of its client roster happens under mu;
// everything that touches the order book or price generator is relayed to
// the Simulator's own goroutine via Submit so two transport goroutines (or
// a transport goroutine racing the tick loop) never touch that unlocked
// state concurrently.
type Room struct {
	mu sync.Mutex

	id       string
	settings wire.GameSettings
	log      *logrus.Entry

	clients map[string]*client
	order   []string
	adminID string

	bots []string // participant ids of spawned bots, for GAME_CONCLUSION

	sim    *simulator.Simulator
	selRng *prng.RNG
	cancel context.CancelFunc

	started  bool
	ended    bool
	disposed bool

	// onEmpty is called once the last client has been permanently removed,
	// so a registry can drop its reference to this Room.
	onEmpty func(roomID string)

	recorder Recorder
}

// GameSummary is everything about a finished game worth persisting to a
// non-authoritative analytics sink. It deliberately mirrors
// GameConclusionMsg rather than the other way around: the wire message
// is what players see live, the summary is what gets written down.
type GameSummary struct {
	RoomID       string
	Players      []wire.PlayerResult
	Bots         []wire.PlayerResult
	VolumeTraded float64
	HighestPrice float64
	LowestPrice  float64
}

// Recorder persists a GameSummary once a room concludes. Room never
// imports internal/history directly so the dependency runs the other
// way: history.Store and any other sink implement this interface.
type Recorder interface {
	RecordGame(GameSummary)
}

// SetRecorder attaches rec so handleSimulatorEnd records exactly one
// GameSummary when the game concludes. A nil rec (the default) makes
// recording a no-op.
func (r *Room) SetRecorder(rec Recorder) {
	r.mu.Lock()
	r.recorder = rec
	r.mu.Unlock()
}

// New constructs a Room with the given settings (merged over defaults and
// clamped) and starts its Simulator, paused, awaiting the first
// TogglePause.
func New(id string, settings wire.GameSettings, onEmpty func(roomID string)) *Room {
	r := &Room{
		id:      id,
		log:     logrus.WithField("room_id", id),
		clients: make(map[string]*client),
		onEmpty: onEmpty,
	}
	r.settings = clampSettings(settings)
	r.buildSimulator()
	return r
}

// clampSettings applies the documented bounds to a candidate settings
// value, independent of whatever the caller supplied.
func clampSettings(s wire.GameSettings) wire.GameSettings {
	if s.Bots < 0 {
		s.Bots = 0
	}
	if s.Bots > 50 {
		s.Bots = 50
	}

	frac := s.MarketVolatility / 100
	if frac < 0.001 {
		frac = 0.001
	}
	if frac > 1 {
		frac = 1
	}
	s.MarketVolatility = frac * 100

	if s.StartingCash < 0 {
		s.StartingCash = 0
	}
	if s.StartingCash > 999_999_999 {
		s.StartingCash = 999_999_999
	}

	if s.GameDuration < 1 {
		s.GameDuration = 1
	}
	if s.GameDuration > 60 {
		s.GameDuration = 60
	}

	if s.OpeningPrice < 0.01 {
		s.OpeningPrice = 0.01
	}
	if s.OpeningPrice > 10_000 {
		s.OpeningPrice = 10_000
	}

	if s.TicketName == "" {
		s.TicketName = "AAPL"
	}
	return s
}

// buildSimulator (re)constructs the Simulator, its bot roster, and the
// room's own bot-selection PRNG from the room's current settings, then
// starts it paused and running. Any previously running Simulator must
// already have been stopped by the caller.
func (r *Room) buildSimulator() {
	r.selRng = prng.New(r.settings.Seed ^ 0x5a5a5a5a)

	cfg := simulator.Config{
		RoomID:           r.id,
		Seed:             r.settings.Seed,
		OpeningPrice:     r.settings.OpeningPrice,
		VolatilityPct:    r.settings.MarketVolatility,
		GameDuration:     time.Duration(r.settings.GameDuration * float64(time.Minute)),
		EnableRandomNews: r.settings.EnableRandomNews,
		StartingCash:     decimal.NewFromFloat(r.settings.StartingCash),

		OnPrice:       r.broadcastPrice,
		OnDebugPrices: r.broadcastDebugPrices,
		OnClockTick:   r.broadcastClock,
		OnEnd:         r.handleSimulatorEnd,
		OnNews:        r.broadcastNews,
		OnPowerOffer:  r.broadcastPowerOffer,
		OnPowerNotify: r.notifyClient,
	}
	sim := simulator.New(cfg)

	r.bots = nil
	selection := r.settings.BotSelection
	if len(selection) == 0 {
		selection = bots.AllStrategyNames
	}
	for i := 0; i < r.settings.Bots; i++ {
		name := selection[int(r.selRng.Float64()*float64(len(selection)))]
		id := fmt.Sprintf("bot-%d", i+1)
		p := participant.New(id, name, decimal.NewFromFloat(r.settings.StartingCash), 0, sim.Book())
		sim.Book().RegisterParticipant(id, p.OnFill)
		strategy := bots.New(name, bots.NewBase(p, name, 10, 1.0, prng.New(r.settings.Seed^int64(i+1))))
		sim.AddBot(strategy, p)
		r.bots = append(r.bots, id)
	}

	// Force-pause: a fresh Simulator starts unpaused so Run would begin
	// advancing the clock immediately. The game only starts once an admin
	// calls TogglePause for the first time (see togglePause below).
	sim.TogglePause()

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.sim = sim
	go sim.Run(ctx)
}

// -- client lifecycle --

// AddClient attaches transport under id/username. If id already has a
// seat (a reconnect within the grace period, or a fresh join racing a
// duplicate id), it is treated as a reconnect: the new transport replaces
// whatever was there and the client receives a full resync. Otherwise a
// new seat is created, with the first-ever client becoming admin.
func (r *Room) AddClient(id, username string, transport Transport) {
	r.mu.Lock()
	c, reconnecting := r.clients[id]
	if reconnecting {
		if c.graceTimer != nil {
			c.graceTimer.Stop()
			c.graceTimer = nil
		}
		c.transport = transport
		c.username = username
	} else {
		c = &client{id: id, username: username, transport: transport}
		c.participant = participant.New(id, username, decimal.NewFromFloat(r.settings.StartingCash), 0, r.sim.Book())
		r.sim.AddParticipant(c.participant)
		r.clients[id] = c
		r.order = append(r.order, id)
		if r.adminID == "" {
			r.adminID = id
		}
	}
	isAdmin := r.adminID == id
	r.mu.Unlock()

	transport.Send(mustEncode(wire.NewID(id)))
	if isAdmin {
		transport.Send(mustEncode(wire.NewIsAdmin()))
	}
	r.sendResync(c)

	if !reconnecting {
		r.broadcast(wire.NewJoin(r.id, id, username))
	}
}

// RemoveClient detaches a client's transport and starts its disconnect
// grace period. If the grace period elapses without a reconnect, the seat
// is permanently removed; if the room is then empty, onEmpty fires.
func (r *Room) RemoveClient(id string) {
	r.mu.Lock()
	c, ok := r.clients[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	c.transport = nil
	c.graceTimer = time.AfterFunc(disconnectGrace, func() { r.expireClient(id) })
	r.mu.Unlock()
}

func (r *Room) expireClient(id string) {
	r.mu.Lock()
	c, ok := r.clients[id]
	if !ok || c.transport != nil {
		r.mu.Unlock()
		return
	}
	delete(r.clients, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	promoted := ""
	if r.adminID == id && len(r.order) > 0 {
		r.adminID = r.order[0]
		promoted = r.adminID
	}
	empty := len(r.clients) == 0
	r.mu.Unlock()

	r.sim.RemoveParticipant(id)
	r.broadcast(wire.NewLeave(r.id, id))
	if promoted != "" {
		r.sendTo(promoted, wire.NewIsAdmin())
	}
	if empty && r.onEmpty != nil {
		r.onEmpty(r.id)
	}
}

// sendResync pushes the full room-state/portfolio/inventory snapshot a
// newly (re)connected client needs.
func (r *Room) sendResync(c *client) {
	r.mu.Lock()
	clients := make([]wire.ClientView, 0, len(r.clients))
	for _, id := range r.order {
		cc := r.clients[id]
		clients = append(clients, wire.ClientView{ID: cc.id, Username: cc.username, IsAdmin: cc.id == r.adminID})
	}
	settings := r.settings
	started := r.started
	ended := r.ended
	r.mu.Unlock()

	price := r.sim.CurrentPrice()
	paused := r.sim.Paused()
	clock := r.sim.Clock()

	c.transport.Send(mustEncode(wire.NewRoomState(paused, started, ended, settings, r.id, clock, clients, price)))
	r.pushPortfolio(c)
	r.pushInventory(c)
}

// -- inbound message dispatch --

// HandleInbound decodes and dispatches one client message. Unknown or
// malformed messages are dropped silently (protocol errors, per the
// documented error taxonomy).
func (r *Room) HandleInbound(clientID string, data []byte) {
	in, err := wire.Decode(data)
	if err != nil {
		r.log.WithField("client_id", clientID).Debugf("dropping malformed message: %v", err)
		return
	}

	switch in.Type {
	case wire.TagTogglePause:
		r.handleTogglePause(clientID)
	case wire.TagStockAction:
		r.handleStockAction(clientID, in)
	case wire.TagMessage:
		r.broadcast(wire.NewChat(r.id, clientID, in.Content))
	case wire.TagShock:
		r.handleShock(clientID, in.Target)
	case wire.TagAdminSettings:
		r.handleAdminSettings(clientID, in.Settings)
	case wire.TagPowerSelect:
		r.handlePowerSelect(clientID, in.Index)
	case wire.TagPowerConsume:
		r.handlePowerConsume(clientID, in.ID)
	case wire.TagPing:
		r.sendTo(clientID, wire.NewPong())
	default:
		r.log.WithField("client_id", clientID).Debugf("unhandled message type %d", in.Type)
	}
}

func (r *Room) isAdmin(clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.adminID == clientID
}

// handleTogglePause implements the admin-only/self-correcting-echo
// authorisation rule: a non-admin sender gets its own toggle echoed back
// so its UI can self-correct, rather than an error.
func (r *Room) handleTogglePause(clientID string) {
	if !r.isAdmin(clientID) {
		r.sendTo(clientID, wire.TogglePauseMsg{Type: wire.TagTogglePause, Paused: r.sim.Paused()})
		return
	}

	paused := r.sim.TogglePause()
	if !paused {
		r.mu.Lock()
		r.started = true
		r.mu.Unlock()
	}
	r.broadcast(wire.TogglePauseMsg{Type: wire.TagTogglePause, Paused: paused})
}

func (r *Room) handleStockAction(clientID string, in wire.Inbound) {
	r.mu.Lock()
	c, ok := r.clients[clientID]
	r.mu.Unlock()
	if !ok || in.Quantity <= 0 {
		return
	}

	kind := matching.KindLimit
	if in.OrderType == "MARKET" {
		kind = matching.KindMarket
	}

	var placed bool
	r.sim.Submit(func() {
		price := decimal.NewFromFloat(in.Price)
		switch in.Action {
		case "BUY":
			if kind == matching.KindMarket {
				price = r.sim.Book().BestAsk()
				if !price.IsPositive() {
					price = decimal.NewFromFloat(r.sim.CurrentPrice())
				}
			}
			placed = c.participant.PlaceBuy(price, in.Quantity, kind)
		case "SELL":
			if kind == matching.KindMarket {
				price = r.sim.Book().BestBid()
				if !price.IsPositive() {
					price = decimal.NewFromFloat(r.sim.CurrentPrice())
				}
			}
			placed = c.participant.PlaceSell(price, in.Quantity, kind)
		}
	})
	if !placed {
		metrics.OrdersRejected.WithLabelValues("precondition").Inc()
		return
	}
	metrics.OrdersPlaced.WithLabelValues(strings.ToLower(in.Action), strings.ToLower(in.OrderType)).Inc()
	r.pushPortfolio(c)
	r.broadcastDepth()
}

// handleShock is admin-only; a non-admin sender is silently ignored (not a
// toggle-pause, so no self-correcting echo applies).
func (r *Room) handleShock(clientID, target string) {
	if !r.isAdmin(clientID) {
		return
	}
	r.sim.Submit(func() { r.sim.AdminShock(target) })
}

// handleAdminSettings is admin-only and only valid while the simulator is
// currently paused — most settings (seed, opening price, bot roster) only
// make sense applied at simulator construction, so a change while running
// would either be silently ignored or require a full restart; this
// implementation chooses the latter, gated on the current pause state so
// an admin can re-pause a started game and still push new settings.
func (r *Room) handleAdminSettings(clientID string, raw []byte) {
	if !r.isAdmin(clientID) {
		return
	}

	if !r.sim.Paused() {
		r.sendTo(clientID, wire.NewError("settings can only change while the game is paused"))
		return
	}

	r.mu.Lock()
	current := r.settings
	r.mu.Unlock()

	partial, err := decodePartialSettings(raw, current)
	if err != nil {
		r.sendTo(clientID, wire.NewError("invalid settings payload"))
		return
	}
	partial = clampSettings(partial)

	r.mu.Lock()
	r.settings = partial
	r.mu.Unlock()

	// r.sim/r.cancel are reassigned below without holding r.mu for the
	// whole operation. That's only safe because we got here with the old
	// simulator currently paused: handleClockTick/handleTick both check
	// isPaused() first and no-op, so no callback can race the rebuild
	// even though ticks keep firing until r.cancel() lands.
	r.sim.Stop()
	r.cancel()
	r.buildSimulator()

	r.mu.Lock()
	clients := make([]*client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.Unlock()
	for _, c := range clients {
		c.participant = participant.New(c.id, c.username, decimal.NewFromFloat(partial.StartingCash), 0, r.sim.Book())
		r.sim.AddParticipant(c.participant)
		if c.transport != nil {
			r.sendResync(c)
		}
	}
}

func (r *Room) handlePowerSelect(clientID string, index int) {
	var ok bool
	r.sim.Submit(func() { ok = r.sim.Powers().Select(clientID, index) })
	if !ok {
		return
	}
	r.mu.Lock()
	c := r.clients[clientID]
	r.mu.Unlock()
	if c != nil {
		r.pushInventory(c)
	}
}

func (r *Room) handlePowerConsume(clientID, idStr string) {
	powerUUID, err := uuid.Parse(idStr)
	if err != nil {
		return
	}
	var ok bool
	var powerType string
	r.sim.Submit(func() {
		for _, inst := range r.sim.Powers().Inventory(clientID) {
			if inst.UUID == powerUUID {
				powerType = inst.Descriptor.Type
				break
			}
		}
		ok = r.sim.Powers().Consume(clientID, powerUUID)
	})
	if !ok {
		return
	}
	metrics.PowersConsumed.WithLabelValues(powerType).Inc()
	r.mu.Lock()
	c := r.clients[clientID]
	r.mu.Unlock()
	if c != nil {
		r.pushInventory(c)
	}
}

// -- outbound broadcasts (Simulator callback targets) --

func (r *Room) broadcastPrice(price float64) { r.broadcastDepth() }

func (r *Room) broadcastDepth() {
	var bids, asks []matching.DepthLevel
	r.sim.Submit(func() { bids, asks = r.sim.Book().Depth() })
	r.broadcast(wire.NewStockMovement(r.sim.CurrentPrice(), toWireDepth(bids), toWireDepth(asks)))
}

func toWireDepth(levels []matching.DepthLevel) []wire.DepthLevel {
	out := make([]wire.DepthLevel, len(levels))
	for i, l := range levels {
		price, _ := l.Price.Float64()
		out[i] = wire.DepthLevel{Price: price, Quantity: l.Quantity}
	}
	return out
}

func (r *Room) broadcastDebugPrices(intrinsic, guide float64) {
	r.broadcast(wire.NewDebugPrices(intrinsic, guide))
}

func (r *Room) broadcastClock(clock int) {
	r.mu.Lock()
	gameDurationSec := int(r.settings.GameDuration * 60)
	r.mu.Unlock()
	timeLeft := gameDurationSec - clock
	if timeLeft < 0 {
		timeLeft = 0
	}
	r.broadcast(wire.NewClock(clock, timeLeft))
}

func (r *Room) broadcastNews(title, description string, durationTicks, timestamp int) {
	r.broadcast(wire.NewNews(title, description, timestamp, durationTicks))
}

func (r *Room) broadcastPowerOffer(offer []events.PowerDescriptor) {
	views := make([]wire.PowerDescriptorView, len(offer))
	for i, d := range offer {
		views[i] = toDescriptorView(d)
	}
	r.broadcast(wire.NewPowerOffers(views))
}

func (r *Room) notifyClient(clientID, title, description string) {
	r.sendTo(clientID, wire.NewNotification("info", title, description))
}

func toDescriptorView(d events.PowerDescriptor) wire.PowerDescriptorView {
	return wire.PowerDescriptorView{
		ID: d.ID, Title: d.Title, Description: d.Description,
		Rarity: d.Rarity, Type: d.Type, IsInstant: d.IsInstant, DurationTicks: d.DurationTicks,
	}
}

// handleSimulatorEnd runs on the simulator's own tick goroutine (it is the
// Config.OnEnd callback). It force-settles any still-active powers/news
// (their onEnd must fire exactly once, per the power lifecycle invariant,
// even though the game ended before their own duration elapsed) and
// broadcasts the final standings.
func (r *Room) handleSimulatorEnd() {
	r.mu.Lock()
	r.ended = true
	clientIDs := append([]string(nil), r.order...)
	botIDs := append([]string(nil), r.bots...)
	r.mu.Unlock()

	r.sim.Powers().Close()
	r.sim.News().Close()

	price := decimal.NewFromFloat(r.sim.CurrentPrice())
	players := make([]wire.PlayerResult, 0, len(clientIDs))
	for _, id := range clientIDs {
		r.mu.Lock()
		c := r.clients[id]
		r.mu.Unlock()
		if c == nil {
			continue
		}
		players = append(players, toPlayerResult(c.username, c.participant, price))
	}

	botResults := make([]wire.PlayerResult, 0, len(botIDs))
	for _, id := range botIDs {
		ep, ok := r.sim.Participant(id)
		if !ok {
			continue
		}
		p, ok := ep.(*participant.Participant)
		if !ok {
			continue
		}
		botResults = append(botResults, toPlayerResult(id, p, price))
	}

	volume, _ := r.sim.Book().TotalValueProcessed().Float64()
	high, _ := r.sim.Book().HighestPrice().Float64()
	low, _ := r.sim.Book().LowestPrice().Float64()
	r.broadcast(wire.NewGameConclusion(players, botResults, volume, high, low))
	metrics.GamesConcluded.Inc()

	r.mu.Lock()
	rec := r.recorder
	r.mu.Unlock()
	if rec != nil {
		rec.RecordGame(GameSummary{
			RoomID: r.id, Players: players, Bots: botResults,
			VolumeTraded: volume, HighestPrice: high, LowestPrice: low,
		})
	}
}

func toPlayerResult(name string, p *participant.Participant, price decimal.Decimal) wire.PlayerResult {
	pf := p.PortfolioWithPnL(price)
	cash, _ := pf.Cash.Float64()
	pnl, _ := pf.PnL.Float64()
	return wire.PlayerResult{ID: pf.ID, Name: name, Cash: cash, Shares: pf.Shares, PnL: pnl}
}

func (r *Room) pushPortfolio(c *client) {
	if c == nil || c.transport == nil || c.participant == nil {
		return
	}
	pf := c.participant.PortfolioWithPnL(decimal.NewFromFloat(r.sim.CurrentPrice()))
	cash, _ := pf.Cash.Float64()
	pnl, _ := pf.PnL.Float64()
	c.transport.Send(mustEncode(wire.NewPortfolioUpdate(pf.ID, wire.PortfolioValue{Cash: cash, Shares: pf.Shares, PnL: pnl})))
}

func (r *Room) pushInventory(c *client) {
	if c == nil || c.transport == nil {
		return
	}
	var items []*events.PowerInstance
	r.sim.Submit(func() { items = r.sim.Powers().Inventory(c.id) })

	views := make([]wire.PowerInstanceView, len(items))
	for i, inst := range items {
		views[i] = wire.PowerInstanceView{UUID: inst.UUID.String(), Power: toDescriptorView(inst.Descriptor)}
	}
	c.transport.Send(mustEncode(wire.NewPowerInventory(views)))
}

// -- transport fan-out helpers --

func (r *Room) broadcast(msg any) {
	data := mustEncode(msg)
	r.mu.Lock()
	transports := make([]Transport, 0, len(r.clients))
	for _, c := range r.clients {
		if c.transport != nil {
			transports = append(transports, c.transport)
		}
	}
	r.mu.Unlock()
	for _, t := range transports {
		t.Send(data)
	}
}

func (r *Room) sendTo(clientID string, msg any) {
	r.mu.Lock()
	c, ok := r.clients[clientID]
	r.mu.Unlock()
	if !ok || c.transport == nil {
		return
	}
	c.transport.Send(mustEncode(msg))
}

func mustEncode(v any) []byte {
	data, err := wire.Encode(v)
	if err != nil {
		// Every message type here is a plain struct of primitives; a
		// marshal failure means a programming error, not a runtime one.
		panic(err)
	}
	return data
}

// -- disposal --

// Close disposes the room: stops the simulator, force-fires any still
// active powers'/news' onEnd (idempotent if handleSimulatorEnd already
// ran), and closes every attached transport. Safe to call more than once.
func (r *Room) Close() {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	r.disposed = true
	transports := make([]Transport, 0, len(r.clients))
	for _, c := range r.clients {
		if c.graceTimer != nil {
			c.graceTimer.Stop()
		}
		if c.transport != nil {
			transports = append(transports, c.transport)
		}
	}
	r.mu.Unlock()

	r.sim.Powers().Close()
	r.sim.News().Close()
	r.sim.Stop()
	r.cancel()

	for _, t := range transports {
		t.Close()
	}
}

// ID returns the room's identifier.
func (r *Room) ID() string { return r.id }

// IsAdmin reports whether clientID currently holds the admin role.
func (r *Room) IsAdmin(clientID string) bool { return r.isAdmin(clientID) }

// RoomSnapshot is the public, read-only view of a room's state exposed
// over HTTP; it deliberately carries less than RoomStateMsg (no per-
// client list) since it's a directory listing, not a resync payload.
type RoomSnapshot struct {
	ID           string
	Settings     wire.GameSettings
	ClientCount  int
	Started      bool
	Ended        bool
	CurrentPrice float64
}

// Snapshot returns a read-only view of the room's current state.
func (r *Room) Snapshot() RoomSnapshot {
	r.mu.Lock()
	snap := RoomSnapshot{
		ID: r.id, Settings: r.settings, ClientCount: len(r.clients),
		Started: r.started, Ended: r.ended,
	}
	r.mu.Unlock()
	snap.CurrentPrice = r.sim.CurrentPrice()
	return snap
}

// decodePartialSettings overlays a JSON partial settings object onto base:
// json.Unmarshal only sets fields present in raw, leaving the rest of out
// (a copy of base) untouched.
func decodePartialSettings(raw []byte, base wire.GameSettings) (wire.GameSettings, error) {
	out := base
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return wire.GameSettings{}, err
	}
	return out, nil
}
