// Package wire defines the numeric-tag JSON message contract a room
// exchanges with its clients. Every outbound message is a flat JSON object
// carrying a "type" field; handleControl-style decoding of inbound messages
// lives here too, mirroring how the rest of the stack keeps its wire layer
// thin and JSON-based.
package wire

import "encoding/json"

// Tag is the numeric message type carried by every envelope.
type Tag int

const (
	TagID             Tag = -1
	TagJoin           Tag = 0
	TagLeave          Tag = 1
	TagIsAdmin        Tag = 2
	TagTogglePause    Tag = 3
	TagMessage        Tag = 4
	TagError          Tag = 5
	TagPing           Tag = 6
	TagPong           Tag = 7
	TagClock          Tag = 8
	TagRoomState      Tag = 9
	TagStockAction    Tag = 10
	TagStockMovement  Tag = 11
	TagPortfolio      Tag = 12
	TagShock          Tag = 13
	TagNews           Tag = 14
	TagNotification   Tag = 15
	TagClientState    Tag = 16
	TagAdminSettings  Tag = 30
	TagGameConclusion Tag = 60
	TagPowerOffers    Tag = 80
	TagPowerSelect    Tag = 81
	TagPowerConsume   Tag = 82
	TagPowerInventory Tag = 83
	TagDebugPrices    Tag = 99
)

// Encode marshals any of this package's outbound message structs to the
// bytes a Transport sends over the wire.
func Encode(v any) ([]byte, error) { return json.Marshal(v) }

// IDMsg echoes a reconnect token back to the client it belongs to.
type IDMsg struct {
	Type Tag    `json:"type"`
	ID   string `json:"id"`
}

func NewID(id string) IDMsg { return IDMsg{Type: TagID, ID: id} }

// JoinMsg is broadcast when a client joins a room.
type JoinMsg struct {
	Type     Tag    `json:"type"`
	RoomID   string `json:"roomId"`
	ID       string `json:"id"`
	Username string `json:"username"`
}

func NewJoin(roomID, id, username string) JoinMsg {
	return JoinMsg{Type: TagJoin, RoomID: roomID, ID: id, Username: username}
}

// LeaveMsg is broadcast when a client leaves a room.
type LeaveMsg struct {
	Type   Tag    `json:"type"`
	RoomID string `json:"roomId"`
	ID     string `json:"id"`
}

func NewLeave(roomID, id string) LeaveMsg { return LeaveMsg{Type: TagLeave, RoomID: roomID, ID: id} }

// IsAdminMsg tells a client it holds the admin role. No payload beyond type.
type IsAdminMsg struct {
	Type Tag `json:"type"`
}

func NewIsAdmin() IsAdminMsg { return IsAdminMsg{Type: TagIsAdmin} }

// TogglePauseMsg reports the resulting paused state; the server echoes it
// back to a non-admin sender so the sender's UI can self-correct.
type TogglePauseMsg struct {
	Type   Tag  `json:"type"`
	Paused bool `json:"paused"`
}

func NewTogglePause(paused bool) TogglePauseMsg {
	return TogglePauseMsg{Type: TagTogglePause, Paused: paused}
}

// ChatMsg carries free-form room chat, inbound or broadcast.
type ChatMsg struct {
	Type    Tag    `json:"type"`
	RoomID  string `json:"roomId"`
	ID      string `json:"id"`
	Content string `json:"content"`
}

func NewChat(roomID, id, content string) ChatMsg {
	return ChatMsg{Type: TagMessage, RoomID: roomID, ID: id, Content: content}
}

// ErrorMsg reports a precondition or authorisation failure to one sender.
type ErrorMsg struct {
	Type    Tag    `json:"type"`
	Message string `json:"message"`
}

func NewError(message string) ErrorMsg { return ErrorMsg{Type: TagError, Message: message} }

type PingMsg struct {
	Type Tag `json:"type"`
}

func NewPing() PingMsg { return PingMsg{Type: TagPing} }

type PongMsg struct {
	Type Tag `json:"type"`
}

func NewPong() PongMsg { return PongMsg{Type: TagPong} }

// ClockMsg reports the current clock tick and seconds remaining.
type ClockMsg struct {
	Type     Tag `json:"type"`
	Value    int `json:"value"`
	TimeLeft int `json:"timeLeft"`
}

func NewClock(value, timeLeft int) ClockMsg {
	return ClockMsg{Type: TagClock, Value: value, TimeLeft: timeLeft}
}

// ClientView is one room-state client entry.
type ClientView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
	Bot      bool   `json:"bot"`
}

// RoomStateMsg is the full resync payload sent on join/reconnect.
type RoomStateMsg struct {
	Type     Tag          `json:"type"`
	Paused   bool         `json:"paused"`
	Started  bool         `json:"started"`
	Ended    bool         `json:"ended"`
	Settings GameSettings `json:"settings"`
	RoomID   string       `json:"roomId"`
	Clock    int          `json:"clock"`
	Clients  []ClientView `json:"clients"`
	Price    float64      `json:"price"`
}

func NewRoomState(paused, started, ended bool, settings GameSettings, roomID string, clock int, clients []ClientView, price float64) RoomStateMsg {
	return RoomStateMsg{
		Type: TagRoomState, Paused: paused, Started: started, Ended: ended,
		Settings: settings, RoomID: roomID, Clock: clock, Clients: clients, Price: price,
	}
}

// StockActionMsg is a client's order submission.
type StockActionMsg struct {
	Type      Tag     `json:"type"`
	Action    string  `json:"action"`    // BUY | SELL
	OrderType string  `json:"orderType"` // LIMIT | MARKET
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
}

// DepthLevel is one [price, quantity] pair in a StockMovementMsg.
type DepthLevel struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// StockMovementMsg reports the latest price and book depth.
type StockMovementMsg struct {
	Type  Tag          `json:"type"`
	Price float64      `json:"price"`
	Bids  []DepthLevel `json:"bids"`
	Asks  []DepthLevel `json:"asks"`
}

func NewStockMovement(price float64, bids, asks []DepthLevel) StockMovementMsg {
	return StockMovementMsg{Type: TagStockMovement, Price: price, Bids: bids, Asks: asks}
}

// PortfolioValue is the cash/shares/pnl triple inside a PortfolioUpdateMsg.
type PortfolioValue struct {
	Cash   float64 `json:"cash"`
	Shares int64   `json:"shares"`
	PnL    float64 `json:"pnl"`
}

type PortfolioUpdateMsg struct {
	Type  Tag            `json:"type"`
	ID    string         `json:"id"`
	Value PortfolioValue `json:"value"`
}

func NewPortfolioUpdate(id string, value PortfolioValue) PortfolioUpdateMsg {
	return PortfolioUpdateMsg{Type: TagPortfolio, ID: id, Value: value}
}

// ShockMsg is an admin-only request to jolt the intrinsic or market price.
type ShockMsg struct {
	Type   Tag    `json:"type"`
	Target string `json:"target"` // intrinsic | market
}

// NewsMsg reports an in-game news item to all clients.
type NewsMsg struct {
	Type          Tag    `json:"type"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Timestamp     int    `json:"timestamp"`
	DurationTicks int    `json:"durationTicks"`
}

func NewNews(title, description string, timestamp, durationTicks int) NewsMsg {
	return NewsMsg{Type: TagNews, Title: title, Description: description, Timestamp: timestamp, DurationTicks: durationTicks}
}

// NotificationMsg is a one-off toast aimed at a single client.
type NotificationMsg struct {
	Type        Tag    `json:"type"`
	Level       string `json:"level"` // info | warning | error | success
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func NewNotification(level, title, description string) NotificationMsg {
	return NotificationMsg{Type: TagNotification, Level: level, Title: title, Description: description}
}

// ClientStateMsg tells a client whether its trading is currently disabled.
type ClientStateMsg struct {
	Type     Tag  `json:"type"`
	Disabled bool `json:"disabled"`
}

func NewClientState(disabled bool) ClientStateMsg {
	return ClientStateMsg{Type: TagClientState, Disabled: disabled}
}

// AdminSettingsMsg carries a partial GameSettings update from the admin.
type AdminSettingsMsg struct {
	Type     Tag             `json:"type"`
	Settings json.RawMessage `json:"settings"`
}

// PlayerResult is one row of a GameConclusionMsg.
type PlayerResult struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Cash   float64 `json:"cash"`
	Shares int64   `json:"shares"`
	PnL    float64 `json:"pnl"`
}

// GameConclusionMsg is broadcast once, when the simulator ends.
type GameConclusionMsg struct {
	Type         Tag            `json:"type"`
	Players      []PlayerResult `json:"players"`
	Bots         []PlayerResult `json:"bots"`
	VolumeTraded float64        `json:"volumeTraded"`
	HighestPrice float64        `json:"highestPrice"`
	LowestPrice  float64        `json:"lowestPrice"`
}

func NewGameConclusion(players, bots []PlayerResult, volumeTraded, highest, lowest float64) GameConclusionMsg {
	return GameConclusionMsg{
		Type: TagGameConclusion, Players: players, Bots: bots,
		VolumeTraded: volumeTraded, HighestPrice: highest, LowestPrice: lowest,
	}
}

// PowerDescriptorView is one entry of a briefcase offer.
type PowerDescriptorView struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Rarity        float64 `json:"rarity"`
	Type          string  `json:"type"`
	IsInstant     bool    `json:"isInstant"`
	DurationTicks int     `json:"durationTicks"`
}

type PowerOffersMsg struct {
	Type  Tag                   `json:"type"`
	Offer []PowerDescriptorView `json:"offer"`
}

func NewPowerOffers(offer []PowerDescriptorView) PowerOffersMsg {
	return PowerOffersMsg{Type: TagPowerOffers, Offer: offer}
}

// PowerSelectMsg is a client's response to a briefcase offer.
type PowerSelectMsg struct {
	Type  Tag `json:"type"`
	Index int `json:"index"`
}

// PowerConsumeMsg asks the room to consume one inventory item by id.
type PowerConsumeMsg struct {
	Type Tag    `json:"type"`
	ID   string `json:"id"`
}

// PowerInstanceView is one entry of a PowerInventoryMsg.
type PowerInstanceView struct {
	UUID  string              `json:"uuid"`
	Power PowerDescriptorView `json:"power"`
}

type PowerInventoryMsg struct {
	Type  Tag                 `json:"type"`
	Items []PowerInstanceView `json:"items"`
}

func NewPowerInventory(items []PowerInstanceView) PowerInventoryMsg {
	return PowerInventoryMsg{Type: TagPowerInventory, Items: items}
}

// DebugPricesMsg exposes the hidden intrinsic value alongside the guide
// price, for debugging/spectator tooling.
type DebugPricesMsg struct {
	Type           Tag     `json:"type"`
	IntrinsicValue float64 `json:"intrinsicValue"`
	GuidePrice     float64 `json:"guidePrice"`
}

func NewDebugPrices(intrinsic, guide float64) DebugPricesMsg {
	return DebugPricesMsg{Type: TagDebugPrices, IntrinsicValue: intrinsic, GuidePrice: guide}
}

// GameSettings is the room configuration exchanged over the wire. Field
// order and defaults match the documented tuple
// (startingCash, openingPrice, seed, marketVolatility, gameDuration,
// enableRandomNews, bots, ticketName).
type GameSettings struct {
	StartingCash     float64  `json:"startingCash"`
	OpeningPrice     float64  `json:"openingPrice"`
	Seed             int64    `json:"seed"`
	MarketVolatility float64  `json:"marketVolatility"` // percent, e.g. 5 means 5%
	GameDuration     float64  `json:"gameDuration"`     // minutes
	EnableRandomNews bool     `json:"enableRandomNews"`
	Bots             int      `json:"bots"`
	TicketName       string   `json:"ticketName"`
	BotSelection     []string `json:"botSelection,omitempty"`
}

// DefaultGameSettings matches the documented defaults.
func DefaultGameSettings() GameSettings {
	return GameSettings{
		StartingCash:     10_000,
		OpeningPrice:     1,
		Seed:             42,
		MarketVolatility: 5,
		GameDuration:     5,
		EnableRandomNews: true,
		Bots:             0,
		TicketName:       "AAPL",
	}
}

// Inbound is the generic envelope a room decodes every client message into
// first, mirroring the teacher's single flat control-message struct: one
// shape wide enough for every action, with fields the current action
// ignores left at their zero value.
type Inbound struct {
	Type      Tag             `json:"type"`
	Action    string          `json:"action,omitempty"`
	OrderType string          `json:"orderType,omitempty"`
	Quantity  int64           `json:"quantity,omitempty"`
	Price     float64         `json:"price,omitempty"`
	Content   string          `json:"content,omitempty"`
	Target    string          `json:"target,omitempty"`
	Settings  json.RawMessage `json:"settings,omitempty"`
	Index     int             `json:"index,omitempty"`
	ID        string          `json:"id,omitempty"`
}

// Decode parses a raw client message into an Inbound envelope.
func Decode(data []byte) (Inbound, error) {
	var in Inbound
	err := json.Unmarshal(data, &in)
	return in, err
}
