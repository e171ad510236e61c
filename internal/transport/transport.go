// Package transport upgrades incoming HTTP requests to websocket
// connections and serialises every inbound message for a room onto one
// dispatcher goroutine, satisfying the single-logical-thread model
// internal/room's package doc assumes.
package transport

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/bullpen/server/internal/metrics"
	"github.com/bullpen/server/internal/room"
	"github.com/bullpen/server/internal/wire"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RoomProvider resolves a room id to its Room, creating it if needed.
type RoomProvider interface {
	GetOrCreate(id string, settings wire.GameSettings) *room.Room
}

// client is one connected websocket peer, grounded on the teacher's
// session.Client: a buffered send channel drained by a dedicated write
// pump, closed exactly once.
type client struct {
	conn      *websocket.Conn
	sendCh    chan []byte
	done      chan struct{}
	closeOnce sync.Once
	dropped   uint64
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, sendCh: make(chan []byte, 64), done: make(chan struct{})}
}

// Send implements room.Transport. It never blocks the caller: a full
// buffer means a slow reader, and the message is dropped rather than
// stalling the room's broadcast fan-out.
func (c *client) Send(data []byte) error {
	select {
	case c.sendCh <- data:
	default:
		atomic.AddUint64(&c.dropped, 1)
		metrics.WebsocketMessagesDropped.Inc()
	}
	return nil
}

func (c *client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
	return nil
}

// dispatcher runs every AddClient/HandleInbound/RemoveClient call for one
// room on a single goroutine, the same command-channel shape
// simulator.Simulator.Submit uses to protect its own unlocked state. submit
// blocks only while the work buffer is full, and returns without queuing
// once the dispatcher is closed.
type dispatcher struct {
	work chan func()
	stop chan struct{}
}

func newDispatcher() *dispatcher {
	d := &dispatcher{work: make(chan func(), 256), stop: make(chan struct{})}
	go d.run()
	return d
}

func (d *dispatcher) run() {
	for {
		select {
		case fn := <-d.work:
			fn()
		case <-d.stop:
			return
		}
	}
}

func (d *dispatcher) submit(fn func()) {
	select {
	case d.work <- fn:
	case <-d.stop:
	}
}

func (d *dispatcher) close() {
	select {
	case <-d.stop:
	default:
		close(d.stop)
	}
}

// Hub owns one dispatcher per room with at least one connected client.
type Hub struct {
	provider RoomProvider
	log      *logrus.Logger

	mu          sync.Mutex
	dispatchers map[string]*dispatcher
}

// NewHub constructs a Hub backed by provider (normally *registry.Registry).
func NewHub(provider RoomProvider, log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{provider: provider, log: log, dispatchers: make(map[string]*dispatcher)}
}

func (h *Hub) dispatcherFor(roomID string) *dispatcher {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.dispatchers[roomID]
	if !ok {
		d = newDispatcher()
		h.dispatchers[roomID] = d
	}
	return d
}

// Handler upgrades the request to a websocket connection and attaches it
// to the room named by the "roomId" query parameter, under the client id
// named by "id" (or, when "id" is absent, the participant id carried in a
// "prevSessionData" value of the form "<roomId>-<participantId>"; generated
// if neither is present, so a fresh tab is a fresh seat) and the display
// name in "username".
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("roomId")
		if roomID == "" {
			http.Error(w, "roomId is required", http.StatusBadRequest)
			return
		}
		clientID := r.URL.Query().Get("id")
		if clientID == "" {
			prefix := roomID + "-"
			if prev := r.URL.Query().Get("prevSessionData"); len(prev) > len(prefix) && prev[:len(prefix)] == prefix {
				clientID = prev[len(prefix):]
			}
		}
		if clientID == "" {
			clientID = uuid.NewString()
		}
		username := r.URL.Query().Get("username")
		if username == "" {
			username = clientID
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.WithError(err).Warn("websocket upgrade failed")
			return
		}

		rm := h.provider.GetOrCreate(roomID, wire.DefaultGameSettings())
		d := h.dispatcherFor(roomID)
		c := newClient(conn)

		metrics.ClientsConnected.Inc()
		d.submit(func() { rm.AddClient(clientID, username, c) })

		go writePump(c)
		go readPump(c, d, rm, clientID, h.log)
	}
}

func readPump(c *client, d *dispatcher, rm *room.Room, clientID string, log *logrus.Logger) {
	defer func() {
		d.submit(func() { rm.RemoveClient(clientID) })
		c.Close()
		metrics.ClientsConnected.Dec()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithField("client_id", clientID).WithError(err).Debug("read error")
			}
			return
		}
		msg := append([]byte(nil), data...)
		d.submit(func() { rm.HandleInbound(clientID, msg) })
	}
}

func writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
