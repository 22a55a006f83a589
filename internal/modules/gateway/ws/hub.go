// Package ws manages WebSocket subscribers for the game gateway.
package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frankieli/pc28_game/pkg/logger"
	"github.com/frankieli/pc28_game/pkg/metrics"
)

type CloseReason string

const (
	ReasonWriteError CloseReason = "write_error"
	ReasonPingError  CloseReason = "ping_error"
	ReasonReadError  CloseReason = "read_error"
	ReasonReplaced   CloseReason = "replaced_by_new_connection"
	ReasonShutdown   CloseReason = "server_shutdown"
)

// Client is a single WebSocket subscriber with its own bounded send queue
type Client struct {
	UserID    uint64
	Conn      *websocket.Conn
	Send      chan []byte
	hub       *Hub
	done      chan struct{}
	closeOnce sync.Once
}

// SnapshotFunc produces the current-round frame pushed to new subscribers
type SnapshotFunc func() ([]byte, bool)

// Hub fans events out to subscribers. All membership changes and
// deliveries go through the run loop, so a new subscriber always sees
// its snapshot before any later broadcast, and every subscriber sees
// broadcasts in publish order.
type Hub struct {
	clients map[*Client]struct{}
	byUser  map[uint64]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	direct     chan directMessage

	snapshot SnapshotFunc
	bufSize  int
}

type directMessage struct {
	userID  uint64
	payload []byte
}

// NewHub creates a hub whose clients buffer up to bufSize frames each
func NewHub(bufSize int) *Hub {
	if bufSize < 1 {
		bufSize = 256
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		byUser:     make(map[uint64]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		direct:     make(chan directMessage, 64),
		bufSize:    bufSize,
	}
}

// SetSnapshot installs the provider of the on-connect frame
func (h *Hub) SetSnapshot(fn SnapshotFunc) {
	h.snapshot = fn
}

// Subscribe attaches a connection and returns its client. The snapshot
// frame is queued before the client can receive any broadcast.
func (h *Hub) Subscribe(conn *websocket.Conn, userID uint64) *Client {
	c := &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, h.bufSize),
		hub:    h,
		done:   make(chan struct{}),
	}
	h.register <- c
	return c
}

// Unsubscribe detaches a client. Safe to call more than once; after the
// hub has already closed the client it is a no-op.
func (h *Hub) Unsubscribe(c *Client) {
	select {
	case h.unregister <- c:
	case <-c.done:
	}
}

// Broadcast queues a frame for every subscriber
func (h *Hub) Broadcast(payload []byte) {
	h.broadcast <- payload
}

// SendToUser queues a frame for one user's connection, if any
func (h *Hub) SendToUser(userID uint64, payload []byte) {
	h.direct <- directMessage{userID: userID, payload: payload}
}

// Run drives the hub until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				c.CloseWithReason(ReasonShutdown, nil)
			}
			h.clients = make(map[*Client]struct{})
			h.byUser = make(map[uint64]*Client)
			metrics.WSClients.Set(0)
			return

		case c := <-h.register:
			// Anonymous subscribers (user ID zero) may coexist; an
			// authenticated user keeps one connection.
			if c.UserID != 0 {
				if old, ok := h.byUser[c.UserID]; ok {
					delete(h.clients, old)
					old.CloseWithReason(ReasonReplaced, nil)
				}
				h.byUser[c.UserID] = c
			}
			h.clients[c] = struct{}{}
			if h.snapshot != nil {
				if frame, ok := h.snapshot(); ok {
					c.enqueue(frame)
				}
			}
			metrics.WSClients.Set(float64(len(h.clients)))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				if h.byUser[c.UserID] == c {
					delete(h.byUser, c.UserID)
				}
				c.CloseWithReason(ReasonShutdown, nil)
			}
			metrics.WSClients.Set(float64(len(h.clients)))

		case payload := <-h.broadcast:
			for c := range h.clients {
				c.enqueue(payload)
			}

		case msg := <-h.direct:
			if c, ok := h.byUser[msg.userID]; ok {
				c.enqueue(msg.payload)
			}
		}
	}
}

// enqueue delivers without ever blocking the run loop. When the client's
// queue is full the oldest frame is dropped to make room, so a slow
// reader lags but the publisher never waits.
func (c *Client) enqueue(payload []byte) {
	for {
		select {
		case c.Send <- payload:
			return
		default:
		}
		select {
		case <-c.Send:
			metrics.BroadcastDropped.Inc()
		default:
		}
	}
}

// CloseWithReason tears the connection down exactly once
func (c *Client) CloseWithReason(r CloseReason, err error) {
	c.closeOnce.Do(func() {
		logger.Debug(context.Background()).
			Uint64("user_id", c.UserID).
			Str("reason", string(r)).
			Err(err).
			Msg("ws connection closed")
		close(c.done)
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}

// Done reports connection teardown to pumps and tests
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// WritePump pumps queued frames to the websocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.CloseWithReason(ReasonWriteError, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.CloseWithReason(ReasonPingError, err)
				return
			}
		}
	}
}

// ReadPump consumes client frames until the connection drops. Inbound
// frames are ignored; the socket is push-only.
func (c *Client) ReadPump() {
	var readErr error
	defer func() {
		c.hub.Unsubscribe(c)
		c.CloseWithReason(ReasonReadError, readErr)
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				readErr = err
			}
			return
		}
	}
}
