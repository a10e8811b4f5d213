package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	engine "zecbay-auction/internal/auctionEngine"
	"zecbay-auction/utils"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

// Hub fans authoritative auction snapshots out to websocket subscribers.
// Clients subscribe per auction and only ever render what the server
// pushes; they never run their own countdown.
type Hub struct {
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	subscribers map[string]map[*client]struct{} // key: auctionID -> subscribed clients
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a new snapshot hub
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subscribers: make(map[string]map[*client]struct{}),
	}
}

// Broadcast pushes a snapshot to every subscriber of the auction. Slow
// consumers are dropped rather than allowed to stall the tick loop.
func (h *Hub) Broadcast(auctionID string, snap engine.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		utils.Error("stream: failed to marshal snapshot", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	// Sends happen under the read lock: close only ever runs under the
	// write lock, so a subscriber's channel cannot be closed mid-send.
	var stalled []*client
	h.mu.RLock()
	for c := range h.subscribers[auctionID] {
		select {
		case c.send <- payload:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		h.unsubscribe(auctionID, c)
	}
}

// ServeWS upgrades the request to a websocket subscription on auctionID
// and immediately sends the current snapshot so the client has
// authoritative state before the next tick arrives.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, auctionID string, initial engine.Snapshot) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Warn("stream: websocket upgrade failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	if h.subscribers[auctionID] == nil {
		h.subscribers[auctionID] = make(map[*client]struct{})
	}
	h.subscribers[auctionID][c] = struct{}{}
	h.mu.Unlock()

	if payload, err := json.Marshal(initial); err == nil {
		select {
		case c.send <- payload:
		default:
		}
	}

	go h.writePump(auctionID, c)
	go h.readPump(auctionID, c)
}

// SubscriberCount returns the number of clients subscribed to an auction.
func (h *Hub) SubscriberCount(auctionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[auctionID])
}

// writePump drains the client's send channel onto the connection.
func (h *Hub) writePump(auctionID string, c *client) {
	defer c.conn.Close()

	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.unsubscribe(auctionID, c)
			return
		}
	}
}

// readPump discards inbound frames and detects disconnects. The stream is
// one-way: all writes come through the engine's HTTP surface.
func (h *Hub) readPump(auctionID string, c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.unsubscribe(auctionID, c)
			return
		}
	}
}

func (h *Hub) unsubscribe(auctionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.subscribers[auctionID]; ok {
		if _, subscribed := subs[c]; subscribed {
			delete(subs, c)
			close(c.send)
			if len(subs) == 0 {
				delete(h.subscribers, auctionID)
			}
		}
	}
}
