package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub fans messages out to every connected client and numbers them.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	seq     uint64
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", "clients", n)
}

// Unregister removes a client and closes its send channel. Calling it twice
// is safe.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast stamps msg with the next sequence number and queues it on every
// client. A client whose buffer is full is marked stale; its next delivery
// is a single resync in place of everything it missed.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	msg.Seq = h.seq
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "type", msg.Type, "error", err)
		return
	}

	var resync []byte
	for c := range h.clients {
		if c.stale {
			if resync == nil {
				resync, _ = json.Marshal(Message{Seq: h.seq, Type: TypeResync})
			}
			select {
			case c.send <- resync:
				c.stale = false
			default:
			}
			continue
		}
		select {
		case c.send <- data:
		default:
			c.stale = true
			h.logger.Warn("client fell behind, resync queued", "type", msg.Type, "seq", msg.Seq)
		}
	}
}

// Seq returns the sequence number of the last broadcast.
func (h *Hub) Seq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
