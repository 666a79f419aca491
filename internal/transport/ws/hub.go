package ws

import (
	"encoding/json"
	"log/slog"

	"github.com/roomyhq/roomy/internal/metrics"
)

// Hub tracks all active WebSocket sessions, keyed by user id. Delivery is
// fire-and-forget: a push to a user with no session, or with a full send
// buffer, is dropped. Persistence is the source of truth; the hub only
// shaves the poll latency for recipients that happen to be connected.
type Hub struct {
	// clients maps userID → client. One live session per user; a newer
	// connection replaces an older one.
	clients map[int64]*Client

	register   chan *Client
	unregister chan *Client
	direct     chan *directMsg

	logger *slog.Logger
}

type directMsg struct {
	userID int64
	data   []byte
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan *directMsg, 256),
		logger:     logger,
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if old, ok := h.clients[client.userID]; ok {
				h.drop(old)
			}
			h.clients[client.userID] = client
			metrics.ConnectedClients.Set(float64(len(h.clients)))
			h.logger.Info("ws client connected", "user_id", client.userID, "total", len(h.clients))

		case client := <-h.unregister:
			// A stale unregister from a replaced connection must not evict
			// the newer session for the same user.
			if current, ok := h.clients[client.userID]; ok && current.connID == client.connID {
				delete(h.clients, client.userID)
				h.drop(client)
				metrics.ConnectedClients.Set(float64(len(h.clients)))
				h.logger.Info("ws client disconnected", "user_id", client.userID, "total", len(h.clients))
			}

		case msg := <-h.direct:
			client, ok := h.clients[msg.userID]
			if !ok {
				metrics.DeliveriesDropped.Inc()
				continue
			}
			select {
			case client.send <- msg.data:
			default:
				// Buffer full: the client will catch up from the store on
				// its next history fetch.
				metrics.DeliveriesDropped.Inc()
			}
		}
	}
}

// SendToUser pushes an event to the recipient's session, if any. It never
// blocks the caller: with the routing channel congested the event is
// counted as dropped and discarded.
func (h *Hub) SendToUser(userID int64, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("ws hub marshal", "error", err)
		return
	}
	select {
	case h.direct <- &directMsg{userID: userID, data: data}:
	default:
		metrics.DeliveriesDropped.Inc()
	}
}

func (h *Hub) drop(client *Client) {
	close(client.send)
	close(client.done)
}
