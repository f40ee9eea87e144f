package checkout

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Client is one websocket subscriber to a checkout.
type Client struct {
	Send       chan []byte
	CheckoutID string
}

type broadcastMsg struct {
	CheckoutID string
	Data       []byte
}

// Hub fans checkout views out to the websocket clients watching them.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	done       chan struct{}
	mu         sync.Mutex
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, clients := range h.rooms {
				for c := range clients {
					close(c.Send)
				}
				delete(h.rooms, id)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.CheckoutID] == nil {
				h.rooms[c.CheckoutID] = make(map[*Client]bool)
			}
			h.rooms[c.CheckoutID][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if clients := h.rooms[c.CheckoutID]; clients[c] {
				delete(clients, c)
				close(c.Send)
				if len(clients) == 0 {
					delete(h.rooms, c.CheckoutID)
				}
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.rooms[m.CheckoutID] {
				select {
				case c.Send <- m.Data:
				default:
					// slow reader
					close(c.Send)
					delete(h.rooms[m.CheckoutID], c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues v for the watchers of checkoutID. It never blocks; when the
// queue is full the update is dropped and watchers catch up on the next one.
func (h *Hub) Publish(checkoutID string, v View) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("marshal checkout view", zap.String("checkout_id", checkoutID), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- broadcastMsg{CheckoutID: checkoutID, Data: data}:
	default:
		h.logger.Warn("checkout update dropped", zap.String("checkout_id", checkoutID))
	}
}

// Register subscribes c. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
