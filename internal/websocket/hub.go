package websocket

import (
	"context"
	"sync"

	"github.com/IdoNaor1/TasteClub/pkg/logger"
)

// Client is one websocket subscriber of a named stream.
type Client struct {
	Hub    *Hub
	Conn   *Conn
	Stream string
	UserID string
	Send   chan []byte

	closed    chan struct{}
	closeOnce sync.Once
}

// NewClient wraps conn as a subscriber of stream.
func NewClient(hub *Hub, conn *Conn, stream, userID string) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		Stream: stream,
		UserID: userID,
		Send:   make(chan []byte, sendBufferSize),
		closed: make(chan struct{}),
	}
}

// Closed is closed once the client has been unregistered.
func (c *Client) Closed() <-chan struct{} {
	return c.closed
}

func (c *Client) markClosed() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

// Hub tracks live stream clients so they can be counted and closed on shutdown.
type Hub struct {
	// stream name -> clients
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
	}
}

// Run processes registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.Stream]; !ok {
				h.clients[client.Stream] = make(map[*Client]bool)
			}
			h.clients[client.Stream][client] = true
			total := len(h.clients[client.Stream])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", logger.Fields{
				"stream":      client.Stream,
				"user_id":     client.UserID,
				"subscribers": total,
			})

		case client := <-h.unregister:
			h.remove(client)

		case <-ctx.Done():
			h.mu.Lock()
			for stream, clients := range h.clients {
				for client := range clients {
					client.markClosed()
				}
				delete(h.clients, stream)
			}
			h.mu.Unlock()
			logger.Info("WebSocket hub stopped")
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if clients, ok := h.clients[client.Stream]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.Stream)
		}
	}
	remaining := len(h.clients[client.Stream])
	h.mu.Unlock()

	client.markClosed()
	logger.Debug("WebSocket client unregistered", logger.Fields{
		"stream":      client.Stream,
		"user_id":     client.UserID,
		"subscribers": remaining,
	})
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribers returns the number of clients on stream.
func (h *Hub) Subscribers(stream string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[stream])
}
