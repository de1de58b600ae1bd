package sse

import (
	"path/filepath"
	"sync"

	"github.com/kbukum/canvasflow/logger"
)

const clientBuffer = 256

// Client is one connected subscriber.
type Client struct {
	id     string
	events chan Event
	log    *logger.Logger
}

// NewClient creates a client with a buffered event channel.
func NewClient(id string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{id: id, events: make(chan Event, clientBuffer), log: log}
}

func (c *Client) ID() string { return c.id }

// Events returns the channel events are delivered on.
func (c *Client) Events() <-chan Event { return c.events }

// Send queues ev. It returns false and drops the event when the client is
// too slow to keep up.
func (c *Client) Send(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	default:
		c.log.Warn("sse client channel full, dropping event", logger.Fields(
			"client_id", c.id, "event", ev.Type))
		return false
	}
}

func (c *Client) close() { close(c.events) }

type message struct {
	pattern string
	event   Event
}

// Hub manages clients and fans out broadcasts. Run must be running for
// Register, Unregister and Broadcast to make progress.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	stopped    bool
	mu         sync.RWMutex
	log        *logger.Logger
}

var _ Broadcaster = (*Hub)(nil)

// NewHub creates a hub. A nil logger discards output.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, clientBuffer),
		done:       make(chan struct{}),
		log:        log.WithComponent("sse"),
	}
}

// Run is the hub loop. It returns after Stop, closing every client.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("sse client registered", logger.Fields("client_id", c.id, "total_clients", total))
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				c.close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("sse client unregistered", logger.Fields("client_id", c.id, "total_clients", total))
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// Stop ends Run. Calling it twice is a no-op.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

// Register adds c. Once it returns, broadcasts issued afterwards reach c.
// It returns false when the hub is stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c and closes its channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues ev for every client whose id matches pattern.
func (h *Hub) Broadcast(pattern string, ev Event) {
	select {
	case h.broadcast <- message{pattern: pattern, event: ev}:
	case <-h.done:
	}
}

func (h *Hub) fanOut(msg message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for id, c := range h.clients {
		matched, err := filepath.Match(msg.pattern, id)
		if err != nil {
			h.log.Error("sse pattern match error", logger.Fields(
				"pattern", msg.pattern, logger.FieldError, err.Error()))
			return
		}
		if matched && c.Send(msg.event) {
			sent++
		}
	}
	h.log.Debug("sse broadcast", logger.Fields("pattern", msg.pattern, "event", msg.event.Type, "delivered", sent))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
