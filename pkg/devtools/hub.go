package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/observer/internal/errors"
	"github.com/vango-dev/observer/pkg/observer"
)

// EventType identifies a core event.
type EventType string

const (
	EventObserver EventType = "observer"
	EventNotify   EventType = "notify"
	EventWarning  EventType = "warning"
)

// Event is sent to clients as one JSON text message.
type Event struct {
	Type        EventType `json:"type"`
	Time        time.Time `json:"time"`
	Kind        string    `json:"kind,omitempty"`
	Dep         uint64    `json:"dep,omitempty"`
	Subscribers int       `json:"subscribers,omitempty"`
	Code        string    `json:"code,omitempty"`
	Message     string    `json:"message,omitempty"`
}

// Hub fans core events out to websocket clients.
//
// Hook callbacks never block on the network: events are queued and written
// by a single goroutine. When the queue is full, events are dropped.
type Hub struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger

	queue     chan Event
	dropped   int
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a hub and starts its writer.
func NewHub(readBufferSize, writeBufferSize, queueSize int, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true // local inspector
			},
		},
		logger: logger,
		queue:  make(chan Event, queueSize),
		done:   make(chan struct{}),
	}
	go h.run()
	return h
}

// HandleWebSocket upgrades the request and keeps the client until it
// disconnects. Client messages are read and discarded.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("devtools upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Publish queues ev for every client.
func (h *Hub) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	select {
	case <-h.done:
	case h.queue <- ev:
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (h *Hub) Dropped() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case ev := <-h.queue:
			h.broadcast(ev)
		}
	}
}

// broadcast writes ev to all clients, dropping clients that fail.
func (h *Hub) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()
			client.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops the writer and closes all client connections.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

// ObserverCreated implements observer.Hooks.
func (h *Hub) ObserverCreated(ob *observer.Observer) {
	h.Publish(Event{Type: EventObserver, Kind: ob.Kind()})
}

// Notified implements observer.Hooks.
func (h *Hub) Notified(d *observer.Dep, subscribers int) {
	h.Publish(Event{Type: EventNotify, Dep: d.ID(), Subscribers: subscribers})
}

// NotifyDone implements observer.Hooks.
func (h *Hub) NotifyDone(*observer.Dep) {}

// Warned implements observer.Hooks.
func (h *Hub) Warned(err error) {
	ev := Event{Type: EventWarning, Code: errors.Code(err)}
	if err != nil {
		ev.Message = err.Error()
	}
	h.Publish(ev)
}

var _ observer.Hooks = (*Hub)(nil)
