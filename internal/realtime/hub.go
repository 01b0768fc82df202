// Package realtime implements the WebSocket fan-out for the dashboard.
//
// The hub is an injected registry, not a package global: handlers receive it
// from the composition root, and tests construct their own. Delivery is
// fire-and-forget with no replay for reconnecting clients.
package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const writeTimeout = 5 * time.Second

var (
	broadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remfix",
		Subsystem: "realtime",
		Name:      "broadcasts_total",
		Help:      "Events broadcast to dashboard clients, by type",
	}, []string{"type"})
	clientsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "remfix",
		Subsystem: "realtime",
		Name:      "clients",
		Help:      "Currently connected dashboard clients",
	})
)

// Conn is the slice of *websocket.Conn the hub needs. Tests substitute
// fakes; production passes gorilla connections.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// TextMessage mirrors websocket.TextMessage so callers of fake conns do not
// need gorilla imported.
const TextMessage = 1

// client pairs a connection with the mutex that serializes writes to it.
// gorilla connections support at most one concurrent writer.
type client struct {
	conn    Conn
	writeMu sync.Mutex
}

// Hub tracks connected dashboard clients and fans events out to them.
type Hub struct {
	mu      sync.Mutex
	clients map[Conn]*client
	logger  *log.Logger
}

// Option configures the hub.
type Option func(*Hub)

// WithLogger sets a custom logger.
func WithLogger(l *log.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[Conn]*client),
		logger:  log.New(log.Writer(), "[REALTIME] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Add registers a connection.
func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.clients[c] = &client{conn: c}
	}
	n := len(h.clients)
	h.mu.Unlock()
	clientsGauge.Set(float64(n))
}

// Remove unregisters a connection. Safe to call twice.
func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	clientsGauge.Set(float64(n))
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends the event to every client. A failing socket is dropped
// and closed; it never blocks delivery to the others.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Printf("marshal %s event: %v", ev.Type, err)
		return
	}
	broadcastsTotal.WithLabelValues(ev.Type).Inc()

	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.Unlock()

	for _, cl := range clients {
		cl.writeMu.Lock()
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := cl.conn.WriteMessage(TextMessage, data)
		cl.writeMu.Unlock()
		if err != nil {
			h.logger.Printf("drop client after write error: %v", err)
			h.Remove(cl.conn)
			cl.conn.Close()
		}
	}
}
