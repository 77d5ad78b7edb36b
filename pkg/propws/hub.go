// Package propws streams property changes to websocket clients.
//
// A Hub keeps the set of connected clients. Watch subscribes a property
// with deferred delivery, so change messages are produced on the reactor
// goroutine in the order the changes happened, and fanned out to every
// client:
//
//	hub := propws.NewHub()
//	propws.Watch(hub, port)
//	http.HandleFunc("/watch", hub.HandleWebSocket)
//
// New clients first receive one "snapshot" message per watched property,
// then a "change" message for every later notification.
package propws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/prop/pkg/prop"
)

// MessageType is the kind of a feed message.
type MessageType string

const (
	MessageSnapshot MessageType = "snapshot"
	MessageChange   MessageType = "change"
)

// Message is sent to clients as JSON.
type Message struct {
	Type   MessageType `json:"type"`
	Seq    uint64      `json:"seq"`
	Name   string      `json:"name"`
	Value  string      `json:"value"`
	TypeID uint32      `json:"typeId"`
}

const writeTimeout = 5 * time.Second

// Hub manages websocket clients of the change feed.
type Hub struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger

	// sendMu serializes writes; a websocket connection allows one writer.
	sendMu sync.Mutex

	seq atomic.Uint64

	watchMu sync.Mutex
	watched []*watch
}

// watch owns a handle to a watched property. p is nil once the watch is
// closed; deferred notifications still queued then find nothing to send.
type watch struct {
	mu   sync.Mutex
	p    prop.Property
	conn *prop.Connection
}

func (w *watch) message(h *Hub, t MessageType) (Message, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.p == nil {
		return Message{}, false
	}
	return h.message(t, w.p), true
}

func (w *watch) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.p == nil {
		return
	}
	w.conn.Disconnect()
	w.p.Release()
	w.p = nil
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithCheckOrigin sets the origin check of the websocket upgrade.
// By default all origins are accepted.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}

// NewHub creates a hub without clients.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: slog.Default().With("component", "propws"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleWebSocket upgrades the request, sends the snapshot and keeps the
// client registered until it disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	// Writes are held off until the snapshot is out, so a concurrent
	// broadcast cannot overtake it.
	h.sendMu.Lock()
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	for _, msg := range h.snapshot() {
		if err := h.write(conn, msg); err != nil {
			h.sendMu.Unlock()
			h.drop(conn)
			return
		}
	}
	h.sendMu.Unlock()
	h.logger.Debug("watcher connected", "remote", req.RemoteAddr)

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(conn)
}

// Watch subscribes the hub to p. Every notification of p is broadcast as
// a change message carrying the value at delivery time. opts are passed to
// Connect; delivery is deferred unless they say otherwise.
//
// The hub watches through its own copy of p, so the caller may release p
// at any time. The copy keeps the property alive until Close.
func Watch(h *Hub, p prop.Property, opts ...prop.ConnectOption) *prop.Connection {
	w := &watch{p: p.CopyProperty()}
	w.conn = w.p.Connect(func() {
		if msg, ok := w.message(h, MessageChange); ok {
			h.Broadcast(msg)
		}
	}, opts...)

	h.watchMu.Lock()
	h.watched = append(h.watched, w)
	h.watchMu.Unlock()
	return w.conn
}

// Broadcast sends msg to all connected clients. Clients that fail to
// receive it are dropped.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := h.send(client, msg); err != nil {
			h.logger.Debug("dropping watcher", "error", err)
			h.drop(client)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all watches, releases their handles and closes all
// client connections.
func (h *Hub) Close() {
	h.watchMu.Lock()
	watched := h.watched
	h.watched = nil
	h.watchMu.Unlock()
	for _, w := range watched {
		w.close()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

func (h *Hub) message(t MessageType, p prop.Property) Message {
	return Message{
		Type:   t,
		Seq:    h.seq.Add(1),
		Name:   p.Name(),
		Value:  p.Text(),
		TypeID: uint32(p.TypeID()),
	}
}

func (h *Hub) snapshot() []Message {
	h.watchMu.Lock()
	watched := slices.Clone(h.watched)
	h.watchMu.Unlock()

	msgs := make([]Message, 0, len(watched))
	for _, w := range watched {
		if msg, ok := w.message(h, MessageSnapshot); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func (h *Hub) send(conn *websocket.Conn, msg Message) error {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	return h.write(conn, msg)
}

// write sends msg to conn. The caller holds sendMu.
func (h *Hub) write(conn *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()

	if ok {
		conn.Close()
	}
}
