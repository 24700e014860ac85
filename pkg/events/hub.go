// Package events provides a WebSocket event hub that broadcasts nested
// sampling iteration progress (spec §6's event_sinks) to connected
// clients in real time.
package events

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nsforge/nstool/pkg/engine"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 256
)

// Channel names for subscriptions.
const (
	ChannelIterations = "iterations"
	ChannelStatus     = "status"
)

// Event types for hub messages.
const (
	EventTypeIteration = "iteration"
	EventTypeStatus    = "status"
	EventTypePong      = "pong"
	EventTypeSubscribe = "subscribe"
	EventTypePing      = "ping"
	EventTypeError     = "error"
)

// Message is the standard event envelope sent to clients.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
	Channels  []string    `json:"channels,omitempty"`
}

// IterationData is the wire form of an engine.IterationRecord.
type IterationData struct {
	Iteration  int     `json:"iteration"`
	Ecut       float64 `json:"ecut"`
	Stepsize   float64 `json:"stepsize"`
	AcceptRate float64 `json:"acceptRate"`
	EMinLive   float64 `json:"eMinLive"`
	EMaxLive   float64 `json:"eMaxLive"`
}

// StatusData announces a run's terminal status.
type StatusData struct {
	Status     string `json:"status"`
	Iterations int    `json:"iterations"`
	Err        string `json:"err,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SetUpgraderCheckOrigin allows customizing the origin check function.
func SetUpgraderCheckOrigin(fn func(*http.Request) bool) {
	upgrader.CheckOrigin = fn
}

// Client is a single WebSocket client connection to the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	subscriptions map[string]bool
	subMu         sync.RWMutex
}

// NewClient creates a new WebSocket client bound to hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, sendBufferSize),
		subscriptions: make(map[string]bool),
	}
}

// Subscribe adds channel subscriptions for this client.
func (c *Client) Subscribe(channels ...string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range channels {
		c.subscriptions[ch] = true
	}
}

// IsSubscribed reports whether the client is subscribed to channel.
func (c *Client) IsSubscribed(channel string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return c.subscriptions[channel]
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[events] read error: %v", err)
			}
			break
		}
		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(message []byte) {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		c.sendError("invalid_json", "failed to parse message")
		return
	}

	switch msg.Type {
	case EventTypeSubscribe:
		c.handleSubscribe(msg)
	case EventTypePing:
		c.handlePing()
	default:
		log.Printf("[events] unknown message type: %s", msg.Type)
	}
}

func (c *Client) handleSubscribe(msg Message) {
	if len(msg.Channels) == 0 {
		c.sendError("invalid_subscribe", "no channels specified")
		return
	}
	valid := make([]string, 0, len(msg.Channels))
	for _, ch := range msg.Channels {
		switch ch {
		case ChannelIterations, ChannelStatus:
			valid = append(valid, ch)
		default:
			log.Printf("[events] unknown channel: %s", ch)
		}
	}
	if len(valid) > 0 {
		c.Subscribe(valid...)
	}
}

func (c *Client) handlePing() {
	pong := Message{Type: EventTypePong, Timestamp: time.Now().UTC().Format(time.RFC3339)}
	data, err := json.Marshal(pong)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(code, message string) {
	errMsg := Message{
		Type:      EventTypeError,
		Data:      map[string]string{"code": code, "message": message},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(errMsg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub maintains the set of connected clients and broadcasts nested
// sampling iteration events to them. Hub implements engine.IterationObserver
// so it can be registered directly via Engine.AddObserver.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu   sync.RWMutex
	done chan struct{}
}

// NewHub creates a new event hub. Run must be started in its own
// goroutine before clients can connect.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run drives the hub's main loop until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop gracefully stops the hub and disconnects all clients.
func (h *Hub) Stop() {
	close(h.done)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastToChannel(channel string, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.IsSubscribed(channel) {
			select {
			case client.send <- data:
			default:
			}
		}
	}
}

// OnIteration implements engine.IterationObserver, broadcasting each
// completed iteration to clients subscribed to ChannelIterations.
func (h *Hub) OnIteration(rec engine.IterationRecord) {
	msg := &Message{
		Type: EventTypeIteration,
		Data: IterationData{
			Iteration:  rec.Iteration,
			Ecut:       rec.Ecut,
			Stepsize:   rec.Stepsize,
			AcceptRate: rec.AcceptRate,
			EMinLive:   rec.EMinLive,
			EMaxLive:   rec.EMaxLive,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	h.broadcastToChannel(ChannelIterations, msg)
}

// BroadcastStatus announces a run's terminal status to clients
// subscribed to ChannelStatus.
func (h *Hub) BroadcastStatus(status string, iterations int, runErr error) {
	data := StatusData{Status: status, Iterations: iterations}
	if runErr != nil {
		data.Err = runErr.Error()
	}
	msg := &Message{Type: EventTypeStatus, Data: data, Timestamp: time.Now().UTC().Format(time.RFC3339)}
	h.broadcastToChannel(ChannelStatus, msg)
}

// Handler upgrades HTTP requests to WebSocket connections and registers
// the resulting client with the hub.
type Handler struct {
	hub *Hub
}

// NewHandler creates a new WebSocket handler bound to hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] upgrade error: %v", err)
		return
	}

	client := NewClient(h.hub, conn)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}
