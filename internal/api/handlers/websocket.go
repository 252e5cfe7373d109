package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/onnwee/barnes-hut-sim/internal/apierr"
	"github.com/onnwee/barnes-hut-sim/internal/circuitbreaker"
	"github.com/onnwee/barnes-hut-sim/internal/logger"
	"github.com/onnwee/barnes-hut-sim/internal/metrics"
	"github.com/onnwee/barnes-hut-sim/sim"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 30 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// How often to check whether the simulation has advanced a frame
	frameCheckInterval = 100 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now - CORS middleware handles this
		return true
	},
}

// WebSocketMessage represents a message sent to clients
type WebSocketMessage struct {
	Type    string      `json:"type"` // "frame", "error"
	Payload interface{} `json:"payload"`
}

// Client represents a WebSocket client connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of active clients and broadcasts simulation
// frame snapshots to them as the simulation advances.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	sim *sim.Simulation

	lastBroadcastFrame uint64
	stop               chan struct{}

	// breaker guards BroadcastFrame: repeated marshal failures trip it
	// so monitorFrameChanges stops re-encoding every tick and instead
	// waits out the cooldown before trying again.
	breaker *circuitbreaker.CircuitBreaker

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub that watches s for frame changes.
func NewHub(s *sim.Simulation) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		sim:        s,
		stop:       make(chan struct{}),
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "ws_broadcast",
			FailureThreshold: 3,
			SuccessThreshold: 1,
			Timeout:          5 * time.Second,
		}),
	}
}

// Run starts the hub's main loop and frame monitoring.
func (h *Hub) Run(ctx context.Context) {
	go h.monitorFrameChanges(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case <-h.stop:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.WebSocketConnections.Inc()
			logger.Info("WebSocket client connected", "total_clients", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WebSocketConnections.Dec()
				logger.Info("WebSocket client disconnected", "total_clients", len(h.clients))
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
					metrics.WebSocketConnections.Dec()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// monitorFrameChanges polls the simulation's frame counter and
// broadcasts a fresh snapshot whenever it advances.
func (h *Hub) monitorFrameChanges(ctx context.Context) {
	ticker := time.NewTicker(frameCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stop:
			return
		case <-ticker.C:
			h.mu.RLock()
			clientCount := len(h.clients)
			h.mu.RUnlock()
			if clientCount == 0 {
				continue
			}

			frame := h.sim.Frame
			if frame == h.lastBroadcastFrame {
				continue
			}
			h.lastBroadcastFrame = frame

			if err := h.breaker.Call(h.BroadcastFrame); err != nil {
				if err == circuitbreaker.ErrCircuitOpen {
					logger.Warn("frame broadcast circuit open, skipping", "frame", frame)
				} else {
					logger.Error("failed to broadcast frame", "error", err, "frame", frame)
				}
			}
		}
	}
}

// BroadcastFrame sends the current body snapshot to every connected
// client.
func (h *Hub) BroadcastFrame() error {
	bodies := make([]BodySnapshot, len(h.sim.Bodies))
	for i, b := range h.sim.Bodies {
		bodies[i] = BodySnapshot{X: b.Pos.X, Y: b.Pos.Y, VX: b.Vel.X, VY: b.Vel.Y, Mass: b.Mass, Radius: b.Radius}
	}

	msg := WebSocketMessage{
		Type:    "frame",
		Payload: BodiesResponse{Frame: h.sim.Frame, Bodies: bodies},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			logger.Warn("client send buffer full, skipping frame broadcast")
		}
	}
	metrics.WebSocketMessagesSent.Add(float64(len(h.clients)))
	return nil
}

// readPump pumps messages from the WebSocket connection to the hub.
// Clients don't send control messages over this connection today; the
// loop exists to detect disconnects and respond to pings.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket unexpected close", "error", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
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

// WebSocketHandler handles WebSocket connections for frame updates.
type WebSocketHandler struct {
	hub *Hub
	sim *sim.Simulation
}

// NewWebSocketHandler creates a new WebSocket handler and starts its
// hub in the background with a long-lived context.
func NewWebSocketHandler(s *sim.Simulation) *WebSocketHandler {
	hub := NewHub(s)
	go hub.Run(context.Background())

	return &WebSocketHandler{hub: hub, sim: s}
}

// HandleWebSocket handles WebSocket upgrade and client connection.
// GET /api/sim/ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade to WebSocket", "error", err)
		apierr.WriteErrorWithContext(w, r, apierr.SystemInternal("Failed to establish WebSocket connection"))
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.register <- client

	// Send the current state immediately so a newly connected client
	// doesn't wait for the next frame change to render anything.
	bodies := make([]BodySnapshot, len(h.sim.Bodies))
	for i, b := range h.sim.Bodies {
		bodies[i] = BodySnapshot{X: b.Pos.X, Y: b.Pos.Y, VX: b.Vel.X, VY: b.Vel.Y, Mass: b.Mass, Radius: b.Radius}
	}
	initMsg := WebSocketMessage{
		Type:    "frame",
		Payload: BodiesResponse{Frame: h.sim.Frame, Bodies: bodies},
	}
	if data, err := json.Marshal(initMsg); err == nil {
		select {
		case client.send <- data:
		default:
		}
	}

	go client.writePump()
	go client.readPump()
}

// GetHub returns the WebSocket hub for external broadcasting.
func (h *WebSocketHandler) GetHub() *Hub {
	return h.hub
}
