package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/encoding/json"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/logger"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/metrics"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/simulation"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 30 * time.Second

	// Clients only send control frames
	maxMessageSize = 512

	// Frames buffered per client before newer ones are dropped
	clientBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// CORS middleware handles origins
		return true
	},
}

// StreamMessage is one websocket text message.
type StreamMessage struct {
	Type    string      `json:"type"` // "frame" or "end"
	Payload interface{} `json:"payload,omitempty"`
}

// EndPayload closes a stream.
type EndPayload struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

type client struct {
	hub   *Hub
	conn  *websocket.Conn
	simID string
	send  chan []byte
}

type publication struct {
	simID string
	data  []byte
	end   bool
}

// Hub fans simulation frames out to the websocket clients subscribed to
// each simulation. It implements simulation.Publisher and
// simulation.Finisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]bool

	unregister chan *client
	broadcast  chan publication
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*client]bool),
		unregister: make(chan *client),
		broadcast:  make(chan publication, 256),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for id, set := range h.clients {
			for c := range set {
				close(c.send)
				metrics.WebSocketConnections.Dec()
			}
			delete(h.clients, id)
		}
		close(h.done)
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.unregister:
			h.remove(c)

		case p := <-h.broadcast:
			h.deliver(p)
		}
	}
}

// add registers c before Serve returns, so a Finish issued afterwards is
// guaranteed to reach it.
func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		return false
	default:
	}
	set, ok := h.clients[c.simID]
	if !ok {
		set = make(map[*client]bool)
		h.clients[c.simID] = set
	}
	set[c] = true
	n := len(set)
	h.mu.Unlock()
	metrics.WebSocketConnections.Inc()
	logger.Info("stream client connected", "sim_id", c.simID, "clients", n)
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.simID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.simID)
	}
	close(c.send)
	metrics.WebSocketConnections.Dec()
	logger.Info("stream client disconnected", "sim_id", c.simID)
}

func (h *Hub) deliver(p publication) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[p.simID]
	for c := range set {
		if p.end {
			// the end message replaces the oldest queued frame if need be
			select {
			case c.send <- p.data:
			default:
				select {
				case <-c.send:
					metrics.WebSocketMessagesDropped.Inc()
				default:
				}
				c.send <- p.data
			}
			metrics.WebSocketMessagesSent.Inc()
			close(c.send)
			delete(set, c)
			metrics.WebSocketConnections.Dec()
			continue
		}
		select {
		case c.send <- p.data:
			metrics.WebSocketMessagesSent.Inc()
		default:
			// slow reader: newer frames supersede this one
			metrics.WebSocketMessagesDropped.Inc()
		}
	}
	if p.end {
		delete(h.clients, p.simID)
	}
}

// Subscribers returns the number of clients streaming simulation id.
func (h *Hub) Subscribers(id string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[id])
}

// Publish queues frame for the simulation's subscribers without blocking.
func (h *Hub) Publish(frame simulation.Frame) {
	if h.Subscribers(frame.ID) == 0 {
		return
	}
	data, err := json.Marshal(StreamMessage{Type: "frame", Payload: frame})
	if err != nil {
		logger.Error("failed to marshal frame", "sim_id", frame.ID, "error", err)
		return
	}
	select {
	case h.broadcast <- publication{simID: frame.ID, data: data}:
	default:
		metrics.WebSocketMessagesDropped.Inc()
	}
}

// Finish sends the end message and disconnects the simulation's clients.
func (h *Hub) Finish(id string, err error) {
	if h.Subscribers(id) == 0 {
		return
	}
	end := EndPayload{ID: id}
	if err != nil {
		end.Error = err.Error()
	}
	data, _ := json.Marshal(StreamMessage{Type: "end", Payload: end})
	select {
	case h.broadcast <- publication{simID: id, data: data, end: true}:
	case <-h.done:
	}
}

// Serve upgrades the request and streams simulation frames to it, starting
// with initial. A non-nil end means the simulation already stopped: the
// client gets initial and end, then the connection closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, initial simulation.Frame, end *EndPayload) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	if end != nil {
		defer conn.Close()
		for _, msg := range []StreamMessage{{Type: "frame", Payload: initial}, {Type: "end", Payload: end}} {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return nil
			}
		}
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return nil
	}

	c := &client{hub: h, conn: conn, simID: initial.ID, send: make(chan []byte, clientBuffer)}
	if data, err := json.Marshal(StreamMessage{Type: "frame", Payload: initial}); err == nil {
		c.send <- data
	}

	if !h.add(c) {
		conn.Close()
		return nil
	}
	go c.writePump()
	go c.readPump()
	return nil
}

// readPump discards client messages and notices disconnects.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("stream closed unexpectedly", "sim_id", c.simID, "error", err)
			}
			return
		}
	}
}

// writePump writes one websocket message per frame and pings idle peers.
func (c *client) writePump() {
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
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
