// Package stream serves scene snapshots over HTTP and websockets and lets
// clients read and change the time scale.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/plus3/orrery/solar"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	pongTimeout  = 40 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub is a solar.Sink that keeps the latest snapshot and broadcasts snapshots
// to websocket clients. Broadcasts are throttled; the latest snapshot is not.
// A slow client loses its oldest queued snapshot rather than stalling the scene.
type Hub struct {
	logger  *zap.Logger
	limiter *rate.Limiter

	mu         sync.Mutex
	clients    map[*client]struct{}
	latest     solar.Snapshot
	latestData []byte
	hasLatest  bool
	closed     bool
	broadcasts int
	dropped    int
}

// NewHub returns a hub broadcasting at most limit snapshots per second.
// A limit of zero or less disables throttling.
func NewHub(logger *zap.Logger, limit rate.Limit) *Hub {
	if limit <= 0 {
		limit = rate.Inf
	}
	return &Hub{
		logger:  logger,
		limiter: rate.NewLimiter(limit, 1),
		clients: make(map[*client]struct{}),
	}
}

// Publish records s as the latest snapshot and, if the rate limit allows,
// queues it for every connected client. It never blocks.
func (h *Hub) Publish(s solar.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = s
	h.hasLatest = true
	h.latestData = nil

	if len(h.clients) == 0 || !h.limiter.Allow() {
		return
	}

	data, err := h.encodeLatest()
	if err != nil {
		h.logger.Error("encode snapshot", zap.Int64("frame", s.Frame), zap.Error(err))
		return
	}

	h.broadcasts++
	for c := range h.clients {
		h.enqueue(c, data)
	}
}

// enqueue must be called with h.mu held.
func (h *Hub) enqueue(c *client, data []byte) {
	for {
		select {
		case c.send <- data:
			return
		default:
		}
		select {
		case <-c.send:
			h.dropped++
		default:
		}
	}
}

// encodeLatest must be called with h.mu held.
func (h *Hub) encodeLatest() ([]byte, error) {
	if h.latestData == nil {
		data, err := json.Marshal(h.latest)
		if err != nil {
			return nil, err
		}
		h.latestData = data
	}
	return h.latestData, nil
}

// Latest returns the most recently published snapshot.
func (h *Hub) Latest() (solar.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest, h.hasLatest
}

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket and streams snapshots to it,
// starting with the latest one. After Close it answers 503.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.isClosed() {
		http.Error(w, "hub closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub closed"),
			time.Now().Add(writeTimeout))
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.hasLatest {
		if data, err := h.encodeLatest(); err == nil {
			c.send <- data
		}
	}
	h.mu.Unlock()

	h.logger.Debug("websocket connected", zap.String("remote", r.RemoteAddr))

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump discards client messages; it exists to process control frames and
// notice when the peer goes away.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("websocket write", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
